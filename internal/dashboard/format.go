package dashboard

import (
	"fmt"
	"strings"
)

// Formatters render nullable metrics for display. Nil and zero values print
// as "-".

// FormatMoney formats a dollar amount with T/B/M suffixes.
func FormatMoney(v *float64) string {
	if isBlank(v) {
		return "-"
	}
	n := *v
	switch {
	case n >= 1e12:
		return fmt.Sprintf("$%.2fT", n/1e12)
	case n >= 1e9:
		return fmt.Sprintf("$%.2fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("$%.2fM", n/1e6)
	default:
		return fmt.Sprintf("$%.0f", n)
	}
}

// FormatVolume formats a share count with M/K suffixes.
func FormatVolume(v *float64) string {
	if isBlank(v) {
		return "-"
	}
	n := *v
	switch {
	case n >= 1e6:
		return fmt.Sprintf("%.2fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.2fK", n/1e3)
	default:
		return fmt.Sprintf("%.0f", n)
	}
}

// FormatPercent formats a fraction as a percentage with two decimals.
func FormatPercent(v *float64) string {
	if isBlank(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

// FormatSignedPercent is FormatPercent with a leading + for gains.
func FormatSignedPercent(v *float64) string {
	s := FormatPercent(v)
	if s != "-" && *v > 0 {
		return "+" + s
	}
	return s
}

// FormatPrice formats a price as $X.XX.
func FormatPrice(v *float64) string {
	if isBlank(v) {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *v)
}

// FormatNumber formats a plain number with the given decimals.
func FormatNumber(v *float64, decimals int) string {
	if isBlank(v) {
		return "-"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}

// FormatScore formats an investor score without decimals.
func FormatScore(v *float64) string {
	return FormatNumber(v, 0)
}

// FormatCountry returns the ISO code of a country name, or "-".
func FormatCountry(country string) string {
	if code, ok := countryCodes[strings.TrimSpace(country)]; ok {
		return code
	}
	return "-"
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if len(s) > 3 {
		var b strings.Builder
		head := len(s) % 3
		if head > 0 {
			b.WriteString(s[:head])
		}
		for i := head; i < len(s); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}

func isBlank(v *float64) bool {
	return v == nil || *v == 0
}

var countryCodes = map[string]string{
	"USA":            "US",
	"China":          "CN",
	"Canada":         "CA",
	"United Kingdom": "GB",
	"Germany":        "DE",
	"France":         "FR",
	"Japan":          "JP",
	"India":          "IN",
	"Brazil":         "BR",
	"Australia":      "AU",
	"South Korea":    "KR",
	"Israel":         "IL",
	"Netherlands":    "NL",
	"Sweden":         "SE",
	"Switzerland":    "CH",
	"Spain":          "ES",
	"Italy":          "IT",
	"Taiwan":         "TW",
	"Singapore":      "SG",
	"Hong Kong":      "HK",
	"Mexico":         "MX",
	"Ireland":        "IE",
	"Belgium":        "BE",
	"Denmark":        "DK",
	"Norway":         "NO",
	"Finland":        "FI",
	"Poland":         "PL",
	"Russia":         "RU",
	"Argentina":      "AR",
	"Chile":          "CL",
	"New Zealand":    "NZ",
	"South Africa":   "ZA",
	"Luxembourg":     "LU",
	"Austria":        "AT",
	"Portugal":       "PT",
	"Greece":         "GR",
	"Turkey":         "TR",
	"UAE":            "AE",
	"Saudi Arabia":   "SA",
	"Malaysia":       "MY",
	"Thailand":       "TH",
	"Indonesia":      "ID",
	"Vietnam":        "VN",
	"Philippines":    "PH",
	"Colombia":       "CO",
	"Peru":           "PE",
	"Panama":         "PA",
	"Egypt":          "EG",
	"Qatar":          "QA",
	"Kuwait":         "KW",
	"Bermuda":        "BM",
	"Cayman Islands": "KY",
	"Jersey":         "JE",
	"Guernsey":       "GG",
	"Isle of Man":    "IM",
	"Cyprus":         "CY",
	"Malta":          "MT",
	"Monaco":         "MC",
	"Liechtenstein":  "LI",
}
