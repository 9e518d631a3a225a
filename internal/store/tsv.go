package store

import (
	"bufio"
	"errors"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"screener/internal/domain"
)

// tsvReader splits tab-delimited text into trimmed records. Quotes carry no
// meaning and blank lines are skipped. Records shorter than the header are
// padded with empty values.
type tsvReader struct {
	sc     *bufio.Scanner
	width  int
	header bool
}

func newTSVReader(r io.Reader) *tsvReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &tsvReader{sc: sc}
}

func (t *tsvReader) Read() ([]string, error) {
	for t.sc.Scan() {
		line := t.sc.Text()
		if !t.header {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if !t.header {
			t.header = true
			t.width = len(fields)
		} else {
			for len(fields) < t.width {
				fields = append(fields, "")
			}
		}
		return fields, nil
	}
	if err := t.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (t *tsvReader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := t.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// ParseSnapshots decodes a tab-delimited snapshot file with a header row.
// Empty input yields no snapshots; rows without a ticker are dropped.
func ParseSnapshots(r io.Reader) ([]domain.StockSnapshot, error) {
	var rows []domain.RawSnapshot
	if err := gocsv.UnmarshalCSV(newTSVReader(r), &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []domain.StockSnapshot{}, nil
		}
		return nil, err
	}
	return domain.NewCollection(rows), nil
}

// WriteSnapshots encodes raw rows as a tab-delimited file with a header.
func WriteSnapshots(w io.Writer, rows []domain.RawSnapshot) error {
	cw := gocsv.DefaultCSVWriter(w)
	cw.Comma = '\t'
	return gocsv.MarshalCSV(rows, cw)
}

// ParseDates reads one date per line, sorts them most recent first and
// truncates to limit when limit > 0.
func ParseDates(r io.Reader, limit int) ([]string, error) {
	var dates []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if d := strings.TrimSpace(sc.Text()); d != "" {
			dates = append(dates, d)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return sortDates(dates, limit), nil
}

// sortDates orders dates most recent first and drops repeats.
func sortDates(dates []string, limit int) []string {
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	dates = slices.Compact(dates)
	if limit > 0 && len(dates) > limit {
		dates = dates[:limit]
	}
	if dates == nil {
		dates = []string{}
	}
	return dates
}
