package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
)

// ErrWatchlistUnavailable is returned when no Alpaca credentials are set.
var ErrWatchlistUnavailable = errors.New("watchlist unavailable")

// WatchlistClient is the part of the Alpaca client used for watchlists.
type WatchlistClient interface {
	GetWatchlists() ([]alpaca.Watchlist, error)
	GetWatchlist(watchlistID string) (*alpaca.Watchlist, error)
	CreateWatchlist(req alpaca.CreateWatchlistRequest) (*alpaca.Watchlist, error)
	AddSymbolToWatchlist(watchlistID string, req alpaca.AddSymbolToWatchlistRequest) (*alpaca.Watchlist, error)
	RemoveSymbolFromWatchlist(watchlistID string, req alpaca.RemoveSymbolFromWatchlistRequest) error
}

// Watchlist mirrors one named Alpaca watchlist. A nil *Watchlist reports
// ErrWatchlistUnavailable from every method.
type Watchlist struct {
	client WatchlistClient
	name   string
	log    *slog.Logger

	mu      sync.Mutex
	id      string
	symbols map[string]bool
}

// NewWatchlist creates a Watchlist named name. It is loaded lazily.
func NewWatchlist(client WatchlistClient, name string, log *slog.Logger) *Watchlist {
	if log == nil {
		log = slog.Default()
	}
	return &Watchlist{client: client, name: name, log: log}
}

// load finds or creates the watchlist. Callers hold w.mu.
func (w *Watchlist) load() error {
	if w.id != "" {
		return nil
	}
	lists, err := w.client.GetWatchlists()
	if err != nil {
		return fmt.Errorf("listing watchlists: %w", err)
	}
	for _, l := range lists {
		if l.Name != w.name {
			continue
		}
		// GetWatchlists omits assets; fetch the full watchlist.
		full, err := w.client.GetWatchlist(l.ID)
		if err != nil {
			return fmt.Errorf("getting watchlist %s: %w", l.ID, err)
		}
		w.symbols = make(map[string]bool, len(full.Assets))
		for _, a := range full.Assets {
			w.symbols[a.Symbol] = true
		}
		w.id = l.ID
		return nil
	}

	created, err := w.client.CreateWatchlist(alpaca.CreateWatchlistRequest{Name: w.name})
	if err != nil {
		return fmt.Errorf("creating watchlist %s: %w", w.name, err)
	}
	w.log.Info("watchlist created", "name", w.name, "id", created.ID)
	w.id = created.ID
	w.symbols = make(map[string]bool)
	return nil
}

// Symbols returns the watched symbols, sorted.
func (w *Watchlist) Symbols() ([]string, error) {
	if w == nil {
		return nil, ErrWatchlistUnavailable
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.load(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(w.symbols))
	for s := range w.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// Contains reports whether symbol is watched.
func (w *Watchlist) Contains(symbol string) (bool, error) {
	if w == nil {
		return false, ErrWatchlistUnavailable
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.load(); err != nil {
		return false, err
	}
	return w.symbols[strings.ToUpper(symbol)], nil
}

// Add watches symbol. Adding a watched symbol is a no-op.
func (w *Watchlist) Add(symbol string) error {
	if w == nil {
		return ErrWatchlistUnavailable
	}
	symbol = strings.ToUpper(symbol)
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.load(); err != nil {
		return err
	}
	if w.symbols[symbol] {
		return nil
	}
	if _, err := w.client.AddSymbolToWatchlist(w.id, alpaca.AddSymbolToWatchlistRequest{Symbol: symbol}); err != nil {
		return fmt.Errorf("adding %s: %w", symbol, err)
	}
	w.symbols[symbol] = true
	return nil
}

// Remove stops watching symbol. Removing an unwatched symbol is a no-op.
func (w *Watchlist) Remove(symbol string) error {
	if w == nil {
		return ErrWatchlistUnavailable
	}
	symbol = strings.ToUpper(symbol)
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.load(); err != nil {
		return err
	}
	if !w.symbols[symbol] {
		return nil
	}
	if err := w.client.RemoveSymbolFromWatchlist(w.id, alpaca.RemoveSymbolFromWatchlistRequest{Symbol: symbol}); err != nil {
		return fmt.Errorf("removing %s: %w", symbol, err)
	}
	delete(w.symbols, symbol)
	return nil
}

// Toggle adds symbol when unwatched and removes it otherwise. It returns
// whether symbol is watched afterwards.
func (w *Watchlist) Toggle(symbol string) (bool, error) {
	watched, err := w.Contains(symbol)
	if err != nil {
		return false, err
	}
	if watched {
		return false, w.Remove(symbol)
	}
	return true, w.Add(symbol)
}
