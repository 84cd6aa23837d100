package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SelectFunc labels the expiration dates worth fetching (at most a handful
// out of a list that can run into the dozens). The returned sets carry no
// contracts yet; the fetcher fills them in.
type SelectFunc func(dates []time.Time) []ExpirySet

// Fetcher assembles full Snapshots from the provider, fanning out over
// symbols with a bounded worker pool.
type Fetcher struct {
	provider Provider
	selector SelectFunc
	workers  int
	logger   *zap.Logger
}

// BatchResult summarizes one multi-symbol fetch.
type BatchResult struct {
	Total     int
	Success   int
	NotFound  int
	Failed    int
	Snapshots []*Snapshot
	Errors    []string
}

type fetchResult struct {
	symbol   string
	snapshot *Snapshot
	err      error
}

func NewFetcher(provider Provider, selector SelectFunc, workers int, logger *zap.Logger) *Fetcher {
	if workers < 1 {
		workers = 1
	}
	return &Fetcher{
		provider: provider,
		selector: selector,
		workers:  workers,
		logger:   logger,
	}
}

// FetchAll fetches a snapshot per symbol. Individual symbol failures are
// collected, not fatal; the batch only errors on context cancellation.
func (f *Fetcher) FetchAll(ctx context.Context, symbols []string) (*BatchResult, error) {
	result := &BatchResult{Total: len(symbols)}
	if len(symbols) == 0 {
		return result, nil
	}

	jobs := make(chan string, len(symbols))
	results := make(chan fetchResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < f.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				snap, err := f.Snapshot(ctx, symbol, "")

				select {
				case <-ctx.Done():
					return
				case results <- fetchResult{symbol: symbol, snapshot: snap, err: err}:
				}
			}
		}()
	}

	go func() {
		// jobs must close on every exit path or idle workers block on
		// range forever and FetchAll never returns.
		defer close(jobs)
		for _, symbol := range symbols {
			select {
			case <-ctx.Done():
				return
			case jobs <- symbol:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		switch {
		case errors.Is(r.err, ErrNotFound):
			result.NotFound++
			f.logger.Warn("no option data", zap.String("symbol", r.symbol))
		case r.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.symbol, r.err))
			f.logger.Error("fetch failed", zap.String("symbol", r.symbol), zap.Error(r.err))
		default:
			result.Success++
			result.Snapshots = append(result.Snapshots, r.snapshot)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// Snapshot fetches one symbol's chain. With expiry empty the selector picks
// the expirations; a non-empty expiry ("2006-01-02") forces single-expiry
// mode and that date is fetched regardless of its calendar position.
func (f *Fetcher) Snapshot(ctx context.Context, symbol, expiry string) (*Snapshot, error) {
	spot, source, err := f.spot(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}

	available, err := f.provider.Expirations(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("expirations %s: %w", symbol, err)
	}

	var selected []ExpirySet
	if expiry != "" {
		date, err := time.Parse("2006-01-02", expiry)
		if err != nil {
			return nil, fmt.Errorf("parsing expiry %q: %w", expiry, err)
		}
		selected = []ExpirySet{{Label: LabelSingle, Date: date}}
	} else {
		dates, err := parseDates(available)
		if err != nil {
			return nil, fmt.Errorf("expirations %s: %w", symbol, err)
		}
		selected = f.selector(dates)
	}

	for i := range selected {
		date := selected[i].Date.Format("2006-01-02")
		resp, err := f.provider.Chain(ctx, symbol, date)
		if err != nil {
			return nil, fmt.Errorf("chain %s %s: %w", symbol, date, err)
		}
		selected[i].Contracts = resp.ChainContracts()
	}

	return &Snapshot{
		Symbol:     symbol,
		Spot:       spot,
		SpotSource: source,
		Generated:  time.Now().UTC(),
		Available:  available,
		Expiries:   selected,
	}, nil
}

// spot prefers the live last trade and falls back to the previous close when
// the provider has no fresh print for the symbol.
func (f *Fetcher) spot(ctx context.Context, symbol string) (float64, string, error) {
	quote, err := f.provider.Quote(ctx, symbol)
	if err != nil {
		return 0, "", err
	}

	if quote.Last > 0 {
		return quote.Last, SpotSourceFastQuote, nil
	}
	if quote.PrevClose > 0 {
		f.logger.Warn("no live quote, using previous close", zap.String("symbol", symbol))
		return quote.PrevClose, SpotSourceDailyClose, nil
	}
	return 0, "", ErrNoQuote
}

func parseDates(raw []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("parsing date %q: %w", s, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}
