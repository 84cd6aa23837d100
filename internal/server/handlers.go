package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/quantsweep/sweepd/internal/chain"
	"github.com/quantsweep/sweepd/internal/config"
	"github.com/quantsweep/sweepd/internal/quant"
	"github.com/quantsweep/sweepd/internal/store"
	"github.com/quantsweep/sweepd/internal/ws"
)

// Snapshotter is the slice of the fetcher the server depends on.
type Snapshotter interface {
	Snapshot(ctx context.Context, symbol, expiry string) (*chain.Snapshot, error)
}

type Server struct {
	fetcher Snapshotter
	cache   *chain.SnapshotCache
	store   *store.Store
	hub     *ws.Hub
	config  *config.Config
	version string
	logger  *zap.Logger
}

func NewServer(fetcher Snapshotter, cache *chain.SnapshotCache, st *store.Store, hub *ws.Hub, cfg *config.Config, version string, logger *zap.Logger) *Server {
	return &Server{
		fetcher: fetcher,
		cache:   cache,
		store:   st,
		hub:     hub,
		config:  cfg,
		version: version,
		logger:  logger,
	}
}

// LevelsDocument is the full analytics payload served over HTTP and pushed
// over the websocket.
type LevelsDocument struct {
	Symbol      string                  `json:"symbol"`
	Spot        float64                 `json:"spot"`
	SpotSource  string                  `json:"spotSource"`
	Generated   time.Time               `json:"generated"`
	Available   []string                `json:"availableExpirations"`
	PerExpiry   []quant.QuantMetrics    `json:"perExpiry"`
	CrossExpiry quant.CrossExpiryLevels `json:"crossExpiry"`
}

// Compile-time interface verification
var _ ws.LevelsSource = (*Server)(nil)

// LevelsDocument implements ws.LevelsSource for the streamer.
func (s *Server) LevelsDocument(ctx context.Context, symbol string) ([]byte, error) {
	if !s.knownSymbol(symbol) {
		return nil, chain.ErrNotFound
	}

	doc, err := s.buildLevels(ctx, symbol, "")
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// buildLevels fetches (or reuses) a snapshot and runs the analytics on it.
// A non-empty expiry forces single-expiry mode and bypasses the cache.
func (s *Server) buildLevels(ctx context.Context, symbol, expiry string) (*LevelsDocument, error) {
	snap, err := s.snapshot(ctx, symbol, expiry)
	if err != nil {
		return nil, err
	}

	// Anchoring asOf on the snapshot keeps the document reproducible for as
	// long as the snapshot is served from cache.
	result := quant.ComputeAnalytics(snap.Expiries, snap.Spot, snap.Generated, quant.Options{
		RiskFreeRate: s.config.Analytics.RiskFreeRate,
		WallTopN:     s.config.Analytics.WallTopN,
	})

	for _, m := range result.PerExpiry {
		if m.DroppedContracts > 0 {
			s.logger.Warn("dropped malformed contracts",
				zap.String("symbol", symbol),
				zap.String("expiry", m.Date),
				zap.Int("dropped", m.DroppedContracts))
		}
	}

	return &LevelsDocument{
		Symbol:      snap.Symbol,
		Spot:        snap.Spot,
		SpotSource:  snap.SpotSource,
		Generated:   snap.Generated,
		Available:   snap.Available,
		PerExpiry:   result.PerExpiry,
		CrossExpiry: result.CrossExpiry,
	}, nil
}

func (s *Server) snapshot(ctx context.Context, symbol, expiry string) (*chain.Snapshot, error) {
	if expiry != "" {
		return s.fetcher.Snapshot(ctx, symbol, expiry)
	}

	now := time.Now()
	if snap, ok := s.cache.Get(symbol, now); ok {
		return snap, nil
	}

	snap, err := s.fetcher.Snapshot(ctx, symbol, "")
	if err != nil {
		return nil, err
	}
	s.cache.Set(symbol, snap, now)
	return snap, nil
}

func (s *Server) knownSymbol(symbol string) bool {
	for _, configured := range s.config.Symbols {
		if configured == symbol {
			return true
		}
	}
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	type symbolInfo struct {
		Symbol   string `json:"symbol"`
		Provider string `json:"providerSymbol"`
	}

	symbols := make([]symbolInfo, 0, len(s.config.Symbols))
	for _, sym := range s.config.Symbols {
		provider := sym
		if mapped, ok := s.config.Mapping[sym]; ok {
			provider = mapped
		}
		symbols = append(symbols, symbolInfo{Symbol: sym, Provider: provider})
	}

	writeJSON(w, http.StatusOK, map[string]any{"symbols": symbols})
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if !s.knownSymbol(symbol) {
		writeError(w, http.StatusNotFound, "unknown symbol: "+symbol)
		return
	}

	expiry := r.URL.Query().Get("expiry")
	if expiry != "" {
		if _, err := time.Parse("2006-01-02", expiry); err != nil {
			writeError(w, http.StatusBadRequest, "expiry must be YYYY-MM-DD")
			return
		}
	}

	doc, err := s.buildLevels(r.Context(), symbol, expiry)
	if err != nil {
		s.writeFetchError(w, symbol, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if !s.knownSymbol(symbol) {
		writeError(w, http.StatusNotFound, "unknown symbol: "+symbol)
		return
	}

	snap, err := s.snapshot(r.Context(), symbol, "")
	if err != nil {
		s.writeFetchError(w, symbol, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTV(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if !s.knownSymbol(symbol) {
		writeError(w, http.StatusNotFound, "unknown symbol: "+symbol)
		return
	}

	doc, err := s.buildLevels(r.Context(), symbol, "")
	if err != nil {
		s.writeFetchError(w, symbol, err)
		return
	}

	set, ok := store.TVSymbolSetFrom(doc.Spot, doc.PerExpiry)
	if !ok {
		writeError(w, http.StatusNotFound, "no expiries available for "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) writeFetchError(w http.ResponseWriter, symbol string, err error) {
	switch {
	case errors.Is(err, chain.ErrNotFound):
		writeError(w, http.StatusNotFound, "no option data for "+symbol)
	case errors.Is(err, chain.ErrRateLimited):
		writeError(w, http.StatusServiceUnavailable, "provider rate limit reached")
	default:
		s.logger.Error("fetch failed", zap.String("symbol", symbol), zap.Error(err))
		writeError(w, http.StatusBadGateway, "provider request failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
