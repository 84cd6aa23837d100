package ws

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LevelsSource produces the current marshaled levels document for a symbol.
// The serving layer backs this with its snapshot cache, so ticks do not fan
// out into provider calls on every interval.
type LevelsSource interface {
	LevelsDocument(ctx context.Context, symbol string) ([]byte, error)
}

// Streamer recomputes and broadcasts level documents for every subscribed
// symbol on a fixed interval.
type Streamer struct {
	hub      *Hub
	source   LevelsSource
	encoder  *Encoder
	interval time.Duration
	logger   *zap.Logger
}

// NewStreamer creates a new Streamer.
func NewStreamer(hub *Hub, source LevelsSource, interval time.Duration, logger *zap.Logger) (*Streamer, error) {
	enc, err := NewEncoder()
	if err != nil {
		return nil, err
	}

	return &Streamer{
		hub:      hub,
		source:   source,
		encoder:  enc,
		interval: interval,
		logger:   logger,
	}, nil
}

// Run starts the streaming loop. Call in a goroutine.
// Returns when context is cancelled.
func (s *Streamer) Run(ctx context.Context) {
	// Align first tick to top of second for predictable timing
	now := time.Now()
	nextSecond := now.Truncate(time.Second).Add(time.Second)
	s.logger.Debug("aligning to next second",
		zap.Time("now", now),
		zap.Time("nextSecond", nextSecond),
		zap.Duration("wait", time.Until(nextSecond)),
	)

	select {
	case <-ctx.Done():
		s.logger.Info("streamer cancelled during alignment")
		s.encoder.Close()
		return
	case <-time.After(time.Until(nextSecond)):
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("streamer started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("streamer stopping")
			s.encoder.Close()
			return

		case <-ticker.C:
			s.broadcastLevels(ctx)
		}
	}
}

// broadcastLevels pushes a fresh document to every active symbol group.
func (s *Streamer) broadcastLevels(ctx context.Context) {
	symbols := s.hub.ActiveSymbols()
	if len(symbols) == 0 {
		return
	}

	for _, symbol := range symbols {
		document, err := s.source.LevelsDocument(ctx, symbol)
		if err != nil {
			s.logger.Warn("levels refresh failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}

		encoded, err := s.encoder.EncodeLevels(symbol, document)
		if err != nil {
			s.logger.Warn("levels encode failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}

		s.hub.Broadcast(symbol, encoded)

		s.logger.Debug("broadcast levels",
			zap.String("symbol", symbol),
			zap.Int("encodedSize", len(encoded)),
		)
	}
}
