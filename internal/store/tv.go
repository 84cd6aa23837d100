package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quantsweep/sweepd/internal/quant"
)

const tvFileName = "tv_levels.json"

// TVLevels is the condensed per-symbol level file consumed by charting
// overlays: plain strikes only, no OI or curve data, uncompressed JSON.
type TVLevels struct {
	Updated time.Time              `json:"updated"`
	Symbols map[string]TVSymbolSet `json:"symbols"`
}

// TVSymbolSet carries the essential levels for one symbol, taken from the
// front (0DTE) expiry.
type TVSymbolSet struct {
	Spot      float64   `json:"spot"`
	GammaFlip float64   `json:"gamma_flip"`
	MaxPain   float64   `json:"max_pain"`
	CallWalls []float64 `json:"call_walls"`
	PutWalls  []float64 `json:"put_walls"`
}

// TVSymbolSetFrom condenses one symbol's front-expiry metrics into chart
// levels. Returns false when there is no expiry to draw from.
func TVSymbolSetFrom(spot float64, perExpiry []quant.QuantMetrics) (TVSymbolSet, bool) {
	if len(perExpiry) == 0 {
		return TVSymbolSet{}, false
	}
	front := perExpiry[0]

	set := TVSymbolSet{
		Spot:      spot,
		GammaFlip: front.GammaFlip,
		MaxPain:   front.MaxPain,
		CallWalls: make([]float64, 0, len(front.CallWalls)),
		PutWalls:  make([]float64, 0, len(front.PutWalls)),
	}
	for _, w := range front.CallWalls {
		set.CallWalls = append(set.CallWalls, w.Strike)
	}
	for _, w := range front.PutWalls {
		set.PutWalls = append(set.PutWalls, w.Strike)
	}
	return set, true
}

// WriteTVLevels writes the levels file at the store root via temp file and
// rename, same as snapshots.
func (s *Store) WriteTVLevels(levels TVLevels) (string, error) {
	if err := os.MkdirAll(s.baseDir, 0750); err != nil {
		return "", fmt.Errorf("creating store directory: %w", err)
	}

	raw, err := json.MarshalIndent(levels, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding tv levels: %w", err)
	}

	finalPath := filepath.Join(s.baseDir, tvFileName)
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, raw, 0640); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return finalPath, nil
}

// ReadTVLevels loads the current levels file.
func (s *Store) ReadTVLevels() (*TVLevels, error) {
	raw, err := os.ReadFile(filepath.Join(s.baseDir, tvFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("reading tv levels: %w", err)
	}

	var levels TVLevels
	if err := json.Unmarshal(raw, &levels); err != nil {
		return nil, fmt.Errorf("decoding tv levels: %w", err)
	}
	return &levels, nil
}
