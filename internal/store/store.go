package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/quantsweep/sweepd/internal/chain"
)

var ErrNoData = errors.New("no stored snapshots")

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Store persists chain snapshots on disk, one zstd-compressed JSON document
// per refresh, laid out as <base>/<date>/<symbol>/<HHMMSS>.json.zst. Writes
// land in a temp file first and are renamed into place, so readers never see
// a partial document.
type Store struct {
	baseDir string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *zap.Logger
}

func New(baseDir string, logger *zap.Logger) (*Store, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Store{
		baseDir: baseDir,
		encoder: enc,
		decoder: dec,
		logger:  logger,
	}, nil
}

// Write persists one snapshot and returns the final path. The file name comes
// from the snapshot's Generated timestamp, so repeated refreshes within a day
// accumulate side by side.
func (s *Store) Write(snapshot *chain.Snapshot) (string, error) {
	date := snapshot.Generated.Format("2006-01-02")
	name := snapshot.Generated.Format("150405") + ".json.zst"
	dir := filepath.Join(s.baseDir, date, snapshot.Symbol)

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	compressed := s.encoder.EncodeAll(raw, nil)

	finalPath := filepath.Join(dir, name)
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, compressed, 0640); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}

	s.logger.Debug("snapshot stored",
		zap.String("symbol", snapshot.Symbol),
		zap.String("path", finalPath),
		zap.Int("compressed_bytes", len(compressed)))

	return finalPath, nil
}

// Latest loads the newest stored snapshot for a symbol, scanning the most
// recent date folder. Returns ErrNoData when nothing has been stored yet.
func (s *Store) Latest(symbol string) (*chain.Snapshot, error) {
	date, err := s.LatestDate()
	if err != nil {
		return nil, err
	}
	return s.LatestOn(symbol, date)
}

// LatestOn loads the newest snapshot for symbol within a specific date folder.
func (s *Store) LatestOn(symbol, date string) (*chain.Snapshot, error) {
	dir := filepath.Join(s.baseDir, date, symbol)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("reading snapshot directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == ".zst" {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, ErrNoData
	}

	// HHMMSS names sort lexicographically; the last one is the newest.
	sort.Strings(names)
	return s.read(filepath.Join(dir, names[len(names)-1]))
}

func (s *Store) read(path string) (*chain.Snapshot, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	raw, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}

	var snapshot chain.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &snapshot, nil
}

// LatestDate scans the base directory for non-empty date folders and returns
// the most recent one.
func (s *Store) LatestDate() (string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoData
		}
		return "", fmt.Errorf("reading store directory: %w", err)
	}

	var dates []string
	for _, entry := range entries {
		if !entry.IsDir() || !datePattern.MatchString(entry.Name()) {
			continue
		}
		subEntries, err := os.ReadDir(filepath.Join(s.baseDir, entry.Name()))
		if err == nil && len(subEntries) > 0 {
			dates = append(dates, entry.Name())
		}
	}
	if len(dates) == 0 {
		return "", ErrNoData
	}

	// YYYY-MM-DD sorts lexicographically.
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates[0], nil
}

// Symbols lists the symbols stored under a date folder.
func (s *Store) Symbols(date string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, date))
	if err != nil {
		return nil, fmt.Errorf("reading date directory: %w", err)
	}

	var symbols []string
	for _, entry := range entries {
		if entry.IsDir() {
			symbols = append(symbols, entry.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}
