package ws

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Encoder produces the binary wire frames: a JSON level document wrapped in a
// small envelope, zstd-compressed. The zstd magic keeps binary frames
// distinguishable from text control replies.
type Encoder struct {
	zstdEncoder *zstd.Encoder
}

// frame is the data envelope inside each binary frame.
type frame struct {
	Type   string          `json:"type"`
	Symbol string          `json:"symbol"`
	Data   json.RawMessage `json:"data"`
}

// NewEncoder creates a new Encoder with Zstd compression.
func NewEncoder() (*Encoder, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &Encoder{zstdEncoder: enc}, nil
}

// EncodeLevels wraps a marshaled levels document for one symbol and
// compresses it.
func (e *Encoder) EncodeLevels(symbol string, document []byte) ([]byte, error) {
	envelope, err := json.Marshal(frame{Type: "levels", Symbol: symbol, Data: document})
	if err != nil {
		return nil, fmt.Errorf("marshal frame: %w", err)
	}
	return e.zstdEncoder.EncodeAll(envelope, nil), nil
}

// Close releases encoder resources.
func (e *Encoder) Close() {
	_ = e.zstdEncoder.Close()
}
