// Package tokens measures text size in model tokens. The clustering budget
// and the complex/leaf classification of spawned sub-modules are both
// expressed in tokens.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/aniruddha-adhikary/CodeWiki/internal/logging"
)

// DefaultEncoding is the tiktoken encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

// CharsPerToken is the ratio used by the estimator.
const CharsPerToken = 4.0

// Counter counts tokens in text. Implementations must be safe for concurrent use.
type Counter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with a BPE encoding.
type TiktokenCounter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads the named encoding. Loading may need network access the
// first time an encoding is used.
func NewTiktoken(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}

// Estimator approximates token counts from the character count.
type Estimator struct{}

// NewEstimator returns a character-ratio counter.
func NewEstimator() Estimator {
	return Estimator{}
}

// Count estimates tokens using CharsPerToken.
func (Estimator) Count(text string) int {
	return int(float64(len(text)) / CharsPerToken)
}

// New returns a tiktoken counter for encoding, or the estimator when the
// encoding cannot be loaded.
func New(encoding string, log *logging.Logger) Counter {
	c, err := NewTiktoken(encoding)
	if err != nil {
		if log != nil {
			log.Warn("tiktoken encoding unavailable, estimating tokens from characters",
				"encoding", encoding, "error", err.Error())
		}
		return NewEstimator()
	}
	return c
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(text string) int

// Count calls f(text).
func (f CounterFunc) Count(text string) int {
	return f(text)
}
