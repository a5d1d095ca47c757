// Package searches keeps the history of completed recommendation searches.
package searches

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("search not found")
	ErrInvalidInput = errors.New("invalid search")
)

// Search is one completed full-batch recommendation request.
type Search struct {
	ID              string          `json:"id"`
	Principal       string          `json:"-"`
	Query           string          `json:"query,omitempty"`
	Profile         string          `json:"profile"`
	Provider        string          `json:"provider"`
	Model           string          `json:"model"`
	FallbackUsed    bool            `json:"fallbackUsed"`
	Recommendations json.RawMessage `json:"recommendations"`
	CreatedAt       time.Time       `json:"createdAt"`
}
