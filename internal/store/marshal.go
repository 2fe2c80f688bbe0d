package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/ledgerd/internal/model"
)

// Timestamps are stored as RFC 3339 text in UTC so rows stay readable with
// the sqlite3 shell and sort lexically.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// marshalExecutionContext stores an absent context as the empty string.
func marshalExecutionContext(ec *model.ExecutionContext) (string, error) {
	if ec == nil {
		return "", nil
	}
	data, err := json.Marshal(ec)
	if err != nil {
		return "", fmt.Errorf("marshal execution context: %w", err)
	}
	return string(data), nil
}

func unmarshalExecutionContext(data string) (*model.ExecutionContext, error) {
	if data == "" {
		return nil, nil
	}
	var ec model.ExecutionContext
	if err := json.Unmarshal([]byte(data), &ec); err != nil {
		return nil, fmt.Errorf("unmarshal execution context: %w", err)
	}
	return &ec, nil
}

// parseStoredQuantity re-validates a quantity read back from disk.
func parseStoredQuantity(s string) (model.Quantity, error) {
	q, err := model.ParseQuantity(s)
	if err != nil {
		return model.Quantity{}, fmt.Errorf("corrupt stored quantity: %w", err)
	}
	return q, nil
}
