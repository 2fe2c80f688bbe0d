package model

import (
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces correlation and transaction ids.
// Implemented by UUIDv7Generator in production and fixed sequences in tests.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 ids.
// It is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Clock supplies timestamps for receipts and operation rows.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
