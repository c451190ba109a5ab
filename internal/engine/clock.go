package engine

import "time"

// Clock supplies wall-clock time for ledger entries and "entered at"
// stamps. Implemented by systemClock (production) and fixed clocks in
// tests so timestamps are deterministic.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the production wall clock (UTC).
func SystemClock() Clock { return systemClock{} }
