package chrono

import "time"

// API is the interface that anything depending on the system clock should use.
type API interface {
	Now() time.Time
}

// StandardImpl is the standard implementation of API using the standard library,
// times are always returned in UTC.
type StandardImpl struct{}

func NewStandardImpl() StandardImpl {
	return StandardImpl{}
}

func (StandardImpl) Now() time.Time {
	return time.Now().UTC()
}

// FixedImpl always returns the same time, it advances by Step on every call
// if Step is non-zero.
type FixedImpl struct {
	Current time.Time
	Step    time.Duration
}

func (f *FixedImpl) Now() time.Time {
	now := f.Current
	f.Current = f.Current.Add(f.Step)
	return now
}
