package domain

import (
	"strconv"
	"sync/atomic"
	"time"
)

// VersionGenerator issues digits-only version tokens derived from the wall
// clock in milliseconds. Tokens from one generator are strictly increasing,
// even when several are issued within the same millisecond.
type VersionGenerator struct {
	last atomic.Int64
	now  func() time.Time
}

func NewVersionGenerator() *VersionGenerator {
	return &VersionGenerator{now: time.Now}
}

// NewVersionGeneratorWithClock is used by tests to pin the clock.
func NewVersionGeneratorWithClock(now func() time.Time) *VersionGenerator {
	return &VersionGenerator{now: now}
}

func (g *VersionGenerator) Next() string {
	ms := g.now().UnixMilli()
	for {
		last := g.last.Load()
		next := ms
		if next <= last {
			next = last + 1
		}
		if g.last.CompareAndSwap(last, next) {
			return strconv.FormatInt(next, 10)
		}
	}
}
