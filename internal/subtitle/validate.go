package subtitle

import (
	"errors"
	"fmt"
)

var (
	ErrNoEntries     = errors.New("subtitle: no entries")
	ErrInvertedEntry = errors.New("subtitle: entry ends before it starts")
	ErrOverlap       = errors.New("subtitle: entries overlap or are out of order")
)

// Validate checks that entries form a forward-moving timeline: at least one
// entry, non-negative starts, end >= start and every entry starting no earlier
// than the previous one ends.
func Validate(entries []Entry) error {
	if len(entries) == 0 {
		return ErrNoEntries
	}
	for i, e := range entries {
		if e.Start < 0 {
			return fmt.Errorf("%w: entry %d starts at %.3fs", ErrInvertedEntry, e.Index, e.Start)
		}
		if e.End < e.Start {
			return fmt.Errorf("%w: entry %d spans %.3fs -> %.3fs", ErrInvertedEntry, e.Index, e.Start, e.End)
		}
		if i == 0 {
			continue
		}
		prev := entries[i-1]
		if e.Start < prev.End {
			return fmt.Errorf("%w: entry %d starts at %.3fs before entry %d ends at %.3fs",
				ErrOverlap, e.Index, e.Start, prev.Index, prev.End)
		}
	}
	return nil
}

// End returns the latest end time across entries.
func End(entries []Entry) float64 {
	var last float64
	for _, e := range entries {
		if e.End > last {
			last = e.End
		}
	}
	return last
}
