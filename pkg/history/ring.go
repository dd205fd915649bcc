package history

import "time"

// Ring is a bounded, append-only call-record buffer. Once full, each
// append evicts the oldest record.
//
// Ring carries no lock; the owning pool serializes access the same way
// it serializes its ledgers.
type Ring struct {
	records []CallRecord
	max     int
}

// NewRing creates a ring capped at max records. A non-positive max uses
// DefaultRingSize.
func NewRing(max int) *Ring {
	if max <= 0 {
		max = DefaultRingSize
	}
	return &Ring{
		records: make([]CallRecord, 0, max),
		max:     max,
	}
}

// Append adds a record, evicting the oldest if the ring is full.
func (r *Ring) Append(rec CallRecord) {
	if len(r.records) >= r.max {
		// Shift rather than reallocate; the cap stays stable.
		copy(r.records, r.records[1:])
		r.records[len(r.records)-1] = rec
		return
	}
	r.records = append(r.records, rec)
}

// Len returns the number of retained records.
func (r *Ring) Len() int {
	return len(r.records)
}

// Records returns a copy of the retained records, oldest first.
func (r *Ring) Records() []CallRecord {
	out := make([]CallRecord, len(r.records))
	copy(out, r.records)
	return out
}

// CountSince counts records at or after the cutoff.
func (r *Ring) CountSince(cutoff time.Time) int {
	n := 0
	for _, rec := range r.records {
		if !rec.Timestamp.Before(cutoff) {
			n++
		}
	}
	return n
}

// Stats aggregates the records within the window ending at now. A
// non-positive window covers all retained records.
func (r *Ring) Stats(window time.Duration, now time.Time) *Stats {
	cutoff := time.Time{}
	if window > 0 {
		cutoff = now.Add(-window)
	}

	stats := &Stats{
		Window:     window,
		Endpoints:  make(map[string]EndpointStats),
		HourlyCost: make(map[string]int),
	}

	for _, rec := range r.records {
		if rec.Timestamp.Before(cutoff) {
			continue
		}

		stats.TotalCalls++
		ep := stats.Endpoints[rec.Endpoint]
		ep.Calls++

		if rec.Success {
			stats.SuccessfulCalls++
			stats.TotalCost += rec.Cost
			ep.Cost += rec.Cost
			hour := rec.Timestamp.UTC().Format("2006-01-02 15:00")
			stats.HourlyCost[hour] += rec.Cost
		} else {
			stats.FailedCalls++
			ep.Errors++
		}

		stats.Endpoints[rec.Endpoint] = ep
	}

	return stats
}
