package bookingRepo

import (
	"time"

	"barberly/models"
)

// claimGrace is how long a claim is presumed to belong to a write still in
// flight.
const claimGrace = time.Minute

// claimBuckets lists the TimeStepMinutes buckets window touches. Windows are
// aligned to the step, so two windows share a bucket iff they overlap.
func claimBuckets(window models.TimeWindow) []int {
	first := window.Start / models.TimeStepMinutes
	last := (window.End - 1) / models.TimeStepMinutes
	buckets := make([]int, 0, last-first+1)
	for b := first; b <= last; b++ {
		buckets = append(buckets, b)
	}
	return buckets
}

// claimIsStale reports whether a claim can be taken over. holder is the
// booking the claim points at, or nil when no such booking exists. Young
// claims are never stale: they may belong to an insert or a reassignment
// that has not committed yet.
func claimIsStale(holder *models.Booking, providerID, date string, claimedAt, now time.Time) bool {
	if now.Sub(claimedAt) <= claimGrace {
		return false
	}
	if holder == nil {
		return true
	}
	return !holder.Status.Occupying() || holder.ProviderID != providerID || holder.Date != date
}
