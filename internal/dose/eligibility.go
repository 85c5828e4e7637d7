// Package dose records doses and decides when a medication may be taken
// again.
package dose

import "time"

type Eligibility struct {
	Eligible       bool
	NextEligibleAt *time.Time
}

// Check decides whether a dose may be taken at now. minInterval is in
// minutes; nil or zero means no restriction. lastTaken is the most recent
// dose that was not skipped.
func Check(minInterval *int, lastTaken *time.Time, now time.Time) Eligibility {
	if minInterval == nil || *minInterval <= 0 || lastTaken == nil {
		return Eligibility{Eligible: true}
	}
	next := lastTaken.Add(time.Duration(*minInterval) * time.Minute)
	if now.Before(next) {
		return Eligibility{Eligible: false, NextEligibleAt: &next}
	}
	return Eligibility{Eligible: true, NextEligibleAt: &next}
}
