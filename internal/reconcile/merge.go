package reconcile

import (
	"github.com/mobiusengine/leads-engine/internal/models"
)

// Two merge policies live here and they are intentionally not the same.
//
// MergeForIngest handles a fresh candidate row against the stored lead: the
// candidate is newer data, so non-empty display fields replace the stored
// ones, while valuable fields (email, phone, notes, feedback) keep their
// first captured value.
//
// MergeForDedupe collapses historical duplicates where no record is "newer":
// the survivor's own display fields are authoritative and only empty
// valuable fields are backfilled from the duplicates.

// latest returns the incoming value unless it is empty.
func latest(existing, incoming string) string {
	if incoming != "" {
		return incoming
	}
	return existing
}

// sticky keeps the existing value once it is non-empty.
func sticky(existing, incoming string) string {
	if existing != "" {
		return existing
	}
	return incoming
}

// MergeForIngest merges an incoming candidate into an existing lead and
// returns the merged lead. The existing lead's ID, timestamps and enrichment
// fields are carried over untouched.
func MergeForIngest(existing, incoming *models.Lead) *models.Lead {
	merged := *existing

	merged.FirstName = latest(existing.FirstName, incoming.FirstName)
	merged.LastName = latest(existing.LastName, incoming.LastName)
	merged.Headline = latest(existing.Headline, incoming.Headline)
	merged.Location = latest(existing.Location, incoming.Location)
	merged.CurrentTitle = latest(existing.CurrentTitle, incoming.CurrentTitle)
	merged.CurrentCompany = latest(existing.CurrentCompany, incoming.CurrentCompany)
	merged.ActiveProject = latest(existing.ActiveProject, incoming.ActiveProject)

	merged.EmailAddress = sticky(existing.EmailAddress, incoming.EmailAddress)
	merged.PhoneNumber = sticky(existing.PhoneNumber, incoming.PhoneNumber)
	merged.Notes = sticky(existing.Notes, incoming.Notes)
	merged.Feedback = sticky(existing.Feedback, incoming.Feedback)

	return &merged
}

// MergeForDedupe backfills the survivor's empty valuable fields with the
// first non-empty value found among its duplicates, scanned in creation
// order. It reports whether the survivor changed. Display and enrichment
// fields are never touched.
func MergeForDedupe(survivor *models.Lead, duplicates []models.Lead) bool {
	changed := false

	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}

	for _, dup := range duplicates {
		fill(&survivor.EmailAddress, dup.EmailAddress)
		fill(&survivor.PhoneNumber, dup.PhoneNumber)
		fill(&survivor.Notes, dup.Notes)
		fill(&survivor.Feedback, dup.Feedback)
	}

	return changed
}
