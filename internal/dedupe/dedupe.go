package dedupe

import (
	"log"
	"sync"

	"github.com/mobiusengine/leads-engine/internal/database"
	"github.com/mobiusengine/leads-engine/internal/models"
	"github.com/mobiusengine/leads-engine/internal/reconcile"
)

// Deduper runs the global deduplication pass: it collapses every group of
// leads sharing a profile URL down to the earliest-created record. Passes
// are serialized against each other; ingestion may keep running while a
// pass executes, and rows inserted mid-pass are picked up by the next one.
type Deduper struct {
	store database.LeadStore
	mu    sync.Mutex
}

func NewDeduper(store database.LeadStore) *Deduper {
	return &Deduper{store: store}
}

// Run scans the store for duplicate groups, picks each group's survivor,
// backfills the survivor's empty valuable fields from the duplicates and
// deletes the rest, all in one transaction. Running it again immediately
// reports zero records removed.
func (d *Deduper) Run() (*models.DedupeResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	leads, err := d.store.ListDuplicateLeads()
	if err != nil {
		return nil, err
	}

	result := &models.DedupeResult{}
	if len(leads) == 0 {
		return result, nil
	}

	var survivors []*models.Lead
	var deleteIDs []int

	// Leads arrive ordered by profile_url, created_at, id; the first row of
	// each group is the survivor.
	for start := 0; start < len(leads); {
		end := start + 1
		for end < len(leads) && leads[end].ProfileURL == leads[start].ProfileURL {
			end++
		}
		group := leads[start:end]
		start = end

		if len(group) < 2 {
			continue
		}

		result.DuplicateGroupsFound++

		survivor := group[0]
		if reconcile.MergeForDedupe(&survivor, group[1:]) {
			survivors = append(survivors, &survivor)
		}
		for _, dup := range group[1:] {
			deleteIDs = append(deleteIDs, dup.ID)
		}
		result.RecordsRemoved += len(group) - 1
	}

	if len(deleteIDs) == 0 {
		return result, nil
	}

	if err := d.store.ApplyDedupe(survivors, deleteIDs); err != nil {
		return nil, err
	}

	log.Printf("Dedupe pass collapsed %d duplicate groups, removed %d records", result.DuplicateGroupsFound, result.RecordsRemoved)
	return result, nil
}
