package reconcile

import (
	"errors"
	"fmt"

	"github.com/mobiusengine/leads-engine/internal/database"
	"github.com/mobiusengine/leads-engine/internal/models"
)

// Outcome reports what a reconciliation did with a candidate.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
)

// Engine reconciles candidate leads against the store, one row per
// transaction. The store's uniqueness constraint on profile_url is the
// backstop: when two reconciliations race on the same key, the losing
// insert surfaces as a ConflictError and is retried as a merge.
type Engine struct {
	store database.LeadStore
}

func NewEngine(store database.LeadStore) *Engine {
	return &Engine{store: store}
}

// Reconcile inserts the candidate if its profile URL is unseen, otherwise
// merges it into the existing lead under the ingest merge policy. The merge
// runs inside the store as one locked read-modify-write, so concurrent
// writers on the same key serialize row by row.
func (e *Engine) Reconcile(candidate *models.Lead) (Outcome, error) {
	merged, err := e.store.MergeLead(candidate, MergeForIngest)
	if err != nil {
		return "", err
	}
	if merged {
		return OutcomeUpdated, nil
	}

	_, err = e.store.InsertLead(candidate)
	if err == nil {
		return OutcomeInserted, nil
	}

	var conflict *models.ConflictError
	if !errors.As(err, &conflict) {
		return "", err
	}

	// Lost an insert race: another writer created the lead between our merge
	// attempt and insert. Resolve to a merge against that lead.
	merged, err = e.store.MergeLead(candidate, MergeForIngest)
	if err != nil {
		return "", err
	}
	if !merged {
		return "", fmt.Errorf("lead %s disappeared after uniqueness conflict", candidate.ProfileURL)
	}

	return OutcomeUpdated, nil
}
