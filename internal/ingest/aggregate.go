package ingest

import (
	"sort"
	"sync"

	"github.com/gallerydash/activity-bot/internal/models"
)

// Aggregator collects one ActivityRecord per identity for a single window.
// It is created fresh for every window run and discarded afterwards; it is
// never shared across windows.
//
// Fetcher workers mutate it concurrently, so every update happens under one
// mutex: the record-or-create-then-increment sequence is not atomic on its
// own. Rows are only read after the fetch barrier, when no writer is left.
type Aggregator struct {
	mu      sync.Mutex
	window  models.TimeWindow
	records map[string]*models.ActivityRecord
}

// NewAggregator creates an empty aggregator scoped to the given window.
func NewAggregator(window models.TimeWindow) *Aggregator {
	return &Aggregator{
		window:  window,
		records: make(map[string]*models.ActivityRecord),
	}
}

// RecordPost attributes one published post to the identity.
func (a *Aggregator) RecordPost(identity, nickname string, accountType models.AccountType) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec := a.record(identity, accountType)
	rec.PostCount++
	a.observeNickname(rec, nickname)
}

// RecordComment attributes one comment to the identity.
func (a *Aggregator) RecordComment(identity, nickname string, accountType models.AccountType) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec := a.record(identity, accountType)
	rec.CommentCount++
	a.observeNickname(rec, nickname)
}

// record returns the identity's record, creating it on first contribution.
// The first observed account type sticks for the rest of the window.
func (a *Aggregator) record(identity string, accountType models.AccountType) *models.ActivityRecord {
	rec, ok := a.records[identity]
	if !ok {
		rec = &models.ActivityRecord{
			WindowLabel: a.window.Label(),
			Identity:    identity,
			AccountType: accountType,
		}
		a.records[identity] = rec
	}
	return rec
}

// observeNickname applies the last-write-wins nickname policy. Under
// concurrent out-of-order completion "last" is whichever observation lands
// last, which is accepted as non-deterministic when an identity changes
// nickname mid-window.
func (a *Aggregator) observeNickname(rec *models.ActivityRecord, nickname string) {
	if nickname != "" {
		rec.Nickname = nickname
	}
}

// Len returns the number of distinct identities seen so far.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Rows exports the aggregate as persistence rows, one per identity, sorted
// by identity for a deterministic artifact.
func (a *Aggregator) Rows() []models.ActivityRow {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows := make([]models.ActivityRow, 0, len(a.records))
	for _, rec := range a.records {
		rows = append(rows, models.ActivityRow{
			WindowLabel:   rec.WindowLabel,
			Nickname:      rec.Nickname,
			Identity:      rec.Identity,
			AccountType:   rec.AccountType,
			PostCount:     rec.PostCount,
			CommentCount:  rec.CommentCount,
			TotalActivity: rec.PostCount + rec.CommentCount,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Identity < rows[j].Identity
	})

	return rows
}
