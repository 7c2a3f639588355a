package models

import (
	"fmt"
	"time"
)

var _ Model = (*SyncRun)(nil)

// SyncRun records the outcome of a single reconciliation run for the local
// run-history store. One row per run; the remote store remains the sole
// durable state for member records themselves.
type SyncRun struct {
	id         string
	sequence   int
	StartedAt  time.Time
	FinishedAt time.Time
	RowsTotal  int
	Skipped    int
	Created    int
	Updated    int
	Failed     int
	Exported   int
	MailSent   bool
	DryRun     bool
	Error      string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewSyncRun creates a SyncRun entity with the given sequence number.
func NewSyncRun(sequence int) *SyncRun {
	now := time.Now()
	return &SyncRun{
		sequence:  sequence,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *SyncRun) ID() string               { return r.id }
func (r *SyncRun) Sequence() int            { return r.sequence }
func (r *SyncRun) CreatedAt() time.Time     { return r.createdAt }
func (r *SyncRun) UpdatedAt() time.Time     { return r.updatedAt }
func (r *SyncRun) SetID(id string)          { r.id = id }
func (r *SyncRun) SetSequence(seq int)      { r.sequence = seq }
func (r *SyncRun) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *SyncRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }

// Validate checks the run's data before persistence.
func (r *SyncRun) Validate() error {
	if r.id == "" {
		return fmt.Errorf("sync run id is required")
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("sync run start time is required")
	}
	if r.FinishedAt.Before(r.StartedAt) {
		return fmt.Errorf("sync run finished before it started")
	}
	for _, n := range []int{r.RowsTotal, r.Skipped, r.Created, r.Updated, r.Failed, r.Exported} {
		if n < 0 {
			return fmt.Errorf("sync run counts must be non-negative")
		}
	}
	return nil
}

// Duration returns the wall-clock duration of the run.
func (r *SyncRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run completed without a fatal error.
func (r *SyncRun) Succeeded() bool {
	return r.Error == ""
}
