package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// ImportRun records the outcome of one import invocation
type ImportRun struct {
	ID           uuid.UUID `db:"id"`
	Job          string    `db:"job"`
	DryRun       bool      `db:"dry_run"`
	CreateOnly   bool      `db:"create_only"`
	StartedAt    time.Time `db:"started_at"`
	FinishedAt   time.Time `db:"finished_at"`
	RowCount     int32     `db:"row_count"`
	Created      int32     `db:"created"`
	Updated      int32     `db:"updated"`
	EmptyUnits   int32     `db:"empty_units"`
	SkippedUnits int32     `db:"skipped_units"`
	FailedUnits  int32     `db:"failed_units"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

var _ Entity = (*ImportRun)(nil)

func (r *ImportRun) Table() string { return "import_run" }

func (r *ImportRun) KeyColumns() Columns {
	return Columns{"id": r.ID}
}

func (r *ImportRun) Values() Columns {
	return Columns{
		"id":            r.ID,
		"job":           r.Job,
		"dry_run":       r.DryRun,
		"create_only":   r.CreateOnly,
		"started_at":    r.StartedAt,
		"finished_at":   r.FinishedAt,
		"row_count":     r.RowCount,
		"created":       r.Created,
		"updated":       r.Updated,
		"empty_units":   r.EmptyUnits,
		"skipped_units": r.SkippedUnits,
		"failed_units":  r.FailedUnits,
	}
}

// Changes is empty, runs are written once
func (r *ImportRun) Changes() Columns {
	return Columns{}
}
