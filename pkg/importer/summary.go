package importer

import (
	"fmt"
	"io"
	"time"

	"github.com/mpapenbr/speedview-sync/pkg/model"
)

// Summary is the result of one run. It is published as JSON after the run.
type Summary struct {
	Job        string        `json:"job"`
	DryRun     bool          `json:"dryRun"`
	CreateOnly bool          `json:"createOnly"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Rows       int           `json:"rows"`
	Created    int           `json:"created"`
	Updated    int           `json:"updated"`
	Skipped    int           `json:"skipped"`
	Invalid    int           `json:"invalid"`
	Units      []UnitSummary `json:"units"`
}

type UnitSummary struct {
	Label   string `json:"label"`
	Outcome string `json:"outcome"`
	Rows    int    `json:"rows"`
	Error   string `json:"error,omitempty"`

	outcome Outcome
}

func newSummary(job string, env *Env) *Summary {
	return &Summary{
		Job:        job,
		DryRun:     env.Cfg.DryRun,
		CreateOnly: env.Cfg.CreateOnly,
		StartedAt:  time.Now(),
		Units:      []UnitSummary{},
	}
}

func (s *Summary) add(stats Stats) {
	s.Rows += stats.Rows
	s.Created += stats.Created
	s.Updated += stats.Updated
	s.Skipped += stats.Skipped
	s.Invalid += stats.Invalid
}

func (s *Summary) addUnit(res UnitResult) {
	us := UnitSummary{
		Label:   res.Unit.Label,
		Outcome: res.Outcome.String(),
		Rows:    res.Rows,
		outcome: res.Outcome,
	}
	if res.Err != nil {
		us.Error = res.Err.Error()
	}
	s.Units = append(s.Units, us)
	s.add(res.Stats)
}

// Count returns the number of units with outcome o
func (s *Summary) Count(o Outcome) int {
	n := 0
	for i := range s.Units {
		if s.Units[i].outcome == o {
			n++
		}
	}
	return n
}

// Print writes the closing lines of a run
func (s *Summary) Print(w io.Writer) {
	if s.DryRun {
		fmt.Fprintf(w, "Finished. Total rows: %d (dry run – no database changes).\n", s.Rows)
	} else {
		fmt.Fprintf(w, "Finished. Total rows: %d, created: %d, updated: %d.\n",
			s.Rows, s.Created, s.Updated)
	}
	fmt.Fprintf(w, "Units: %d ok, %d empty, %d skipped, %d failed.\n",
		s.Count(OutcomeOK), s.Count(OutcomeEmpty),
		s.Count(OutcomeSkipped), s.Count(OutcomeFailed))
	if s.Invalid > 0 {
		fmt.Fprintf(w, "Ignored %d invalid records.\n", s.Invalid)
	}
}

func (s *Summary) ToImportRun() *model.ImportRun {
	return &model.ImportRun{
		Job:          s.Job,
		DryRun:       s.DryRun,
		CreateOnly:   s.CreateOnly,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		RowCount:     int32(s.Rows),
		Created:      int32(s.Created),
		Updated:      int32(s.Updated),
		EmptyUnits:   int32(s.Count(OutcomeEmpty)),
		SkippedUnits: int32(s.Count(OutcomeSkipped)),
		FailedUnits:  int32(s.Count(OutcomeFailed)),
	}
}

func unitLine(res UnitResult) string {
	switch res.Outcome {
	case OutcomeOK:
		if res.Collected > 0 {
			return fmt.Sprintf("%s %s: collected %d rows for refresh",
				res.Outcome.marker(), res.Unit.Label, res.Collected)
		}
		return fmt.Sprintf("%s %s: processed %d rows (created=%d, updated=%d)",
			res.Outcome.marker(), res.Unit.Label, res.Rows, res.Created, res.Updated)
	case OutcomeEmpty:
		return fmt.Sprintf("%s %s: no data returned", res.Outcome.marker(), res.Unit.Label)
	default:
		return fmt.Sprintf("%s %s: %s (%v)",
			res.Outcome.marker(), res.Unit.Label, res.Outcome, res.Err)
	}
}
