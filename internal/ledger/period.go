package ledger

import (
	"strings"
	"time"
)

type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "open"
	PeriodClosed PeriodStatus = "closed"
)

// Period is an accounting period. Start and end dates are both inclusive.
type Period struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"owner_id"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	Status    PeriodStatus `json:"status"`
	ClosedAt  *time.Time   `json:"closed_at,omitempty"`
	ClosedBy  string       `json:"closed_by,omitempty"`
	Notes     string       `json:"notes,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func (p *Period) Range() DateRange {
	return DateRange{From: p.StartDate, To: p.EndDate}
}

func (p *Period) Contains(t time.Time) bool {
	return p.Range().Contains(t)
}

func (p *Period) Validate() error {
	if p.OwnerID == "" {
		return ErrMissingOwner
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return Invalid(ErrInvalidPeriodRange, "start and end dates are required")
	}
	if Day(p.StartDate).After(Day(p.EndDate)) {
		return Invalid(ErrInvalidPeriodRange, "%s is after %s",
			p.StartDate.Format(time.DateOnly), p.EndDate.Format(time.DateOnly))
	}
	return nil
}

// Overlaps applies the inclusive interval test: a.start <= b.end && a.end >= b.start.
func Overlaps(a, b Period) bool {
	return !Day(a.StartDate).After(Day(b.EndDate)) && !Day(a.EndDate).Before(Day(b.StartDate))
}

// FindOverlaps returns the existing periods that collide with the candidate.
func FindOverlaps(candidate Period, existing []Period) []Period {
	var out []Period
	for _, e := range existing {
		if e.ID != candidate.ID && Overlaps(candidate, e) {
			out = append(out, e)
		}
	}
	return out
}

// OverlapError builds the validation error carrying the conflicting periods.
func OverlapError(conflicts []Period) error {
	ids := make([]string, len(conflicts))
	for i, c := range conflicts {
		ids[i] = c.ID
	}
	return &ValidationError{
		Err:       ErrPeriodOverlap,
		Reason:    strings.Join(ids, ", "),
		Conflicts: conflicts,
	}
}

// Close moves an open period to closed and stamps who closed it.
func (p *Period) Close(by string, at time.Time) error {
	if p.Status != PeriodOpen {
		return &StateConflictError{Entity: "period " + p.ID, State: string(p.Status)}
	}
	p.Status = PeriodClosed
	p.ClosedAt = &at
	p.ClosedBy = by
	return nil
}

// Reopen moves a closed period back to open and clears the closing stamp.
func (p *Period) Reopen() error {
	if p.Status != PeriodClosed {
		return &StateConflictError{Entity: "period " + p.ID, State: string(p.Status)}
	}
	p.Status = PeriodOpen
	p.ClosedAt = nil
	p.ClosedBy = ""
	return nil
}

// CanDelete allows deletion of open periods only.
func (p *Period) CanDelete() error {
	if p.Status != PeriodOpen {
		return &StateConflictError{Entity: "period " + p.ID, State: string(p.Status), Want: string(PeriodOpen)}
	}
	return nil
}

// ClosedPeriodFor returns the closed period containing t, if any.
func ClosedPeriodFor(periods []Period, t time.Time) (Period, bool) {
	for _, p := range periods {
		if p.Status == PeriodClosed && p.Contains(t) {
			return p, true
		}
	}
	return Period{}, false
}
