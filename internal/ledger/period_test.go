package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func period(id, start, end string) Period {
	return Period{ID: id, OwnerID: "o", StartDate: day(start), EndDate: day(end), Status: PeriodOpen}
}

func TestOverlapsInclusive(t *testing.T) {
	jan := period("jan", "2024-01-01", "2024-01-31")
	tests := []struct {
		name  string
		other Period
		want  bool
	}{
		{"shares last day", period("x", "2024-01-31", "2024-02-29"), true},
		{"shares first day", period("x", "2023-12-01", "2024-01-01"), true},
		{"inside", period("x", "2024-01-10", "2024-01-12"), true},
		{"after", period("x", "2024-02-01", "2024-02-29"), false},
		{"before", period("x", "2023-12-01", "2023-12-31"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(jan, tt.other))
			assert.Equal(t, tt.want, Overlaps(tt.other, jan))
		})
	}
}

func TestFindOverlapsReturnsConflicts(t *testing.T) {
	existing := []Period{
		period("jan", "2024-01-01", "2024-01-31"),
		period("feb", "2024-02-01", "2024-02-29"),
		period("mar", "2024-03-01", "2024-03-31"),
	}
	got := FindOverlaps(period("q", "2024-01-15", "2024-02-10"), existing)
	require.Len(t, got, 2)

	err := OverlapError(got)
	assert.ErrorIs(t, err, ErrPeriodOverlap)
	var v *ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "jan", v.Conflicts[0].ID)
	assert.Equal(t, "feb", v.Conflicts[1].ID)
}

func TestPeriodValidate(t *testing.T) {
	p := period("p", "2024-02-01", "2024-01-01")
	assert.ErrorIs(t, p.Validate(), ErrInvalidPeriodRange)

	single := period("p", "2024-02-01", "2024-02-01")
	assert.NoError(t, single.Validate())
}

func TestPeriodCloseReopen(t *testing.T) {
	p := period("p", "2024-01-01", "2024-01-31")
	at := time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, p.Close("alice", at))
	assert.Equal(t, PeriodClosed, p.Status)
	require.NotNil(t, p.ClosedAt)
	assert.Equal(t, "alice", p.ClosedBy)

	err := p.Close("bob", at)
	assert.True(t, IsStateConflict(err))
	assert.True(t, IsStateConflict(p.CanDelete()))

	found, ok := ClosedPeriodFor([]Period{p}, day("2024-01-15"))
	assert.True(t, ok)
	assert.Equal(t, "p", found.ID)

	require.NoError(t, p.Reopen())
	assert.Equal(t, PeriodOpen, p.Status)
	assert.Nil(t, p.ClosedAt)
	assert.Empty(t, p.ClosedBy)
	assert.NoError(t, p.CanDelete())
	assert.True(t, IsStateConflict(p.Reopen()))
}
