package billing

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{
			name:   "simple month add",
			start:  date(2024, 1, 1),
			months: 1,
			want:   date(2024, 2, 1),
		},
		{
			name:   "year rollover",
			start:  date(2024, 11, 15),
			months: 3,
			want:   date(2025, 2, 15),
		},
		{
			name:   "jan 31 clamps to leap february",
			start:  date(2024, 1, 31),
			months: 1,
			want:   date(2024, 2, 29),
		},
		{
			name:   "jan 31 clamps to non-leap february",
			start:  date(2023, 1, 31),
			months: 1,
			want:   date(2023, 2, 28),
		},
		{
			name:   "may 31 clamps to june 30",
			start:  date(2024, 5, 31),
			months: 1,
			want:   date(2024, 6, 30),
		},
		{
			name:   "no drift when computed from base",
			start:  date(2024, 1, 31),
			months: 2,
			want:   date(2024, 3, 31),
		},
		{
			name:   "twelve months",
			start:  date(2024, 2, 29),
			months: 12,
			want:   date(2025, 2, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.start, tt.months)
			if !got.Equal(tt.want) {
				t.Errorf("AddMonths(%v, %d) = %v, want %v", tt.start, tt.months, got, tt.want)
			}
		})
	}
}

func TestDueDates(t *testing.T) {
	tests := []struct {
		name         string
		lastPayment  time.Time
		periodMonths int
		asOf         time.Time
		want         []time.Time
	}{
		{
			name:         "three monthly periods elapsed",
			lastPayment:  date(2024, 1, 1),
			periodMonths: 1,
			asOf:         date(2024, 4, 15),
			want:         []time.Time{date(2024, 2, 1), date(2024, 3, 1), date(2024, 4, 1)},
		},
		{
			name:         "member current, empty sequence",
			lastPayment:  date(2024, 3, 1),
			periodMonths: 1,
			asOf:         date(2024, 3, 20),
			want:         nil,
		},
		{
			name:         "due date exactly at asOf counts",
			lastPayment:  date(2024, 1, 1),
			periodMonths: 1,
			asOf:         date(2024, 2, 1),
			want:         []time.Time{date(2024, 2, 1)},
		},
		{
			name:         "quarterly period",
			lastPayment:  date(2023, 12, 10),
			periodMonths: 3,
			asOf:         date(2024, 7, 1),
			want:         []time.Time{date(2024, 3, 10), date(2024, 6, 10)},
		},
		{
			name:         "leap year boundary clamps to feb 29",
			lastPayment:  date(2024, 1, 31),
			periodMonths: 1,
			asOf:         date(2024, 3, 1),
			want:         []time.Time{date(2024, 2, 29)},
		},
		{
			name:         "clamped sequence returns to month end",
			lastPayment:  date(2024, 1, 31),
			periodMonths: 1,
			asOf:         date(2024, 4, 1),
			want:         []time.Time{date(2024, 2, 29), date(2024, 3, 31)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DueDates(tt.lastPayment, tt.periodMonths, tt.asOf)
			if err != nil {
				t.Fatalf("DueDates() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("DueDates() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if !got[i].Equal(tt.want[i]) {
					t.Errorf("DueDates()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDueDates_InvalidPeriod(t *testing.T) {
	for _, period := range []int{0, -1} {
		_, err := DueDates(date(2024, 1, 1), period, date(2024, 6, 1))
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("DueDates(period=%d) error = %v, want ErrInvalidConfiguration", period, err)
		}
	}
}

// Увеличение asOf никогда не уменьшает число неоплаченных периодов.
func TestDueDates_MonotonicInAsOf(t *testing.T) {
	lastPayment := date(2024, 1, 15)
	prev := 0
	for day := 0; day < 400; day += 7 {
		asOf := lastPayment.AddDate(0, 0, day)
		got, err := DueDates(lastPayment, 1, asOf)
		if err != nil {
			t.Fatalf("DueDates() unexpected error: %v", err)
		}
		if len(got) < prev {
			t.Fatalf("unpaid periods decreased from %d to %d at asOf=%v", prev, len(got), asOf)
		}
		prev = len(got)
	}
}
