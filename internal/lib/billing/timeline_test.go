package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

func priceRecord(id int, price string, validFrom time.Time, validTo *time.Time) models.PriceRecord {
	return models.PriceRecord{
		ID:        id,
		Price:     decimal.RequireFromString(price),
		ValidFrom: validFrom,
		ValidTo:   validTo,
	}
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestPriceFor(t *testing.T) {
	open := priceRecord(1, "10", date(2024, 1, 1), nil)
	closed := priceRecord(2, "10", date(2024, 1, 1), datePtr(2024, 3, 14))
	newer := priceRecord(3, "20", date(2024, 3, 15), nil)

	tests := []struct {
		name        string
		dueDate     time.Time
		periodStart time.Time
		records     []models.PriceRecord
		wantID      int
		wantFound   bool
	}{
		{
			name:        "single open record matches",
			dueDate:     date(2024, 2, 1),
			periodStart: date(2024, 1, 1),
			records:     []models.PriceRecord{open},
			wantID:      1,
			wantFound:   true,
		},
		{
			name:        "due date before new price, old record wins",
			dueDate:     date(2024, 3, 1),
			periodStart: date(2024, 2, 1),
			records:     []models.PriceRecord{closed, newer},
			wantID:      2,
			wantFound:   true,
		},
		{
			name:        "both match, later validFrom wins",
			dueDate:     date(2024, 4, 1),
			periodStart: date(2024, 3, 1),
			records:     []models.PriceRecord{closed, newer},
			wantID:      3,
			wantFound:   true,
		},
		{
			name:        "record expired before period start is skipped",
			dueDate:     date(2024, 6, 1),
			periodStart: date(2024, 5, 1),
			records:     []models.PriceRecord{closed},
			wantFound:   false,
		},
		{
			name:        "record starting after due date is skipped",
			dueDate:     date(2024, 2, 1),
			periodStart: date(2024, 1, 1),
			records:     []models.PriceRecord{newer},
			wantFound:   false,
		},
		{
			name:        "validFrom on due date matches",
			dueDate:     date(2024, 3, 15),
			periodStart: date(2024, 2, 15),
			records:     []models.PriceRecord{newer},
			wantID:      3,
			wantFound:   true,
		},
		{
			name:        "validTo on period start still matches",
			dueDate:     date(2024, 4, 14),
			periodStart: date(2024, 3, 14),
			records:     []models.PriceRecord{closed},
			wantID:      2,
			wantFound:   true,
		},
		{
			name:        "empty history",
			dueDate:     date(2024, 2, 1),
			periodStart: date(2024, 1, 1),
			records:     nil,
			wantFound:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := PriceFor(tt.dueDate, tt.periodStart, tt.records)
			if found != tt.wantFound {
				t.Fatalf("PriceFor() found = %v, want %v", found, tt.wantFound)
			}
			if found && got.ID != tt.wantID {
				t.Errorf("PriceFor() record ID = %d, want %d", got.ID, tt.wantID)
			}
		})
	}
}

// Выбор цены детерминирован и не зависит от порядка записей в истории.
func TestPriceFor_Deterministic(t *testing.T) {
	a := priceRecord(1, "10", date(2024, 1, 1), nil)
	b := priceRecord(2, "20", date(2024, 3, 1), nil)

	dueDate, periodStart := date(2024, 4, 1), date(2024, 3, 1)

	first, _ := PriceFor(dueDate, periodStart, []models.PriceRecord{a, b})
	second, _ := PriceFor(dueDate, periodStart, []models.PriceRecord{b, a})

	if first.ID != 2 || second.ID != 2 {
		t.Errorf("PriceFor() picked IDs %d and %d, want later validFrom (ID 2) in both orders",
			first.ID, second.ID)
	}
}
