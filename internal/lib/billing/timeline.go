package billing

import (
	"time"

	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

// PriceFor подбирает запись цены, действующую для периода,
// который заканчивается датой платежа dueDate и начинается periodStart.
//
// Запись подходит, если её ValidFrom <= dueDate и окно не закрылось
// до начала периода (ValidTo == nil или ValidTo >= periodStart).
// Период тарифицируется по цене, действующей в момент платежа,
// поэтому при пересечении окон побеждает запись с более поздним ValidFrom;
// при равных ValidFrom — более поздняя в переданной истории.
//
// Отсутствие подходящей записи — не ошибка, а пробел в истории цен:
// второй результат false, период ничего не вносит в сумму.
func PriceFor(dueDate, periodStart time.Time, records []models.PriceRecord) (*models.PriceRecord, bool) {
	var match *models.PriceRecord
	for i := range records {
		rec := &records[i]
		if rec.ValidFrom.After(dueDate) {
			continue
		}
		if rec.ValidTo != nil && rec.ValidTo.Before(periodStart) {
			continue
		}
		if match == nil || !rec.ValidFrom.Before(match.ValidFrom) {
			match = rec
		}
	}
	return match, match != nil
}
