// Package billing реализует чистый движок расчёта задолженности участника
// общей подписки: перечисление дат платежей, подбор действующей цены
// по истории и подсчёт итоговой суммы долга.
//
// Пакет не имеет внутреннего состояния и не обращается к хранилищу:
// вызывающая сторона собирает срезы данных и передаёт их на вход.
package billing

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfiguration возвращается при нарушении входного контракта:
// неположительный период продления или отрицательное число участников.
var ErrInvalidConfiguration = errors.New("invalid billing configuration")

// AddMonths прибавляет months календарных месяцев к дате.
// В отличие от time.AddDate, день месяца ограничивается последним днём
// целевого месяца: 31 января + 1 месяц = 29 февраля (в високосный год),
// а не 2 марта.
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	total := year*12 + int(month) - 1 + months
	year, month = total/12, time.Month(total%12+1)

	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// daysIn возвращает число дней в месяце.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DueDates перечисляет даты платежей, наступившие после lastPaymentDate
// и не позже asOf. Каждая дата отмечает границу одного неоплаченного периода;
// длина результата равна числу неоплаченных периодов.
//
// k-я дата считается как lastPaymentDate + k*renewPeriodMonths от базовой даты,
// а не последовательным прибавлением периода: так ограничение конца месяца
// не накапливается (31 января -> 29 февраля -> 31 марта, а не 29 марта).
//
// Если первая дата платежа позже asOf, результат пуст — участник ничего не должен.
func DueDates(lastPaymentDate time.Time, renewPeriodMonths int, asOf time.Time) ([]time.Time, error) {
	const op = "billing.DueDates"
	if renewPeriodMonths <= 0 {
		return nil, fmt.Errorf("%s: renew period must be at least one month, got %d: %w",
			op, renewPeriodMonths, ErrInvalidConfiguration)
	}

	var dueDates []time.Time
	for k := 1; ; k++ {
		due := AddMonths(lastPaymentDate, k*renewPeriodMonths)
		if due.After(asOf) {
			break
		}
		dueDates = append(dueDates, due)
	}
	return dueDates, nil
}
