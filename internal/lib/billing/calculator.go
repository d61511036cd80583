package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

// Статусы участия, выводимые из числа неоплаченных периодов.
// Статус никогда не хранится — он всегда пересчитывается по требованию.
const (
	StatusCurrent = "current"
	StatusOverdue = "overdue"
)

// Input — входной срез данных для расчёта долга одного участника.
// Вызывающая сторона владеет данными, движок читает их и ничего не меняет.
type Input struct {
	RenewPeriodMonths int                  // Период продления подписки в месяцах, >= 1
	LastPaymentDate   time.Time            // Дата, по которую взносы участника погашены
	MemberCount       int                  // Текущее число участников подписки, >= 0
	PriceHistory      []models.PriceRecord // История цен подписки
	AsOf              time.Time            // Дата расчёта; нулевое значение — сегодня (UTC)

	// UseCurrentMemberCount фиксирует осознанное упрощение: доля каждого
	// исторического периода считается по текущему числу участников,
	// а не по числу на момент периода. Поддерживается только true;
	// флаг вынесен в контракт, чтобы историчный подсчёт можно было
	// добавить, не меняя форму вызова.
	UseCurrentMemberCount bool
}

// PeriodCharge — одна строка разбивки долга.
// UnitPrice == nil означает пробел в истории цен: для периода не нашлось
// действующей записи, он не вносит вклад в сумму.
type PeriodCharge struct {
	DueDate   time.Time        `json:"due_date"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// Statement — результат расчёта долга участника.
type Statement struct {
	UnpaidPeriods int             `json:"unpaid_periods"`
	TotalOwed     decimal.Decimal `json:"total_owed"`
	Breakdown     []PeriodCharge  `json:"breakdown"`
}

// Status возвращает статус участия: current при нуле неоплаченных периодов,
// иначе overdue.
func (s *Statement) Status() string {
	if s.UnpaidPeriods == 0 {
		return StatusCurrent
	}
	return StatusOverdue
}

// PerMemberPrice делит стоимость периода на число участников и округляет
// до двух знаков (половина — от нуля). При memberCount == 0 возвращается
// полная стоимость без деления: у подписки, временно оставшейся без
// участников, доля определена и равна цене целиком.
func PerMemberPrice(price decimal.Decimal, memberCount int) decimal.Decimal {
	if memberCount == 0 {
		return price.Round(2)
	}
	return price.Div(decimal.NewFromInt(int64(memberCount))).Round(2)
}

// TotalOwed считает задолженность участника: перечисляет даты платежей,
// для каждого периода подбирает действующую цену и долю участника,
// суммирует строки разбивки.
//
// Округление применяется ровно один раз на строку (в PerMemberPrice)
// и один раз к итоговой сумме — двойного округления не происходит,
// итог всегда в точности равен сумме строк разбивки.
func TotalOwed(in Input) (*Statement, error) {
	const op = "billing.TotalOwed"

	if in.MemberCount < 0 {
		return nil, fmt.Errorf("%s: member count must not be negative, got %d: %w",
			op, in.MemberCount, ErrInvalidConfiguration)
	}
	if !in.UseCurrentMemberCount {
		return nil, fmt.Errorf("%s: historical member counts are not tracked: %w",
			op, ErrInvalidConfiguration)
	}

	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC().Truncate(24 * time.Hour)
	}

	dueDates, err := DueDates(in.LastPaymentDate, in.RenewPeriodMonths, asOf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	statement := &Statement{
		UnpaidPeriods: len(dueDates),
		TotalOwed:     decimal.Zero,
		Breakdown:     make([]PeriodCharge, 0, len(dueDates)),
	}

	// Начало каждого периода — предыдущая дата платежа,
	// для первого периода — lastPaymentDate.
	periodStart := in.LastPaymentDate
	for _, dueDate := range dueDates {
		record, ok := PriceFor(dueDate, periodStart, in.PriceHistory)
		if !ok {
			statement.Breakdown = append(statement.Breakdown, PeriodCharge{DueDate: dueDate})
			periodStart = dueDate
			continue
		}
		unit := PerMemberPrice(record.Price, in.MemberCount)
		statement.Breakdown = append(statement.Breakdown, PeriodCharge{DueDate: dueDate, UnitPrice: &unit})
		statement.TotalOwed = statement.TotalOwed.Add(unit)
		periodStart = dueDate
	}

	statement.TotalOwed = statement.TotalOwed.Round(2)
	return statement, nil
}
