package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Membership связывает пользователя с подпиской.
// LastPaymentDate — дата, по которую взносы участника считаются погашенными;
// именно от неё движок расчёта долга отсчитывает неоплаченные периоды.
// На пару (подписка, пользователь) существует ровно одна запись.
type Membership struct {
	ID              int       // Идентификатор записи участия
	SubscriptionID  int       // Подписка
	Username        string    // Имя участника
	LastPaymentDate time.Time // Дата, по которую взносы погашены
	JoinedAt        time.Time // Дата вступления в подписку
}

// PaymentEntry — неизменяемая запись журнала платежей.
// Журнал только пополняется; движок расчёта долга его не читает,
// обязательство выводится из LastPaymentDate.
type PaymentEntry struct {
	ID        int             // Идентификатор платежа
	MemberID  int             // Запись участия, к которой относится платёж
	Amount    decimal.Decimal // Сумма платежа
	Periods   int             // Сколько периодов покрывает платёж
	PaidAt    time.Time       // Дата платежа
	CreatedAt time.Time       // Дата создания записи
}

// DummyMember используется для приёма данных о новом участнике из JSON-запроса.
type DummyMember struct {
	Username string `json:"username" validate:"required,alphanum"`                // Имя добавляемого участника
	JoinDate string `json:"join_date" validate:"omitempty,datetime=2006-01-02"`   // Дата вступления, по умолчанию сегодня
}

// DummyPayment используется для приёма платежа из JSON-запроса.
type DummyPayment struct {
	Amount  string `json:"amount" validate:"required"`                        // Сумма платежа
	Periods int    `json:"periods" validate:"required,gte=1"`                 // Сколько периодов покрывает платёж
	PaidAt  string `json:"paid_at" validate:"omitempty,datetime=2006-01-02"`  // Дата платежа, по умолчанию сегодня
}

// BillableMembership — срез данных участия для планировщика напоминаний:
// всё, что нужно движку для расчёта долга одного участника.
type BillableMembership struct {
	SubscriptionID    int
	SubscriptionName  string
	Username          string
	Email             string
	RenewPeriodMonths int
	LastPaymentDate   time.Time
	MemberCount       int
}

// ReminderInfo — сообщение очереди напоминаний о задолженности.
type ReminderInfo struct {
	Email            string `json:"email"`
	Username         string `json:"username"`
	SubscriptionName string `json:"subscription_name"`
	UnpaidPeriods    int    `json:"unpaid_periods"`
	TotalOwed        string `json:"total_owed"`
}
