// Package services содержит периодический поиск участников с просроченными
// периодами и публикацию напоминаний в очередь.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-splitter/internal/lib/billing"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

// BillingRepository определяет методы хранилища для обхода участников.
type BillingRepository interface {
	// ListBillableMemberships возвращает все записи участия вместе с данными
	// подписки, почтой участника и количеством участников.
	ListBillableMemberships(ctx context.Context) ([]*models.BillableMembership, error)
	// ListPrices возвращает историю цен подписки.
	ListPrices(ctx context.Context, subscriptionID int) ([]models.PriceRecord, error)
}

// SchedulerService обходит участников всех подписок и собирает напоминания
// о задолженности.
type SchedulerService struct {
	repo BillingRepository
	log  *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo BillingRepository, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo: repo,
		log:  log,
	}
}

// CollectOverdue возвращает напоминания для всех участников, у которых
// есть хотя бы один неоплаченный период на сегодня. Участники без долга
// пропускаются, как и подписки с некорректной конфигурацией.
func (s *SchedulerService) CollectOverdue(ctx context.Context) ([]models.ReminderInfo, error) {
	memberships, err := s.repo.ListBillableMemberships(ctx)
	if err != nil {
		return nil, err
	}

	// История цен запрашивается один раз на подписку.
	priceCache := make(map[int][]models.PriceRecord)
	var reminders []models.ReminderInfo
	for _, m := range memberships {
		prices, ok := priceCache[m.SubscriptionID]
		if !ok {
			prices, err = s.repo.ListPrices(ctx, m.SubscriptionID)
			if err != nil {
				s.log.Error("failed to list prices",
					slog.Int("subscription_id", m.SubscriptionID), sl.Err(err))
				continue
			}
			priceCache[m.SubscriptionID] = prices
		}

		statement, err := billing.TotalOwed(billing.Input{
			RenewPeriodMonths:     m.RenewPeriodMonths,
			LastPaymentDate:       m.LastPaymentDate,
			MemberCount:           m.MemberCount,
			PriceHistory:          prices,
			UseCurrentMemberCount: true,
		})
		if err != nil {
			s.log.Error("failed to compute statement",
				slog.Int("subscription_id", m.SubscriptionID),
				slog.String("username", m.Username), sl.Err(err))
			continue
		}
		if statement.UnpaidPeriods == 0 {
			continue
		}

		reminders = append(reminders, models.ReminderInfo{
			Email:            m.Email,
			Username:         m.Username,
			SubscriptionName: m.SubscriptionName,
			UnpaidPeriods:    statement.UnpaidPeriods,
			TotalOwed:        statement.TotalOwed.StringFixed(2),
		})
	}
	return reminders, nil
}

// Run запускает периодический обход с публикацией напоминаний в очередь.
// Останавливается при отмене контекста.
func (s *SchedulerService) Run(ctx context.Context, channel *amqp.Channel, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("reminder scheduler stopped")
			return
		case <-ticker.C:
			s.log.Info("starting overdue members scan")
			reminders, err := s.CollectOverdue(ctx)
			if err != nil {
				s.log.Error("failed to collect overdue members", sl.Err(err))
				continue
			}
			for _, reminder := range reminders {
				err = rabbitmq.PublishMessage(channel, rabbitmq.ReminderExchange, "overdue", reminder)
				if err != nil {
					s.log.Error("failed to publish message", sl.Err(err))
				}
			}
			s.log.Info("overdue members scan finished", slog.Int("reminders", len(reminders)))
		}
	}
}
