// Package services содержит логику регистрации платежей участников:
// журнал оплат и атомарное продвижение даты последней оплаты.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-splitter/internal/lib/billing"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
	"github.com/magabrotheeeer/subscription-splitter/internal/storage/repository"
)

// ErrNotMember возвращается, когда платёж регистрируется для пользователя,
// не состоящего в подписке.
var ErrNotMember = errors.New("user is not a member of the subscription")

// PaymentRepository определяет методы хранилища для работы с платежами.
type PaymentRepository interface {
	ReadSubscription(ctx context.Context, id int) (*models.Subscription, error)
	GetMembership(ctx context.Context, subscriptionID int, username string) (*models.Membership, error)
	// RegisterPayment добавляет запись в журнал и продвигает дату последней
	// оплаты участника в одной транзакции.
	RegisterPayment(ctx context.Context, memberID int, amount decimal.Decimal,
		periods int, paidAt, newLastPaymentDate time.Time) (int, error)
	ListPayments(ctx context.Context, memberID int, limit, offset int) ([]*models.PaymentEntry, error)
}

// Cache описывает инвалидацию кешированных выписок.
type Cache interface {
	Invalidate(key string) error
}

// PaymentService реализует бизнес-логику платежей.
type PaymentService struct {
	repo  PaymentRepository
	cache Cache
	log   *slog.Logger
}

// NewPaymentService создает новый экземпляр PaymentService.
func NewPaymentService(repo PaymentRepository, cache Cache, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Register регистрирует оплату periods расчётных периодов пользователем.
// Дата последней оплаты продвигается календарно от прежнего значения,
// с прижатием к концу короткого месяца. Возвращает ID записи журнала
// и новую дату последней оплаты.
func (s *PaymentService) Register(ctx context.Context, subscriptionID int, username string, req models.DummyPayment) (int, time.Time, error) {
	const op = "services.payment.Register"

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.IsNegative() {
		return 0, time.Time{}, fmt.Errorf("amount must not be negative")
	}

	paidAt := time.Now().UTC().Truncate(24 * time.Hour)
	if req.PaidAt != "" {
		paidAt, err = time.Parse("2006-01-02", req.PaidAt)
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("invalid paid_at date: %w", err)
		}
	}

	sub, err := s.repo.ReadSubscription(ctx, subscriptionID)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	membership, err := s.repo.GetMembership(ctx, subscriptionID, username)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, time.Time{}, ErrNotMember
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	newLast := billing.AddMonths(membership.LastPaymentDate, req.Periods*sub.RenewPeriodMonths)
	paymentID, err := s.repo.RegisterPayment(ctx, membership.ID, amount, req.Periods, paidAt, newLast)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("registered payment",
		slog.Int("payment_id", paymentID),
		slog.Int("subscription_id", subscriptionID),
		slog.String("username", username),
		slog.Int("periods", req.Periods))

	cacheKey := fmt.Sprintf("debt:%d:%s", subscriptionID, username)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate statement cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return paymentID, newLast, nil
}

// List возвращает журнал платежей пользователя в подписке с пагинацией.
func (s *PaymentService) List(ctx context.Context, subscriptionID int, username string, limit, offset int) ([]*models.PaymentEntry, error) {
	const op = "services.payment.List"

	membership, err := s.repo.GetMembership(ctx, subscriptionID, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotMember
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.repo.ListPayments(ctx, membership.ID, limit, offset)
}
