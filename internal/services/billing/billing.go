// Package services содержит расчёт задолженности участников подписки:
// сбор данных из хранилища, вызов расчётного ядра и кеширование выписок.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-splitter/internal/lib/billing"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
	"github.com/magabrotheeeer/subscription-splitter/internal/storage/repository"
)

// ErrNotMember возвращается, когда выписка запрошена для пользователя,
// не состоящего в подписке.
var ErrNotMember = errors.New("user is not a member of the subscription")

// statementTTL ограничивает устаревание кешированных выписок после смены цены.
const statementTTL = 5 * time.Minute

// BillingRepository определяет методы хранилища, нужные для расчёта выписки.
type BillingRepository interface {
	ReadSubscription(ctx context.Context, id int) (*models.Subscription, error)
	GetMembership(ctx context.Context, subscriptionID int, username string) (*models.Membership, error)
	CountMembers(ctx context.Context, subscriptionID int) (int, error)
	ListPrices(ctx context.Context, subscriptionID int) ([]models.PriceRecord, error)
}

// Cache описывает методы для кэширования выписок.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// BillingService реализует расчёт задолженности участника подписки.
type BillingService struct {
	repo  BillingRepository
	cache Cache
	log   *slog.Logger
}

// NewBillingService создает новый экземпляр BillingService.
func NewBillingService(repo BillingRepository, cache Cache, log *slog.Logger) *BillingService {
	return &BillingService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// StatementKey возвращает ключ кеша выписки участника. Его же инвалидирует
// сервис платежей после регистрации оплаты.
func StatementKey(subscriptionID int, username string) string {
	return fmt.Sprintf("debt:%d:%s", subscriptionID, username)
}

// GetStatement возвращает выписку задолженности участника подписки
// на дату asOf. Нулевая asOf означает "на сегодня"; только такие выписки
// попадают в кеш, запросы на произвольную дату идут мимо него.
func (s *BillingService) GetStatement(ctx context.Context, subscriptionID int, username string, asOf time.Time) (*billing.Statement, error) {
	const op = "services.billing.GetStatement"

	membership, err := s.repo.GetMembership(ctx, subscriptionID, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotMember
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	useCache := asOf.IsZero()
	cacheKey := StatementKey(subscriptionID, username)
	if useCache {
		var cached *billing.Statement
		found, err := s.cache.Get(cacheKey, &cached)
		if err != nil {
			s.log.Warn("failed to read statement cache", slog.String("key", cacheKey), slog.Any("err", err))
		}
		if found {
			return cached, nil
		}
	}

	sub, err := s.repo.ReadSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	memberCount, err := s.repo.CountMembers(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	prices, err := s.repo.ListPrices(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	statement, err := billing.TotalOwed(billing.Input{
		RenewPeriodMonths:     sub.RenewPeriodMonths,
		LastPaymentDate:       membership.LastPaymentDate,
		MemberCount:           memberCount,
		PriceHistory:          prices,
		AsOf:                  asOf,
		UseCurrentMemberCount: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if useCache {
		if err := s.cache.Set(cacheKey, statement, statementTTL); err != nil {
			s.log.Warn("failed to cache statement", slog.String("key", cacheKey), slog.Any("err", err))
		}
	}
	return statement, nil
}
