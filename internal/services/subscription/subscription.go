// Package services содержит бизнес-логику для управления общими подписками:
// создание и чтение, смена цены, состав участников и кеширование.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-splitter/internal/models"
	"github.com/magabrotheeeer/subscription-splitter/internal/storage/repository"
)

// Ошибки уровня бизнес-логики подписок.
var (
	// ErrNotAdmin возвращается, когда действие доступно только администратору подписки.
	ErrNotAdmin = errors.New("user is not the subscription admin")
	// ErrNotMember возвращается, когда пользователь не состоит в подписке.
	ErrNotMember = errors.New("user is not a member of the subscription")
	// ErrAdminRemoval возвращается при попытке удалить администратора из участников.
	ErrAdminRemoval = errors.New("subscription admin cannot be removed from members")
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// CreateSubscription добавляет новую подписку и возвращает её ID.
	CreateSubscription(ctx context.Context, sub models.Subscription) (int, error)
	// ReadSubscription возвращает подписку по ID.
	ReadSubscription(ctx context.Context, id int) (*models.Subscription, error)
	// RemoveSubscription удаляет подписку по ID и возвращает количество удалённых записей.
	RemoveSubscription(ctx context.Context, id int) (int, error)
	// ListSubscriptions возвращает список подписок пользователя с пагинацией.
	ListSubscriptions(ctx context.Context, username string, limit, offset int) ([]*models.Subscription, error)
	// OpenPrice открывает новую запись цены, закрывая предыдущую открытую.
	OpenPrice(ctx context.Context, subscriptionID int, price decimal.Decimal, validFrom time.Time) (int, error)
	// ListPrices возвращает историю цен подписки.
	ListPrices(ctx context.Context, subscriptionID int) ([]models.PriceRecord, error)
	// AddMember добавляет участника в подписку.
	AddMember(ctx context.Context, subscriptionID int, username string, joinDate time.Time) (int, error)
	// RemoveMember удаляет участника из подписки.
	RemoveMember(ctx context.Context, subscriptionID int, username string) (int, error)
	// GetMembership возвращает запись участия пользователя в подписке.
	GetMembership(ctx context.Context, subscriptionID int, username string) (*models.Membership, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// SubscriptionService реализует бизнес-логику работы с подписками, включая кеширование.
type SubscriptionService struct {
	repo  SubscriptionRepository
	cache Cache
	log   *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, cache Cache, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Create создает новую подписку; создатель становится её администратором
// и первым участником. Возвращает ID созданной записи.
func (s *SubscriptionService) Create(ctx context.Context, adminUsername string, req models.DummySubscription) (int, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return 0, fmt.Errorf("invalid start date: %w", err)
	}

	sub := models.Subscription{
		Name:              req.Name,
		StartDate:         startDate,
		RenewPeriodMonths: req.RenewPeriodMonths,
		AdminUsername:     adminUsername,
	}

	id, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return 0, err
	}
	s.log.Info("created new subscription", slog.Int("id", id))

	cacheKey := fmt.Sprintf("subscription:%d", id)
	if err := s.cache.Set(cacheKey, sub, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), slog.Any("err", err))
	}

	return id, nil
}

// Read возвращает подписку по ID, используя кеш или репозиторий.
// Доступно только участникам подписки.
func (s *SubscriptionService) Read(ctx context.Context, id int, username string) (*models.Subscription, error) {
	if err := s.requireMember(ctx, id, username); err != nil {
		return nil, err
	}

	var result *models.Subscription
	cacheKey := fmt.Sprintf("subscription:%d", id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return result, nil
	}
	result, err = s.repo.ReadSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// Remove удаляет подписку целиком. Доступно только администратору.
func (s *SubscriptionService) Remove(ctx context.Context, id int, username string) (int, error) {
	if err := s.requireAdmin(ctx, id, username); err != nil {
		return 0, err
	}

	cacheKey := fmt.Sprintf("subscription:%d", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}

	count, err := s.repo.RemoveSubscription(ctx, id)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// List возвращает список подписок, в которых состоит пользователь.
func (s *SubscriptionService) List(ctx context.Context, username string, limit, offset int) ([]*models.Subscription, error) {
	return s.repo.ListSubscriptions(ctx, username, limit, offset)
}

// SetPrice устанавливает новую цену подписки. Предыдущая открытая запись
// закрывается днём раньше валидности новой — атомарно, на уровне хранилища.
// Доступно только администратору.
func (s *SubscriptionService) SetPrice(ctx context.Context, id int, username string, req models.DummyPrice) (int, error) {
	if err := s.requireAdmin(ctx, id, username); err != nil {
		return 0, err
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return 0, fmt.Errorf("invalid price: %w", err)
	}
	if price.IsNegative() {
		return 0, fmt.Errorf("price must not be negative")
	}
	validFrom, err := time.Parse("2006-01-02", req.ValidFrom)
	if err != nil {
		return 0, fmt.Errorf("invalid valid_from date: %w", err)
	}

	priceID, err := s.repo.OpenPrice(ctx, id, price, validFrom)
	if err != nil {
		return 0, err
	}
	s.log.Info("opened new price record",
		slog.Int("subscription_id", id), slog.Int("price_id", priceID))
	return priceID, nil
}

// ListPrices возвращает историю цен подписки. Доступно участникам.
func (s *SubscriptionService) ListPrices(ctx context.Context, id int, username string) ([]models.PriceRecord, error) {
	if err := s.requireMember(ctx, id, username); err != nil {
		return nil, err
	}
	return s.repo.ListPrices(ctx, id)
}

// AddMember добавляет участника в подписку. Дата вступления по умолчанию —
// сегодня; с неё же стартует last_payment_date нового участника.
// Доступно только администратору.
func (s *SubscriptionService) AddMember(ctx context.Context, id int, adminUsername string, req models.DummyMember) (int, error) {
	if err := s.requireAdmin(ctx, id, adminUsername); err != nil {
		return 0, err
	}

	joinDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.JoinDate != "" {
		var err error
		joinDate, err = time.Parse("2006-01-02", req.JoinDate)
		if err != nil {
			return 0, fmt.Errorf("invalid join date: %w", err)
		}
	}

	memberID, err := s.repo.AddMember(ctx, id, req.Username, joinDate)
	if err != nil {
		return 0, err
	}
	s.log.Info("added subscription member",
		slog.Int("subscription_id", id), slog.String("username", req.Username))
	return memberID, nil
}

// RemoveMember удаляет участника из подписки. Администратора удалить нельзя.
// Доступно только администратору.
func (s *SubscriptionService) RemoveMember(ctx context.Context, id int, adminUsername, username string) (int, error) {
	if err := s.requireAdmin(ctx, id, adminUsername); err != nil {
		return 0, err
	}
	if username == adminUsername {
		return 0, ErrAdminRemoval
	}

	count, err := s.repo.RemoveMember(ctx, id, username)
	if err != nil {
		return 0, err
	}
	s.log.Info("removed subscription member",
		slog.Int("subscription_id", id), slog.String("username", username))
	return count, nil
}

func (s *SubscriptionService) requireAdmin(ctx context.Context, id int, username string) error {
	sub, err := s.repo.ReadSubscription(ctx, id)
	if err != nil {
		return err
	}
	if sub.AdminUsername != username {
		return ErrNotAdmin
	}
	return nil
}

func (s *SubscriptionService) requireMember(ctx context.Context, id int, username string) error {
	_, err := s.repo.GetMembership(ctx, id, username)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotMember
	}
	return err
}
