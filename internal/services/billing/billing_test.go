package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-splitter/internal/models"
	"github.com/magabrotheeeer/subscription-splitter/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ReadSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) GetMembership(ctx context.Context, subscriptionID int, username string) (*models.Membership, error) {
	args := m.Called(ctx, subscriptionID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}
func (m *RepoMock) CountMembers(ctx context.Context, subscriptionID int) (int, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListPrices(ctx context.Context, subscriptionID int) ([]models.PriceRecord, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PriceRecord), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBillingService_GetStatement(t *testing.T) {
	sub := &models.Subscription{
		ID:                7,
		Name:              "Netflix",
		StartDate:         date(2024, 1, 15),
		RenewPeriodMonths: 1,
		AdminUsername:     "alice",
	}
	membership := &models.Membership{
		ID:              3,
		SubscriptionID:  7,
		Username:        "bob",
		LastPaymentDate: date(2024, 1, 15),
	}
	prices := []models.PriceRecord{
		{ID: 1, SubscriptionID: 7, Price: decimal.RequireFromString("10"), ValidFrom: date(2024, 1, 1)},
	}

	repo := new(RepoMock)
	cache := new(CacheMock)
	repo.On("GetMembership", mock.Anything, 7, "bob").Return(membership, nil).Once()
	repo.On("ReadSubscription", mock.Anything, 7).Return(sub, nil).Once()
	repo.On("CountMembers", mock.Anything, 7).Return(2, nil).Once()
	repo.On("ListPrices", mock.Anything, 7).Return(prices, nil).Once()

	svc := NewBillingService(repo, cache, newNoopLogger())
	// Явная asOf идёт мимо кеша.
	statement, err := svc.GetStatement(context.Background(), 7, "bob", date(2024, 4, 20))
	require.NoError(t, err)

	assert.Equal(t, 3, statement.UnpaidPeriods)
	assert.True(t, statement.TotalOwed.Equal(decimal.RequireFromString("15")),
		"want 15, got %s", statement.TotalOwed)
	repo.AssertExpectations(t)
	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestBillingService_GetStatement_NotMember(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	repo.On("GetMembership", mock.Anything, 7, "mallory").
		Return(nil, repository.ErrNotFound).Once()

	svc := NewBillingService(repo, cache, newNoopLogger())
	_, err := svc.GetStatement(context.Background(), 7, "mallory", time.Time{})
	assert.ErrorIs(t, err, ErrNotMember)
	repo.AssertExpectations(t)
}

func TestBillingService_GetStatement_CachesDefaultDate(t *testing.T) {
	sub := &models.Subscription{ID: 7, RenewPeriodMonths: 1, AdminUsername: "alice"}
	membership := &models.Membership{
		ID:              3,
		SubscriptionID:  7,
		Username:        "bob",
		LastPaymentDate: time.Now().UTC().Truncate(24 * time.Hour),
	}

	repo := new(RepoMock)
	cache := new(CacheMock)
	repo.On("GetMembership", mock.Anything, 7, "bob").Return(membership, nil).Once()
	repo.On("ReadSubscription", mock.Anything, 7).Return(sub, nil).Once()
	repo.On("CountMembers", mock.Anything, 7).Return(2, nil).Once()
	repo.On("ListPrices", mock.Anything, 7).Return([]models.PriceRecord{}, nil).Once()
	cache.On("Get", "debt:7:bob", mock.Anything).Return(false, nil).Once()
	cache.On("Set", "debt:7:bob", mock.Anything, statementTTL).Return(nil).Once()

	svc := NewBillingService(repo, cache, newNoopLogger())
	statement, err := svc.GetStatement(context.Background(), 7, "bob", time.Time{})
	require.NoError(t, err)
	assert.Zero(t, statement.UnpaidPeriods)
	cache.AssertExpectations(t)
}
