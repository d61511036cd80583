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
func (m *RepoMock) RegisterPayment(ctx context.Context, memberID int, amount decimal.Decimal,
	periods int, paidAt, newLastPaymentDate time.Time) (int, error) {
	args := m.Called(ctx, memberID, amount, periods, paidAt, newLastPaymentDate)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListPayments(ctx context.Context, memberID int, limit, offset int) ([]*models.PaymentEntry, error) {
	args := m.Called(ctx, memberID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentEntry), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPaymentService_Register(t *testing.T) {
	sub := &models.Subscription{ID: 7, RenewPeriodMonths: 1, AdminUsername: "alice"}
	membership := &models.Membership{
		ID:              3,
		SubscriptionID:  7,
		Username:        "bob",
		LastPaymentDate: date(2024, 1, 31),
	}

	repo := new(RepoMock)
	cache := new(CacheMock)
	repo.On("ReadSubscription", mock.Anything, 7).Return(sub, nil).Once()
	repo.On("GetMembership", mock.Anything, 7, "bob").Return(membership, nil).Once()
	// 31 января + 1 месяц прижимается к 29 февраля в високосном году.
	repo.On("RegisterPayment", mock.Anything, 3,
		decimal.RequireFromString("5.00"), 1,
		date(2024, 2, 10), date(2024, 2, 29)).
		Return(77, nil).Once()
	cache.On("Invalidate", "debt:7:bob").Return(nil).Once()

	svc := NewPaymentService(repo, cache, newNoopLogger())
	id, newLast, err := svc.Register(context.Background(), 7, "bob", models.DummyPayment{
		Amount:  "5.00",
		Periods: 1,
		PaidAt:  "2024-02-10",
	})
	require.NoError(t, err)
	assert.Equal(t, 77, id)
	assert.True(t, newLast.Equal(date(2024, 2, 29)))
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestPaymentService_Register_MultiplePeriods(t *testing.T) {
	sub := &models.Subscription{ID: 7, RenewPeriodMonths: 3, AdminUsername: "alice"}
	membership := &models.Membership{
		ID:              3,
		SubscriptionID:  7,
		Username:        "bob",
		LastPaymentDate: date(2024, 1, 15),
	}

	repo := new(RepoMock)
	cache := new(CacheMock)
	repo.On("ReadSubscription", mock.Anything, 7).Return(sub, nil).Once()
	repo.On("GetMembership", mock.Anything, 7, "bob").Return(membership, nil).Once()
	// Два квартальных периода продвигают дату на полгода.
	repo.On("RegisterPayment", mock.Anything, 3,
		decimal.RequireFromString("20"), 2,
		date(2024, 7, 1), date(2024, 7, 15)).
		Return(78, nil).Once()
	cache.On("Invalidate", "debt:7:bob").Return(nil).Once()

	svc := NewPaymentService(repo, cache, newNoopLogger())
	_, newLast, err := svc.Register(context.Background(), 7, "bob", models.DummyPayment{
		Amount:  "20",
		Periods: 2,
		PaidAt:  "2024-07-01",
	})
	require.NoError(t, err)
	assert.True(t, newLast.Equal(date(2024, 7, 15)))
	repo.AssertExpectations(t)
}

func TestPaymentService_Register_NotMember(t *testing.T) {
	sub := &models.Subscription{ID: 7, RenewPeriodMonths: 1, AdminUsername: "alice"}

	repo := new(RepoMock)
	cache := new(CacheMock)
	repo.On("ReadSubscription", mock.Anything, 7).Return(sub, nil).Once()
	repo.On("GetMembership", mock.Anything, 7, "mallory").
		Return(nil, repository.ErrNotFound).Once()

	svc := NewPaymentService(repo, cache, newNoopLogger())
	_, _, err := svc.Register(context.Background(), 7, "mallory", models.DummyPayment{
		Amount:  "5.00",
		Periods: 1,
	})
	assert.ErrorIs(t, err, ErrNotMember)
	repo.AssertExpectations(t)
}

func TestPaymentService_Register_InvalidAmount(t *testing.T) {
	svc := NewPaymentService(new(RepoMock), new(CacheMock), newNoopLogger())
	_, _, err := svc.Register(context.Background(), 7, "bob", models.DummyPayment{
		Amount:  "ten",
		Periods: 1,
	})
	assert.Error(t, err)
}
