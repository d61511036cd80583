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

	"github.com/magabrotheeeer/subscription-splitter/internal/lib/billing"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListBillableMemberships(ctx context.Context) ([]*models.BillableMembership, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BillableMembership), args.Error(1)
}
func (m *RepoMock) ListPrices(ctx context.Context, subscriptionID int) ([]models.PriceRecord, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PriceRecord), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestSchedulerService_CollectOverdue(t *testing.T) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	longAgo := billing.AddMonths(today, -3)

	memberships := []*models.BillableMembership{
		{
			SubscriptionID:    7,
			SubscriptionName:  "Netflix",
			Username:          "bob",
			Email:             "bob@example.com",
			RenewPeriodMonths: 1,
			LastPaymentDate:   longAgo,
			MemberCount:       2,
		},
		{
			SubscriptionID:    7,
			SubscriptionName:  "Netflix",
			Username:          "alice",
			Email:             "alice@example.com",
			RenewPeriodMonths: 1,
			LastPaymentDate:   today,
			MemberCount:       2,
		},
	}
	prices := []models.PriceRecord{
		{ID: 1, SubscriptionID: 7, Price: decimal.RequireFromString("10"),
			ValidFrom: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	repo := new(RepoMock)
	repo.On("ListBillableMemberships", mock.Anything).Return(memberships, nil).Once()
	// Одна подписка — один запрос истории цен.
	repo.On("ListPrices", mock.Anything, 7).Return(prices, nil).Once()

	svc := NewSchedulerService(repo, newNoopLogger())
	reminders, err := svc.CollectOverdue(context.Background())
	require.NoError(t, err)

	require.Len(t, reminders, 1)
	assert.Equal(t, "bob@example.com", reminders[0].Email)
	assert.Equal(t, "Netflix", reminders[0].SubscriptionName)
	assert.Equal(t, 3, reminders[0].UnpaidPeriods)
	assert.Equal(t, "15.00", reminders[0].TotalOwed)
	repo.AssertExpectations(t)
}

func TestSchedulerService_CollectOverdue_EmptyHistory(t *testing.T) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	longAgo := billing.AddMonths(today, -2)
	memberships := []*models.BillableMembership{
		{
			SubscriptionID:    9,
			SubscriptionName:  "Spotify",
			Username:          "bob",
			Email:             "bob@example.com",
			RenewPeriodMonths: 1,
			LastPaymentDate:   longAgo,
			MemberCount:       1,
		},
	}

	repo := new(RepoMock)
	repo.On("ListBillableMemberships", mock.Anything).Return(memberships, nil).Once()
	repo.On("ListPrices", mock.Anything, 9).Return([]models.PriceRecord{}, nil).Once()

	svc := NewSchedulerService(repo, newNoopLogger())
	reminders, err := svc.CollectOverdue(context.Background())
	require.NoError(t, err)

	// Периоды без известной цены всё равно считаются просроченными,
	// сумма долга складывается только из известных цен.
	require.Len(t, reminders, 1)
	assert.Equal(t, 2, reminders[0].UnpaidPeriods)
	assert.Equal(t, "0.00", reminders[0].TotalOwed)
	repo.AssertExpectations(t)
}
