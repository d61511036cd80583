package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

func TestStorage_CreateAndReadSubscription(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "alice", "alice@example.com", "hashedpassword")

	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	id, err := storage.CreateSubscription(context.Background(), models.Subscription{
		Name:              "Spotify Family",
		StartDate:         startDate,
		RenewPeriodMonths: 1,
		AdminUsername:     "alice",
	})
	require.NoError(t, err)

	got, err := storage.ReadSubscription(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Spotify Family", got.Name)
	assert.Equal(t, 1, got.RenewPeriodMonths)
	assert.Equal(t, "alice", got.AdminUsername)

	// Администратор автоматически становится участником.
	count, err := storage.CountMembers(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	membership, err := storage.GetMembership(context.Background(), id, "alice")
	require.NoError(t, err)
	assert.True(t, membership.LastPaymentDate.Equal(startDate))
}

func TestStorage_ReadSubscription_NotFound(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	_, err := storage.ReadSubscription(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_OpenPrice_ClosesPreviousRecord(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "alice", "alice@example.com", "hashedpassword")
	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	subID := factory.CreateSubscription(t, "Netflix", startDate, 1, "alice")

	_, err := storage.OpenPrice(context.Background(), subID,
		decimal.RequireFromString("10"), startDate)
	require.NoError(t, err)

	newValidFrom := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	_, err = storage.OpenPrice(context.Background(), subID,
		decimal.RequireFromString("20"), newValidFrom)
	require.NoError(t, err)

	prices, err := storage.ListPrices(context.Background(), subID)
	require.NoError(t, err)
	require.Len(t, prices, 2)

	// Старая запись закрыта днём раньше начала новой, открытая осталась одна.
	require.NotNil(t, prices[0].ValidTo)
	assert.True(t, prices[0].ValidTo.Equal(time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, prices[1].ValidTo)
	assert.True(t, prices[1].Price.Equal(decimal.RequireFromString("20")))
}

func TestStorage_RegisterPayment_AdvancesLastPaymentDate(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "alice", "alice@example.com", "hashedpassword")
	factory.CreateUser(t, "bob", "bob@example.com", "hashedpassword")
	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	subID := factory.CreateSubscription(t, "Netflix", startDate, 1, "alice")
	memberID := factory.CreateMember(t, subID, "bob", startDate)

	paidAt := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	newLast := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	paymentID, err := storage.RegisterPayment(context.Background(), memberID,
		decimal.RequireFromString("10"), 2, paidAt, newLast)
	require.NoError(t, err)
	assert.Positive(t, paymentID)

	membership, err := storage.GetMembership(context.Background(), subID, "bob")
	require.NoError(t, err)
	assert.True(t, membership.LastPaymentDate.Equal(newLast))

	payments, err := storage.ListPayments(context.Background(), memberID, 10, 0)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 2, payments[0].Periods)
	assert.True(t, payments[0].Amount.Equal(decimal.RequireFromString("10")))
}

func TestStorage_ListBillableMemberships(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "alice", "alice@example.com", "hashedpassword")
	factory.CreateUser(t, "bob", "bob@example.com", "hashedpassword")
	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	subID := factory.CreateSubscription(t, "Netflix", startDate, 1, "alice")
	factory.CreateMember(t, subID, "bob", startDate)

	billable, err := storage.ListBillableMemberships(context.Background())
	require.NoError(t, err)
	require.Len(t, billable, 2)

	for _, b := range billable {
		assert.Equal(t, subID, b.SubscriptionID)
		assert.Equal(t, "Netflix", b.SubscriptionName)
		assert.Equal(t, 2, b.MemberCount)
		assert.NotEmpty(t, b.Email)
	}
}

func TestStorage_RemoveMember(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "alice", "alice@example.com", "hashedpassword")
	factory.CreateUser(t, "bob", "bob@example.com", "hashedpassword")
	startDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	subID := factory.CreateSubscription(t, "Netflix", startDate, 1, "alice")
	factory.CreateMember(t, subID, "bob", startDate)

	affected, err := storage.RemoveMember(context.Background(), subID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	count, err := storage.CountMembers(context.Background(), subID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
