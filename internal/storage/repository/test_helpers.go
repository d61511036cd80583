package repository

import (
	"context"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testSchema повторяет migrations/000001_init.up.sql, чтобы интеграционные
// тесты не зависели от относительных путей до каталога миграций.
const testSchema = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";
CREATE TABLE IF NOT EXISTS users (
    uid uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    email text NOT NULL,
    username text NOT NULL UNIQUE,
    password_hash text NOT NULL,
    created_at timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS subscriptions (
    id serial PRIMARY KEY,
    name text NOT NULL,
    start_date date NOT NULL,
    renew_period_months int NOT NULL CHECK (renew_period_months >= 1),
    admin_username text NOT NULL REFERENCES users(username) ON DELETE CASCADE,
    created_at timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS subscription_members (
    id serial PRIMARY KEY,
    subscription_id int NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
    username text NOT NULL REFERENCES users(username) ON DELETE CASCADE,
    last_payment_date date NOT NULL,
    joined_at date NOT NULL,
    CONSTRAINT unique_subscription_member UNIQUE (subscription_id, username)
);
CREATE TABLE IF NOT EXISTS subscription_prices (
    id serial PRIMARY KEY,
    subscription_id int NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
    price numeric(12,2) NOT NULL CHECK (price >= 0),
    valid_from date NOT NULL,
    valid_to date
);
CREATE UNIQUE INDEX IF NOT EXISTS one_open_price_per_subscription
    ON subscription_prices (subscription_id) WHERE valid_to IS NULL;
CREATE TABLE IF NOT EXISTS payments (
    id serial PRIMARY KEY,
    member_id int NOT NULL REFERENCES subscription_members(id) ON DELETE CASCADE,
    amount numeric(12,2) NOT NULL CHECK (amount >= 0),
    periods int NOT NULL CHECK (periods >= 1),
    paid_at date NOT NULL,
    created_at timestamptz NOT NULL DEFAULT now()
);
`

// setupTestDatabase поднимает контейнер PostgreSQL, применяет схему
// и возвращает готовое хранилище с функцией очистки.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("splitter_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort(nat.Port("5432/tcp")),
			).WithDeadline(2*time.Minute),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err)

	_, err = storage.DB.ExecContext(ctx, testSchema)
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.DB.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return storage, cleanup
}

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя
func (f *TestDataFactory) CreateUser(t *testing.T, username, email, passwordHash string) {
	t.Helper()
	_, err := f.storage.DB.Exec(`INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)`,
		username, email, passwordHash)
	require.NoError(t, err)
}

// CreateSubscription создает тестовую подписку вместе с записью участия администратора
func (f *TestDataFactory) CreateSubscription(t *testing.T, name string, startDate time.Time,
	renewPeriodMonths int, adminUsername string) int {
	t.Helper()
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO subscriptions
		(name, start_date, renew_period_months, admin_username)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		name, startDate, renewPeriodMonths, adminUsername).Scan(&id)
	require.NoError(t, err)

	_, err = f.storage.DB.Exec(`INSERT INTO subscription_members
		(subscription_id, username, last_payment_date, joined_at)
		VALUES ($1, $2, $3, $3)`,
		id, adminUsername, startDate)
	require.NoError(t, err)
	return id
}

// CreateMember создает тестовую запись участия
func (f *TestDataFactory) CreateMember(t *testing.T, subscriptionID int, username string, joinDate time.Time) int {
	t.Helper()
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO subscription_members
		(subscription_id, username, last_payment_date, joined_at)
		VALUES ($1, $2, $3, $3) RETURNING id`,
		subscriptionID, username, joinDate).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreatePrice создает тестовую запись цены
func (f *TestDataFactory) CreatePrice(t *testing.T, subscriptionID int, price string,
	validFrom time.Time, validTo *time.Time) int {
	t.Helper()
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO subscription_prices
		(subscription_id, price, valid_from, valid_to)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		subscriptionID, decimal.RequireFromString(price), validFrom, validTo).Scan(&id)
	require.NoError(t, err)
	return id
}
