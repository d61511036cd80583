package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

// AddMember добавляет участника в подписку и возвращает ID записи участия.
// last_payment_date нового участника стартует с даты вступления:
// долг начинает накапливаться только с первого периода после неё.
func (s *Storage) AddMember(ctx context.Context, subscriptionID int, username string, joinDate time.Time) (int, error) {
	const op = "storage.AddMember"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO subscription_members (subscription_id, username, last_payment_date, joined_at)
			  VALUES ($1, $2, $3, $3)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query, subscriptionID, username, joinDate).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// RemoveMember удаляет участника из подписки и возвращает количество удалённых строк.
func (s *Storage) RemoveMember(ctx context.Context, subscriptionID int, username string) (int, error) {
	const op = "storage.RemoveMember"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM subscription_members WHERE subscription_id = $1 AND username = $2`
	result, err := s.DB.ExecContext(ctx, query, subscriptionID, username)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// GetMembership возвращает запись участия пользователя в подписке.
func (s *Storage) GetMembership(ctx context.Context, subscriptionID int, username string) (*models.Membership, error) {
	const op = "storage.GetMembership"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, subscription_id, username, last_payment_date, joined_at
			  FROM subscription_members
			  WHERE subscription_id = $1 AND username = $2`
	row := s.DB.QueryRowContext(ctx, query, subscriptionID, username)

	var result models.Membership
	if err := row.Scan(&result.ID, &result.SubscriptionID, &result.Username,
		&result.LastPaymentDate, &result.JoinedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// CountMembers возвращает текущее число участников подписки.
func (s *Storage) CountMembers(ctx context.Context, subscriptionID int) (int, error) {
	const op = "storage.CountMembers"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT count(*) FROM subscription_members WHERE subscription_id = $1`
	if err := s.DB.QueryRowContext(ctx, query, subscriptionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListBillableMemberships возвращает срезы данных всех участий для
// планировщика напоминаний: конфигурация подписки, дата последнего платежа,
// почта участника и текущее число участников.
func (s *Storage) ListBillableMemberships(ctx context.Context) ([]*models.BillableMembership, error) {
	const op = "storage.ListBillableMemberships"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.name, m.username, u.email, s.renew_period_months, m.last_payment_date,
			      (SELECT count(*) FROM subscription_members mc WHERE mc.subscription_id = s.id)
			  FROM subscription_members m
			  JOIN subscriptions s ON s.id = m.subscription_id
			  JOIN users u ON u.username = m.username
			  ORDER BY s.id, m.username`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.BillableMembership
	for rows.Next() {
		var item models.BillableMembership
		if err := rows.Scan(&item.SubscriptionID, &item.SubscriptionName, &item.Username,
			&item.Email, &item.RenewPeriodMonths, &item.LastPaymentDate, &item.MemberCount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
