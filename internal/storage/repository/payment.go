package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

// RegisterPayment записывает платёж в журнал и продвигает last_payment_date
// участника. Обе записи выполняются в одной транзакции: прерывание не
// оставит платёж без сдвига даты или сдвиг даты без платежа.
func (s *Storage) RegisterPayment(ctx context.Context, memberID int, amount decimal.Decimal,
	periods int, paidAt, newLastPaymentDate time.Time) (int, error) {
	const op = "storage.RegisterPayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var newID int
	insertQuery := `INSERT INTO payments (member_id, amount, periods, paid_at)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	if err := tx.QueryRowContext(ctx, insertQuery, memberID, amount, periods, paidAt).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	advanceQuery := `UPDATE subscription_members SET last_payment_date = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, advanceQuery, memberID, newLastPaymentDate); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListPayments возвращает журнал платежей участника в порядке добавления.
func (s *Storage) ListPayments(ctx context.Context, memberID int, limit, offset int) ([]*models.PaymentEntry, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, member_id, amount, periods, paid_at, created_at
			  FROM payments
			  WHERE member_id = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, memberID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.PaymentEntry
	for rows.Next() {
		var item models.PaymentEntry
		if err := rows.Scan(&item.ID, &item.MemberID, &item.Amount,
			&item.Periods, &item.PaidAt, &item.CreatedAt); err != nil {
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
