package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

// OpenPrice открывает новую запись цены подписки, закрывая предыдущую
// открытую запись днём раньше validFrom. Обе записи меняются в одной
// транзакции: прерывание не оставит две открытые записи одновременно.
func (s *Storage) OpenPrice(ctx context.Context, subscriptionID int, price decimal.Decimal, validFrom time.Time) (int, error) {
	const op = "storage.OpenPrice"
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

	closeQuery := `UPDATE subscription_prices
			  SET valid_to = $2::date - 1
			  WHERE subscription_id = $1 AND valid_to IS NULL`
	if _, err := tx.ExecContext(ctx, closeQuery, subscriptionID, validFrom); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var newID int
	openQuery := `INSERT INTO subscription_prices (subscription_id, price, valid_from)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	if err := tx.QueryRowContext(ctx, openQuery, subscriptionID, price, validFrom).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListPrices возвращает историю цен подписки в порядке возрастания valid_from.
func (s *Storage) ListPrices(ctx context.Context, subscriptionID int) ([]models.PriceRecord, error) {
	const op = "storage.ListPrices"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, subscription_id, price, valid_from, valid_to
			  FROM subscription_prices
			  WHERE subscription_id = $1
			  ORDER BY valid_from, id`
	rows, err := s.DB.QueryContext(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []models.PriceRecord
	for rows.Next() {
		var item models.PriceRecord
		if err := rows.Scan(&item.ID, &item.SubscriptionID, &item.Price,
			&item.ValidFrom, &item.ValidTo); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
