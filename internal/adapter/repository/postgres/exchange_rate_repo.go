package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/erpledger/internal/domain"
)

// ExchangeRateRepository implements usecase.ExchangeRateRepository.
type ExchangeRateRepository struct {
	db DBTX
}

// NewExchangeRateRepository creates a new ExchangeRateRepository.
func NewExchangeRateRepository(db DBTX) *ExchangeRateRepository {
	return &ExchangeRateRepository{db: db}
}

func (r *ExchangeRateRepository) Create(ctx context.Context, rate *domain.ExchangeRate) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO exchange_rates (id, base_currency, quote_currency, rate, effective_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rate.ID,
		rate.BaseCurrency,
		rate.QuoteCurrency,
		decimalToNumeric(rate.Rate),
		rate.EffectiveAt,
		rate.CreatedAt,
	)
	return err
}

// Latest returns the newest rate of the pair effective at or before at.
// Among rates with the same effective time the last one stored wins.
func (r *ExchangeRateRepository) Latest(ctx context.Context, baseCurrency, quoteCurrency string, at time.Time) (*domain.ExchangeRate, error) {
	var (
		rate  domain.ExchangeRate
		value pgtype.Numeric
	)

	err := r.db.QueryRow(ctx, `
		SELECT id, base_currency, quote_currency, rate, effective_at, created_at
		FROM exchange_rates
		WHERE base_currency = $1 AND quote_currency = $2 AND effective_at <= $3
		ORDER BY effective_at DESC, created_at DESC
		LIMIT 1`, baseCurrency, quoteCurrency, at,
	).Scan(&rate.ID, &rate.BaseCurrency, &rate.QuoteCurrency, &value, &rate.EffectiveAt, &rate.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExchangeRateNotFound
		}
		return nil, err
	}

	rate.Rate = numericToDecimal(value)
	return &rate, nil
}
