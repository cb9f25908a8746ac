package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/infrastructure/metrics"
)

// RateResolver picks the exchange rate used to convert a document into the
// company's base currency.
type RateResolver interface {
	Resolve(ctx context.Context, quoteCurrency, baseCurrency string, explicit decimal.Decimal, at time.Time) (decimal.Decimal, error)
}

// ExchangeRateUseCase stores exchange rates and resolves them through a cache.
type ExchangeRateUseCase struct {
	rateRepo ExchangeRateRepository
	cache    Cache
	idGen    IDGenerator
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewExchangeRateUseCase creates a new ExchangeRateUseCase. cache may be nil.
func NewExchangeRateUseCase(
	rateRepo ExchangeRateRepository,
	cache Cache,
	idGen IDGenerator,
	cacheTTL time.Duration,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *ExchangeRateUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DefaultRateCacheTTL
	}
	return &ExchangeRateUseCase{
		rateRepo: rateRepo,
		cache:    cache,
		idGen:    idGen,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		logger:   logger,
	}
}

// SetRateInput is the input for SetRate.
type SetRateInput struct {
	BaseCurrency  string
	QuoteCurrency string
	Rate          decimal.Decimal
	EffectiveAt   time.Time
}

// SetRate stores a new rate and drops the cached value for the pair.
func (uc *ExchangeRateUseCase) SetRate(ctx context.Context, input SetRateInput) (*domain.ExchangeRate, error) {
	base := domain.NormalizeCurrency(input.BaseCurrency)
	quote := domain.NormalizeCurrency(input.QuoteCurrency)

	if err := domain.ValidateCurrency(base); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(quote); err != nil {
		return nil, err
	}
	if !input.Rate.IsPositive() {
		return nil, domain.ErrInvalidExchangeRate
	}

	now := time.Now().UTC()
	effective := input.EffectiveAt
	if effective.IsZero() {
		effective = now
	}

	rate := &domain.ExchangeRate{
		ID:            uc.idGen.Generate(),
		BaseCurrency:  base,
		QuoteCurrency: quote,
		Rate:          input.Rate,
		EffectiveAt:   effective.UTC(),
		CreatedAt:     now,
	}

	if err := uc.rateRepo.Create(ctx, rate); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Delete(ctx, rateCacheKey(base, quote, rate.EffectiveAt)); err != nil {
			uc.logger.Warn().Err(err).Str("pair", quote+"/"+base).Msg("failed to drop cached rate")
		}
	}

	return rate, nil
}

// GetRate returns the rate converting quote into base effective on the day of at.
func (uc *ExchangeRateUseCase) GetRate(ctx context.Context, baseCurrency, quoteCurrency string, at time.Time) (decimal.Decimal, error) {
	base := domain.NormalizeCurrency(baseCurrency)
	quote := domain.NormalizeCurrency(quoteCurrency)
	if base == quote {
		return decimal.NewFromInt(1), nil
	}

	key := rateCacheKey(base, quote, at)
	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, key)
		switch {
		case err == nil:
			if rate, perr := decimal.NewFromString(cached); perr == nil {
				uc.countLookup("hit")
				return rate, nil
			}
		case !errors.Is(err, ErrCacheMiss):
			uc.logger.Warn().Err(err).Str("key", key).Msg("rate cache read failed")
		}
		uc.countLookup("miss")
	}

	endOfDay := time.Date(at.Year(), at.Month(), at.Day(), 23, 59, 59, 0, time.UTC)
	rate, err := uc.rateRepo.Latest(ctx, base, quote, endOfDay)
	if err != nil {
		if errors.Is(err, domain.ErrExchangeRateNotFound) {
			return decimal.Zero, fmt.Errorf("%w: %s/%s", domain.ErrExchangeRateNotFound, quote, base)
		}
		return decimal.Zero, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, rate.Rate.String(), uc.cacheTTL); err != nil {
			uc.logger.Warn().Err(err).Str("key", key).Msg("rate cache write failed")
		}
	}

	return rate.Rate, nil
}

// Resolve implements RateResolver. An explicit positive rate wins, the same
// currency converts at 1, and anything else is looked up.
func (uc *ExchangeRateUseCase) Resolve(ctx context.Context, quoteCurrency, baseCurrency string, explicit decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	if domain.NormalizeCurrency(quoteCurrency) == domain.NormalizeCurrency(baseCurrency) {
		return decimal.NewFromInt(1), nil
	}
	if explicit.IsNegative() {
		return decimal.Zero, domain.ErrInvalidExchangeRate
	}
	if explicit.IsPositive() {
		return explicit, nil
	}
	return uc.GetRate(ctx, baseCurrency, quoteCurrency, at)
}

// Convert converts amount from quote into base at the rate effective at.
func (uc *ExchangeRateUseCase) Convert(ctx context.Context, amount decimal.Decimal, quoteCurrency, baseCurrency string, at time.Time) (decimal.Decimal, decimal.Decimal, error) {
	rate, err := uc.GetRate(ctx, baseCurrency, quoteCurrency, at)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	converted, err := domain.ConvertToBase(amount, rate, baseCurrency)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return converted, rate, nil
}

func (uc *ExchangeRateUseCase) countLookup(result string) {
	if uc.metrics != nil {
		uc.metrics.RateCacheLookups.WithLabelValues(result).Inc()
	}
}

func rateCacheKey(base, quote string, at time.Time) string {
	return "fx:" + quote + ":" + base + ":" + at.UTC().Format("2006-01-02")
}

// fixedRates resolves only same-currency conversions and explicit rates.
type fixedRates struct{}

func (fixedRates) Resolve(_ context.Context, quoteCurrency, baseCurrency string, explicit decimal.Decimal, _ time.Time) (decimal.Decimal, error) {
	if domain.NormalizeCurrency(quoteCurrency) == domain.NormalizeCurrency(baseCurrency) {
		return decimal.NewFromInt(1), nil
	}
	if explicit.IsPositive() {
		return explicit, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s/%s", domain.ErrExchangeRateNotFound, quoteCurrency, baseCurrency)
}
