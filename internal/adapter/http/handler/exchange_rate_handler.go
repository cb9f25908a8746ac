package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// ExchangeRateService defines the behavior needed by ExchangeRateHandler.
type ExchangeRateService interface {
	SetRate(ctx context.Context, input usecase.SetRateInput) (*domain.ExchangeRate, error)
	GetRate(ctx context.Context, baseCurrency, quoteCurrency string, at time.Time) (decimal.Decimal, error)
}

// ExchangeRateHandler handles exchange rate requests.
type ExchangeRateHandler struct {
	rateUC ExchangeRateService
}

// NewExchangeRateHandler creates a new ExchangeRateHandler.
func NewExchangeRateHandler(rateUC ExchangeRateService) *ExchangeRateHandler {
	return &ExchangeRateHandler{rateUC: rateUC}
}

// Set stores a rate.
func (h *ExchangeRateHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req dto.SetExchangeRateRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid exchange rate", err.Error())
		return
	}

	rate, err := h.rateUC.SetRate(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to set exchange rate", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ExchangeRateFromDomain(rate))
}

// Get resolves the rate in effect for ?base=&quote= on ?date= (today by
// default).
func (h *ExchangeRateHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	base := domain.NormalizeCurrency(q.Get("base"))
	quote := domain.NormalizeCurrency(q.Get("quote"))
	if base == "" || quote == "" {
		writeError(w, http.StatusBadRequest, "base and quote are required", "")
		return
	}

	at, err := parseDateQuery(r, "date", time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}

	rate, err := h.rateUC.GetRate(r.Context(), base, quote, at)
	if err != nil {
		writeDomainError(w, "failed to get exchange rate", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExchangeRateResponse{
		BaseCurrency:  base,
		QuoteCurrency: quote,
		Rate:          rate,
		EffectiveAt:   at,
	})
}
