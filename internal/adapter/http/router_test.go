package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/erpledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/erpledger/internal/adapter/http/middleware"
	"github.com/iho/erpledger/internal/adapter/repository/memory"
	"github.com/iho/erpledger/internal/adapter/repository/postgres"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/infrastructure/auth"
	"github.com/iho/erpledger/internal/usecase"
)

// newRouterConfig wires every handler to real use cases over the
// in-memory store.
func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	store := memory.New()
	kv := memory.NewKV()
	locks := memory.NewRecordLockStore(kv)
	ids := postgres.NewULIDGenerator()
	logger := zerolog.Nop()
	auditRepo := memory.NewAuditRepository(store)

	deps := usecase.PostingDeps{
		TxManager:   store,
		CompanyRepo: memory.NewCompanyRepository(store),
		AccountRepo: memory.NewAccountRepository(store),
		JournalRepo: memory.NewJournalRepository(store),
		OutboxRepo:  memory.NewOutboxRepository(store),
		AuditRepo:   auditRepo,
		IDGen:       ids,
		Logger:      logger,
	}
	paymentRepo := memory.NewPaymentRepository(store)
	docRepo := memory.NewDocumentRepository(store)
	contactRepo := memory.NewContactRepository(store)

	rates := usecase.NewExchangeRateUseCase(memory.NewExchangeRateRepository(store), kv, ids, time.Minute, nil, logger)
	ledger := usecase.NewLedgerUseCase(memory.NewLedgerRepository(store), nil, logger)
	documents := usecase.NewDocumentUseCase(deps, docRepo, contactRepo, rates, locks)

	cfg := RouterConfig{
		CompanyHandler:      handler.NewCompanyHandler(usecase.NewCompanyUseCase(deps)),
		AccountHandler:      handler.NewAccountHandler(usecase.NewAccountUseCase(deps)),
		JournalHandler:      handler.NewJournalHandler(usecase.NewJournalUseCase(deps, locks)),
		PaymentHandler:      handler.NewPaymentHandler(usecase.NewPaymentUseCase(deps, paymentRepo, docRepo, contactRepo, rates, locks)),
		InvoiceHandler:      handler.NewDocumentHandler(documents, domain.DocumentInvoice),
		BillHandler:         handler.NewDocumentHandler(documents, domain.DocumentBill),
		ContactHandler:      handler.NewContactHandler(usecase.NewContactUseCase(deps, contactRepo, locks)),
		ExchangeRateHandler: handler.NewExchangeRateHandler(rates),
		LockHandler:         handler.NewLockHandler(usecase.NewRecordLockUseCase(locks, time.Minute)),
		LedgerHandler:       handler.NewLedgerHandler(ledger, usecase.NewReconciliationUseCase(deps.AccountRepo, deps.JournalRepo, ledger, nil, logger)),
		AuditHandler:        handler.NewAuditHandler(auditRepo),
		AuthHandler:         handler.NewAuthHandler(),
		HealthHandler:       handler.NewHealthHandler(),
		IdempotencyStore:    memory.NewIdempotencyStore(kv),
		Logger:              logger,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type apiClient struct {
	t      *testing.T
	router http.Handler
	token  string
}

func (c *apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			c.t.Fatalf("%s %s: decode response: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec.Code
}

func (c *apiClient) mustDo(method, path string, body any, want int, out any) {
	c.t.Helper()
	if got := c.do(method, path, body, out); got != want {
		c.t.Fatalf("%s %s: expected %d, got %d", method, path, want, got)
	}
}

type idOnly struct {
	ID string `json:"id"`
}

func TestNewRouter_HealthAndMetrics(t *testing.T) {
	router := NewRouter(newRouterConfig())

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected %s to return 200, got %d", path, rec.Code)
		}
	}
}

func TestNewRouter_InvoicePaymentFlow(t *testing.T) {
	c := &apiClient{t: t, router: NewRouter(newRouterConfig())}

	var company idOnly
	c.mustDo(http.MethodPost, "/api/v1/companies", map[string]string{"name": "Acme", "base_currency": "USD"}, http.StatusCreated, &company)

	for _, acc := range []map[string]string{
		{"code": "1000", "name": "Bank", "type": "asset", "category": "bank"},
		{"code": "1200", "name": "Receivables", "type": "asset", "category": "accounts_receivable"},
		{"code": "4000", "name": "Sales", "type": "revenue", "category": "revenue"},
	} {
		acc["company_id"] = company.ID
		c.mustDo(http.MethodPost, "/api/v1/accounts", acc, http.StatusCreated, nil)
	}

	var accounts struct {
		Data []struct {
			ID       string `json:"id"`
			Category string `json:"category"`
		} `json:"data"`
	}
	c.mustDo(http.MethodGet, "/api/v1/companies/"+company.ID+"/accounts", nil, http.StatusOK, &accounts)
	if len(accounts.Data) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(accounts.Data))
	}
	bankID := accounts.Data[0].ID

	var customer idOnly
	c.mustDo(http.MethodPost, "/api/v1/contacts", map[string]string{
		"company_id": company.ID, "kind": "customer", "name": "Globex",
	}, http.StatusCreated, &customer)

	var invoice struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		BalanceDue string `json:"balance_due"`
	}
	c.mustDo(http.MethodPost, "/api/v1/invoices", map[string]any{
		"company_id": company.ID,
		"contact_id": customer.ID,
		"issue_date": "2026-03-01",
		"currency":   "USD",
		"lines":      []map[string]string{{"description": "Consulting", "amount": "100.00"}},
	}, http.StatusCreated, &invoice)

	c.mustDo(http.MethodGet, "/api/v1/bills/"+invoice.ID, nil, http.StatusNotFound, nil)

	c.mustDo(http.MethodPost, "/api/v1/payments", map[string]any{
		"company_id":      company.ID,
		"type":            "received",
		"contact_id":      customer.ID,
		"payment_date":    "2026-03-05",
		"currency":        "USD",
		"amount":          "40",
		"bank_account_id": bankID,
		"invoice_id":      invoice.ID,
	}, http.StatusCreated, nil)

	c.mustDo(http.MethodGet, "/api/v1/invoices/"+invoice.ID, nil, http.StatusOK, &invoice)
	if invoice.Status != string(domain.DocumentStatusPartial) || invoice.BalanceDue != "60" {
		t.Fatalf("expected partial invoice with 60 due, got %s %s", invoice.Status, invoice.BalanceDue)
	}

	var tb struct {
		Balanced bool `json:"balanced"`
	}
	c.mustDo(http.MethodGet, "/api/v1/companies/"+company.ID+"/trial-balance", nil, http.StatusOK, &tb)
	if !tb.Balanced {
		t.Fatalf("expected a balanced trial balance")
	}

	c.mustDo(http.MethodGet, "/api/v1/ledger/consistency", nil, http.StatusOK, nil)
	c.mustDo(http.MethodGet, "/api/v1/companies/"+company.ID+"/reconcile", nil, http.StatusOK, nil)
	c.mustDo(http.MethodDelete, "/api/v1/invoices/"+invoice.ID, nil, http.StatusConflict, nil)
}

func TestNewRouter_AuthEnforcesRoles(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.AuthEnabled = true
		cfg.TokenVerifier = manager
	}))

	token := func(role domain.Role) string {
		tok, err := manager.Generate(&domain.User{ID: "u-" + string(role), Role: role})
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		return tok
	}

	anonymous := &apiClient{t: t, router: router}
	anonymous.mustDo(http.MethodGet, "/api/v1/ledger/consistency", nil, http.StatusUnauthorized, nil)
	anonymous.mustDo(http.MethodGet, "/health", nil, http.StatusOK, nil)

	viewer := &apiClient{t: t, router: router, token: token(domain.RoleViewer)}
	viewer.mustDo(http.MethodGet, "/api/v1/ledger/consistency", nil, http.StatusOK, nil)
	viewer.mustDo(http.MethodPost, "/api/v1/companies", map[string]string{"name": "X", "base_currency": "USD"}, http.StatusForbidden, nil)

	var me struct {
		ID string `json:"id"`
	}
	viewer.mustDo(http.MethodGet, "/api/v1/me", nil, http.StatusOK, &me)
	if me.ID != "u-viewer" {
		t.Fatalf("unexpected current user %q", me.ID)
	}

	admin := &apiClient{t: t, router: router, token: token(domain.RoleAdmin)}
	admin.mustDo(http.MethodPost, "/api/v1/companies", map[string]string{"name": "X", "base_currency": "USD"}, http.StatusCreated, nil)
	admin.mustDo(http.MethodGet, "/api/v1/audit-logs", nil, http.StatusOK, nil)
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1)
	}))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "1.2.3.4:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429, got %v", codes)
	}
}

func TestNewRouter_IdempotentCompanyCreate(t *testing.T) {
	router := NewRouter(newRouterConfig())

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/companies", bytes.NewBufferString(`{"name":"Acme","base_currency":"USD"}`))
		req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first, second := post(), post()
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected both 201, got %d/%d", first.Code, second.Code)
	}
	if second.Header().Get(apimiddleware.IdempotencyReplayHeader) != "true" || !bytes.Equal(bytes.TrimSpace(first.Body.Bytes()), bytes.TrimSpace(second.Body.Bytes())) {
		t.Fatalf("expected second response to replay the first")
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.CORSAllowedOrigins = []string{"https://books.example"}
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/payments", nil)
	req.Header.Set("Origin", "https://books.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://books.example" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Routes)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/companies/",
		"GET /api/v1/companies/{companyID}/",
		"GET /api/v1/companies/{companyID}/trial-balance",
		"GET /api/v1/accounts/{id}/lines",
		"POST /api/v1/journal-entries/{id}/reverse",
		"PUT /api/v1/payments/{id}",
		"POST /api/v1/payments/{id}/void",
		"DELETE /api/v1/bills/{id}",
		"POST /api/v1/invoices/{id}/void",
		"PUT /api/v1/contacts/{id}/opening-balance",
		"POST /api/v1/exchange-rates/",
		"DELETE /api/v1/locks/{resource}/{id}/",
		"GET /api/v1/ledger/consistency",
		"GET /api/v1/audit-logs",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}
