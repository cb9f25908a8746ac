package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/infrastructure/auth"
	"github.com/iho/erpledger/internal/infrastructure/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1})

	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected json output:\n%s", buf.String())
	}
}

func TestConsistencyCmd(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{
			name:   "balanced",
			status: http.StatusOK,
			body:   `{"status":"consistent","consistent":true,"total_debits":"150","total_credits":"150"}`,
			want:   "PASSED",
		},
		{
			name:    "unbalanced",
			status:  http.StatusConflict,
			body:    `{"status":"inconsistent","consistent":false,"total_debits":"150","total_credits":"149.99"}`,
			want:    "FAILED",
			wantErr: true,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"error":"failed to check consistency"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var auth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/ledger/consistency" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				auth = r.Header.Get("Authorization")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out, err := run(t, "consistency", "--url", srv.URL, "--token", "tok")
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Fatalf("expected %q in output:\n%s", tt.want, out)
			}
			if auth != "Bearer tok" {
				t.Fatalf("expected bearer token to be sent, got %q", auth)
			}
		})
	}
}

func TestTrialBalanceCmd(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`{
			"company_id":"co-1","as_of":"2026-03-31","balanced":true,
			"total_debits":"100","total_credits":"100",
			"lines":[
				{"account_code":"1000","account_name":"Bank","debits":"100","credits":"0","balance":"100"},
				{"account_code":"4000","account_name":"Consulting revenue from long named clients","debits":"0","credits":"100","balance":"100"}
			]}`))
	}))
	defer srv.Close()

	out, err := run(t, "trial-balance", "co-1", "--as-of", "2026-03-31", "--url", srv.URL)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if query != "as_of=2026-03-31" {
		t.Fatalf("unexpected query %q", query)
	}
	for _, want := range []string{"as of 2026-03-31", "100.00", "TOTAL", "Consulting revenue from lon..."} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestReconcileCmdReportsDiscrepancies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/companies/co-1/reconcile" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"company_id":"co-1","total_accounts":2,"reconciled_accounts":1,"ledger_consistent":true,
			"discrepancies":[{"account_code":"1000","recorded_balance":"10","calculated_balance":"9","difference":"1"}]}`))
	}))
	defer srv.Close()

	out, err := run(t, "reconcile", "co-1", "--url", srv.URL)
	if !errors.Is(err, errCheckFailed) {
		t.Fatalf("expected check failure, got %v", err)
	}
	if !strings.Contains(out, "1/2") || !strings.Contains(out, "1000") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestTokenIssueCmd(t *testing.T) {
	out, err := run(t, "token", "issue", "--user", "alice", "--role", "admin", "--secret", "s3cret", "--ttl", "1h")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	claims, err := auth.NewJWTManager("s3cret", time.Hour).Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != "alice" || claims.Role != domain.RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := run(t, "token", "issue", "--user", "bob", "--role", "root", "--secret", "s3cret"); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
}

func TestTokenIssueRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_ENABLED", "false")

	if _, err := run(t, "token", "issue", "--user", "alice"); err == nil {
		t.Fatalf("expected error without a signing secret")
	}
}

func TestMigrateCmd(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://from-env")
	t.Setenv("MIGRATIONS_PATH", "db/migrations")

	orig := migrator
	defer func() { migrator = orig }()

	var calls []string
	migrator.up = func(url, path string, _ *config.Config) error {
		calls = append(calls, "up "+url+" "+path)
		return nil
	}
	migrator.down = func(url, path string, steps int, _ *config.Config) error {
		calls = append(calls, "down "+url)
		if steps != 2 {
			t.Errorf("expected 2 steps, got %d", steps)
		}
		return nil
	}
	migrator.version = func(url, path string) (uint, bool, error) {
		return 7, false, nil
	}

	if _, err := run(t, "migrate", "up"); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if _, err := run(t, "migrate", "down", "2", "--database-url", "postgres://flag"); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	out, err := run(t, "migrate", "version")
	if err != nil || !strings.Contains(out, "version 7") {
		t.Fatalf("migrate version: %v %s", err, out)
	}
	if _, err := run(t, "migrate", "down", "zero"); err == nil {
		t.Fatalf("expected invalid steps to fail")
	}

	if len(calls) != 2 || calls[0] != "up postgres://from-env db/migrations" || calls[1] != "down postgres://flag" {
		t.Fatalf("unexpected migrator calls %v", calls)
	}
}
