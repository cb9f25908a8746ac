package integration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
	"github.com/iho/erpledger/tests/testutil"
)

func TestConcurrentPayments(t *testing.T) {
	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	l := testDB.NewLedger(nil)

	t.Run("50 concurrent receipts against one invoice", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		chart := l.SeedCompany(ctx, t, "Acme")

		customer, err := l.Contacts.CreateContact(ctx, usecase.CreateContactInput{
			CompanyID: chart.Company.ID,
			Kind:      domain.ContactCustomer,
			Name:      "Globex",
		})
		if err != nil {
			t.Fatalf("failed to create contact: %v", err)
		}

		invoice, err := l.Documents.CreateDocument(ctx, usecase.CreateDocumentInput{
			CompanyID: chart.Company.ID,
			Kind:      domain.DocumentInvoice,
			DocumentInput: usecase.DocumentInput{
				ContactID: customer.ID,
				IssueDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
				Currency:  "USD",
				Lines:     []domain.DocumentLine{{Description: "Retainer", Amount: testutil.Amount("500")}},
			},
		})
		if err != nil {
			t.Fatalf("failed to create invoice: %v", err)
		}

		numPayments := 50
		amount := testutil.Amount("10")

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
			firstErr     atomic.Value
		)

		wg.Add(numPayments)

		for range numPayments {
			go func() {
				defer wg.Done()

				_, err := l.Payments.CreatePayment(ctx, usecase.CreatePaymentInput{
					CompanyID: chart.Company.ID,
					PaymentInput: usecase.PaymentInput{
						Type:        domain.PaymentReceived,
						ContactID:   customer.ID,
						PaymentDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
						Currency:    "USD",
						Amount:      amount,
						InvoiceID:   &invoice.ID,
					},
				})
				if err != nil {
					firstErr.CompareAndSwap(nil, err)
					return
				}
				successCount.Add(1)
			}()
		}

		wg.Wait()

		if successCount.Load() != int32(numPayments) {
			t.Fatalf("expected %d payments, got %d (first error: %v)", numPayments, successCount.Load(), firstErr.Load())
		}

		doc, err := l.Documents.GetDocument(ctx, invoice.ID)
		if err != nil {
			t.Fatalf("failed to reload invoice: %v", err)
		}
		if doc.Status != domain.DocumentStatusPaid || !doc.AmountPaid.Equal(testutil.Amount("500")) {
			t.Errorf("expected fully paid invoice, got %s paid %s", doc.Status, doc.AmountPaid)
		}

		expected := amount.Mul(decimal.NewFromInt(int64(numPayments)))
		if got := l.Balance(ctx, t, chart.Bank); !got.Equal(expected) {
			t.Errorf("expected bank balance %s, got %s", expected, got)
		}
		if got := l.Balance(ctx, t, chart.AR); !got.IsZero() {
			t.Errorf("expected receivables 0, got %s", got)
		}

		l.RequireReconciled(ctx, t, chart.Company.ID)
	})

	t.Run("concurrent edits with the same version", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		chart := l.SeedCompany(ctx, t, "Acme")

		vendor, err := l.Contacts.CreateContact(ctx, usecase.CreateContactInput{
			CompanyID: chart.Company.ID,
			Kind:      domain.ContactVendor,
			Name:      "Initech",
		})
		if err != nil {
			t.Fatalf("failed to create contact: %v", err)
		}

		base := usecase.PaymentInput{
			Type:        domain.PaymentMade,
			ContactID:   vendor.ID,
			PaymentDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Currency:    "USD",
			Amount:      testutil.Amount("25"),
		}
		payment, err := l.Payments.CreatePayment(ctx, usecase.CreatePaymentInput{CompanyID: chart.Company.ID, PaymentInput: base})
		if err != nil {
			t.Fatalf("failed to create payment: %v", err)
		}

		numEdits := 10
		version := payment.Version

		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
			conflicts atomic.Int32
		)

		wg.Add(numEdits)

		for i := range numEdits {
			go func() {
				defer wg.Done()

				input := base
				input.Amount = testutil.Amount("30").Add(decimal.NewFromInt(int64(i)))

				_, err := l.Payments.EditPayment(ctx, usecase.EditPaymentInput{
					ID:              payment.ID,
					ExpectedVersion: &version,
					PaymentInput:    input,
				})
				switch {
				case err == nil:
					succeeded.Add(1)
				case errors.Is(err, domain.ErrVersionConflict):
					conflicts.Add(1)
				default:
					t.Errorf("unexpected edit error: %v", err)
				}
			}()
		}

		wg.Wait()

		if succeeded.Load() != 1 || conflicts.Load() != int32(numEdits-1) {
			t.Errorf("expected exactly one edit to win, got %d wins and %d conflicts", succeeded.Load(), conflicts.Load())
		}

		stored, err := l.Payments.GetPayment(ctx, payment.ID)
		if err != nil {
			t.Fatalf("failed to reload payment: %v", err)
		}
		if got := l.Balance(ctx, t, chart.Bank); !got.Equal(stored.Amount.Neg()) {
			t.Errorf("expected bank balance %s, got %s", stored.Amount.Neg(), got)
		}

		l.RequireReconciled(ctx, t, chart.Company.ID)
	})
}
