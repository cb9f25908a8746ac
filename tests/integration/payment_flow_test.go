package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
	"github.com/iho/erpledger/tests/testutil"
)

func TestInvoicePaymentLifecycle(t *testing.T) {
	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	l := testDB.NewLedger(nil)
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
			Lines:     []domain.DocumentLine{{Description: "Consulting", Amount: testutil.Amount("100.00")}},
		},
	})
	if err != nil {
		t.Fatalf("failed to create invoice: %v", err)
	}

	t.Run("partial payment", func(t *testing.T) {
		payment, err := l.Payments.CreatePayment(ctx, usecase.CreatePaymentInput{
			CompanyID: chart.Company.ID,
			PaymentInput: usecase.PaymentInput{
				Type:        domain.PaymentReceived,
				ContactID:   customer.ID,
				PaymentDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
				Currency:    "USD",
				Amount:      testutil.Amount("40"),
				InvoiceID:   &invoice.ID,
			},
		})
		if err != nil {
			t.Fatalf("failed to create payment: %v", err)
		}

		doc, err := l.Documents.GetDocument(ctx, invoice.ID)
		if err != nil {
			t.Fatalf("failed to reload invoice: %v", err)
		}
		if doc.Status != domain.DocumentStatusPartial || !doc.BalanceDue.Equal(testutil.Amount("60")) {
			t.Errorf("expected partial invoice with 60 due, got %s %s", doc.Status, doc.BalanceDue)
		}
		if got := l.Balance(ctx, t, chart.Bank); !got.Equal(testutil.Amount("40")) {
			t.Errorf("expected bank balance 40, got %s", got)
		}
		if got := l.Balance(ctx, t, chart.AR); !got.Equal(testutil.Amount("60")) {
			t.Errorf("expected receivables 60, got %s", got)
		}

		t.Run("edit reverses and reposts", func(t *testing.T) {
			stale := payment.Version
			input := usecase.EditPaymentInput{
				ID:              payment.ID,
				ExpectedVersion: &stale,
				PaymentInput: usecase.PaymentInput{
					Type:        domain.PaymentReceived,
					ContactID:   customer.ID,
					PaymentDate: payment.PaymentDate,
					Currency:    "USD",
					Amount:      testutil.Amount("100"),
					InvoiceID:   &invoice.ID,
				},
			}

			edited, err := l.Payments.EditPayment(ctx, input)
			if err != nil {
				t.Fatalf("failed to edit payment: %v", err)
			}
			if edited.JournalEntryID == nil || payment.JournalEntryID == nil || *edited.JournalEntryID == *payment.JournalEntryID {
				t.Errorf("expected a new journal entry after edit")
			}

			if _, err := l.Payments.EditPayment(ctx, input); !errors.Is(err, domain.ErrVersionConflict) {
				t.Errorf("expected version conflict for stale edit, got %v", err)
			}

			doc, _ := l.Documents.GetDocument(ctx, invoice.ID)
			if doc.Status != domain.DocumentStatusPaid || !doc.BalanceDue.IsZero() {
				t.Errorf("expected paid invoice, got %s %s", doc.Status, doc.BalanceDue)
			}
			if got := l.Balance(ctx, t, chart.Bank); !got.Equal(testutil.Amount("100")) {
				t.Errorf("expected bank balance 100, got %s", got)
			}

			voided, err := l.Payments.VoidPayment(ctx, payment.ID, nil)
			if err != nil {
				t.Fatalf("failed to void payment: %v", err)
			}
			if voided.Status != domain.PaymentStatusVoid {
				t.Errorf("expected void payment, got %s", voided.Status)
			}

			doc, _ = l.Documents.GetDocument(ctx, invoice.ID)
			if !doc.AmountPaid.IsZero() || doc.Status == domain.DocumentStatusPaid {
				t.Errorf("expected invoice to be unsettled after void, got %s paid %s", doc.Status, doc.AmountPaid)
			}
			if got := l.Balance(ctx, t, chart.Bank); !got.IsZero() {
				t.Errorf("expected bank balance 0 after void, got %s", got)
			}
		})
	})

	t.Run("posted invoice cannot be deleted", func(t *testing.T) {
		if err := l.Documents.DeleteDocument(ctx, invoice.ID); err == nil {
			t.Errorf("expected delete of a posted invoice to fail")
		}
	})

	l.RequireReconciled(ctx, t, chart.Company.ID)

	tb, err := l.Journal.TrialBalance(ctx, chart.Company.ID, time.Time{})
	if err != nil {
		t.Fatalf("failed to build trial balance: %v", err)
	}
	if !tb.Balanced {
		t.Errorf("expected balanced trial balance, debits %s credits %s", tb.TotalDebits, tb.TotalCredits)
	}
}

func TestManualEntryReversal(t *testing.T) {
	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	l := testDB.NewLedger(nil)
	chart := l.SeedCompany(ctx, t, "Acme")

	entry, err := l.Journal.CreateManualEntry(ctx, usecase.CreateManualEntryInput{
		CompanyID: chart.Company.ID,
		EntryDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Memo:      "Owner investment",
		Lines: []usecase.ManualLine{
			{AccountID: chart.Bank.ID, Debit: testutil.Amount("500")},
			{AccountID: chart.Capital.ID, Credit: testutil.Amount("500")},
		},
	})
	if err != nil {
		t.Fatalf("failed to post manual entry: %v", err)
	}

	if got := l.Balance(ctx, t, chart.Capital); !got.Equal(testutil.Amount("500")) {
		t.Errorf("expected capital 500, got %s", got)
	}

	if _, err := l.Journal.ReverseEntry(ctx, entry.ID); err != nil {
		t.Fatalf("failed to reverse entry: %v", err)
	}
	if _, err := l.Journal.ReverseEntry(ctx, entry.ID); err == nil {
		t.Errorf("expected second reversal to fail")
	}

	if got := l.Balance(ctx, t, chart.Bank); !got.IsZero() {
		t.Errorf("expected bank 0 after reversal, got %s", got)
	}
	l.RequireReconciled(ctx, t, chart.Company.ID)
}
