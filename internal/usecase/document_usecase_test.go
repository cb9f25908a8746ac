package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

func TestCreateDocument_InvoiceWithTax(t *testing.T) {
	f := newFixture(t)
	customer := f.createContact(t, domain.ContactCustomer, "Globex")

	doc, err := f.documents.CreateDocument(context.Background(), usecase.CreateDocumentInput{
		CompanyID: f.company.ID,
		Kind:      domain.DocumentInvoice,
		DocumentInput: usecase.DocumentInput{
			ContactID: customer.ID,
			Currency:  "USD",
			Lines: []domain.DocumentLine{
				{Description: "Design", Amount: dec("60.00")},
				{Description: "Build", Amount: dec("40.00")},
			},
			TaxAmount: dec("10.00"),
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc.Number, "INV-"))
	assert.Equal(t, domain.DocumentStatusSent, doc.Status)
	requireDecimal(t, "110.00", doc.TotalAmount)
	requireDecimal(t, "110.00", doc.BalanceDue)
	requireDecimal(t, "110.00", doc.TotalBaseCurrency)
	assert.Equal(t, f.ar.ID, doc.ControlAccountID)
	assert.Equal(t, f.taxPayable.ID, doc.TaxAccountID)

	entry := f.entry(t, doc.JournalEntryID)
	require.Len(t, entry.Lines, 4)
	assert.Equal(t, domain.SourceInvoice, entry.SourceType)
	assert.Equal(t, f.ar.ID, entry.Lines[0].AccountID)
	requireDecimal(t, "110.00", entry.Lines[0].Debit)
	requireDecimal(t, "110.00", entry.TotalCredits)

	requireDecimal(t, "110.00", f.balance(t, f.ar))
	requireDecimal(t, "100.00", f.balance(t, f.revenue))
	requireDecimal(t, "10.00", f.balance(t, f.taxPayable))
	requireDecimal(t, "110.00", f.outstanding(t, customer.ID))
	f.requireReconciled(t)
}

func TestCreateDocument_Bill(t *testing.T) {
	f := newFixture(t)
	vendor := f.createContact(t, domain.ContactVendor, "Initech")

	bill := f.createBill(t, vendor.ID, "250.00")

	assert.True(t, strings.HasPrefix(bill.Number, "BILL-"))
	entry := f.entry(t, bill.JournalEntryID)
	assert.Equal(t, domain.SourceBill, entry.SourceType)
	assert.Equal(t, f.ap.ID, entry.Lines[0].AccountID)
	requireDecimal(t, "250.00", entry.Lines[0].Credit)

	requireDecimal(t, "250.00", f.balance(t, f.ap))
	requireDecimal(t, "250.00", f.balance(t, f.expense))
	requireDecimal(t, "250.00", f.outstanding(t, vendor.ID))
	f.requireReconciled(t)
}

func TestCreateDocument_ForeignCurrencyBalances(t *testing.T) {
	f := newFixture(t)
	customer := f.createContact(t, domain.ContactCustomer, "Globex")

	doc, err := f.documents.CreateDocument(context.Background(), usecase.CreateDocumentInput{
		CompanyID: f.company.ID,
		Kind:      domain.DocumentInvoice,
		DocumentInput: usecase.DocumentInput{
			ContactID:    customer.ID,
			Currency:     "EUR",
			ExchangeRate: dec("1.1"),
			Lines: []domain.DocumentLine{
				{Description: "A", Amount: dec("33.33")},
				{Description: "B", Amount: dec("66.67")},
			},
		},
	})
	require.NoError(t, err)

	// 36.663 and 73.337 round separately, the control leg is their sum.
	requireDecimal(t, "110.00", doc.TotalBaseCurrency)
	entry := f.entry(t, doc.JournalEntryID)
	requireDecimal(t, "36.66", entry.Lines[1].Credit)
	requireDecimal(t, "73.34", entry.Lines[2].Credit)
	requireDecimal(t, entry.TotalDebits.String(), entry.TotalCredits)
	f.requireReconciled(t)
}

func TestCreateDocument_OverdueWhenPastDue(t *testing.T) {
	f := newFixture(t)
	customer := f.createContact(t, domain.ContactCustomer, "Globex")
	due := time.Now().UTC().Add(-48 * time.Hour)

	doc, err := f.documents.CreateDocument(context.Background(), usecase.CreateDocumentInput{
		CompanyID: f.company.ID,
		Kind:      domain.DocumentInvoice,
		DocumentInput: usecase.DocumentInput{
			ContactID: customer.ID,
			Currency:  "USD",
			DueDate:   &due,
			Lines:     []domain.DocumentLine{{Description: "Late", Amount: dec("5.00")}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusOverdue, doc.Status)
}

func TestCreateDocument_Rejections(t *testing.T) {
	f := newFixture(t)
	customer := f.createContact(t, domain.ContactCustomer, "Globex")
	vendor := f.createContact(t, domain.ContactVendor, "Initech")

	tests := []struct {
		name    string
		kind    domain.DocumentKind
		input   usecase.DocumentInput
		wantErr error
	}{
		{
			name:    "unknown kind",
			kind:    "quote",
			input:   usecase.DocumentInput{ContactID: customer.ID, Currency: "USD", Lines: []domain.DocumentLine{{Amount: dec("1")}}},
			wantErr: domain.ErrInvalidDocumentKind,
		},
		{
			name:    "no lines",
			kind:    domain.DocumentInvoice,
			input:   usecase.DocumentInput{ContactID: customer.ID, Currency: "USD"},
			wantErr: domain.ErrTooFewLines,
		},
		{
			name:    "negative line",
			kind:    domain.DocumentInvoice,
			input:   usecase.DocumentInput{ContactID: customer.ID, Currency: "USD", Lines: []domain.DocumentLine{{Amount: dec("-5")}}},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative tax",
			kind:    domain.DocumentInvoice,
			input:   usecase.DocumentInput{ContactID: customer.ID, Currency: "USD", Lines: []domain.DocumentLine{{Amount: dec("5")}}, TaxAmount: dec("-1")},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "invoice to a vendor",
			kind:    domain.DocumentInvoice,
			input:   usecase.DocumentInput{ContactID: vendor.ID, Currency: "USD", Lines: []domain.DocumentLine{{Amount: dec("5")}}},
			wantErr: domain.ErrContactKindMismatch,
		},
		{
			name:    "unknown contact",
			kind:    domain.DocumentBill,
			input:   usecase.DocumentInput{ContactID: "missing", Currency: "USD", Lines: []domain.DocumentLine{{Amount: dec("5")}}},
			wantErr: domain.ErrContactNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.documents.CreateDocument(context.Background(), usecase.CreateDocumentInput{
				CompanyID:     f.company.ID,
				Kind:          tt.kind,
				DocumentInput: tt.input,
			})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 0, f.entryCount(t))
}

func TestEditDocument_KeepsPayments(t *testing.T) {
	f := newFixture(t)
	customer := f.createContact(t, domain.ContactCustomer, "Globex")
	invoice := f.createInvoice(t, customer.ID, "1000.00")
	f.receive(t, customer.ID, "400.00", &invoice.ID)

	stored, err := f.documents.GetDocument(context.Background(), invoice.ID)
	require.NoError(t, err)

	edited, err := f.documents.EditDocument(context.Background(), usecase.EditDocumentInput{
		ID:              invoice.ID,
		ExpectedVersion: ptr(stored.Version),
		DocumentInput: usecase.DocumentInput{
			ContactID: customer.ID,
			Currency:  "USD",
			Lines:     []domain.DocumentLine{{Description: "Consulting", Amount: dec("1200.00")}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, invoice.Number, edited.Number)
	assert.Equal(t, stored.Version+1, edited.Version)
	requireDecimal(t, "400.00", edited.AmountPaid)
	requireDecimal(t, "800.00", edited.BalanceDue)
	assert.Equal(t, domain.DocumentStatusPartial, edited.Status)

	superseded := f.entry(t, invoice.JournalEntryID)
	require.NotNil(t, superseded.ReversedByEntryID)

	requireDecimal(t, "800.00", f.balance(t, f.ar))
	requireDecimal(t, "1200.00", f.balance(t, f.revenue))
	requireDecimal(t, "800.00", f.outstanding(t, customer.ID))
	f.requireReconciled(t)
}

func TestEditDocument_Guards(t *testing.T) {
	f := newFixture(t)
	customer := f.createContact(t, domain.ContactCustomer, "Globex")
	invoice := f.createInvoice(t, customer.ID, "1000.00")
	f.receive(t, customer.ID, "400.00", &invoice.ID)
	ctx := context.Background()

	_, err := f.documents.EditDocument(ctx, usecase.EditDocumentInput{
		ID: invoice.ID,
		DocumentInput: usecase.DocumentInput{
			ContactID: customer.ID,
			Currency:  "USD",
			Lines:     []domain.DocumentLine{{Amount: dec("300.00")}},
		},
	})
	require.ErrorIs(t, err, domain.ErrOverpayment)

	_, err = f.documents.EditDocument(ctx, usecase.EditDocumentInput{
		ID: invoice.ID,
		DocumentInput: usecase.DocumentInput{
			ContactID:    customer.ID,
			Currency:     "EUR",
			ExchangeRate: dec("1.1"),
			Lines:        []domain.DocumentLine{{Amount: dec("1000.00")}},
		},
	})
	require.ErrorIs(t, err, domain.ErrDocumentHasPayments)

	_, err = f.documents.EditDocument(ctx, usecase.EditDocumentInput{
		ID:              invoice.ID,
		ExpectedVersion: ptr(int64(1)),
		DocumentInput: usecase.DocumentInput{
			ContactID: customer.ID,
			Currency:  "USD",
			Lines:     []domain.DocumentLine{{Amount: dec("1000.00")}},
		},
	})
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	requireDecimal(t, "600.00", f.balance(t, f.ar))
	f.requireReconciled(t)
}

func TestEditDocument_ContactChange(t *testing.T) {
	f := newFixture(t)
	globex := f.createContact(t, domain.ContactCustomer, "Globex")
	initech := f.createContact(t, domain.ContactCustomer, "Initech")
	ctx := context.Background()

	paid := f.createInvoice(t, globex.ID, "100.00")
	f.receive(t, globex.ID, "40.00", &paid.ID)

	_, err := f.documents.EditDocument(ctx, usecase.EditDocumentInput{
		ID: paid.ID,
		DocumentInput: usecase.DocumentInput{
			ContactID: initech.ID,
			Currency:  "USD",
			Lines:     []domain.DocumentLine{{Amount: dec("100.00")}},
		},
	})
	require.ErrorIs(t, err, domain.ErrDocumentHasPayments)

	stored, err := f.documents.GetDocument(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, globex.ID, stored.ContactID)
	requireDecimal(t, "60.00", f.outstanding(t, globex.ID))
	requireDecimal(t, "0", f.outstanding(t, initech.ID))

	unpaid := f.createInvoice(t, globex.ID, "250.00")
	moved, err := f.documents.EditDocument(ctx, usecase.EditDocumentInput{
		ID: unpaid.ID,
		DocumentInput: usecase.DocumentInput{
			ContactID: initech.ID,
			Currency:  "USD",
			Lines:     []domain.DocumentLine{{Amount: dec("250.00")}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, initech.ID, moved.ContactID)

	requireDecimal(t, "60.00", f.outstanding(t, globex.ID))
	requireDecimal(t, "250.00", f.outstanding(t, initech.ID))
	requireDecimal(t, "310.00", f.balance(t, f.ar))
	f.requireReconciled(t)
}

func TestVoidDocument(t *testing.T) {
	f := newFixture(t)
	customer := f.createContact(t, domain.ContactCustomer, "Globex")
	invoice := f.createInvoice(t, customer.ID, "500.00")
	ctx := context.Background()

	voided, err := f.documents.VoidDocument(ctx, invoice.ID, ptr(invoice.Version))
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusVoid, voided.Status)
	assert.Nil(t, voided.JournalEntryID)

	requireDecimal(t, "0", f.balance(t, f.ar))
	requireDecimal(t, "0", f.balance(t, f.revenue))
	requireDecimal(t, "0", f.outstanding(t, customer.ID))

	_, err = f.documents.VoidDocument(ctx, invoice.ID, nil)
	require.ErrorIs(t, err, domain.ErrDocumentVoid)

	_, err = f.documents.EditDocument(ctx, usecase.EditDocumentInput{
		ID: invoice.ID,
		DocumentInput: usecase.DocumentInput{
			ContactID: customer.ID,
			Currency:  "USD",
			Lines:     []domain.DocumentLine{{Amount: dec("1")}},
		},
	})
	require.ErrorIs(t, err, domain.ErrDocumentVoid)

	_, err = f.payments.CreatePayment(ctx, usecase.CreatePaymentInput{
		CompanyID: f.company.ID,
		PaymentInput: usecase.PaymentInput{
			Type:      domain.PaymentReceived,
			ContactID: customer.ID,
			Currency:  "USD",
			Amount:    dec("1.00"),
			InvoiceID: &invoice.ID,
		},
	})
	require.ErrorIs(t, err, domain.ErrDocumentVoid)
	f.requireReconciled(t)
}

func TestVoidDocument_WithPaymentsFails(t *testing.T) {
	f := newFixture(t)
	customer := f.createContact(t, domain.ContactCustomer, "Globex")
	invoice := f.createInvoice(t, customer.ID, "500.00")
	payment := f.receive(t, customer.ID, "100.00", &invoice.ID)
	ctx := context.Background()

	_, err := f.documents.VoidDocument(ctx, invoice.ID, nil)
	require.ErrorIs(t, err, domain.ErrDocumentHasPayments)

	_, err = f.payments.VoidPayment(ctx, payment.ID, nil)
	require.NoError(t, err)

	_, err = f.documents.VoidDocument(ctx, invoice.ID, nil)
	require.NoError(t, err)
	requireDecimal(t, "0", f.outstanding(t, customer.ID))
	f.requireReconciled(t)
}

func TestDeleteDocument_AlwaysRefused(t *testing.T) {
	f := newFixture(t)
	customer := f.createContact(t, domain.ContactCustomer, "Globex")
	invoice := f.createInvoice(t, customer.ID, "5.00")

	require.ErrorIs(t, f.documents.DeleteDocument(context.Background(), invoice.ID), domain.ErrDocumentPosted)
	require.ErrorIs(t, f.documents.DeleteDocument(context.Background(), "missing"), domain.ErrDocumentNotFound)
}

func TestCreateDocument_SkipsWithoutRevenueAccount(t *testing.T) {
	f := newBareFixture(t, withSkipPolicy())
	f.company = f.createCompany(t, "Acme", "USD")
	f.ar = f.createAccount(t, "1200", "Accounts Receivable", domain.AccountTypeAsset, domain.CategoryAccountsReceivable)
	customer := f.createContact(t, domain.ContactCustomer, "Globex")

	doc := f.createInvoice(t, customer.ID, "40.00")

	assert.Nil(t, doc.JournalEntryID)
	assert.Equal(t, 0, f.entryCount(t))
	requireDecimal(t, "40.00", f.outstanding(t, customer.ID))
}

func TestListDocuments_FiltersByKind(t *testing.T) {
	f := newFixture(t)
	customer := f.createContact(t, domain.ContactCustomer, "Globex")
	vendor := f.createContact(t, domain.ContactVendor, "Initech")
	f.createInvoice(t, customer.ID, "1.00")
	f.createInvoice(t, customer.ID, "2.00")
	f.createBill(t, vendor.ID, "3.00")

	invoices, err := f.documents.ListDocuments(context.Background(), f.company.ID, domain.DocumentInvoice, 10, 0)
	require.NoError(t, err)
	assert.Len(t, invoices, 2)

	bills, err := f.documents.ListDocuments(context.Background(), f.company.ID, domain.DocumentBill, 10, 0)
	require.NoError(t, err)
	assert.Len(t, bills, 1)

	_, err = f.documents.ListDocuments(context.Background(), f.company.ID, "quote", 10, 0)
	require.ErrorIs(t, err, domain.ErrInvalidDocumentKind)
}
