package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func TestPaymentType_Legs(t *testing.T) {
	tests := []struct {
		name       string
		typ        PaymentType
		wantDebit  string
		wantCredit string
		wantErr    error
	}{
		{name: "received debits money", typ: PaymentReceived, wantDebit: "bank", wantCredit: "ar"},
		{name: "made credits money", typ: PaymentMade, wantDebit: "ar", wantCredit: "bank"},
		{name: "unknown direction", typ: PaymentType("refund"), wantErr: ErrInvalidPaymentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debit, credit, err := tt.typ.Legs("bank", "ar")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if debit != tt.wantDebit || credit != tt.wantCredit {
				t.Errorf("expected DR %s / CR %s, got DR %s / CR %s", tt.wantDebit, tt.wantCredit, debit, credit)
			}
		})
	}
}

func TestPayment_Lines(t *testing.T) {
	p := &Payment{
		Type:               PaymentMade,
		BankAccountID:      "bank",
		ARAPAccountID:      "rent",
		Amount:             decimal.NewFromInt(500),
		AmountBaseCurrency: decimal.NewFromInt(500),
	}

	lines, err := p.Lines()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].AccountID != "rent" || lines[0].Side != SideDebit {
		t.Errorf("expected first line DR rent, got %s %s", lines[0].Side, lines[0].AccountID)
	}
	if lines[1].AccountID != "bank" || lines[1].Side != SideCredit {
		t.Errorf("expected second line CR bank, got %s %s", lines[1].Side, lines[1].AccountID)
	}
	if err := CheckBalanced(lines); err != nil {
		t.Errorf("payment lines must balance: %v", err)
	}
}

func TestPayment_ValidateLink(t *testing.T) {
	tests := []struct {
		name    string
		payment Payment
		wantErr error
	}{
		{name: "no link", payment: Payment{Type: PaymentReceived}},
		{name: "received with invoice", payment: Payment{Type: PaymentReceived, InvoiceID: strPtr("inv")}},
		{name: "made with bill", payment: Payment{Type: PaymentMade, BillID: strPtr("bill")}},
		{name: "received with bill", payment: Payment{Type: PaymentReceived, BillID: strPtr("bill")}, wantErr: ErrInvalidDocumentLink},
		{name: "made with invoice", payment: Payment{Type: PaymentMade, InvoiceID: strPtr("inv")}, wantErr: ErrInvalidDocumentLink},
		{name: "both links", payment: Payment{Type: PaymentReceived, InvoiceID: strPtr("inv"), BillID: strPtr("bill")}, wantErr: ErrInvalidDocumentLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.payment.ValidateLink(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPayment_LinkedDocumentID(t *testing.T) {
	p := &Payment{InvoiceID: strPtr("")}
	if got := p.LinkedDocumentID(); got != "" {
		t.Errorf("expected empty link for blank invoice id, got %q", got)
	}

	p.BillID = strPtr("bill-1")
	if got := p.LinkedDocumentID(); got != "bill-1" {
		t.Errorf("expected bill-1, got %q", got)
	}
}
