package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

const paymentColumns = `id, company_id, type, contact_id, payment_date, currency, amount, exchange_rate,
	amount_base_currency, bank_account_id, arap_account_id, journal_entry_id, invoice_id, bill_id,
	reference, notes, status, version, created_at, updated_at`

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	db DBTX
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment.
func (r *PaymentRepository) Create(ctx context.Context, tx usecase.Transaction, p *domain.Payment) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		paymentArgs(p)...,
	)
	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.get(ctx, r.db, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a payment and locks its row.
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Payment, error) {
	return r.get(ctx, conn(r.db, tx), `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
}

func (r *PaymentRepository) get(ctx context.Context, q DBTX, query, id string) (*domain.Payment, error) {
	p, err := scanPayment(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

// Update overwrites a payment.
func (r *PaymentRepository) Update(ctx context.Context, tx usecase.Transaction, p *domain.Payment) error {
	tag, err := conn(r.db, tx).Exec(ctx, `
		UPDATE payments SET
			company_id = $2, type = $3, contact_id = $4, payment_date = $5, currency = $6,
			amount = $7, exchange_rate = $8, amount_base_currency = $9, bank_account_id = $10,
			arap_account_id = $11, journal_entry_id = $12, invoice_id = $13, bill_id = $14,
			reference = $15, notes = $16, status = $17, version = $18, created_at = $19, updated_at = $20
		WHERE id = $1`,
		paymentArgs(p)...,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

// Delete removes a payment.
func (r *PaymentRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := conn(r.db, tx).Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

// ListByCompany lists a company's payments, newest payment date first.
func (r *PaymentRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE company_id = $1
		ORDER BY payment_date DESC, id DESC
		LIMIT $2 OFFSET $3`, companyID, limitOrAll(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	return payments, rows.Err()
}

func paymentArgs(p *domain.Payment) []any {
	return []any{
		p.ID,
		p.CompanyID,
		string(p.Type),
		p.ContactID,
		p.PaymentDate,
		p.Currency,
		decimalToNumeric(p.Amount),
		decimalToNumeric(p.ExchangeRate),
		decimalToNumeric(p.AmountBaseCurrency),
		p.BankAccountID,
		p.ARAPAccountID,
		optionalString(p.JournalEntryID),
		optionalString(p.InvoiceID),
		optionalString(p.BillID),
		p.Reference,
		p.Notes,
		string(p.Status),
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	}
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p                          domain.Payment
		paymentType, status        string
		amount, rate, base         pgtype.Numeric
		entryID, invoiceID, billID pgtype.Text
	)

	err := row.Scan(
		&p.ID,
		&p.CompanyID,
		&paymentType,
		&p.ContactID,
		&p.PaymentDate,
		&p.Currency,
		&amount,
		&rate,
		&base,
		&p.BankAccountID,
		&p.ARAPAccountID,
		&entryID,
		&invoiceID,
		&billID,
		&p.Reference,
		&p.Notes,
		&status,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Type = domain.PaymentType(paymentType)
	p.Status = domain.PaymentStatus(status)
	p.Amount = numericToDecimal(amount)
	p.ExchangeRate = numericToDecimal(rate)
	p.AmountBaseCurrency = numericToDecimal(base)
	p.JournalEntryID = stringPtr(entryID)
	p.InvoiceID = stringPtr(invoiceID)
	p.BillID = stringPtr(billID)

	return &p, nil
}
