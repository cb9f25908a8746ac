package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

const documentColumns = `id, company_id, kind, contact_id, number, issue_date, due_date, currency, exchange_rate,
	lines, tax_amount, tax_account_id, control_account_id, total_amount, amount_paid, balance_due, status,
	total_base_currency, journal_entry_id, version, created_at, updated_at`

// documentLine is the JSON shape of a stored document line.
type documentLine struct {
	AccountID   string          `json:"account_id"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// DocumentRepository implements usecase.DocumentRepository.
type DocumentRepository struct {
	db DBTX
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(db DBTX) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, tx usecase.Transaction, doc *domain.Document) error {
	args, err := documentArgs(doc)
	if err != nil {
		return err
	}

	_, err = conn(r.db, tx).Exec(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		args...,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := scanDocument(r.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// GetByIDsForUpdate locks the documents that exist, in id order.
func (r *DocumentRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Document, error) {
	rows, err := conn(r.db, tx).Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}

	return collectDocuments(rows)
}

func (r *DocumentRepository) Update(ctx context.Context, tx usecase.Transaction, doc *domain.Document) error {
	args, err := documentArgs(doc)
	if err != nil {
		return err
	}

	tag, err := conn(r.db, tx).Exec(ctx, `
		UPDATE documents SET
			company_id = $2, kind = $3, contact_id = $4, number = $5, issue_date = $6, due_date = $7,
			currency = $8, exchange_rate = $9, lines = $10, tax_amount = $11, tax_account_id = $12,
			control_account_id = $13, total_amount = $14, amount_paid = $15, balance_due = $16,
			status = $17, total_base_currency = $18, journal_entry_id = $19, version = $20,
			created_at = $21, updated_at = $22
		WHERE id = $1`,
		args...,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// ListByCompany lists a company's documents of one kind, newest first.
func (r *DocumentRepository) ListByCompany(ctx context.Context, companyID string, kind domain.DocumentKind, limit, offset int) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE company_id = $1 AND kind = $2
		ORDER BY issue_date DESC, id DESC
		LIMIT $3 OFFSET $4`, companyID, string(kind), limitOrAll(limit), offset)
	if err != nil {
		return nil, err
	}

	return collectDocuments(rows)
}

func documentArgs(doc *domain.Document) ([]any, error) {
	lines := make([]documentLine, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		lines = append(lines, documentLine{AccountID: l.AccountID, Description: l.Description, Amount: l.Amount})
	}
	linesJSON, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("encode document lines: %w", err)
	}

	return []any{
		doc.ID,
		doc.CompanyID,
		string(doc.Kind),
		doc.ContactID,
		doc.Number,
		doc.IssueDate,
		optionalTime(doc.DueDate),
		doc.Currency,
		decimalToNumeric(doc.ExchangeRate),
		linesJSON,
		decimalToNumeric(doc.TaxAmount),
		doc.TaxAccountID,
		doc.ControlAccountID,
		decimalToNumeric(doc.TotalAmount),
		decimalToNumeric(doc.AmountPaid),
		decimalToNumeric(doc.BalanceDue),
		string(doc.Status),
		decimalToNumeric(doc.TotalBaseCurrency),
		optionalString(doc.JournalEntryID),
		doc.Version,
		doc.CreatedAt,
		doc.UpdatedAt,
	}, nil
}

func collectDocuments(rows pgx.Rows) ([]*domain.Document, error) {
	defer rows.Close()

	docs := make([]*domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var (
		d                           domain.Document
		kind, status                string
		dueDate                     pgtype.Timestamptz
		rate, tax, total, paid, due pgtype.Numeric
		baseTotal                   pgtype.Numeric
		linesJSON                   []byte
		entryID                     pgtype.Text
	)

	err := row.Scan(
		&d.ID,
		&d.CompanyID,
		&kind,
		&d.ContactID,
		&d.Number,
		&d.IssueDate,
		&dueDate,
		&d.Currency,
		&rate,
		&linesJSON,
		&tax,
		&d.TaxAccountID,
		&d.ControlAccountID,
		&total,
		&paid,
		&due,
		&status,
		&baseTotal,
		&entryID,
		&d.Version,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var lines []documentLine
	if err := json.Unmarshal(linesJSON, &lines); err != nil {
		return nil, fmt.Errorf("decode lines of document %s: %w", d.ID, err)
	}
	for _, l := range lines {
		d.Lines = append(d.Lines, domain.DocumentLine{AccountID: l.AccountID, Description: l.Description, Amount: l.Amount})
	}

	d.Kind = domain.DocumentKind(kind)
	d.Status = domain.DocumentStatus(status)
	d.DueDate = timePtr(dueDate)
	d.ExchangeRate = numericToDecimal(rate)
	d.TaxAmount = numericToDecimal(tax)
	d.TotalAmount = numericToDecimal(total)
	d.AmountPaid = numericToDecimal(paid)
	d.BalanceDue = numericToDecimal(due)
	d.TotalBaseCurrency = numericToDecimal(baseTotal)
	d.JournalEntryID = stringPtr(entryID)

	return &d, nil
}
