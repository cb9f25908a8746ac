package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

const contactColumns = `id, company_id, kind, name, email, currency, opening_balance, opening_balance_date,
	opening_balance_entry_id, total_outstanding, version, created_at, updated_at`

// ContactRepository implements usecase.ContactRepository.
type ContactRepository struct {
	db DBTX
}

// NewContactRepository creates a new ContactRepository.
func NewContactRepository(db DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, tx usecase.Transaction, c *domain.Contact) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		contactArgs(c)...,
	)
	return err
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	c, err := scanContact(r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContactNotFound
		}
		return nil, err
	}
	return c, nil
}

// GetByIDsForUpdate locks the contacts that exist, in id order.
func (r *ContactRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Contact, error) {
	rows, err := conn(r.db, tx).Query(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}

	return collectContacts(rows)
}

func (r *ContactRepository) Update(ctx context.Context, tx usecase.Transaction, c *domain.Contact) error {
	tag, err := conn(r.db, tx).Exec(ctx, `
		UPDATE contacts SET
			company_id = $2, kind = $3, name = $4, email = $5, currency = $6,
			opening_balance = $7, opening_balance_date = $8, opening_balance_entry_id = $9,
			total_outstanding = $10, version = $11, created_at = $12, updated_at = $13
		WHERE id = $1`,
		contactArgs(c)...,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContactNotFound
	}
	return nil
}

// ListByCompany lists a company's contacts ordered by name.
func (r *ContactRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Contact, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE company_id = $1
		ORDER BY name, id
		LIMIT $2 OFFSET $3`, companyID, limitOrAll(limit), offset)
	if err != nil {
		return nil, err
	}

	return collectContacts(rows)
}

func contactArgs(c *domain.Contact) []any {
	return []any{
		c.ID,
		c.CompanyID,
		string(c.Kind),
		c.Name,
		c.Email,
		c.Currency,
		decimalToNumeric(c.OpeningBalance),
		c.OpeningBalanceDate,
		optionalString(c.OpeningBalanceEntryID),
		decimalToNumeric(c.TotalOutstanding),
		c.Version,
		c.CreatedAt,
		c.UpdatedAt,
	}
}

func collectContacts(rows pgx.Rows) ([]*domain.Contact, error) {
	defer rows.Close()

	contacts := make([]*domain.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

func scanContact(row pgx.Row) (*domain.Contact, error) {
	var (
		c                    domain.Contact
		kind                 string
		opening, outstanding pgtype.Numeric
		entryID              pgtype.Text
	)

	err := row.Scan(
		&c.ID,
		&c.CompanyID,
		&kind,
		&c.Name,
		&c.Email,
		&c.Currency,
		&opening,
		&c.OpeningBalanceDate,
		&entryID,
		&outstanding,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Kind = domain.ContactKind(kind)
	c.OpeningBalance = numericToDecimal(opening)
	c.TotalOutstanding = numericToDecimal(outstanding)
	c.OpeningBalanceEntryID = stringPtr(entryID)

	return &c, nil
}
