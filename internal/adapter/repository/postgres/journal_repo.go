package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

const entryColumns = `e.id, e.company_id, e.entry_number, e.entry_date, e.source_type, e.source_id, e.memo,
	e.total_debits, e.total_credits, e.status, e.reverses_entry_id,
	(SELECT r.id FROM journal_entries r WHERE r.reverses_entry_id = e.id),
	e.posted_by, e.posted_at`

const lineColumns = `l.id, l.entry_id, l.line_no, l.account_id, l.account_name, l.account_code, l.description,
	l.debit, l.credit, l.account_previous_balance, l.account_current_balance, l.account_version`

// JournalRepository implements usecase.JournalRepository.
type JournalRepository struct {
	db DBTX
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(db DBTX) *JournalRepository {
	return &JournalRepository{db: db}
}

// Create inserts the entry header and its lines.
func (r *JournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	q := conn(r.db, tx)

	_, err := q.Exec(ctx, `
		INSERT INTO journal_entries (
			id, company_id, entry_number, entry_date, source_type, source_id, memo,
			total_debits, total_credits, status, reverses_entry_id, posted_by, posted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entry.ID,
		entry.CompanyID,
		entry.EntryNumber,
		entry.EntryDate,
		string(entry.SourceType),
		entry.SourceID,
		entry.Memo,
		decimalToNumeric(entry.TotalDebits),
		decimalToNumeric(entry.TotalCredits),
		string(entry.Status),
		optionalString(entry.ReversesEntryID),
		entry.PostedBy,
		entry.PostedAt,
	)
	if err != nil {
		switch code, _ := pgErrorCode(err); code {
		case pgErrUniqueViolation:
			if entry.ReversesEntryID != nil {
				return domain.ErrAlreadyReversed
			}
		case pgErrForeignKeyViolation:
			return domain.ErrEntryNotFound
		}
		return err
	}

	for _, line := range entry.Lines {
		_, err := q.Exec(ctx, `
			INSERT INTO journal_lines (
				id, entry_id, line_no, account_id, account_name, account_code, description,
				debit, credit, account_previous_balance, account_current_balance, account_version, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			line.ID,
			entry.ID,
			line.LineNo,
			line.AccountID,
			line.AccountName,
			line.AccountCode,
			line.Description,
			decimalToNumeric(line.Debit),
			decimalToNumeric(line.Credit),
			decimalToNumeric(line.AccountPreviousBalance),
			decimalToNumeric(line.AccountCurrentBalance),
			line.AccountVersion,
			entry.PostedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves an entry with its lines.
func (r *JournalRepository) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return r.get(ctx, r.db, id)
}

// GetByIDTx retrieves an entry inside a transaction.
func (r *JournalRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	return r.get(ctx, conn(r.db, tx), id)
}

func (r *JournalRepository) get(ctx context.Context, q DBTX, id string) (*domain.JournalEntry, error) {
	entry, err := scanEntry(q.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries e WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM journal_lines l WHERE l.entry_id = $1 ORDER BY l.line_no`, id)
	if err != nil {
		return nil, err
	}

	lines, err := collectLines(rows)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		entry.Lines = append(entry.Lines, *l)
	}

	return entry, nil
}

// ListByCompany lists a company's entry headers, newest first. Lines are
// loaded by GetByID.
func (r *JournalRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.JournalEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+entryColumns+` FROM journal_entries e
		WHERE e.company_id = $1
		ORDER BY e.posted_at DESC, e.entry_number DESC
		LIMIT $2 OFFSET $3`, companyID, limitOrAll(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.JournalEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ListLinesByAccount lists the lines posted to an account in posting order.
func (r *JournalRepository) ListLinesByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.JournalLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+lineColumns+` FROM journal_lines l
		WHERE l.account_id = $1
		ORDER BY l.seq
		LIMIT $2 OFFSET $3`, accountID, limitOrAll(limit), offset)
	if err != nil {
		return nil, err
	}

	return collectLines(rows)
}

// SumByAccount totals the debits and credits posted to an account.
func (r *JournalRepository) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	var debits, credits pgtype.Numeric
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0)
		FROM journal_lines WHERE account_id = $1`, accountID,
	).Scan(&debits, &credits)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(debits), numericToDecimal(credits), nil
}

// TrialBalance sums each account of a company over entries dated up to asOf.
func (r *JournalRepository) TrialBalance(ctx context.Context, companyID string, asOf time.Time) ([]*domain.TrialBalanceLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.code, a.name, a.type, SUM(l.debit), SUM(l.credit)
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		JOIN accounts a ON a.id = l.account_id
		WHERE e.company_id = $1 AND e.entry_date <= $2
		GROUP BY a.id, a.code, a.name, a.type
		ORDER BY a.code`, companyID, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]*domain.TrialBalanceLine, 0)
	for rows.Next() {
		var (
			tb              domain.TrialBalanceLine
			accountType     string
			debits, credits pgtype.Numeric
		)
		if err := rows.Scan(&tb.AccountID, &tb.AccountCode, &tb.AccountName, &accountType, &debits, &credits); err != nil {
			return nil, err
		}

		tb.AccountType = domain.AccountType(accountType)
		tb.Debits = numericToDecimal(debits)
		tb.Credits = numericToDecimal(credits)
		tb.Balance = (&domain.Account{Type: tb.AccountType}).BalanceFromTotals(tb.Debits, tb.Credits)
		lines = append(lines, &tb)
	}

	return lines, rows.Err()
}

func scanEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var (
		e                    domain.JournalEntry
		sourceType, status   string
		debits, credits      pgtype.Numeric
		reverses, reversedBy pgtype.Text
	)

	err := row.Scan(
		&e.ID,
		&e.CompanyID,
		&e.EntryNumber,
		&e.EntryDate,
		&sourceType,
		&e.SourceID,
		&e.Memo,
		&debits,
		&credits,
		&status,
		&reverses,
		&reversedBy,
		&e.PostedBy,
		&e.PostedAt,
	)
	if err != nil {
		return nil, err
	}

	e.SourceType = domain.SourceType(sourceType)
	e.Status = domain.EntryStatus(status)
	e.TotalDebits = numericToDecimal(debits)
	e.TotalCredits = numericToDecimal(credits)
	e.ReversesEntryID = stringPtr(reverses)
	e.ReversedByEntryID = stringPtr(reversedBy)

	return &e, nil
}

func collectLines(rows pgx.Rows) ([]*domain.JournalLine, error) {
	defer rows.Close()

	lines := make([]*domain.JournalLine, 0)
	for rows.Next() {
		var (
			l                        domain.JournalLine
			debit, credit, prev, cur pgtype.Numeric
		)
		err := rows.Scan(
			&l.ID,
			&l.EntryID,
			&l.LineNo,
			&l.AccountID,
			&l.AccountName,
			&l.AccountCode,
			&l.Description,
			&debit,
			&credit,
			&prev,
			&cur,
			&l.AccountVersion,
		)
		if err != nil {
			return nil, err
		}

		l.Debit = numericToDecimal(debit)
		l.Credit = numericToDecimal(credit)
		l.AccountPreviousBalance = numericToDecimal(prev)
		l.AccountCurrentBalance = numericToDecimal(cur)
		lines = append(lines, &l)
	}

	return lines, rows.Err()
}
