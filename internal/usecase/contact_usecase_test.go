package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

func TestCreateContact_CustomerOpeningBalance(t *testing.T) {
	f := newFixture(t)

	contact, err := f.contacts.CreateContact(context.Background(), usecase.CreateContactInput{
		CompanyID:      f.company.ID,
		Kind:           domain.ContactCustomer,
		Name:           "Globex",
		Email:          "ap@globex.example",
		OpeningBalance: dec("500.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), contact.Version)
	assert.Equal(t, "USD", contact.Currency)
	requireDecimal(t, "500.00", contact.OpeningBalance)
	requireDecimal(t, "500.00", contact.TotalOutstanding)

	entry := f.entry(t, contact.OpeningBalanceEntryID)
	assert.Equal(t, domain.SourceOpeningBalance, entry.SourceType)
	assert.Equal(t, contact.ID, entry.SourceID)
	assert.Equal(t, f.ar.ID, entry.Lines[0].AccountID)
	requireDecimal(t, "500.00", entry.Lines[0].Debit)
	assert.Equal(t, f.capital.ID, entry.Lines[1].AccountID)

	requireDecimal(t, "500.00", f.balance(t, f.ar))
	requireDecimal(t, "500.00", f.balance(t, f.capital))
	f.requireReconciled(t)
}

func TestCreateContact_VendorOpeningBalance(t *testing.T) {
	f := newFixture(t)

	contact, err := f.contacts.CreateContact(context.Background(), usecase.CreateContactInput{
		CompanyID:      f.company.ID,
		Kind:           domain.ContactVendor,
		Name:           "Initech",
		OpeningBalance: dec("200.00"),
	})
	require.NoError(t, err)

	entry := f.entry(t, contact.OpeningBalanceEntryID)
	assert.Equal(t, f.capital.ID, entry.Lines[0].AccountID)
	assert.Equal(t, f.ap.ID, entry.Lines[1].AccountID)

	requireDecimal(t, "200.00", f.balance(t, f.ap))
	requireDecimal(t, "-200.00", f.balance(t, f.capital))
	f.requireReconciled(t)
}

func TestCreateContact_Rejections(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		input   usecase.CreateContactInput
		wantErr error
	}{
		{"bad kind", usecase.CreateContactInput{CompanyID: f.company.ID, Kind: "partner", Name: "X"}, domain.ErrInvalidContactKind},
		{"no name", usecase.CreateContactInput{CompanyID: f.company.ID, Kind: domain.ContactCustomer, Name: "  "}, domain.ErrInvalidAccountName},
		{"bad email", usecase.CreateContactInput{CompanyID: f.company.ID, Kind: domain.ContactCustomer, Name: "X", Email: "nope"}, domain.ErrInvalidEmail},
		{"negative opening balance", usecase.CreateContactInput{CompanyID: f.company.ID, Kind: domain.ContactCustomer, Name: "X", OpeningBalance: dec("-1")}, domain.ErrInvalidAmount},
		{"unknown company", usecase.CreateContactInput{CompanyID: "missing", Kind: domain.ContactCustomer, Name: "X"}, domain.ErrCompanyNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.contacts.CreateContact(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdateOpeningBalance_ReplacesEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	contact, err := f.contacts.CreateContact(ctx, usecase.CreateContactInput{
		CompanyID:      f.company.ID,
		Kind:           domain.ContactCustomer,
		Name:           "Globex",
		OpeningBalance: dec("500.00"),
	})
	require.NoError(t, err)
	invoice := f.createInvoice(t, contact.ID, "100.00")
	require.NotNil(t, invoice.JournalEntryID)

	updated, err := f.contacts.UpdateOpeningBalance(ctx, usecase.UpdateOpeningBalanceInput{
		ContactID:       contact.ID,
		Amount:          dec("800.00"),
		ExpectedVersion: ptr(int64(2)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.Version)
	requireDecimal(t, "800.00", updated.OpeningBalance)
	requireDecimal(t, "900.00", updated.TotalOutstanding)
	assert.NotEqual(t, *contact.OpeningBalanceEntryID, *updated.OpeningBalanceEntryID)

	first := f.entry(t, contact.OpeningBalanceEntryID)
	require.NotNil(t, first.ReversedByEntryID)
	requireDecimal(t, "900.00", f.balance(t, f.ar))
	requireDecimal(t, "800.00", f.balance(t, f.capital))

	cleared, err := f.contacts.UpdateOpeningBalance(ctx, usecase.UpdateOpeningBalanceInput{
		ContactID: contact.ID,
		Amount:    dec("0"),
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.OpeningBalanceEntryID)
	requireDecimal(t, "100.00", cleared.TotalOutstanding)
	requireDecimal(t, "0", f.balance(t, f.capital))
	requireDecimal(t, "100.00", f.balance(t, f.ar))

	var changed int
	for _, e := range f.store.OutboxEvents() {
		if e.EventType == domain.EventTypeOpeningBalanceChanged {
			changed++
		}
	}
	assert.Equal(t, 2, changed)
	f.requireReconciled(t)
}

func TestUpdateOpeningBalance_VersionAndLock(t *testing.T) {
	f := newFixture(t)
	contact := f.createContact(t, domain.ContactCustomer, "Globex")

	_, err := f.contacts.UpdateOpeningBalance(context.Background(), usecase.UpdateOpeningBalanceInput{
		ContactID:       contact.ID,
		Amount:          dec("10.00"),
		ExpectedVersion: ptr(int64(9)),
	})
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	_, err = f.recordLocks.Acquire(asUser("alice"), usecase.ResourceContact, contact.ID)
	require.NoError(t, err)

	_, err = f.contacts.UpdateOpeningBalance(asUser("bob"), usecase.UpdateOpeningBalanceInput{
		ContactID: contact.ID,
		Amount:    dec("10.00"),
	})
	require.ErrorIs(t, err, domain.ErrRecordLocked)

	assert.Equal(t, 0, f.entryCount(t))
}

func TestCreateContact_OpeningBalanceWithoutCapitalAccount(t *testing.T) {
	input := func(f *ledgerFixture) usecase.CreateContactInput {
		return usecase.CreateContactInput{
			CompanyID:      f.company.ID,
			Kind:           domain.ContactCustomer,
			Name:           "Globex",
			OpeningBalance: dec("50.00"),
		}
	}

	t.Run("reject", func(t *testing.T) {
		f := newBareFixture(t)
		f.company = f.createCompany(t, "Acme", "USD")
		f.createAccount(t, "1200", "Accounts Receivable", domain.AccountTypeAsset, domain.CategoryAccountsReceivable)

		_, err := f.contacts.CreateContact(context.Background(), input(f))
		require.ErrorIs(t, err, domain.ErrAccountNotResolved)

		contacts, err := f.contacts.ListContacts(context.Background(), f.company.ID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, contacts)
	})

	t.Run("skip", func(t *testing.T) {
		f := newBareFixture(t, withSkipPolicy())
		f.company = f.createCompany(t, "Acme", "USD")
		f.createAccount(t, "1200", "Accounts Receivable", domain.AccountTypeAsset, domain.CategoryAccountsReceivable)

		contact, err := f.contacts.CreateContact(context.Background(), input(f))
		require.NoError(t, err)
		assert.Nil(t, contact.OpeningBalanceEntryID)
		requireDecimal(t, "50.00", contact.OpeningBalance)
		assert.Equal(t, 0, f.entryCount(t))
	})
}
