package workflow

import (
	"testing"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountRows(id int, userId string, accountType models.AccountType, balance string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "type", "balance", "initial_balance"}).
		AddRow(id, userId, string(accountType), balance, "0")
}

func expectAccountFetch(mock sqlmock.Sqlmock, id int, userId string, accountType models.AccountType, balance string) {
	mock.ExpectQuery("SELECT \\* FROM `accounts`").
		WillReturnRows(accountRows(id, userId, accountType, balance))
}

func expectBalanceUpdate(mock sqlmock.Sqlmock, id int, newBalance string) {
	mock.ExpectExec("UPDATE `accounts` SET").
		WithArgs(newBalance, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestCreateJournalPostings_TwoItemJournal(t *testing.T) {
	gdb, mock := newMockDB(t)
	logger := quietLogger()

	items := []*models.JournalItem{
		{JournalId: 1, UserId: "u1", AccountId: 10, Kind: models.EntryKindDebit, Amount: dec("200")},
		{JournalId: 1, UserId: "u1", AccountId: 11, Kind: models.EntryKindCredit, Amount: dec("200")},
	}

	// both accounts are asset accounts starting at zero: the debit leg lands
	// at +200, the credit leg at -200
	expectAccountFetch(mock, 10, "u1", models.AccountTypeAsset, "0")
	expectBalanceUpdate(mock, 10, "200")
	expectAccountFetch(mock, 11, "u1", models.AccountTypeAsset, "0")
	expectBalanceUpdate(mock, 11, "-200")

	err := CreateJournalPostings(gdb, logger, "u1", items)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Replacing journal items must reverse every old item before applying any new
// one. With an overlapping account the intermediate balance proves the order:
// the account returns to its pre-journal value before the new item lands.
func TestReplaceJournalPostings_ReversesBeforeApplying(t *testing.T) {
	gdb, mock := newMockDB(t)
	logger := quietLogger()

	oldItems := []*models.JournalItem{
		{JournalId: 1, UserId: "u1", AccountId: 10, Kind: models.EntryKindDebit, Amount: dec("200")},
		{JournalId: 1, UserId: "u1", AccountId: 11, Kind: models.EntryKindCredit, Amount: dec("200")},
	}
	newItems := []*models.JournalItem{
		{JournalId: 1, UserId: "u1", AccountId: 10, Kind: models.EntryKindDebit, Amount: dec("500")},
	}

	// reversals first: 10 goes 200 -> 0, 11 goes -200 -> 0
	expectAccountFetch(mock, 10, "u1", models.AccountTypeAsset, "200")
	expectBalanceUpdate(mock, 10, "0")
	expectAccountFetch(mock, 11, "u1", models.AccountTypeAsset, "-200")
	expectBalanceUpdate(mock, 11, "0")
	// then the new item, re-reading account 10 post-reversal
	expectAccountFetch(mock, 10, "u1", models.AccountTypeAsset, "0")
	expectBalanceUpdate(mock, 10, "500")

	err := ReplaceJournalPostings(gdb, logger, "u1", oldItems, newItems)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Deleting a journal reverses each live item, restoring the balances the
// accounts had before the journal existed.
func TestDeleteJournalPostings_RestoresBalances(t *testing.T) {
	gdb, mock := newMockDB(t)
	logger := quietLogger()

	items := []*models.JournalItem{
		{JournalId: 1, UserId: "u1", AccountId: 10, Kind: models.EntryKindDebit, Amount: dec("75.50")},
		{JournalId: 1, UserId: "u1", AccountId: 11, Kind: models.EntryKindCredit, Amount: dec("75.50")},
	}

	expectAccountFetch(mock, 10, "u1", models.AccountTypeAsset, "75.50")
	expectBalanceUpdate(mock, 10, "0")
	expectAccountFetch(mock, 11, "u1", models.AccountTypeRevenue, "75.50")
	expectBalanceUpdate(mock, 11, "0")

	err := DeleteJournalPostings(gdb, logger, "u1", items)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewJournalImbalance(t *testing.T) {
	balanced := &models.NewJournal{Items: []models.NewJournalItem{
		{AccountId: 1, Kind: models.EntryKindDebit, Amount: dec("200")},
		{AccountId: 2, Kind: models.EntryKindCredit, Amount: dec("200")},
	}}
	assert.True(t, balanced.Imbalance().IsZero())

	lopsided := &models.NewJournal{Items: []models.NewJournalItem{
		{AccountId: 1, Kind: models.EntryKindDebit, Amount: dec("200")},
		{AccountId: 2, Kind: models.EntryKindCredit, Amount: dec("150")},
	}}
	assert.True(t, lopsided.Imbalance().Equal(decimal.NewFromInt(50)))
}
