package workflow

import (
	"io"
	"testing"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newMockDB opens gorm against a sqlmock connection. The posting functions
// receive the handle the way they receive the caller's transaction in
// production.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	return gdb, mock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPostingDelta_LedgerEntryDirections(t *testing.T) {
	amount := dec("50")
	cases := []struct {
		name   string
		normal models.NormalBalance
		kind   models.EntryKind
		want   string
		ok     bool
	}{
		{"debit entry on debit-normal increases", models.NormalBalanceDebit, models.EntryKindDebit, "50", true},
		{"credit entry on debit-normal decreases", models.NormalBalanceDebit, models.EntryKindCredit, "-50", true},
		{"credit entry on credit-normal increases", models.NormalBalanceCredit, models.EntryKindCredit, "50", true},
		{"debit entry on credit-normal decreases", models.NormalBalanceCredit, models.EntryKindDebit, "-50", true},
		{"no-type entry never moves", models.NormalBalanceDebit, models.EntryKindNoType, "0", false},
		{"na account never moves", models.NormalBalanceNa, models.EntryKindDebit, "0", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			delta, ok := postingDelta(tc.normal, LedgerEntry{AccountId: 1, Kind: tc.kind, Amount: amount})
			assert.Equal(t, tc.ok, ok)
			assert.True(t, delta.Equal(dec(tc.want)), "got %s want %s", delta, tc.want)
		})
	}
}

func TestPostingDelta_RentReceiptDirections(t *testing.T) {
	amount := dec("1200")

	delta, ok := postingDelta(models.NormalBalanceCredit, RentReceipt{AccountId: 1, Status: models.RentStatusPaid, Amount: amount})
	assert.True(t, ok)
	assert.True(t, delta.Equal(amount))

	delta, ok = postingDelta(models.NormalBalanceDebit, RentReceipt{AccountId: 1, Status: models.RentStatusPaid, Amount: amount})
	assert.True(t, ok)
	assert.True(t, delta.Equal(amount.Neg()))

	for _, status := range []models.RentStatus{models.RentStatusScheduled, models.RentStatusDue, models.RentStatusOverdue} {
		_, ok := postingDelta(models.NormalBalanceCredit, RentReceipt{AccountId: 1, Status: status, Amount: amount})
		assert.False(t, ok, "status %s must not move a balance", status)
	}

	_, ok = postingDelta(models.NormalBalanceNa, RentReceipt{AccountId: 1, Status: models.RentStatusPaid, Amount: amount})
	assert.False(t, ok)
}

func TestPostingDelta_ApplyReverseIdentity(t *testing.T) {
	postings := []Posting{
		LedgerEntry{AccountId: 1, Kind: models.EntryKindDebit, Amount: dec("33.33")},
		LedgerEntry{AccountId: 1, Kind: models.EntryKindCredit, Amount: dec("0.01")},
		RentReceipt{AccountId: 1, Status: models.RentStatusPaid, Amount: dec("1200")},
	}
	normals := []models.NormalBalance{models.NormalBalanceDebit, models.NormalBalanceCredit, models.NormalBalanceNa}
	for _, normal := range normals {
		for _, posting := range postings {
			delta, ok := postingDelta(normal, posting)
			if !ok {
				continue
			}
			assert.True(t, delta.Add(delta.Neg()).IsZero())
		}
	}
}

// Recomputing a balance is the initial balance plus the fold of postingDelta
// over the posting history, which is what the audit does row by row.
func TestPostingDelta_FoldMatchesRunningBalance(t *testing.T) {
	history := []Posting{
		LedgerEntry{AccountId: 1, Kind: models.EntryKindDebit, Amount: dec("50")},
		LedgerEntry{AccountId: 1, Kind: models.EntryKindCredit, Amount: dec("30")},
		LedgerEntry{AccountId: 1, Kind: models.EntryKindNoType, Amount: dec("999")},
		LedgerEntry{AccountId: 1, Kind: models.EntryKindDebit, Amount: dec("0.25")},
	}
	expected := dec("100")
	for _, posting := range history {
		delta, ok := postingDelta(models.NormalBalanceDebit, posting)
		if ok {
			expected = expected.Add(delta)
		}
	}
	assert.True(t, expected.Equal(dec("120.25")), "got %s", expected)
}

func TestApplyPosting_AssetScenario(t *testing.T) {
	gdb, mock := newMockDB(t)
	logger := quietLogger()

	account := &models.Account{
		ID:      7,
		UserId:  "u1",
		Name:    "Operating",
		Type:    models.AccountTypeAsset,
		Balance: dec("100.00"),
	}

	mock.ExpectExec("UPDATE `accounts` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	outcome, err := ApplyPosting(gdb, logger, account, LedgerEntry{AccountId: 7, Kind: models.EntryKindDebit, Amount: dec("50.00")})
	require.NoError(t, err)
	assert.Equal(t, PostingApplied, outcome)
	assert.True(t, account.Balance.Equal(dec("150.00")), "got %s", account.Balance)

	mock.ExpectExec("UPDATE `accounts` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	outcome, err = ApplyPosting(gdb, logger, account, LedgerEntry{AccountId: 7, Kind: models.EntryKindCredit, Amount: dec("30.00")})
	require.NoError(t, err)
	assert.Equal(t, PostingApplied, outcome)
	assert.True(t, account.Balance.Equal(dec("120.00")), "got %s", account.Balance)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPosting_PaidRentThenReverse(t *testing.T) {
	gdb, mock := newMockDB(t)
	logger := quietLogger()

	revenue := &models.Account{
		ID:      3,
		UserId:  "u1",
		Name:    "Maple Street revenue",
		Type:    models.AccountTypeRevenue,
		Balance: decimal.Zero,
	}
	receipt := RentReceipt{AccountId: 3, Status: models.RentStatusPaid, Amount: dec("1200.00")}

	mock.ExpectExec("UPDATE `accounts` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	outcome, err := ApplyPosting(gdb, logger, revenue, receipt)
	require.NoError(t, err)
	assert.Equal(t, PostingApplied, outcome)
	assert.True(t, revenue.Balance.Equal(dec("1200.00")))

	// the payment leaving paid status reverses the receipt
	mock.ExpectExec("UPDATE `accounts` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	outcome, err = ReversePosting(gdb, logger, revenue, receipt)
	require.NoError(t, err)
	assert.Equal(t, PostingReversed, outcome)
	assert.True(t, revenue.Balance.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPosting_SkipPersistsNothing(t *testing.T) {
	gdb, mock := newMockDB(t)
	logger := quietLogger()

	// unrecognized type, NA normal balance
	suspense := &models.Account{
		ID:      9,
		UserId:  "u1",
		Name:    "Suspense",
		Type:    models.AccountType("suspense"),
		Balance: dec("40.00"),
	}

	outcome, err := ApplyPosting(gdb, logger, suspense, LedgerEntry{AccountId: 9, Kind: models.EntryKindDebit, Amount: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, PostingSkipped, outcome)
	assert.True(t, suspense.Balance.Equal(dec("40.00")))

	outcome, err = ReversePosting(gdb, logger, suspense, LedgerEntry{AccountId: 9, Kind: models.EntryKindCredit, Amount: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, PostingSkipped, outcome)
	assert.True(t, suspense.Balance.Equal(dec("40.00")))

	// no-type entries skip on any account
	asset := &models.Account{ID: 2, UserId: "u1", Type: models.AccountTypeAsset, Balance: dec("5.00")}
	outcome, err = ApplyPosting(gdb, logger, asset, LedgerEntry{AccountId: 2, Kind: models.EntryKindNoType, Amount: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, PostingSkipped, outcome)
	assert.True(t, asset.Balance.Equal(dec("5.00")))

	// no UPDATE was ever expected nor issued
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPosting_RejectsForeignAccount(t *testing.T) {
	gdb, _ := newMockDB(t)
	logger := quietLogger()

	account := &models.Account{ID: 1, UserId: "u1", Type: models.AccountTypeAsset}
	_, err := ApplyPosting(gdb, logger, account, LedgerEntry{AccountId: 2, Kind: models.EntryKindDebit, Amount: dec("10")})
	assert.Error(t, err)
}
