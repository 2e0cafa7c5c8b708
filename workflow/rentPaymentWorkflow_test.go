package workflow

import (
	"testing"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A paid payment edited to a new paid amount on the same property must settle
// on the new amount alone. The ordered expectations pin the sequence: the old
// receipt is reversed, bringing revenue back to its pre-payment balance,
// before the new receipt lands.
func TestReplaceRentReceiptPosting_PaidToPaidSameAccount(t *testing.T) {
	gdb, mock := newMockDB(t)
	logger := quietLogger()

	oldReceipt := &RentReceipt{AccountId: 3, Status: models.RentStatusPaid, Amount: dec("1200")}
	newReceipt := &RentReceipt{AccountId: 3, Status: models.RentStatusPaid, Amount: dec("1500")}

	expectAccountFetch(mock, 3, "u1", models.AccountTypeRevenue, "1200")
	expectBalanceUpdate(mock, 3, "0")
	expectAccountFetch(mock, 3, "u1", models.AccountTypeRevenue, "0")
	expectBalanceUpdate(mock, 3, "1500")

	err := ReplaceRentReceiptPosting(gdb, logger, "u1", oldReceipt, newReceipt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Moving a paid payment to another property reverses against the old
// property's revenue account and applies against the new one.
func TestReplaceRentReceiptPosting_PaidToPaidMovedProperty(t *testing.T) {
	gdb, mock := newMockDB(t)
	logger := quietLogger()

	oldReceipt := &RentReceipt{AccountId: 3, Status: models.RentStatusPaid, Amount: dec("1200")}
	newReceipt := &RentReceipt{AccountId: 4, Status: models.RentStatusPaid, Amount: dec("1200")}

	expectAccountFetch(mock, 3, "u1", models.AccountTypeRevenue, "1200")
	expectBalanceUpdate(mock, 3, "0")
	expectAccountFetch(mock, 4, "u1", models.AccountTypeRevenue, "500")
	expectBalanceUpdate(mock, 4, "1700")

	err := ReplaceRentReceiptPosting(gdb, logger, "u1", oldReceipt, newReceipt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Deleting a paid payment reverses only; a payment that was never paid
// applies only. A nil side must touch nothing.
func TestReplaceRentReceiptPosting_NilSides(t *testing.T) {
	t.Run("reverse only", func(t *testing.T) {
		gdb, mock := newMockDB(t)
		logger := quietLogger()

		oldReceipt := &RentReceipt{AccountId: 3, Status: models.RentStatusPaid, Amount: dec("1200")}

		expectAccountFetch(mock, 3, "u1", models.AccountTypeRevenue, "1200")
		expectBalanceUpdate(mock, 3, "0")

		err := ReplaceRentReceiptPosting(gdb, logger, "u1", oldReceipt, nil)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("apply only", func(t *testing.T) {
		gdb, mock := newMockDB(t)
		logger := quietLogger()

		newReceipt := &RentReceipt{AccountId: 3, Status: models.RentStatusPaid, Amount: dec("1200")}

		expectAccountFetch(mock, 3, "u1", models.AccountTypeRevenue, "500")
		expectBalanceUpdate(mock, 3, "1700")

		err := ReplaceRentReceiptPosting(gdb, logger, "u1", nil, newReceipt)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("both nil", func(t *testing.T) {
		gdb, mock := newMockDB(t)
		logger := quietLogger()

		err := ReplaceRentReceiptPosting(gdb, logger, "u1", nil, nil)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
