package models

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

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

func countRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count(*)"}).AddRow(n)
}

// A type change flips the sign of historic postings, so UpdateAccount refuses
// it for any account with posting history. The guard has to see all three
// posting sources: transactions, journal items and paid rent on a linked
// property.
func TestAccountHasPostings(t *testing.T) {
	t.Run("transaction history", func(t *testing.T) {
		gdb, mock := newMockDB(t)

		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `transactions`").
			WithArgs("u1", 7, false).
			WillReturnRows(countRows(1))

		has, err := accountHasPostings(gdb, "u1", 7)
		require.NoError(t, err)
		assert.True(t, has)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("journal history", func(t *testing.T) {
		gdb, mock := newMockDB(t)

		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `transactions`").
			WithArgs("u1", 7, false).
			WillReturnRows(countRows(0))
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `journal_items`").
			WithArgs("u1", 7, false).
			WillReturnRows(countRows(2))

		has, err := accountHasPostings(gdb, "u1", 7)
		require.NoError(t, err)
		assert.True(t, has)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("paid rent on linked property", func(t *testing.T) {
		gdb, mock := newMockDB(t)

		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `transactions`").
			WithArgs("u1", 7, false).
			WillReturnRows(countRows(0))
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `journal_items`").
			WithArgs("u1", 7, false).
			WillReturnRows(countRows(0))
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `rent_payments`").
			WithArgs(7, "u1", "paid", false).
			WillReturnRows(countRows(1))

		has, err := accountHasPostings(gdb, "u1", 7)
		require.NoError(t, err)
		assert.True(t, has)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty history", func(t *testing.T) {
		gdb, mock := newMockDB(t)

		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `transactions`").
			WithArgs("u1", 7, false).
			WillReturnRows(countRows(0))
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `journal_items`").
			WithArgs("u1", 7, false).
			WillReturnRows(countRows(0))
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `rent_payments`").
			WithArgs(7, "u1", "paid", false).
			WillReturnRows(countRows(0))

		has, err := accountHasPostings(gdb, "u1", 7)
		require.NoError(t, err)
		assert.False(t, has)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// Deleting or re-typing an account must drop the cached revenue lookup of
// every linked property, not just the account's own cache entry. The link
// table tells us which properties are affected.
func TestInvalidateRevenueCache_LooksUpLinkedProperties(t *testing.T) {
	gdb, mock := newMockDB(t)

	mock.ExpectQuery("SELECT `property_id` FROM `property_accounts`").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"property_id"}).AddRow(3).AddRow(4))

	err := invalidateRevenueCache(gdb, 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
