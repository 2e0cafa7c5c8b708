package workflow

import (
	"context"
	"errors"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/models"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("workflow")

// Posting is what the ledger knows how to apply to an account balance. The
// interface is sealed; every consumer switches exhaustively on the two
// variants and the compiler keeps new variants honest.
type Posting interface {
	postingAccountId() int
}

// LedgerEntry is the posting face of a Transaction or JournalItem.
type LedgerEntry struct {
	AccountId int
	Kind      models.EntryKind
	Amount    decimal.Decimal
}

func (e LedgerEntry) postingAccountId() int { return e.AccountId }

// RentReceipt is the posting face of a RentPayment against the property's
// revenue account. Only paid receipts ever reach Apply or Reverse.
type RentReceipt struct {
	AccountId int
	Status    models.RentStatus
	Amount    decimal.Decimal
}

func (r RentReceipt) postingAccountId() int { return r.AccountId }

type PostingOutcome string

const (
	PostingApplied  PostingOutcome = "applied"
	PostingReversed PostingOutcome = "reversed"
	PostingSkipped  PostingOutcome = "skipped"
)

// postingDelta resolves the signed balance movement of one posting against an
// account with the given normal balance. ok=false means the posting is a
// recorded no-op: NA-normal accounts, no-type entries and non-paid receipts
// never move a balance.
func postingDelta(normal models.NormalBalance, posting Posting) (decimal.Decimal, bool) {
	switch p := posting.(type) {
	case LedgerEntry:
		if p.Kind == models.EntryKindNoType {
			return decimal.Zero, false
		}
		if normal == models.NormalBalanceNa {
			return decimal.Zero, false
		}
		increases := (p.Kind == models.EntryKindDebit && normal == models.NormalBalanceDebit) ||
			(p.Kind == models.EntryKindCredit && normal == models.NormalBalanceCredit)
		if increases {
			return p.Amount, true
		}
		return p.Amount.Neg(), true
	case RentReceipt:
		if p.Status != models.RentStatusPaid {
			return decimal.Zero, false
		}
		if normal == models.NormalBalanceNa {
			return decimal.Zero, false
		}
		if normal == models.NormalBalanceCredit {
			return p.Amount, true
		}
		return p.Amount.Neg(), true
	}
	return decimal.Zero, false
}

// ApplyPosting moves the account balance by the posting's signed amount and
// persists the account exactly once through the caller's transaction. A
// skipped posting persists nothing.
func ApplyPosting(tx *gorm.DB, logger *logrus.Logger, account *models.Account, posting Posting) (PostingOutcome, error) {
	return movePosting(tx, logger, account, posting, false)
}

// ReversePosting is the exact inverse of ApplyPosting: applying then
// reversing the same posting leaves the balance untouched.
func ReversePosting(tx *gorm.DB, logger *logrus.Logger, account *models.Account, posting Posting) (PostingOutcome, error) {
	return movePosting(tx, logger, account, posting, true)
}

func movePosting(tx *gorm.DB, logger *logrus.Logger, account *models.Account, posting Posting, reverse bool) (PostingOutcome, error) {
	if account.ID != posting.postingAccountId() {
		return "", errors.New("posting does not belong to account")
	}
	delta, ok := postingDelta(account.NormalBalance(), posting)
	if !ok {
		config.LogSkip(logger, "balanceLedger.go", "movePosting", "posting is a no-op for this account", map[string]any{
			"account_id": account.ID,
			"type":       account.Type,
			"posting":    posting,
		})
		return PostingSkipped, nil
	}
	if reverse {
		delta = delta.Neg()
	}

	account.Balance = account.Balance.Add(delta)
	err := tx.Model(account).Update("balance", account.Balance).Error
	if err != nil {
		config.LogError(logger, "balanceLedger.go", "movePosting", "Update balance", account.ID, err)
		return "", err
	}
	if err := utils.RemoveRedis[models.Account](account.ID); err != nil {
		return "", err
	}
	if reverse {
		return PostingReversed, nil
	}
	return PostingApplied, nil
}

// AuditAccountBalance recomputes what the account balance should be from
// first principles: the initial balance plus the signed sum of every live
// posting referencing the account. It mutates nothing.
func AuditAccountBalance(ctx context.Context, accountId int) (decimal.Decimal, error) {
	ctx, span := tracer.Start(ctx, "AuditAccountBalance")
	defer span.End()
	span.SetAttributes(attribute.Int("account.id", accountId))

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return decimal.Zero, errors.New("user id is required")
	}

	account, err := utils.FetchModel[models.Account](ctx, userId, accountId)
	if err != nil {
		return decimal.Zero, err
	}
	normal := account.NormalBalance()
	expected := account.InitialBalance

	db := config.GetDB()

	var transactions []*models.Transaction
	err = db.WithContext(ctx).
		Where("user_id = ?", userId).
		Where("account_id = ?", accountId).
		Where("is_deleted = ?", false).
		Find(&transactions).Error
	if err != nil {
		return decimal.Zero, err
	}
	for _, t := range transactions {
		delta, ok := postingDelta(normal, LedgerEntry{AccountId: accountId, Kind: t.Kind, Amount: t.Amount})
		if ok {
			expected = expected.Add(delta)
		}
	}

	var items []*models.JournalItem
	err = db.WithContext(ctx).
		Joins("JOIN journals ON journals.id = journal_items.journal_id").
		Where("journal_items.user_id = ?", userId).
		Where("journal_items.account_id = ?", accountId).
		Where("journal_items.is_deleted = ?", false).
		Where("journals.is_deleted = ?", false).
		Find(&items).Error
	if err != nil {
		return decimal.Zero, err
	}
	for _, item := range items {
		delta, ok := postingDelta(normal, LedgerEntry{AccountId: accountId, Kind: item.Kind, Amount: item.Amount})
		if ok {
			expected = expected.Add(delta)
		}
	}

	if account.Type == models.AccountTypeRevenue {
		var payments []*models.RentPayment
		err = db.WithContext(ctx).
			Joins("JOIN property_accounts ON property_accounts.property_id = rent_payments.property_id").
			Where("property_accounts.account_id = ?", accountId).
			Where("rent_payments.user_id = ?", userId).
			Where("rent_payments.status = ?", models.RentStatusPaid).
			Where("rent_payments.is_deleted = ?", false).
			Find(&payments).Error
		if err != nil {
			return decimal.Zero, err
		}
		for _, payment := range payments {
			delta, ok := postingDelta(normal, RentReceipt{AccountId: accountId, Status: payment.Status, Amount: payment.Amount})
			if ok {
				expected = expected.Add(delta)
			}
		}
	}

	return expected, nil
}

// ReconcileAccountBalance overwrites the stored balance with the audited
// value and returns both, so callers can report the drift it erased.
func ReconcileAccountBalance(ctx context.Context, logger *logrus.Logger, accountId int) (stored decimal.Decimal, expected decimal.Decimal, err error) {
	ctx, span := tracer.Start(ctx, "ReconcileAccountBalance")
	defer span.End()
	span.SetAttributes(attribute.Int("account.id", accountId))

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return decimal.Zero, decimal.Zero, errors.New("user id is required")
	}

	account, err := utils.FetchModel[models.Account](ctx, userId, accountId)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	stored = account.Balance

	expected, err = AuditAccountBalance(ctx, accountId)
	if err != nil {
		return stored, decimal.Zero, err
	}
	if stored.Equal(expected) {
		return stored, expected, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(account).Update("balance", expected).Error
	if err != nil {
		config.LogError(logger, "balanceLedger.go", "ReconcileAccountBalance", "Update balance", accountId, err)
		return stored, expected, err
	}
	if err := utils.RemoveRedis[models.Account](accountId); err != nil {
		return stored, expected, err
	}
	return stored, expected, nil
}
