package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/utils"
	"github.com/shopspring/decimal"
)

// Transaction is a standalone ledger entry against one account. Its balance
// effect is owned by the workflow package; rows here are never mutated
// outside a posting sequence.
type Transaction struct {
	ID           int             `gorm:"primary_key" json:"id"`
	UserId       string          `gorm:"index;size:64;not null" json:"user_id"`
	AccountId    int             `gorm:"index;not null" json:"account_id"`
	Account      *Account        `json:"account"`
	PropertyId   *int            `gorm:"index" json:"property_id"`
	EntityId     *int            `gorm:"index" json:"entity_id"`
	Entity       *Entity         `json:"entity"`
	Kind         EntryKind       `gorm:"type:enum('debit','credit','no-type');default:'debit';size:10;not null" json:"kind"`
	Date         time.Time       `gorm:"index;not null" json:"date"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Memo         string          `gorm:"size:500" json:"memo"`
	IsReconciled *bool           `gorm:"not null;default:false" json:"is_reconciled"`
	IsDeleted    *bool           `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t Transaction) GetId() int {
	return t.ID
}

type NewTransaction struct {
	AccountId  int             `json:"account_id" validate:"required"`
	PropertyId *int            `json:"property_id"`
	EntityId   *int            `json:"entity_id"`
	Kind       EntryKind       `json:"kind" validate:"required"`
	Date       time.Time       `json:"date" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Memo       string          `json:"memo" validate:"max=500"`
}

// Validate checks one input row. The batch create validates every row before
// applying any.
func (input *NewTransaction) Validate(ctx context.Context, userId string) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if _, err := ParseEntryKind(string(input.Kind)); err != nil {
		return err
	}
	if input.Amount.IsNegative() {
		return errors.New("amount cannot be negative")
	}
	if err := utils.ValidateResourceId[Account](ctx, userId, input.AccountId); err != nil {
		return err
	}
	if input.PropertyId != nil {
		if err := utils.ValidateResourceId[Property](ctx, userId, *input.PropertyId); err != nil {
			return err
		}
	}
	if input.EntityId != nil {
		if err := utils.ValidateResourceId[Entity](ctx, userId, *input.EntityId); err != nil {
			return err
		}
	}
	return nil
}

func GetTransaction(ctx context.Context, id int) (*Transaction, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	result, err := utils.FetchModel[Transaction](ctx, userId, id, "Account", "Entity")
	if err != nil {
		return nil, err
	}
	return result, nil
}

type TransactionFilter struct {
	AccountId  *int
	PropertyId *int
	EntityId   *int
	Kind       *EntryKind
	DateFrom   *time.Time
	DateTo     *time.Time
}

func GetTransactions(ctx context.Context, filter TransactionFilter) ([]*Transaction, error) {

	db := config.GetDB()
	var results []*Transaction

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	dbCtx := db.WithContext(ctx).Where("user_id = ?", userId).Where("is_deleted = ?", false)
	if filter.AccountId != nil {
		dbCtx = dbCtx.Where("account_id = ?", *filter.AccountId)
	}
	if filter.PropertyId != nil {
		dbCtx = dbCtx.Where("property_id = ?", *filter.PropertyId)
	}
	if filter.EntityId != nil {
		dbCtx = dbCtx.Where("entity_id = ?", *filter.EntityId)
	}
	if filter.Kind != nil {
		dbCtx = dbCtx.Where("kind = ?", *filter.Kind)
	}
	if filter.DateFrom != nil {
		dbCtx = dbCtx.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		dbCtx = dbCtx.Where("date <= ?", *filter.DateTo)
	}
	err := dbCtx.Preload("Account").Preload("Entity").Order("date DESC, id DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
