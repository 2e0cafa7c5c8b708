package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/utils"
	"github.com/shopspring/decimal"
)

// Journal groups JournalItems posted as one unit. The engine does not reject
// an out-of-balance journal; the imbalance is logged by the workflow.
type Journal struct {
	ID         int            `gorm:"primary_key" json:"id"`
	UserId     string         `gorm:"index;size:64;not null" json:"user_id"`
	PropertyId *int           `gorm:"index" json:"property_id"`
	Name       string         `gorm:"size:255;not null" json:"name" binding:"required"`
	Date       time.Time      `gorm:"index;not null" json:"date"`
	Items      []*JournalItem `gorm:"foreignKey:JournalId" json:"items"`
	IsDeleted  *bool          `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (j Journal) GetId() int {
	return j.ID
}

type JournalItem struct {
	ID        int             `gorm:"primary_key" json:"id"`
	JournalId int             `gorm:"index;not null" json:"journal_id"`
	UserId    string          `gorm:"index;size:64;not null" json:"user_id"`
	AccountId int             `gorm:"index;not null" json:"account_id"`
	Account   *Account        `json:"account"`
	Kind      EntryKind       `gorm:"type:enum('debit','credit','no-type');default:'debit';size:10;not null" json:"kind"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Memo      string          `gorm:"size:500" json:"memo"`
	IsDeleted *bool           `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewJournalItem struct {
	AccountId int             `json:"account_id" validate:"required"`
	Kind      EntryKind       `json:"kind" validate:"required,oneof=debit credit"`
	Amount    decimal.Decimal `json:"amount"`
	Memo      string          `json:"memo" validate:"max=500"`
}

type NewJournal struct {
	PropertyId *int             `json:"property_id"`
	Name       string           `json:"name" validate:"required,max=255"`
	Date       time.Time        `json:"date" validate:"required"`
	Items      []NewJournalItem `json:"items" validate:"required,min=1,dive"`
}

// Validate checks the journal and every item before any posting happens.
func (input *NewJournal) Validate(ctx context.Context, userId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Journal](ctx, userId, id); err != nil {
			return err
		}
	}
	if input.PropertyId != nil {
		if err := utils.ValidateResourceId[Property](ctx, userId, *input.PropertyId); err != nil {
			return err
		}
	}
	accountIds := make([]int, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Amount.IsNegative() {
			return errors.New("item amount cannot be negative")
		}
		accountIds = append(accountIds, item.AccountId)
	}
	// one count for all legs instead of a query per item
	return utils.ValidateResourcesId[Account](ctx, userId, accountIds)
}

// Imbalance returns total debits minus total credits across the input items.
func (input *NewJournal) Imbalance() decimal.Decimal {
	total := decimal.Zero
	for _, item := range input.Items {
		switch item.Kind {
		case EntryKindDebit:
			total = total.Add(item.Amount)
		case EntryKindCredit:
			total = total.Sub(item.Amount)
		}
	}
	return total
}

func GetJournal(ctx context.Context, id int) (*Journal, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	result, err := utils.FetchModel[Journal](ctx, userId, id, "Items", "Items.Account")
	if err != nil {
		return nil, err
	}
	return result, nil
}

func GetJournals(ctx context.Context, propertyId *int, dateFrom *time.Time, dateTo *time.Time) ([]*Journal, error) {

	db := config.GetDB()
	var results []*Journal

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	dbCtx := db.WithContext(ctx).Where("user_id = ?", userId).Where("is_deleted = ?", false)
	if propertyId != nil {
		dbCtx = dbCtx.Where("property_id = ?", *propertyId)
	}
	if dateFrom != nil {
		dbCtx = dbCtx.Where("date >= ?", *dateFrom)
	}
	if dateTo != nil {
		dbCtx = dbCtx.Where("date <= ?", *dateTo)
	}
	err := dbCtx.Preload("Items").Order("date DESC, id DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
