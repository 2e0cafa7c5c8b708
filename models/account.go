package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Account struct {
	ID             int             `gorm:"primary_key" json:"id"`
	UserId         string          `gorm:"index;size:64;not null" json:"user_id"`
	Name           string          `gorm:"index;size:255;not null" json:"name" binding:"required"`
	Type           AccountType     `gorm:"type:enum('asset','liability','equity','revenue','expense','bank','credit-card');default:'asset';index;size:15;not null" json:"type" binding:"required"`
	Balance        decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"balance"`
	InitialBalance decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"initial_balance"`
	Description    string          `gorm:"type:text" json:"description"`
	AccountNumber  string          `gorm:"index;size:50" json:"account_number"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	IsDeleted      *bool           `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// NormalBalance is a pure function of the account type. The ledger engine
// never moves the balance of an NA-normal account.
func (a Account) NormalBalance() NormalBalance {
	return a.Type.NormalBalance()
}

func (a Account) GetId() int {
	return a.ID
}

type NewAccount struct {
	Name           string          `json:"name" validate:"required,max=255"`
	Type           AccountType     `json:"type" validate:"required"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Description    string          `json:"description"`
	AccountNumber  string          `json:"account_number" validate:"max=50"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewAccount) validate(ctx context.Context, userId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if _, err := ParseAccountType(string(input.Type)); err != nil {
		return err
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Account](ctx, userId, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[Account](ctx, userId, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateAccount(ctx context.Context, input *NewAccount) (*Account, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	if err := input.validate(ctx, userId, 0); err != nil {
		return nil, err
	}

	account := Account{
		UserId:         userId,
		Name:           input.Name,
		Type:           input.Type,
		Balance:        input.InitialBalance.Round(2),
		InitialBalance: input.InitialBalance.Round(2),
		Description:    input.Description,
		AccountNumber:  input.AccountNumber,
		IsActive:       utils.NewTrue(),
		IsDeleted:      utils.NewFalse(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// accountHasPostings reports whether any live posting references the account:
// a transaction, a journal item, or a paid rent on a linked property.
func accountHasPostings(db *gorm.DB, userId string, accountId int) (bool, error) {
	var count int64

	err := db.Model(&Transaction{}).
		Where("user_id = ?", userId).
		Where("account_id = ?", accountId).
		Where("is_deleted = ?", false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = db.Model(&JournalItem{}).
		Where("user_id = ?", userId).
		Where("account_id = ?", accountId).
		Where("is_deleted = ?", false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = db.Model(&RentPayment{}).
		Joins("JOIN property_accounts ON property_accounts.property_id = rent_payments.property_id").
		Where("property_accounts.account_id = ?", accountId).
		Where("rent_payments.user_id = ?", userId).
		Where("rent_payments.status = ?", RentStatusPaid).
		Where("rent_payments.is_deleted = ?", false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// invalidateRevenueCache drops the cached revenue lookup of every property
// linked to the account.
func invalidateRevenueCache(db *gorm.DB, accountId int) error {
	var propertyIds []int
	err := db.Table("property_accounts").
		Where("account_id = ?", accountId).
		Pluck("property_id", &propertyIds).Error
	if err != nil {
		return err
	}
	for _, propertyId := range propertyIds {
		if err := utils.RemoveRedis[Account]("revenue", propertyId); err != nil {
			return err
		}
	}
	return nil
}

// UpdateAccount edits record fields only. Changing the initial balance shifts
// the running balance by the same delta, which keeps it equal to a full
// recompute over the unchanged posting history. A type change would flip the
// sign of historic postings instead, so it is only allowed while the posting
// history is empty.
func UpdateAccount(ctx context.Context, id int, input *NewAccount) (*Account, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	if err := input.validate(ctx, userId, id); err != nil {
		return nil, err
	}

	account, err := utils.FetchModel[Account](ctx, userId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	typeChanged := input.Type != account.Type
	if typeChanged {
		hasPostings, err := accountHasPostings(db.WithContext(ctx), userId, id)
		if err != nil {
			return nil, err
		}
		if hasPostings {
			return nil, errors.New("cannot change the type of an account with postings")
		}
	}

	newInitial := input.InitialBalance.Round(2)
	newBalance := account.Balance.Sub(account.InitialBalance).Add(newInitial)

	err = db.WithContext(ctx).Model(&account).Updates(map[string]interface{}{
		"Name":           input.Name,
		"Type":           input.Type,
		"InitialBalance": newInitial,
		"Balance":        newBalance,
		"Description":    input.Description,
		"AccountNumber":  input.AccountNumber,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[Account](id); err != nil {
		return nil, err
	}
	if typeChanged {
		// a former or new revenue account must not serve stale lookups
		if err := invalidateRevenueCache(db.WithContext(ctx), id); err != nil {
			return nil, err
		}
	}

	return account, nil
}

func MarkAccountActive(ctx context.Context, id int, isActive bool) (*Account, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	account, err := utils.FetchModel[Account](ctx, userId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&account).Updates(Account{
		IsActive: &isActive,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[Account](id); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount soft-deletes. The balance and the posting history stay in
// place for the audit trail; the ledger never hard-deletes an account.
func DeleteAccount(ctx context.Context, id int) (*Account, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	account, err := utils.FetchModel[Account](ctx, userId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&account).Updates(map[string]interface{}{
		"IsDeleted": true,
		"IsActive":  false,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[Account](id); err != nil {
		return nil, err
	}
	if err := invalidateRevenueCache(db.WithContext(ctx), id); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount reads through the redis cache; cached rows are cross-checked
// against the caller's tenant.
func GetAccount(ctx context.Context, id int) (*Account, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	result, err := utils.RetrieveRedis[Account](id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = utils.FetchModel[Account](ctx, userId, id)
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedis[Account](result, id); err != nil {
			return nil, err
		}
	} else if result.UserId != userId {
		return nil, errors.New("cannot access resource owned by another user")
	}

	return result, nil
}

func GetAccounts(ctx context.Context, name *string, accountType *AccountType) ([]*Account, error) {

	db := config.GetDB()
	var results []*Account

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	dbCtx := db.WithContext(ctx).Where("user_id = ?", userId).Where("is_deleted = ?", false)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if accountType != nil && len(*accountType) > 0 {
		dbCtx = dbCtx.Where("type = ?", *accountType)
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
