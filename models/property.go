package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrMissingRevenueAccount means rent was marked paid on a property whose
// linked account set has no revenue account to post against.
var ErrMissingRevenueAccount = errors.New("property has no linked revenue account")

type Property struct {
	ID             int             `gorm:"primary_key" json:"id"`
	UserId         string          `gorm:"index;size:64;not null" json:"user_id"`
	Name           string          `gorm:"index;size:255;not null" json:"name" binding:"required"`
	Address        string          `gorm:"size:500" json:"address"`
	Type           PropertyType    `gorm:"type:enum('residential','commercial','multi_unit');default:'residential';size:15;not null" json:"type"`
	NumberOfUnits  int             `gorm:"default:1" json:"number_of_units"`
	Rent           decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"rent"`
	CurrentRentDue decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"current_rent_due"`
	Notes          string          `gorm:"type:text" json:"notes"`
	Accounts       []*Account      `gorm:"many2many:property_accounts;" json:"accounts"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	IsDeleted      *bool           `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p Property) GetId() int {
	return p.ID
}

type NewProperty struct {
	Name          string          `json:"name" validate:"required,max=255"`
	Address       string          `json:"address" validate:"max=500"`
	Type          PropertyType    `json:"type"`
	NumberOfUnits int             `json:"number_of_units" validate:"omitempty,min=1"`
	Rent          decimal.Decimal `json:"rent"`
	Notes         string          `json:"notes"`
}

func (input *NewProperty) validate(ctx context.Context, userId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Type == "" {
		input.Type = PropertyTypeResidential
	}
	if _, err := ParsePropertyType(string(input.Type)); err != nil {
		return err
	}
	if input.Rent.IsNegative() {
		return errors.New("rent cannot be negative")
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Property](ctx, userId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Property](ctx, userId, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

// defaultAccounts is the chart-of-accounts skeleton every new property gets,
// one account per basic type.
func defaultAccounts(userId string, propertyName string) []*Account {
	kinds := []AccountType{
		AccountTypeAsset,
		AccountTypeLiability,
		AccountTypeEquity,
		AccountTypeRevenue,
		AccountTypeExpense,
	}
	accounts := make([]*Account, 0, len(kinds))
	for _, kind := range kinds {
		accounts = append(accounts, &Account{
			UserId:    userId,
			Name:      fmt.Sprintf("%s %s", propertyName, kind),
			Type:      kind,
			IsActive:  utils.NewTrue(),
			IsDeleted: utils.NewFalse(),
		})
	}
	return accounts
}

// CreateProperty creates the property plus its default account set in one
// transaction and links them through property_accounts.
func CreateProperty(ctx context.Context, input *NewProperty) (*Property, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	if err := input.validate(ctx, userId, 0); err != nil {
		return nil, err
	}

	property := Property{
		UserId:        userId,
		Name:          input.Name,
		Address:       input.Address,
		Type:          input.Type,
		NumberOfUnits: input.NumberOfUnits,
		Rent:          input.Rent.Round(2),
		Notes:         input.Notes,
		Accounts:      defaultAccounts(userId, input.Name),
		IsActive:      utils.NewTrue(),
		IsDeleted:     utils.NewFalse(),
	}
	if property.NumberOfUnits == 0 {
		property.NumberOfUnits = 1
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&property).Error
	})
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func UpdateProperty(ctx context.Context, id int, input *NewProperty) (*Property, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	if err := input.validate(ctx, userId, id); err != nil {
		return nil, err
	}

	property, err := utils.FetchModel[Property](ctx, userId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&property).Updates(map[string]interface{}{
		"Name":          input.Name,
		"Address":       input.Address,
		"Type":          input.Type,
		"NumberOfUnits": input.NumberOfUnits,
		"Rent":          input.Rent.Round(2),
		"Notes":         input.Notes,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[Property](id); err != nil {
		return nil, err
	}
	return property, nil
}

func DeleteProperty(ctx context.Context, id int) (*Property, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	property, err := utils.FetchModel[Property](ctx, userId, id)
	if err != nil {
		return nil, err
	}

	// accounts and their posting history survive the property
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&property).Updates(map[string]interface{}{
		"IsDeleted": true,
		"IsActive":  false,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[Property](id); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[Account]("revenue", id); err != nil {
		return nil, err
	}
	return property, nil
}

func GetProperty(ctx context.Context, id int) (*Property, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	result, err := utils.FetchModel[Property](ctx, userId, id, "Accounts")
	if err != nil {
		return nil, err
	}
	return result, nil
}

func GetProperties(ctx context.Context, name *string, propertyType *PropertyType) ([]*Property, error) {

	db := config.GetDB()
	var results []*Property

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	dbCtx := db.WithContext(ctx).Where("user_id = ?", userId).Where("is_deleted = ?", false)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if propertyType != nil && len(*propertyType) > 0 {
		dbCtx = dbCtx.Where("type = ?", *propertyType)
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// LinkAccount attaches an existing account to the property's account set.
func LinkAccount(ctx context.Context, propertyId int, accountId int) error {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return errors.New("user id is required")
	}

	property, err := utils.FetchModel[Property](ctx, userId, propertyId)
	if err != nil {
		return err
	}
	account, err := utils.FetchModel[Account](ctx, userId, accountId)
	if err != nil {
		return err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&property).Association("Accounts").Append(account); err != nil {
		return err
	}
	return utils.RemoveRedis[Account]("revenue", propertyId)
}

// GetStandaloneAccounts lists accounts linked to no property, such as bank
// and credit-card accounts the user tracks directly.
func GetStandaloneAccounts(ctx context.Context) ([]*Account, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	var results []*Account
	err := db.WithContext(ctx).
		Where("user_id = ?", userId).
		Where("is_deleted = ?", false).
		Where("id NOT IN (?)", db.Table("property_accounts").Select("account_id")).
		Order("name").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetRevenueAccount picks the revenue account rent receipts post against.
// The result is cached per property.
func GetRevenueAccount(ctx context.Context, propertyId int) (*Account, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	cached, err := utils.RetrieveRedis[Account]("revenue", propertyId)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.UserId == userId {
		return cached, nil
	}

	db := config.GetDB()
	var account Account
	err = db.WithContext(ctx).
		Joins("JOIN property_accounts ON property_accounts.account_id = accounts.id").
		Where("property_accounts.property_id = ?", propertyId).
		Where("accounts.user_id = ?", userId).
		Where("accounts.type = ?", AccountTypeRevenue).
		Where("accounts.is_deleted = ?", false).
		Order("accounts.id").
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissingRevenueAccount
		}
		return nil, err
	}

	if err := utils.StoreRedis[Account](&account, "revenue", propertyId); err != nil {
		return nil, err
	}
	return &account, nil
}
