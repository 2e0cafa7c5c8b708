package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/utils"
)

// Entity is a counterparty on a transaction: a tenant, a vendor, an owner.
type Entity struct {
	ID          int       `gorm:"primary_key" json:"id"`
	UserId      string    `gorm:"index;size:64;not null" json:"user_id"`
	PropertyId  *int      `gorm:"index" json:"property_id"`
	Name        string    `gorm:"index;size:255;not null" json:"name" binding:"required"`
	Company     string    `gorm:"size:255" json:"company"`
	Address     string    `gorm:"size:500" json:"address"`
	PhoneNumber string    `gorm:"size:50" json:"phone_number"`
	Email       string    `gorm:"size:255" json:"email"`
	Description string    `gorm:"type:text" json:"description"`
	IsDeleted   *bool     `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e Entity) GetId() int {
	return e.ID
}

type NewEntity struct {
	PropertyId  *int   `json:"property_id"`
	Name        string `json:"name" validate:"required,max=255"`
	Company     string `json:"company" validate:"max=255"`
	Address     string `json:"address" validate:"max=500"`
	PhoneNumber string `json:"phone_number" validate:"max=50"`
	Email       string `json:"email" validate:"omitempty,email"`
	Description string `json:"description"`
}

func (input *NewEntity) validate(ctx context.Context, userId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Entity](ctx, userId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Entity](ctx, userId, "name", input.Name, id); err != nil {
		return err
	}
	if input.PropertyId != nil {
		if err := utils.ValidateResourceId[Property](ctx, userId, *input.PropertyId); err != nil {
			return err
		}
	}
	return nil
}

func CreateEntity(ctx context.Context, input *NewEntity) (*Entity, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	if err := input.validate(ctx, userId, 0); err != nil {
		return nil, err
	}

	entity := Entity{
		UserId:      userId,
		PropertyId:  input.PropertyId,
		Name:        input.Name,
		Company:     input.Company,
		Address:     input.Address,
		PhoneNumber: input.PhoneNumber,
		Email:       input.Email,
		Description: input.Description,
		IsDeleted:   utils.NewFalse(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&entity).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func UpdateEntity(ctx context.Context, id int, input *NewEntity) (*Entity, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	if err := input.validate(ctx, userId, id); err != nil {
		return nil, err
	}

	entity, err := utils.FetchModel[Entity](ctx, userId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&entity).Updates(map[string]interface{}{
		"PropertyId":  input.PropertyId,
		"Name":        input.Name,
		"Company":     input.Company,
		"Address":     input.Address,
		"PhoneNumber": input.PhoneNumber,
		"Email":       input.Email,
		"Description": input.Description,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[Entity](id); err != nil {
		return nil, err
	}
	return entity, nil
}

func DeleteEntity(ctx context.Context, id int) (*Entity, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	entity, err := utils.FetchModel[Entity](ctx, userId, id)
	if err != nil {
		return nil, err
	}

	// counterparties referenced by transactions stay readable
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&entity).Updates(map[string]interface{}{
		"IsDeleted": true,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedis[Entity](id); err != nil {
		return nil, err
	}
	return entity, nil
}

func GetEntity(ctx context.Context, id int) (*Entity, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	result, err := utils.RetrieveRedis[Entity](id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = utils.FetchModel[Entity](ctx, userId, id)
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedis[Entity](result, id); err != nil {
			return nil, err
		}
	} else if result.UserId != userId {
		return nil, errors.New("cannot access resource owned by another user")
	}
	return result, nil
}

func GetEntities(ctx context.Context, name *string, propertyId *int) ([]*Entity, error) {

	db := config.GetDB()
	var results []*Entity

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	dbCtx := db.WithContext(ctx).Where("user_id = ?", userId).Where("is_deleted = ?", false)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if propertyId != nil {
		dbCtx = dbCtx.Where("property_id = ?", *propertyId)
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
