package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/utils"
	"github.com/shopspring/decimal"
)

// RentPayment tracks one expected or received rent for a property. Only a
// paid payment touches the property's revenue account; the status transition
// work is owned by the workflow package.
type RentPayment struct {
	ID         int             `gorm:"primary_key" json:"id"`
	UserId     string          `gorm:"index;size:64;not null" json:"user_id"`
	PropertyId int             `gorm:"index;not null" json:"property_id"`
	Property   *Property       `json:"property"`
	EntityId   *int            `gorm:"index" json:"entity_id"`
	Entity     *Entity         `json:"entity"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Date       time.Time       `gorm:"index;not null" json:"date"`
	Status     RentStatus      `gorm:"type:enum('scheduled','due','overdue','paid');default:'scheduled';size:10;not null" json:"status"`
	Memo       string          `gorm:"size:500" json:"memo"`
	IsDeleted  *bool           `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r RentPayment) GetId() int {
	return r.ID
}

type NewRentPayment struct {
	PropertyId int             `json:"property_id" validate:"required"`
	EntityId   *int            `json:"entity_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date" validate:"required"`
	Status     RentStatus      `json:"status" validate:"required"`
	Memo       string          `json:"memo" validate:"max=500"`
}

func (input *NewRentPayment) Validate(ctx context.Context, userId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if _, err := ParseRentStatus(string(input.Status)); err != nil {
		return err
	}
	if input.Amount.IsNegative() {
		return errors.New("amount cannot be negative")
	}
	if id > 0 {
		if err := utils.ValidateResourceId[RentPayment](ctx, userId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateResourceId[Property](ctx, userId, input.PropertyId); err != nil {
		return err
	}
	if input.EntityId != nil {
		if err := utils.ValidateResourceId[Entity](ctx, userId, *input.EntityId); err != nil {
			return err
		}
	}
	return nil
}

func GetRentPayment(ctx context.Context, id int) (*RentPayment, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	result, err := utils.FetchModel[RentPayment](ctx, userId, id, "Property", "Entity")
	if err != nil {
		return nil, err
	}
	return result, nil
}

func GetRentPayments(ctx context.Context, year int, month time.Month, propertyId *int, status *RentStatus) ([]*RentPayment, error) {

	db := config.GetDB()
	var results []*RentPayment

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	dbCtx := db.WithContext(ctx).
		Where("user_id = ?", userId).
		Where("is_deleted = ?", false).
		Where("date >= ? AND date < ?", monthStart, monthEnd)
	if propertyId != nil {
		dbCtx = dbCtx.Where("property_id = ?", *propertyId)
	}
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	err := dbCtx.Preload("Property").Preload("Entity").Order("date, id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetRentPaymentsByDay groups a month's payments by day of month, the shape
// the calendar view consumes.
func GetRentPaymentsByDay(ctx context.Context, year int, month time.Month, propertyId *int) (map[int][]*RentPayment, error) {

	payments, err := GetRentPayments(ctx, year, month, propertyId, nil)
	if err != nil {
		return nil, err
	}
	byDay := make(map[int][]*RentPayment)
	for _, payment := range payments {
		day := payment.Date.Day()
		byDay[day] = append(byDay[day], payment)
	}
	return byDay, nil
}

type RentPaymentMonthSummary struct {
	Scheduled decimal.Decimal `json:"scheduled"`
	Due       decimal.Decimal `json:"due"`
	Overdue   decimal.Decimal `json:"overdue"`
	Paid      decimal.Decimal `json:"paid"`
	Total     decimal.Decimal `json:"total"`
}

// GetRentPaymentMonthSummary totals a month's payments per status.
func GetRentPaymentMonthSummary(ctx context.Context, year int, month time.Month, propertyId *int) (*RentPaymentMonthSummary, error) {

	payments, err := GetRentPayments(ctx, year, month, propertyId, nil)
	if err != nil {
		return nil, err
	}

	var summary RentPaymentMonthSummary
	for _, payment := range payments {
		switch payment.Status {
		case RentStatusScheduled:
			summary.Scheduled = summary.Scheduled.Add(payment.Amount)
		case RentStatusDue:
			summary.Due = summary.Due.Add(payment.Amount)
		case RentStatusOverdue:
			summary.Overdue = summary.Overdue.Add(payment.Amount)
		case RentStatusPaid:
			summary.Paid = summary.Paid.Add(payment.Amount)
		}
		summary.Total = summary.Total.Add(payment.Amount)
	}
	return &summary, nil
}
