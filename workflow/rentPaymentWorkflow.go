package workflow

import (
	"context"
	"errors"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/models"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReplaceRentReceiptPosting reverses the old receipt before applying the new
// one, each against the revenue account it names. Reversing first matters for
// paid-to-paid edits that land on the same account. A nil receipt means there
// is nothing to reverse, or nothing to apply, on that side.
func ReplaceRentReceiptPosting(tx *gorm.DB, logger *logrus.Logger, userId string, oldReceipt, newReceipt *RentReceipt) error {
	if oldReceipt != nil {
		account, err := fetchAccountForPosting(tx, userId, oldReceipt.AccountId)
		if err != nil {
			return err
		}
		if _, err := ReversePosting(tx, logger, account, *oldReceipt); err != nil {
			return err
		}
	}
	if newReceipt != nil {
		account, err := fetchAccountForPosting(tx, userId, newReceipt.AccountId)
		if err != nil {
			return err
		}
		if _, err := ApplyPosting(tx, logger, account, *newReceipt); err != nil {
			return err
		}
	}
	return nil
}

// CreateRentPayment records an expected or received rent. A payment created
// as paid posts its amount to the property's revenue account; a missing
// revenue account fails the whole create with nothing applied.
func CreateRentPayment(ctx context.Context, input *models.NewRentPayment) (*models.RentPayment, error) {
	logger := config.GetLogger()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	if err := input.Validate(ctx, userId, 0); err != nil {
		return nil, err
	}
	if input.Status == models.RentStatusPaid {
		// fail fast, before any row exists
		if _, err := models.GetRevenueAccount(ctx, input.PropertyId); err != nil {
			return nil, err
		}
	}

	release, err := utils.TenantLock(ctx, userId, "posting", "rentPaymentWorkflow.go", "CreateRentPayment")
	if err != nil {
		return nil, err
	}
	defer release()

	payment := models.RentPayment{
		UserId:     userId,
		PropertyId: input.PropertyId,
		EntityId:   input.EntityId,
		Amount:     input.Amount.Round(2),
		Date:       input.Date,
		Status:     input.Status,
		Memo:       input.Memo,
		IsDeleted:  utils.NewFalse(),
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, userId); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, userId)

		if err := tx.Create(&payment).Error; err != nil {
			config.LogError(logger, "rentPaymentWorkflow.go", "CreateRentPayment", "Create", payment, err)
			return err
		}
		if payment.Status != models.RentStatusPaid {
			return nil
		}
		revenue, err := models.GetRevenueAccount(ctx, payment.PropertyId)
		if err != nil {
			return err
		}
		return ReplaceRentReceiptPosting(tx, logger, userId, nil, &RentReceipt{
			AccountId: revenue.ID,
			Status:    payment.Status,
			Amount:    payment.Amount,
		})
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateRentPayment recomputes the payment's revenue effect from scratch: a
// previously paid payment is reversed first, even when it stays paid, then
// the new state is applied if it is paid. Paid-to-paid edits therefore settle
// on the new amount and property without drift.
func UpdateRentPayment(ctx context.Context, id int, input *models.NewRentPayment) (*models.RentPayment, error) {
	logger := config.GetLogger()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	if err := input.Validate(ctx, userId, id); err != nil {
		return nil, err
	}
	if input.Status == models.RentStatusPaid {
		if _, err := models.GetRevenueAccount(ctx, input.PropertyId); err != nil {
			return nil, err
		}
	}

	release, err := utils.TenantLock(ctx, userId, "posting", "rentPaymentWorkflow.go", "UpdateRentPayment")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	var payment models.RentPayment
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, userId); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, userId)

		if err := tx.Where("user_id = ?", userId).First(&payment, id).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if payment.IsDeleted != nil && *payment.IsDeleted {
			return errors.New("cannot update a deleted rent payment")
		}

		var oldReceipt *RentReceipt
		if payment.Status == models.RentStatusPaid {
			revenue, err := models.GetRevenueAccount(ctx, payment.PropertyId)
			if err != nil {
				return err
			}
			oldReceipt = &RentReceipt{
				AccountId: revenue.ID,
				Status:    payment.Status,
				Amount:    payment.Amount,
			}
		}

		err := tx.Model(&payment).Updates(map[string]interface{}{
			"PropertyId": input.PropertyId,
			"EntityId":   input.EntityId,
			"Amount":     input.Amount.Round(2),
			"Date":       input.Date,
			"Status":     input.Status,
			"Memo":       input.Memo,
		}).Error
		if err != nil {
			config.LogError(logger, "rentPaymentWorkflow.go", "UpdateRentPayment", "Updates", payment, err)
			return err
		}

		var newReceipt *RentReceipt
		if input.Status == models.RentStatusPaid {
			revenue, err := models.GetRevenueAccount(ctx, input.PropertyId)
			if err != nil {
				return err
			}
			newReceipt = &RentReceipt{
				AccountId: revenue.ID,
				Status:    input.Status,
				Amount:    input.Amount.Round(2),
			}
		}
		return ReplaceRentReceiptPosting(tx, logger, userId, oldReceipt, newReceipt)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// DeleteRentPayment soft-deletes, reversing the revenue posting when the
// payment was paid.
func DeleteRentPayment(ctx context.Context, id int) (*models.RentPayment, error) {
	logger := config.GetLogger()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	if err := utils.ValidateResourceId[models.RentPayment](ctx, userId, id); err != nil {
		return nil, err
	}

	release, err := utils.TenantLock(ctx, userId, "posting", "rentPaymentWorkflow.go", "DeleteRentPayment")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	var payment models.RentPayment
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, userId); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, userId)

		if err := tx.Where("user_id = ?", userId).First(&payment, id).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if payment.IsDeleted != nil && *payment.IsDeleted {
			return nil
		}

		if payment.Status == models.RentStatusPaid {
			revenue, err := models.GetRevenueAccount(ctx, payment.PropertyId)
			if err != nil {
				return err
			}
			err = ReplaceRentReceiptPosting(tx, logger, userId, &RentReceipt{
				AccountId: revenue.ID,
				Status:    payment.Status,
				Amount:    payment.Amount,
			}, nil)
			if err != nil {
				return err
			}
		}

		err := tx.Model(&payment).Updates(map[string]interface{}{
			"IsDeleted": true,
		}).Error
		if err != nil {
			config.LogError(logger, "rentPaymentWorkflow.go", "DeleteRentPayment", "Updates", payment, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
