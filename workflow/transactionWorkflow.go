package workflow

import (
	"context"
	"errors"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/models"
	"bitbucket.org/bluedoorlabs/rentbooks_backend/utils"
	"gorm.io/gorm"
)

// fetchAccountForPosting reads the account through the posting transaction so
// the balance mutation sees the row the tx sees.
func fetchAccountForPosting(tx *gorm.DB, userId string, accountId int) (*models.Account, error) {
	var account models.Account
	err := tx.Where("user_id = ?", userId).First(&account, accountId).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &account, nil
}

// CreateTransactions validates every input row before any balance moves, then
// creates and applies them one by one inside a single posting transaction.
func CreateTransactions(ctx context.Context, inputs []*models.NewTransaction) ([]*models.Transaction, error) {
	logger := config.GetLogger()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	if len(inputs) == 0 {
		return nil, errors.New("at least one transaction is required")
	}

	// all-or-nothing validation boundary
	for _, input := range inputs {
		if err := input.Validate(ctx, userId); err != nil {
			return nil, err
		}
	}

	release, err := utils.TenantLock(ctx, userId, "posting", "transactionWorkflow.go", "CreateTransactions")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	var created []*models.Transaction
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, userId); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, userId)

		for _, input := range inputs {
			account, err := fetchAccountForPosting(tx, userId, input.AccountId)
			if err != nil {
				config.LogError(logger, "transactionWorkflow.go", "CreateTransactions", "fetchAccountForPosting", input.AccountId, err)
				return err
			}
			row := models.Transaction{
				UserId:       userId,
				AccountId:    input.AccountId,
				PropertyId:   input.PropertyId,
				EntityId:     input.EntityId,
				Kind:         input.Kind,
				Date:         input.Date,
				Amount:       input.Amount.Round(2),
				Memo:         input.Memo,
				IsReconciled: utils.NewFalse(),
				IsDeleted:    utils.NewFalse(),
			}
			if err := tx.Create(&row).Error; err != nil {
				config.LogError(logger, "transactionWorkflow.go", "CreateTransactions", "Create", row, err)
				return err
			}
			_, err = ApplyPosting(tx, logger, account, LedgerEntry{
				AccountId: row.AccountId,
				Kind:      row.Kind,
				Amount:    row.Amount,
			})
			if err != nil {
				return err
			}
			created = append(created, &row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTransaction reverses the stored row on its old account, persists the
// edit, then applies the new values. An account move is reverse plus apply,
// never a transfer.
func UpdateTransaction(ctx context.Context, id int, input *models.NewTransaction) (*models.Transaction, error) {
	logger := config.GetLogger()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	if err := input.Validate(ctx, userId); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[models.Transaction](ctx, userId, id); err != nil {
		return nil, err
	}

	release, err := utils.TenantLock(ctx, userId, "posting", "transactionWorkflow.go", "UpdateTransaction")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	var updated *models.Transaction
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, userId); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, userId)

		var row models.Transaction
		if err := tx.Where("user_id = ?", userId).First(&row, id).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if row.IsDeleted != nil && *row.IsDeleted {
			return errors.New("cannot update a deleted transaction")
		}

		oldAccount, err := fetchAccountForPosting(tx, userId, row.AccountId)
		if err != nil {
			return err
		}
		_, err = ReversePosting(tx, logger, oldAccount, LedgerEntry{
			AccountId: row.AccountId,
			Kind:      row.Kind,
			Amount:    row.Amount,
		})
		if err != nil {
			return err
		}

		err = tx.Model(&row).Updates(map[string]interface{}{
			"AccountId":  input.AccountId,
			"PropertyId": input.PropertyId,
			"EntityId":   input.EntityId,
			"Kind":       input.Kind,
			"Date":       input.Date,
			"Amount":     input.Amount.Round(2),
			"Memo":       input.Memo,
		}).Error
		if err != nil {
			config.LogError(logger, "transactionWorkflow.go", "UpdateTransaction", "Updates", row, err)
			return err
		}

		// re-fetch: the reversal above may already have moved this account
		newAccount, err := fetchAccountForPosting(tx, userId, input.AccountId)
		if err != nil {
			return err
		}
		_, err = ApplyPosting(tx, logger, newAccount, LedgerEntry{
			AccountId: input.AccountId,
			Kind:      input.Kind,
			Amount:    input.Amount.Round(2),
		})
		if err != nil {
			return err
		}
		updated = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTransaction reverses the row's balance effect and soft-deletes it.
func DeleteTransaction(ctx context.Context, id int) (*models.Transaction, error) {
	logger := config.GetLogger()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	if err := utils.ValidateResourceId[models.Transaction](ctx, userId, id); err != nil {
		return nil, err
	}

	release, err := utils.TenantLock(ctx, userId, "posting", "transactionWorkflow.go", "DeleteTransaction")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	var deleted *models.Transaction
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, userId); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, userId)

		var row models.Transaction
		if err := tx.Where("user_id = ?", userId).First(&row, id).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if row.IsDeleted != nil && *row.IsDeleted {
			deleted = &row
			return nil
		}

		account, err := fetchAccountForPosting(tx, userId, row.AccountId)
		if err != nil {
			return err
		}
		_, err = ReversePosting(tx, logger, account, LedgerEntry{
			AccountId: row.AccountId,
			Kind:      row.Kind,
			Amount:    row.Amount,
		})
		if err != nil {
			return err
		}

		err = tx.Model(&row).Updates(map[string]interface{}{
			"IsDeleted": true,
		}).Error
		if err != nil {
			config.LogError(logger, "transactionWorkflow.go", "DeleteTransaction", "Updates", row, err)
			return err
		}
		deleted = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
