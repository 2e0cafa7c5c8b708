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

// CreateJournalPostings applies every item of a freshly created journal.
// Validation happened before the transaction started; by the time this runs
// the only failures left are store failures.
func CreateJournalPostings(tx *gorm.DB, logger *logrus.Logger, userId string, items []*models.JournalItem) error {
	for _, item := range items {
		account, err := fetchAccountForPosting(tx, userId, item.AccountId)
		if err != nil {
			return err
		}
		_, err = ApplyPosting(tx, logger, account, LedgerEntry{
			AccountId: item.AccountId,
			Kind:      item.Kind,
			Amount:    item.Amount,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ReplaceJournalPostings reverses every old item before applying any new one.
// The ordering matters when old and new items touch the same account.
func ReplaceJournalPostings(tx *gorm.DB, logger *logrus.Logger, userId string, oldItems []*models.JournalItem, newItems []*models.JournalItem) error {
	if err := DeleteJournalPostings(tx, logger, userId, oldItems); err != nil {
		return err
	}
	return CreateJournalPostings(tx, logger, userId, newItems)
}

// DeleteJournalPostings reverses every current item of a journal.
func DeleteJournalPostings(tx *gorm.DB, logger *logrus.Logger, userId string, items []*models.JournalItem) error {
	for _, item := range items {
		account, err := fetchAccountForPosting(tx, userId, item.AccountId)
		if err != nil {
			return err
		}
		_, err = ReversePosting(tx, logger, account, LedgerEntry{
			AccountId: item.AccountId,
			Kind:      item.Kind,
			Amount:    item.Amount,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// warnImbalance logs when debits and credits disagree. Out-of-balance
// journals are accepted; rejecting them would break imports of historic books.
func warnImbalance(logger *logrus.Logger, journalName string, input *models.NewJournal) {
	imbalance := input.Imbalance()
	if imbalance.IsZero() {
		return
	}
	logger.WithFields(logrus.Fields{
		"journal":   journalName,
		"imbalance": imbalance.String(),
	}).Warn("journal debits and credits do not balance")
}

func CreateJournal(ctx context.Context, input *models.NewJournal) (*models.Journal, error) {
	logger := config.GetLogger()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	if err := input.Validate(ctx, userId, 0); err != nil {
		return nil, err
	}
	warnImbalance(logger, input.Name, input)

	release, err := utils.TenantLock(ctx, userId, "posting", "journalWorkflow.go", "CreateJournal")
	if err != nil {
		return nil, err
	}
	defer release()

	journal := models.Journal{
		UserId:     userId,
		PropertyId: input.PropertyId,
		Name:       input.Name,
		Date:       input.Date,
		IsDeleted:  utils.NewFalse(),
	}
	for _, item := range input.Items {
		journal.Items = append(journal.Items, &models.JournalItem{
			UserId:    userId,
			AccountId: item.AccountId,
			Kind:      item.Kind,
			Amount:    item.Amount.Round(2),
			Memo:      item.Memo,
			IsDeleted: utils.NewFalse(),
		})
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, userId); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, userId)

		if err := tx.Create(&journal).Error; err != nil {
			config.LogError(logger, "journalWorkflow.go", "CreateJournal", "Create", journal, err)
			return err
		}
		return CreateJournalPostings(tx, logger, userId, journal.Items)
	})
	if err != nil {
		return nil, err
	}
	return &journal, nil
}

// UpdateJournal replaces the journal's items wholesale. Every stored item is
// reversed before any replacement item is applied.
func UpdateJournal(ctx context.Context, id int, input *models.NewJournal) (*models.Journal, error) {
	logger := config.GetLogger()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	if err := input.Validate(ctx, userId, id); err != nil {
		return nil, err
	}
	warnImbalance(logger, input.Name, input)

	release, err := utils.TenantLock(ctx, userId, "posting", "journalWorkflow.go", "UpdateJournal")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	var journal models.Journal
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, userId); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, userId)

		err := tx.Where("user_id = ?", userId).Preload("Items", "is_deleted = ?", false).First(&journal, id).Error
		if err != nil {
			return utils.ErrorRecordNotFound
		}
		if journal.IsDeleted != nil && *journal.IsDeleted {
			return errors.New("cannot update a deleted journal")
		}
		oldItems := journal.Items

		newItems := make([]*models.JournalItem, 0, len(input.Items))
		for _, item := range input.Items {
			newItems = append(newItems, &models.JournalItem{
				JournalId: journal.ID,
				UserId:    userId,
				AccountId: item.AccountId,
				Kind:      item.Kind,
				Amount:    item.Amount.Round(2),
				Memo:      item.Memo,
				IsDeleted: utils.NewFalse(),
			})
		}

		if len(oldItems) > 0 {
			err = tx.Model(&models.JournalItem{}).
				Where("journal_id = ?", journal.ID).
				Where("is_deleted = ?", false).
				Update("is_deleted", true).Error
			if err != nil {
				config.LogError(logger, "journalWorkflow.go", "UpdateJournal", "retire old items", journal.ID, err)
				return err
			}
		}
		if err := tx.Create(&newItems).Error; err != nil {
			config.LogError(logger, "journalWorkflow.go", "UpdateJournal", "Create items", journal.ID, err)
			return err
		}
		err = tx.Model(&journal).Updates(map[string]interface{}{
			"PropertyId": input.PropertyId,
			"Name":       input.Name,
			"Date":       input.Date,
		}).Error
		if err != nil {
			config.LogError(logger, "journalWorkflow.go", "UpdateJournal", "Updates", journal.ID, err)
			return err
		}

		if err := ReplaceJournalPostings(tx, logger, userId, oldItems, newItems); err != nil {
			return err
		}
		journal.Items = newItems
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &journal, nil
}

// DeleteJournal reverses every live item and soft-deletes the journal.
func DeleteJournal(ctx context.Context, id int) (*models.Journal, error) {
	logger := config.GetLogger()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	if err := utils.ValidateResourceId[models.Journal](ctx, userId, id); err != nil {
		return nil, err
	}

	release, err := utils.TenantLock(ctx, userId, "posting", "journalWorkflow.go", "DeleteJournal")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	var journal models.Journal
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, userId); err != nil {
			return err
		}
		defer ReleasePostingLock(tx, userId)

		err := tx.Where("user_id = ?", userId).Preload("Items", "is_deleted = ?", false).First(&journal, id).Error
		if err != nil {
			return utils.ErrorRecordNotFound
		}
		if journal.IsDeleted != nil && *journal.IsDeleted {
			return nil
		}

		if err := DeleteJournalPostings(tx, logger, userId, journal.Items); err != nil {
			return err
		}
		err = tx.Model(&journal).Updates(map[string]interface{}{
			"IsDeleted": true,
		}).Error
		if err != nil {
			config.LogError(logger, "journalWorkflow.go", "DeleteJournal", "Updates", journal.ID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &journal, nil
}
