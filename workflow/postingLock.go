package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquirePostingLock serializes ledger mutations per user across instances
// using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the posting transaction.
func AcquirePostingLock(tx *gorm.DB, userId string) error {
	lockName := fmt.Sprintf("posting:%s", userId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for user_id=%s", userId)
	}
	return nil
}

func ReleasePostingLock(tx *gorm.DB, userId string) {
	lockName := fmt.Sprintf("posting:%s", userId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
