package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func UniqueSlice[T comparable](slice []T) []T {
	keys := make(map[T]bool)
	list := []T{}
	for _, entry := range slice {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}

func MergeIntSlices(slice1, slice2 []int) []int {
	merged := make([]int, 0, len(slice1)+len(slice2))
	merged = append(merged, slice1...)
	for _, v := range slice2 {
		found := false
		for _, m := range merged {
			if m == v {
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, v)
		}
	}
	return merged
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	if len(defaults) > 0 {
		return defaults[0]
	}
	var zero T
	return zero
}

// ParseDecimal converts a string to a decimal.Decimal value rounded to the
// ledger's two fraction digits.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec.Round(2), nil
}

// TenantLock obtains a best-effort distributed lock for a user's posting
// sequence. Authoritative serialization is the MySQL advisory lock taken on
// the posting connection; this only sheds contention before the transaction
// starts. The returned release func is a no-op when Redis is unavailable.
func TenantLock(ctx context.Context, userId string, lockType string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("%s:%s", lockType, userId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for userId", userId, err)
		return nil, errors.New("could not obtain posting lock")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for userId", userId, err)
		return nil, err
	}
	return func() {
		_ = lock.Release(ctx)
	}, nil
}
