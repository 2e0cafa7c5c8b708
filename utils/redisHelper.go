package utils

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"bitbucket.org/bluedoorlabs/rentbooks_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

// get type name of struct
func GetType(i interface{}) string {
	return reflect.TypeOf(i).Name()
}

/* Redis */

// cache keys look like "Account:12" or "Account:revenue:12"
func redisKey[T any](keyParts ...any) string {
	key := GetTypeName[T]()
	for _, part := range keyParts {
		key += ":" + fmt.Sprint(part)
	}
	return key
}

// store instance, obj should be a pointer
func StoreRedis[T any](obj any, keyParts ...any) error {
	return config.SetRedisObject(redisKey[T](keyParts...), &obj, GetCacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](keyParts ...any) (*T, error) {
	var result *T
	exists, err := config.GetRedisObject(redisKey[T](keyParts...), &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

func RemoveRedis[T any](keyParts ...any) error {
	return config.RemoveRedisKey(redisKey[T](keyParts...))
}
