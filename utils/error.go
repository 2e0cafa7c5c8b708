package utils

import "errors"

// ErrorRecordNotFound is returned by the fetch and validate helpers when no
// row exists for the caller's tenant.
var ErrorRecordNotFound = errors.New("record not found")
