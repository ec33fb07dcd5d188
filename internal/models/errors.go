package models

import "errors"

// Shared storage sentinels. Repositories translate driver errors into these
// so handlers can map them to HTTP statuses without importing the driver.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)
