package errprocess

import (
	"errors"
	"fmt"

	"friends_sync_service/pkg/logger"
)

// Set log err info and return it as an error
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// Wrap log err with context and return the wrapped error
func Wrap(msg string, err error) error {
	logger.Log.Errorf(msg, err)
	return fmt.Errorf("%s: %w", msg, err)
}
