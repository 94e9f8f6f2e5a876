package service

import (
	"errors"

	dErrors "minkyc/pkg/domain-errors"
	"minkyc/pkg/platform/sentinel"
)

// storeError translates a store failure into a domain error. Domain errors pass through.
func storeError(err error, what string) error {
	var de *dErrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeInternal, what+" store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
	}
}

// txError makes sure nothing uncoded escapes a transaction.
func txError(err error) error {
	var de *dErrors.Error
	if err == nil || errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "transaction failed")
}
