package domain

import (
	"errors"
	"fmt"
)

// Sentinel outcomes of the booking lifecycle.
var (
	ErrNotEnoughSeats   = errors.New("not enough seats available")
	ErrAlreadyCancelled = errors.New("booking already cancelled")
	ErrTryAgain         = errors.New("could not complete booking, try again")

	ErrInvalidCredentials = errors.New("invalid username or password")
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

type ConflictError struct {
	Resource string
	Msg      string
}

func (e ConflictError) Error() string {
	switch {
	case e.Resource != "" && e.Msg != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func IsConflict(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}
