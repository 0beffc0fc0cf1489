package storage

import "errors"

// Validation errors. Operations returning one of these change nothing.
var (
	ErrEmptyName         = errors.New("category name cannot be empty")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrSameName          = errors.New("new name equals the current name")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrLastCategory      = errors.New("at least one category must remain")
	ErrSameCategory      = errors.New("task is already in that category")
	ErrEmptyText         = errors.New("task text cannot be empty")
	ErrTextUnchanged     = errors.New("task text unchanged")
	ErrIndexOutOfRange   = errors.New("task index out of range")
	ErrInvalidTheme      = errors.New("theme must be light or dark")
)

// ErrPersist wraps backend failures. The in-memory mutation that triggered
// the save stays applied.
var ErrPersist = errors.New("save failed")

var validationErrors = []error{
	ErrEmptyName,
	ErrDuplicateCategory,
	ErrSameName,
	ErrCategoryNotFound,
	ErrLastCategory,
	ErrSameCategory,
	ErrEmptyText,
	ErrTextUnchanged,
	ErrIndexOutOfRange,
	ErrInvalidTheme,
}

// IsValidation reports whether err was a rejected intent rather than an I/O failure.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
