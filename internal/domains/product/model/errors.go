package model

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeProductNotFound = "PRD001"
	ErrCodeProductExists   = "PRD002"
	ErrCodeInvalidProduct  = "PRD003"
)

// Errors
var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductExists   = errors.New("product already exists")
)

// ProductError custom error type
type ProductError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProductError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProductError) Unwrap() error {
	return e.Err
}

// Error constructors
func NewProductNotFoundError() *ProductError {
	return &ProductError{
		Code:    ErrCodeProductNotFound,
		Message: "Product not found",
		Err:     ErrProductNotFound,
	}
}

func NewProductExistsError() *ProductError {
	return &ProductError{
		Code:    ErrCodeProductExists,
		Message: "Product already exists",
		Err:     ErrProductExists,
	}
}

func NewInvalidProductError(err error) *ProductError {
	return &ProductError{
		Code:    ErrCodeInvalidProduct,
		Message: "Invalid product payload",
		Err:     err,
	}
}
