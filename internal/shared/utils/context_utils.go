package utils

import (
	"context"
	"errors"

	"franchise-catalog/internal/shared/contextkeys"
)

// Common context errors
var (
	ErrRequestIDNotFound   = errors.New("requestID not found in context")
	ErrRequestIDNotString  = errors.New("requestID in context is not a string")
	ErrSubjectNotFound     = errors.New("subject not found in context")
	ErrSubjectNotString    = errors.New("subject in context is not a string")
	ErrFranchiseIDNotFound = errors.New("franchiseID not found in context")
	ErrBranchIDNotFound    = errors.New("branchID not found in context")
	ErrProductIDNotFound   = errors.New("productID not found in context")
)

func stringValue(ctx context.Context, key interface{}, missing, wrongType error) (string, error) {
	val := ctx.Value(key)
	if val == nil {
		return "", missing
	}
	s, ok := val.(string)
	if !ok {
		return "", wrongType
	}
	return s, nil
}

// GetRequestIDFromContext retrieves the request ID from the context.
// It returns an error if the request ID is not found or is not a string.
func GetRequestIDFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.RequestIDKey, ErrRequestIDNotFound, ErrRequestIDNotString)
}

// GetSubjectFromContext retrieves the authenticated subject from the context.
func GetSubjectFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.SubjectKey, ErrSubjectNotFound, ErrSubjectNotString)
}

func GetFranchiseIDFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.FranchiseIDKey, ErrFranchiseIDNotFound, ErrFranchiseIDNotFound)
}

func GetBranchIDFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.BranchIDKey, ErrBranchIDNotFound, ErrBranchIDNotFound)
}

func GetProductIDFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.ProductIDKey, ErrProductIDNotFound, ErrProductIDNotFound)
}

// Context builder functions

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextkeys.RequestIDKey, requestID)
}

// WithSubject adds the authenticated subject to context
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, contextkeys.SubjectKey, subject)
}

// WithFranchiseID adds franchise ID to context
func WithFranchiseID(ctx context.Context, franchiseID string) context.Context {
	return context.WithValue(ctx, contextkeys.FranchiseIDKey, franchiseID)
}

// WithBranchID adds branch ID to context
func WithBranchID(ctx context.Context, branchID string) context.Context {
	return context.WithValue(ctx, contextkeys.BranchIDKey, branchID)
}

// WithProductID adds product ID to context
func WithProductID(ctx context.Context, productID string) context.Context {
	return context.WithValue(ctx, contextkeys.ProductIDKey, productID)
}

// WithComponent adds component name to context
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, contextkeys.ComponentKey, component)
}

// WithOperation adds operation name to context
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, contextkeys.OperationKey, operation)
}

// Optional getters that return default values instead of errors

// GetSubjectOrDefault retrieves the subject from context or returns a default value
func GetSubjectOrDefault(ctx context.Context, def string) string {
	if v, err := GetSubjectFromContext(ctx); err == nil {
		return v
	}
	return def
}

// GetRequestIDOrDefault retrieves the request ID from context or returns a default value
func GetRequestIDOrDefault(ctx context.Context, def string) string {
	if v, err := GetRequestIDFromContext(ctx); err == nil {
		return v
	}
	return def
}

func HasSubject(ctx context.Context) bool {
	_, err := GetSubjectFromContext(ctx)
	return err == nil
}
