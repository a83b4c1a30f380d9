package model

import (
	"fmt"

	apperrors "franchise-catalog/internal/shared/errors"
)

// Error codes carried by catalog AppErrors
const (
	CodeFranchiseNotFound    = "FRANCHISE_NOT_FOUND"
	CodeBranchNotFound       = "BRANCH_NOT_FOUND"
	CodeProductNotFound      = "PRODUCT_NOT_FOUND"
	CodeFranchiseNameTaken   = "FRANCHISE_NAME_TAKEN"
	CodeBranchNameTaken      = "BRANCH_NAME_TAKEN"
	CodeProductNameTaken     = "PRODUCT_NAME_TAKEN"
	CodeBranchNotInFranchise = "BRANCH_NOT_IN_FRANCHISE"
	CodeProductNotInBranch   = "PRODUCT_NOT_IN_BRANCH"
	CodeOrphanedProduct      = "ORPHANED_PRODUCT"
	CodeVersionConflict      = "VERSION_CONFLICT"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeInvalidName          = "INVALID_NAME"
	CodeInvalidStock         = "INVALID_STOCK"
	CodeInvalidID            = "INVALID_ID"
	CodeEmptyPatch           = "EMPTY_PATCH"
)

const component = "catalog"

// Entity names used in error details
const (
	EntityFranchise = "franchise"
	EntityBranch    = "branch"
	EntityProduct   = "product"
)

// FranchiseNotFound reports a franchise lookup miss
func FranchiseNotFound(id string) *apperrors.AppError {
	return notFound(EntityFranchise, CodeFranchiseNotFound, "id", id)
}

// FranchiseNameNotFound reports a franchise name lookup miss
func FranchiseNameNotFound(name string) *apperrors.AppError {
	return notFound(EntityFranchise, CodeFranchiseNotFound, "name", name)
}

// BranchNotFound reports a branch lookup miss
func BranchNotFound(id string) *apperrors.AppError {
	return notFound(EntityBranch, CodeBranchNotFound, "id", id)
}

// ProductNotFound reports a product lookup miss
func ProductNotFound(id string) *apperrors.AppError {
	return notFound(EntityProduct, CodeProductNotFound, "id", id)
}

func notFound(entity, code, key, value string) *apperrors.AppError {
	err := apperrors.NewNotFoundError(entity).
		WithCode(code).
		WithComponent(component).
		WithDetail("entity", entity).
		WithDetail(key, value)
	err.Message = fmt.Sprintf("%s not found: %s", entity, value)
	return err
}

// FranchiseNameTaken reports a duplicate franchise name
func FranchiseNameTaken(name string) *apperrors.AppError {
	return apperrors.NewConflictError("a franchise with this name already exists").
		WithCode(CodeFranchiseNameTaken).
		WithComponent(component).
		WithDetail("entity", EntityFranchise).
		WithDetail("name", name)
}

// BranchNameTaken reports a duplicate branch name within a franchise
func BranchNameTaken(franchiseID, name string) *apperrors.AppError {
	return apperrors.NewConflictError("a branch with this name already exists in the franchise").
		WithCode(CodeBranchNameTaken).
		WithComponent(component).
		WithDetail("entity", EntityBranch).
		WithDetail("franchiseId", franchiseID).
		WithDetail("name", name)
}

// ProductNameTaken reports a duplicate product name within a branch
func ProductNameTaken(branchID, name string) *apperrors.AppError {
	return apperrors.NewConflictError("a product with this name already exists in the branch").
		WithCode(CodeProductNameTaken).
		WithComponent(component).
		WithDetail("entity", EntityProduct).
		WithDetail("branchId", branchID).
		WithDetail("name", name)
}

// BranchNotInFranchise reports a branch addressed under a franchise that does not own it
func BranchNotInFranchise(franchiseID, branchID string) *apperrors.AppError {
	return apperrors.NewInvalidRelationshipError("branch does not belong to the franchise").
		WithCode(CodeBranchNotInFranchise).
		WithComponent(component).
		WithDetail("franchiseId", franchiseID).
		WithDetail("branchId", branchID)
}

// ProductNotInBranch reports a product addressed under a branch that does not hold it
func ProductNotInBranch(branchID, productID string) *apperrors.AppError {
	return apperrors.NewInvalidRelationshipError("product does not belong to the branch").
		WithCode(CodeProductNotInBranch).
		WithComponent(component).
		WithDetail("branchId", branchID).
		WithDetail("productId", productID)
}

// OrphanedProduct reports a stored product whose branch no longer exists
func OrphanedProduct(productID, branchID string) *apperrors.AppError {
	return apperrors.NewInternalError("the branch of the product does not exist").
		WithCode(CodeOrphanedProduct).
		WithComponent(component).
		WithDetail("productId", productID).
		WithDetail("branchId", branchID)
}

// VersionConflict reports a write that lost an optimistic version race
func VersionConflict(entity string, id interface{}) *apperrors.AppError {
	return apperrors.NewConflictError("the document was modified concurrently").
		WithCode(CodeVersionConflict).
		WithComponent(component).
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// InsufficientStock reports a stock adjustment that would go below zero
func InsufficientStock(productID string, delta int) *apperrors.AppError {
	return apperrors.NewConflictError("stock cannot go below zero").
		WithCode(CodeInsufficientStock).
		WithComponent(component).
		WithDetail("productId", productID).
		WithDetail("delta", delta)
}

// MaxStockDelta bounds a single stock adjustment in either direction
const MaxStockDelta = 1_000_000_000

// InvalidStockDelta reports an adjustment outside ±MaxStockDelta or one that would overflow the stock
func InvalidStockDelta(delta int) *apperrors.AppError {
	return apperrors.NewValidationError(fmt.Sprintf("stock delta must be between -%d and %d", MaxStockDelta, MaxStockDelta)).
		WithCode(CodeInvalidStock).
		WithComponent(component).
		WithDetail("delta", delta)
}

// InvalidName reports a blank name
func InvalidName(entity string) *apperrors.AppError {
	return apperrors.NewValidationError(fmt.Sprintf("%s name must not be blank", entity)).
		WithCode(CodeInvalidName).
		WithComponent(component).
		WithDetail("entity", entity)
}

// InvalidStock reports a negative stock
func InvalidStock(stock int) *apperrors.AppError {
	return apperrors.NewValidationError("stock must be zero or greater").
		WithCode(CodeInvalidStock).
		WithComponent(component).
		WithDetail("stock", stock)
}

// InvalidID reports a blank identifier
func InvalidID(entity string) *apperrors.AppError {
	return apperrors.NewValidationError(fmt.Sprintf("%s id must not be blank", entity)).
		WithCode(CodeInvalidID).
		WithComponent(component).
		WithDetail("entity", entity)
}

// EmptyPatch reports a partial update carrying no field
func EmptyPatch(entity string) *apperrors.AppError {
	return apperrors.NewValidationError(fmt.Sprintf("%s update has no fields to change", entity)).
		WithCode(CodeEmptyPatch).
		WithComponent(component).
		WithDetail("entity", entity)
}

// HasCode reports whether err is an AppError carrying code
func HasCode(err error, code string) bool {
	appErr, ok := apperrors.AsAppError(err)
	return ok && appErr.Code == code
}
