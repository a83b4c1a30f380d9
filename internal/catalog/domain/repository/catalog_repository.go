package repository

import (
	"context"

	"franchise-catalog/internal/catalog/domain/model"
)

// CatalogRepository exposes the franchise hierarchy with nested views assembled at read time.
// Lookups of unknown ids fail with NotFound; children addressed under the wrong parent fail
// with InvalidRelationship; duplicate names fail with Conflict.
type CatalogRepository interface {
	CreateFranchise(ctx context.Context, name string) (*model.Franchise, error)
	GetFranchiseByID(ctx context.Context, id string) (*model.Franchise, error)
	GetFranchiseByName(ctx context.Context, name string) (*model.Franchise, error)
	ListFranchises(ctx context.Context, includeProducts bool) ([]*model.Franchise, error)
	UpdateFranchise(ctx context.Context, id string, patch model.Franchise) (*model.Franchise, error)
	DeleteFranchise(ctx context.Context, id string) error

	AddBranch(ctx context.Context, franchiseID, name string) (*model.Branch, error)
	GetBranchByID(ctx context.Context, id string) (*model.Branch, error)
	ListBranchesOfFranchise(ctx context.Context, franchiseID string) ([]*model.Branch, error)
	UpdateBranch(ctx context.Context, id string, patch model.Branch) (*model.Branch, error)
	DeleteBranch(ctx context.Context, id string) error

	AddProduct(ctx context.Context, franchiseID, branchID, name string, stock int) (*model.Product, error)
	DeleteProduct(ctx context.Context, franchiseID, branchID, productID string) error
	UpdateStock(ctx context.Context, franchiseID, branchID, productID string, stock int) (*model.Product, error)
	AdjustStock(ctx context.Context, franchiseID, branchID, productID string, delta int) (*model.Product, error)
	ProductsOfBranch(ctx context.Context, franchiseID, branchID string) ([]*model.Product, error)
	GetProductByID(ctx context.Context, id string) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error)
	AllProducts(ctx context.Context) ([]*model.Product, error)
	SearchProducts(ctx context.Context, term string) ([]*model.Product, error)

	ProductGlobalView(ctx context.Context, productID string) (*model.ProductView, error)
	AllProductsView(ctx context.Context) ([]*model.ProductView, error)
	MaxStockPerBranch(ctx context.Context, franchiseID string) ([]*model.MaxStockEntry, error)
}

// EventPublisher appends catalog change events to the change trail
type EventPublisher interface {
	Publish(ctx context.Context, event *model.ChangeEvent) error
}

// ChangeFeed reads the change trail back, oldest first, starting after the given cursor
type ChangeFeed interface {
	Since(ctx context.Context, cursor string, limit int64) ([]*model.ChangeEvent, error)
}
