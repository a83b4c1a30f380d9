package usecase_test

import (
	"context"

	"franchise-catalog/internal/catalog/domain/model"

	"github.com/stretchr/testify/mock"
)

type mockCatalogRepository struct {
	mock.Mock
}

func (m *mockCatalogRepository) franchise(args mock.Arguments) (*model.Franchise, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Franchise), args.Error(1)
}

func (m *mockCatalogRepository) branch(args mock.Arguments) (*model.Branch, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Branch), args.Error(1)
}

func (m *mockCatalogRepository) product(args mock.Arguments) (*model.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *mockCatalogRepository) products(args mock.Arguments) ([]*model.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

func (m *mockCatalogRepository) CreateFranchise(ctx context.Context, name string) (*model.Franchise, error) {
	return m.franchise(m.Called(ctx, name))
}

func (m *mockCatalogRepository) GetFranchiseByID(ctx context.Context, id string) (*model.Franchise, error) {
	return m.franchise(m.Called(ctx, id))
}

func (m *mockCatalogRepository) GetFranchiseByName(ctx context.Context, name string) (*model.Franchise, error) {
	return m.franchise(m.Called(ctx, name))
}

func (m *mockCatalogRepository) ListFranchises(ctx context.Context, includeProducts bool) ([]*model.Franchise, error) {
	args := m.Called(ctx, includeProducts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Franchise), args.Error(1)
}

func (m *mockCatalogRepository) UpdateFranchise(ctx context.Context, id string, patch model.Franchise) (*model.Franchise, error) {
	return m.franchise(m.Called(ctx, id, patch))
}

func (m *mockCatalogRepository) DeleteFranchise(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCatalogRepository) AddBranch(ctx context.Context, franchiseID, name string) (*model.Branch, error) {
	return m.branch(m.Called(ctx, franchiseID, name))
}

func (m *mockCatalogRepository) GetBranchByID(ctx context.Context, id string) (*model.Branch, error) {
	return m.branch(m.Called(ctx, id))
}

func (m *mockCatalogRepository) ListBranchesOfFranchise(ctx context.Context, franchiseID string) ([]*model.Branch, error) {
	args := m.Called(ctx, franchiseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Branch), args.Error(1)
}

func (m *mockCatalogRepository) UpdateBranch(ctx context.Context, id string, patch model.Branch) (*model.Branch, error) {
	return m.branch(m.Called(ctx, id, patch))
}

func (m *mockCatalogRepository) DeleteBranch(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCatalogRepository) AddProduct(ctx context.Context, franchiseID, branchID, name string, stock int) (*model.Product, error) {
	return m.product(m.Called(ctx, franchiseID, branchID, name, stock))
}

func (m *mockCatalogRepository) DeleteProduct(ctx context.Context, franchiseID, branchID, productID string) error {
	return m.Called(ctx, franchiseID, branchID, productID).Error(0)
}

func (m *mockCatalogRepository) UpdateStock(ctx context.Context, franchiseID, branchID, productID string, stock int) (*model.Product, error) {
	return m.product(m.Called(ctx, franchiseID, branchID, productID, stock))
}

func (m *mockCatalogRepository) AdjustStock(ctx context.Context, franchiseID, branchID, productID string, delta int) (*model.Product, error) {
	return m.product(m.Called(ctx, franchiseID, branchID, productID, delta))
}

func (m *mockCatalogRepository) ProductsOfBranch(ctx context.Context, franchiseID, branchID string) ([]*model.Product, error) {
	return m.products(m.Called(ctx, franchiseID, branchID))
}

func (m *mockCatalogRepository) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	return m.product(m.Called(ctx, id))
}

func (m *mockCatalogRepository) UpdateProduct(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	return m.product(m.Called(ctx, id, patch))
}

func (m *mockCatalogRepository) AllProducts(ctx context.Context) ([]*model.Product, error) {
	return m.products(m.Called(ctx))
}

func (m *mockCatalogRepository) SearchProducts(ctx context.Context, term string) ([]*model.Product, error) {
	return m.products(m.Called(ctx, term))
}

func (m *mockCatalogRepository) ProductGlobalView(ctx context.Context, productID string) (*model.ProductView, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductView), args.Error(1)
}

func (m *mockCatalogRepository) AllProductsView(ctx context.Context) ([]*model.ProductView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ProductView), args.Error(1)
}

func (m *mockCatalogRepository) MaxStockPerBranch(ctx context.Context, franchiseID string) ([]*model.MaxStockEntry, error) {
	args := m.Called(ctx, franchiseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.MaxStockEntry), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event *model.ChangeEvent) error {
	return m.Called(ctx, event).Error(0)
}

type mockFeed struct {
	mock.Mock
}

func (m *mockFeed) Since(ctx context.Context, cursor string, limit int64) ([]*model.ChangeEvent, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ChangeEvent), args.Error(1)
}
