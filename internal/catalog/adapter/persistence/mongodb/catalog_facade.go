package mongodb

import (
	"context"
	"strings"

	"franchise-catalog/internal/catalog/domain/model"
	"franchise-catalog/internal/catalog/domain/repository"
	"franchise-catalog/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"
)

var _ repository.CatalogRepository = (*CatalogFacade)(nil)

// CatalogFacade composes the three collection adapters into the nested and flattened views of the
// catalog. Nesting is assembled on every read; nothing denormalized is stored.
type CatalogFacade struct {
	franchises *FranchiseAdapter
	branches   *BranchAdapter
	products   *ProductAdapter
	logger     logger.Logger
}

// NewCatalogFacade creates the facade over the collection adapters
func NewCatalogFacade(franchises *FranchiseAdapter, branches *BranchAdapter, products *ProductAdapter, log logger.Logger) *CatalogFacade {
	return &CatalogFacade{
		franchises: franchises,
		branches:   branches,
		products:   products,
		logger:     log.WithComponent("catalog_facade"),
	}
}

// NewCatalogFacadeFromCollections wires adapters and facade over the three collections
func NewCatalogFacadeFromCollections(franchiseCol, branchCol, productCol CollectionInterface, names CollectionNames, log logger.Logger) *CatalogFacade {
	franchises := NewFranchiseAdapter(franchiseCol, names.Franchises, log)
	branches := NewBranchAdapter(branchCol, names.Branches, franchises, log)
	products := NewProductAdapter(productCol, names.Products, branches, log)
	return NewCatalogFacade(franchises, branches, products, log)
}

// CollectionNames names the three catalog collections
type CollectionNames struct {
	Franchises string
	Branches   string
	Products   string
}

// DefaultCollectionNames returns franchises, branches and products
func DefaultCollectionNames() CollectionNames {
	return CollectionNames{Franchises: "franchises", Branches: "branches", Products: "products"}
}

// ---- franchises ----

func (f *CatalogFacade) CreateFranchise(ctx context.Context, name string) (*model.Franchise, error) {
	return f.franchises.Create(ctx, name)
}

// GetFranchiseByID returns the franchise with its branches and their products
func (f *CatalogFacade) GetFranchiseByID(ctx context.Context, id string) (*model.Franchise, error) {
	franchise, err := f.franchises.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := f.hydrateFranchise(ctx, franchise, true); err != nil {
		return nil, err
	}
	return franchise, nil
}

// GetFranchiseByName returns the franchise with its branches and their products
func (f *CatalogFacade) GetFranchiseByName(ctx context.Context, name string) (*model.Franchise, error) {
	franchise, err := f.franchises.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := f.hydrateFranchise(ctx, franchise, true); err != nil {
		return nil, err
	}
	return franchise, nil
}

// ListFranchises returns every franchise with its branches. Products are attached only when
// includeProducts is set.
func (f *CatalogFacade) ListFranchises(ctx context.Context, includeProducts bool) ([]*model.Franchise, error) {
	stored, err := f.franchises.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Franchise, len(stored))
	for i := range stored {
		out[i] = &stored[i]
	}
	err = fanOut(ctx, len(out), func(ctx context.Context, i int) error {
		return f.hydrateFranchise(ctx, out[i], includeProducts)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *CatalogFacade) UpdateFranchise(ctx context.Context, id string, patch model.Franchise) (*model.Franchise, error) {
	return f.franchises.Update(ctx, id, patch)
}

// DeleteFranchise removes the franchise only. Its branches stay stored.
func (f *CatalogFacade) DeleteFranchise(ctx context.Context, id string) error {
	return f.franchises.Delete(ctx, id)
}

// ---- branches ----

func (f *CatalogFacade) AddBranch(ctx context.Context, franchiseID, name string) (*model.Branch, error) {
	if _, err := f.franchises.GetByID(ctx, franchiseID); err != nil {
		return nil, err
	}
	return f.branches.Create(ctx, franchiseID, name)
}

// GetBranchByID returns the branch with its products
func (f *CatalogFacade) GetBranchByID(ctx context.Context, id string) (*model.Branch, error) {
	branch, err := f.branches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := f.hydrateBranch(ctx, branch); err != nil {
		return nil, err
	}
	return branch, nil
}

// ListBranchesOfFranchise returns the branches of a franchise with their products.
// An empty result is only returned when the franchise exists.
func (f *CatalogFacade) ListBranchesOfFranchise(ctx context.Context, franchiseID string) ([]*model.Branch, error) {
	log := f.logger.WithContext(ctx).WithFields(map[string]interface{}{"franchise_id": franchiseID})
	log.Debug("Listing branches of franchise")

	stored, err := f.branches.ListByFranchise(ctx, franchiseID)
	if err != nil {
		log.WithFields(map[string]interface{}{"error": err.Error()}).Error("Failed to list branches")
		return nil, err
	}
	if len(stored) == 0 {
		if _, err := f.franchises.GetByID(ctx, franchiseID); err != nil {
			return nil, err
		}
		return []*model.Branch{}, nil
	}

	out := make([]*model.Branch, len(stored))
	for i := range stored {
		out[i] = &stored[i]
	}
	if err := f.hydrateBranches(ctx, stored); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *CatalogFacade) UpdateBranch(ctx context.Context, id string, patch model.Branch) (*model.Branch, error) {
	return f.branches.Update(ctx, id, patch)
}

// DeleteBranch removes the branch only. Its products stay stored.
func (f *CatalogFacade) DeleteBranch(ctx context.Context, id string) error {
	return f.branches.Delete(ctx, id)
}

// ---- products ----

func (f *CatalogFacade) AddProduct(ctx context.Context, franchiseID, branchID, name string, stock int) (*model.Product, error) {
	if _, err := f.branchInFranchise(ctx, franchiseID, branchID); err != nil {
		return nil, err
	}
	return f.products.Create(ctx, branchID, name, stock)
}

func (f *CatalogFacade) DeleteProduct(ctx context.Context, franchiseID, branchID, productID string) error {
	if _, err := f.productInBranch(ctx, franchiseID, branchID, productID); err != nil {
		return err
	}
	return f.products.Delete(ctx, productID)
}

func (f *CatalogFacade) UpdateStock(ctx context.Context, franchiseID, branchID, productID string, stock int) (*model.Product, error) {
	if _, err := f.productInBranch(ctx, franchiseID, branchID, productID); err != nil {
		return nil, err
	}
	return f.products.UpdateStock(ctx, productID, stock)
}

func (f *CatalogFacade) AdjustStock(ctx context.Context, franchiseID, branchID, productID string, delta int) (*model.Product, error) {
	if _, err := f.productInBranch(ctx, franchiseID, branchID, productID); err != nil {
		return nil, err
	}
	return f.products.AdjustStock(ctx, productID, delta)
}

func (f *CatalogFacade) ProductsOfBranch(ctx context.Context, franchiseID, branchID string) ([]*model.Product, error) {
	if _, err := f.branchInFranchise(ctx, franchiseID, branchID); err != nil {
		return nil, err
	}
	stored, err := f.products.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return productPointers(stored), nil
}

func (f *CatalogFacade) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	return f.products.GetByID(ctx, id)
}

func (f *CatalogFacade) UpdateProduct(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	return f.products.Update(ctx, id, patch)
}

func (f *CatalogFacade) AllProducts(ctx context.Context) ([]*model.Product, error) {
	stored, err := f.products.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return productPointers(stored), nil
}

func (f *CatalogFacade) SearchProducts(ctx context.Context, term string) ([]*model.Product, error) {
	stored, err := f.products.SearchByName(ctx, strings.TrimSpace(term))
	if err != nil {
		return nil, err
	}
	return productPointers(stored), nil
}

// ---- views ----

// ProductGlobalView flattens the product with its branch. A product whose branch is gone is an
// ORPHANED_PRODUCT internal error.
func (f *CatalogFacade) ProductGlobalView(ctx context.Context, productID string) (*model.ProductView, error) {
	product, err := f.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	branch, found, err := f.branches.FindByID(ctx, product.BranchID)
	if err != nil {
		return nil, err
	}
	if !found {
		f.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"product_id": product.ID,
			"branch_id":  product.BranchID,
		}).Error("Product references a missing branch")
		return nil, model.OrphanedProduct(product.ID, product.BranchID)
	}
	return model.NewProductView(product, &branch), nil
}

// AllProductsView flattens every product with its branch. Branch lookups are cached for the call;
// products whose branch is gone are skipped.
func (f *CatalogFacade) AllProductsView(ctx context.Context) ([]*model.ProductView, error) {
	cache := map[string]*model.Branch{}
	out := []*model.ProductView{}

	err := f.products.Stream(ctx, bson.M{}, func(p model.Product) error {
		branch, cached := cache[p.BranchID]
		if !cached {
			stored, found, err := f.branches.FindByID(ctx, p.BranchID)
			if err != nil {
				return err
			}
			if found {
				branch = &stored
			}
			cache[p.BranchID] = branch
		}
		if branch == nil {
			f.logger.WithContext(ctx).WithFields(map[string]interface{}{
				"product_id": p.ID,
				"branch_id":  p.BranchID,
			}).Warn("Skipping product with missing branch")
			return nil
		}
		out = append(out, model.NewProductView(&p, branch))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MaxStockPerBranch reports, for every branch of the franchise, the product with the highest stock.
// Branches without products report no product and stock 0.
func (f *CatalogFacade) MaxStockPerBranch(ctx context.Context, franchiseID string) ([]*model.MaxStockEntry, error) {
	if _, err := f.franchises.GetByID(ctx, franchiseID); err != nil {
		return nil, err
	}
	branches, err := f.branches.ListByFranchise(ctx, franchiseID)
	if err != nil {
		return nil, err
	}
	if err := f.hydrateBranches(ctx, branches); err != nil {
		return nil, err
	}

	out := make([]*model.MaxStockEntry, len(branches))
	for i := range branches {
		out[i] = model.NewMaxStockEntry(&branches[i], branches[i].Products)
	}
	return out, nil
}

// ---- hydration ----

func (f *CatalogFacade) hydrateFranchise(ctx context.Context, franchise *model.Franchise, includeProducts bool) error {
	branches, err := f.branches.ListByFranchise(ctx, franchise.ID)
	if err != nil {
		return err
	}
	if includeProducts {
		if err := f.hydrateBranches(ctx, branches); err != nil {
			return err
		}
	}
	franchise.Branches = branches
	return nil
}

func (f *CatalogFacade) hydrateBranch(ctx context.Context, branch *model.Branch) error {
	products, err := f.products.ListByBranch(ctx, branch.ID)
	if err != nil {
		return err
	}
	branch.Products = products
	return nil
}

// hydrateBranches loads the products of every branch concurrently, in place
func (f *CatalogFacade) hydrateBranches(ctx context.Context, branches []model.Branch) error {
	return fanOut(ctx, len(branches), func(ctx context.Context, i int) error {
		return f.hydrateBranch(ctx, &branches[i])
	})
}

// branchInFranchise loads the branch and checks it belongs to franchiseID
func (f *CatalogFacade) branchInFranchise(ctx context.Context, franchiseID, branchID string) (*model.Branch, error) {
	branch, err := f.branches.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if branch.FranchiseID != franchiseID {
		return nil, model.BranchNotInFranchise(franchiseID, branchID)
	}
	return branch, nil
}

// productInBranch loads the product and checks the franchise/branch/product chain
func (f *CatalogFacade) productInBranch(ctx context.Context, franchiseID, branchID, productID string) (*model.Product, error) {
	if _, err := f.branchInFranchise(ctx, franchiseID, branchID); err != nil {
		return nil, err
	}
	product, err := f.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.BranchID != branchID {
		return nil, model.ProductNotInBranch(branchID, productID)
	}
	return product, nil
}

// maxFanOut caps concurrent lookups per hydration level; nested levels multiply
const maxFanOut = 8

// fanOut runs fn for every index with at most maxFanOut in flight. The first error cancels the
// ctx handed to the others and is the one returned.
func fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFanOut)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

func productPointers(products []model.Product) []*model.Product {
	out := make([]*model.Product, len(products))
	for i := range products {
		out[i] = &products[i]
	}
	return out
}
