package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"franchise-catalog/internal/catalog/domain/model"
	"franchise-catalog/internal/catalog/domain/repository"
	apperrors "franchise-catalog/internal/shared/errors"
	"franchise-catalog/internal/shared/logger"
	"franchise-catalog/internal/shared/utils"
)

// CodeChangeFeedDisabled is returned by Changes when no change trail is configured
const CodeChangeFeedDisabled = "CHANGE_FEED_DISABLED"

// CatalogUsecaseInterface defines the contract the HTTP layer depends on.
type CatalogUsecaseInterface interface {
	CreateFranchise(ctx context.Context, req CreateFranchiseRequest) (*model.Franchise, error)
	GetFranchise(ctx context.Context, id string) (*model.Franchise, error)
	GetFranchiseByName(ctx context.Context, name string) (*model.Franchise, error)
	ListFranchises(ctx context.Context, includeProducts bool) ([]*model.Franchise, error)
	UpdateFranchise(ctx context.Context, id string, req UpdateFranchiseRequest) (*model.Franchise, error)
	DeleteFranchise(ctx context.Context, id string) error

	AddBranch(ctx context.Context, franchiseID string, req CreateBranchRequest) (*model.Branch, error)
	GetBranch(ctx context.Context, id string) (*model.Branch, error)
	ListBranches(ctx context.Context, franchiseID string) ([]*model.Branch, error)
	UpdateBranch(ctx context.Context, id string, req UpdateBranchRequest) (*model.Branch, error)
	DeleteBranch(ctx context.Context, id string) error

	AddProduct(ctx context.Context, franchiseID, branchID string, req CreateProductRequest) (*model.Product, error)
	ListProducts(ctx context.Context, franchiseID, branchID string) ([]*model.Product, error)
	DeleteProduct(ctx context.Context, franchiseID, branchID, productID string) error
	UpdateStock(ctx context.Context, franchiseID, branchID, productID string, req UpdateStockRequest) (*model.Product, error)
	AdjustStock(ctx context.Context, franchiseID, branchID, productID string, req AdjustStockRequest) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*model.Product, error)
	AllProducts(ctx context.Context) ([]*model.Product, error)
	SearchProducts(ctx context.Context, term string) ([]*model.Product, error)

	ProductView(ctx context.Context, productID string) (*model.ProductView, error)
	AllProductViews(ctx context.Context) ([]*model.ProductView, error)
	MaxStockPerBranch(ctx context.Context, franchiseID string) ([]*model.MaxStockEntry, error)

	Changes(ctx context.Context, cursor string, limit int64) ([]*model.ChangeEvent, error)
}

// CreateFranchiseRequest represents the franchise creation request
type CreateFranchiseRequest struct {
	Name string `json:"name"`
}

// UpdateFranchiseRequest is a partial update; nil fields are left unchanged
type UpdateFranchiseRequest struct {
	Name *string `json:"name,omitempty"`
}

type CreateBranchRequest struct {
	Name string `json:"name"`
}

// UpdateBranchRequest is a partial update. Setting FranchiseID moves the branch.
type UpdateBranchRequest struct {
	Name        *string `json:"name,omitempty"`
	FranchiseID *string `json:"franchiseId,omitempty"`
}

type CreateProductRequest struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

type UpdateStockRequest struct {
	Stock int `json:"stock"`
}

// AdjustStockRequest moves stock by Delta; the result may not go below zero
type AdjustStockRequest struct {
	Delta int `json:"delta"`
}

// UpdateProductRequest is a partial update; nil fields are left unchanged
type UpdateProductRequest struct {
	Name     *string `json:"name,omitempty"`
	Stock    *int    `json:"stock,omitempty"`
	BranchID *string `json:"branchId,omitempty"`
}

// CatalogUsecase validates and normalizes input, delegates to the repository and records
// every successful mutation on the change trail.
type CatalogUsecase struct {
	repo      repository.CatalogRepository
	publisher repository.EventPublisher
	feed      repository.ChangeFeed
	logger    logger.Logger
}

// NewCatalogUsecase creates the use case. publisher and feed may be nil.
func NewCatalogUsecase(
	repo repository.CatalogRepository,
	publisher repository.EventPublisher,
	feed repository.ChangeFeed,
	log logger.Logger,
) *CatalogUsecase {
	return &CatalogUsecase{
		repo:      repo,
		publisher: publisher,
		feed:      feed,
		logger:    log.WithComponent("catalog_usecase"),
	}
}

// ---- franchises ----

func (uc *CatalogUsecase) CreateFranchise(ctx context.Context, req CreateFranchiseRequest) (*model.Franchise, error) {
	name, err := requireName(model.EntityFranchise, req.Name)
	if err != nil {
		return nil, err
	}

	franchise, err := uc.repo.CreateFranchise(ctx, name)
	if err != nil {
		uc.logFailure(ctx, "create_franchise", err)
		return nil, err
	}

	uc.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"franchise_id": franchise.ID,
		"name":         franchise.Name,
	}).Info("Franchise created")
	uc.publish(ctx, model.EntityFranchise, model.ActionCreated, franchise.ID, franchise.ID, "")
	return franchise, nil
}

func (uc *CatalogUsecase) GetFranchise(ctx context.Context, id string) (*model.Franchise, error) {
	if err := requireID(model.EntityFranchise, id); err != nil {
		return nil, err
	}
	return uc.repo.GetFranchiseByID(ctx, id)
}

func (uc *CatalogUsecase) GetFranchiseByName(ctx context.Context, name string) (*model.Franchise, error) {
	trimmed, err := requireName(model.EntityFranchise, name)
	if err != nil {
		return nil, err
	}
	return uc.repo.GetFranchiseByName(ctx, trimmed)
}

func (uc *CatalogUsecase) ListFranchises(ctx context.Context, includeProducts bool) ([]*model.Franchise, error) {
	return uc.repo.ListFranchises(ctx, includeProducts)
}

func (uc *CatalogUsecase) UpdateFranchise(ctx context.Context, id string, req UpdateFranchiseRequest) (*model.Franchise, error) {
	if err := requireID(model.EntityFranchise, id); err != nil {
		return nil, err
	}
	if req.Name == nil {
		return nil, model.EmptyPatch(model.EntityFranchise)
	}
	name, err := requireName(model.EntityFranchise, *req.Name)
	if err != nil {
		return nil, err
	}

	franchise, err := uc.repo.UpdateFranchise(ctx, id, model.Franchise{Name: name})
	if err != nil {
		uc.logFailure(ctx, "update_franchise", err)
		return nil, err
	}
	uc.publish(ctx, model.EntityFranchise, model.ActionUpdated, franchise.ID, franchise.ID, "")
	return franchise, nil
}

// DeleteFranchise removes the franchise record only. Its branches and products stay stored.
func (uc *CatalogUsecase) DeleteFranchise(ctx context.Context, id string) error {
	if err := requireID(model.EntityFranchise, id); err != nil {
		return err
	}
	if err := uc.repo.DeleteFranchise(ctx, id); err != nil {
		uc.logFailure(ctx, "delete_franchise", err)
		return err
	}
	uc.logger.WithContext(ctx).WithFields(map[string]interface{}{"franchise_id": id}).Info("Franchise deleted")
	uc.publish(ctx, model.EntityFranchise, model.ActionDeleted, id, id, "")
	return nil
}

// ---- branches ----

func (uc *CatalogUsecase) AddBranch(ctx context.Context, franchiseID string, req CreateBranchRequest) (*model.Branch, error) {
	if err := requireID(model.EntityFranchise, franchiseID); err != nil {
		return nil, err
	}
	name, err := requireName(model.EntityBranch, req.Name)
	if err != nil {
		return nil, err
	}

	branch, err := uc.repo.AddBranch(ctx, franchiseID, name)
	if err != nil {
		uc.logFailure(ctx, "add_branch", err)
		return nil, err
	}

	uc.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"franchise_id": franchiseID,
		"branch_id":    branch.ID,
		"name":         branch.Name,
	}).Info("Branch added")
	uc.publish(ctx, model.EntityBranch, model.ActionCreated, branch.ID, franchiseID, branch.ID)
	return branch, nil
}

func (uc *CatalogUsecase) GetBranch(ctx context.Context, id string) (*model.Branch, error) {
	if err := requireID(model.EntityBranch, id); err != nil {
		return nil, err
	}
	return uc.repo.GetBranchByID(ctx, id)
}

func (uc *CatalogUsecase) ListBranches(ctx context.Context, franchiseID string) ([]*model.Branch, error) {
	if err := requireID(model.EntityFranchise, franchiseID); err != nil {
		return nil, err
	}
	return uc.repo.ListBranchesOfFranchise(ctx, franchiseID)
}

func (uc *CatalogUsecase) UpdateBranch(ctx context.Context, id string, req UpdateBranchRequest) (*model.Branch, error) {
	if err := requireID(model.EntityBranch, id); err != nil {
		return nil, err
	}
	if req.Name == nil && req.FranchiseID == nil {
		return nil, model.EmptyPatch(model.EntityBranch)
	}

	var patch model.Branch
	if req.Name != nil {
		name, err := requireName(model.EntityBranch, *req.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = name
	}
	if req.FranchiseID != nil {
		franchiseID := strings.TrimSpace(*req.FranchiseID)
		if err := requireID(model.EntityFranchise, franchiseID); err != nil {
			return nil, err
		}
		patch.FranchiseID = franchiseID
	}

	branch, err := uc.repo.UpdateBranch(ctx, id, patch)
	if err != nil {
		uc.logFailure(ctx, "update_branch", err)
		return nil, err
	}
	uc.publish(ctx, model.EntityBranch, model.ActionUpdated, branch.ID, branch.FranchiseID, branch.ID)
	return branch, nil
}

// DeleteBranch removes the branch record only. Its products stay stored.
func (uc *CatalogUsecase) DeleteBranch(ctx context.Context, id string) error {
	if err := requireID(model.EntityBranch, id); err != nil {
		return err
	}
	if err := uc.repo.DeleteBranch(ctx, id); err != nil {
		uc.logFailure(ctx, "delete_branch", err)
		return err
	}
	uc.logger.WithContext(ctx).WithFields(map[string]interface{}{"branch_id": id}).Info("Branch deleted")
	uc.publish(ctx, model.EntityBranch, model.ActionDeleted, id, "", id)
	return nil
}

// ---- products ----

func (uc *CatalogUsecase) AddProduct(ctx context.Context, franchiseID, branchID string, req CreateProductRequest) (*model.Product, error) {
	if err := requireParents(franchiseID, branchID); err != nil {
		return nil, err
	}
	name, err := requireName(model.EntityProduct, req.Name)
	if err != nil {
		return nil, err
	}
	if req.Stock < 0 {
		return nil, model.InvalidStock(req.Stock)
	}

	product, err := uc.repo.AddProduct(ctx, franchiseID, branchID, name, req.Stock)
	if err != nil {
		uc.logFailure(ctx, "add_product", err)
		return nil, err
	}

	uc.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"franchise_id": franchiseID,
		"branch_id":    branchID,
		"product_id":   product.ID,
		"stock":        product.Stock,
	}).Info("Product added")
	uc.publish(ctx, model.EntityProduct, model.ActionCreated, product.ID, franchiseID, branchID)
	return product, nil
}

func (uc *CatalogUsecase) ListProducts(ctx context.Context, franchiseID, branchID string) ([]*model.Product, error) {
	if err := requireParents(franchiseID, branchID); err != nil {
		return nil, err
	}
	return uc.repo.ProductsOfBranch(ctx, franchiseID, branchID)
}

func (uc *CatalogUsecase) DeleteProduct(ctx context.Context, franchiseID, branchID, productID string) error {
	if err := requireParents(franchiseID, branchID); err != nil {
		return err
	}
	if err := requireID(model.EntityProduct, productID); err != nil {
		return err
	}
	if err := uc.repo.DeleteProduct(ctx, franchiseID, branchID, productID); err != nil {
		uc.logFailure(ctx, "delete_product", err)
		return err
	}
	uc.logger.WithContext(ctx).WithFields(map[string]interface{}{"product_id": productID}).Info("Product deleted")
	uc.publish(ctx, model.EntityProduct, model.ActionDeleted, productID, franchiseID, branchID)
	return nil
}

func (uc *CatalogUsecase) UpdateStock(ctx context.Context, franchiseID, branchID, productID string, req UpdateStockRequest) (*model.Product, error) {
	if err := requireParents(franchiseID, branchID); err != nil {
		return nil, err
	}
	if err := requireID(model.EntityProduct, productID); err != nil {
		return nil, err
	}
	if req.Stock < 0 {
		return nil, model.InvalidStock(req.Stock)
	}

	product, err := uc.repo.UpdateStock(ctx, franchiseID, branchID, productID, req.Stock)
	if err != nil {
		uc.logFailure(ctx, "update_stock", err)
		return nil, err
	}
	uc.publish(ctx, model.EntityProduct, model.ActionUpdated, productID, franchiseID, branchID)
	return product, nil
}

func (uc *CatalogUsecase) AdjustStock(ctx context.Context, franchiseID, branchID, productID string, req AdjustStockRequest) (*model.Product, error) {
	if err := requireParents(franchiseID, branchID); err != nil {
		return nil, err
	}
	if err := requireID(model.EntityProduct, productID); err != nil {
		return nil, err
	}
	if req.Delta < -model.MaxStockDelta || req.Delta > model.MaxStockDelta {
		return nil, model.InvalidStockDelta(req.Delta)
	}

	product, err := uc.repo.AdjustStock(ctx, franchiseID, branchID, productID, req.Delta)
	if err != nil {
		uc.logFailure(ctx, "adjust_stock", err)
		return nil, err
	}
	uc.publish(ctx, model.EntityProduct, model.ActionUpdated, productID, franchiseID, branchID)
	return product, nil
}

func (uc *CatalogUsecase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if err := requireID(model.EntityProduct, id); err != nil {
		return nil, err
	}
	return uc.repo.GetProductByID(ctx, id)
}

// UpdateProduct applies the present fields in a single write. A stock of zero is a present value.
func (uc *CatalogUsecase) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*model.Product, error) {
	if err := requireID(model.EntityProduct, id); err != nil {
		return nil, err
	}
	if req.Name == nil && req.Stock == nil && req.BranchID == nil {
		return nil, model.EmptyPatch(model.EntityProduct)
	}

	var patch model.ProductPatch
	if req.Name != nil {
		name, err := requireName(model.EntityProduct, *req.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if req.BranchID != nil {
		branchID := strings.TrimSpace(*req.BranchID)
		if err := requireID(model.EntityBranch, branchID); err != nil {
			return nil, err
		}
		patch.BranchID = &branchID
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, model.InvalidStock(*req.Stock)
		}
		stock := *req.Stock
		patch.Stock = &stock
	}

	product, err := uc.repo.UpdateProduct(ctx, id, patch)
	if err != nil {
		uc.logFailure(ctx, "update_product", err)
		return nil, err
	}
	uc.publish(ctx, model.EntityProduct, model.ActionUpdated, product.ID, "", product.BranchID)
	return product, nil
}

func (uc *CatalogUsecase) AllProducts(ctx context.Context) ([]*model.Product, error) {
	return uc.repo.AllProducts(ctx)
}

// SearchProducts matches names containing term, ignoring case. A blank term lists everything; a
// term that matches nothing yields an empty list.
func (uc *CatalogUsecase) SearchProducts(ctx context.Context, term string) ([]*model.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return uc.repo.AllProducts(ctx)
	}
	return uc.repo.SearchProducts(ctx, term)
}

// ---- views ----

func (uc *CatalogUsecase) ProductView(ctx context.Context, productID string) (*model.ProductView, error) {
	if err := requireID(model.EntityProduct, productID); err != nil {
		return nil, err
	}
	view, err := uc.repo.ProductGlobalView(ctx, productID)
	if err != nil {
		uc.logFailure(ctx, "product_view", err)
		return nil, err
	}
	return view, nil
}

func (uc *CatalogUsecase) AllProductViews(ctx context.Context) ([]*model.ProductView, error) {
	return uc.repo.AllProductsView(ctx)
}

func (uc *CatalogUsecase) MaxStockPerBranch(ctx context.Context, franchiseID string) ([]*model.MaxStockEntry, error) {
	if err := requireID(model.EntityFranchise, franchiseID); err != nil {
		return nil, err
	}
	return uc.repo.MaxStockPerBranch(ctx, franchiseID)
}

// Changes reads the change trail after cursor
func (uc *CatalogUsecase) Changes(ctx context.Context, cursor string, limit int64) ([]*model.ChangeEvent, error) {
	if uc.feed == nil {
		return nil, apperrors.NewAppError(apperrors.ErrorTypeInfrastructure, "change trail is not configured", http.StatusServiceUnavailable).
			WithCode(CodeChangeFeedDisabled)
	}
	return uc.feed.Since(ctx, strings.TrimSpace(cursor), limit)
}

// ---- helpers ----

// publish records a successful mutation. A failing trail never fails the mutation.
func (uc *CatalogUsecase) publish(ctx context.Context, entity string, action model.ChangeAction, entityID, franchiseID, branchID string) {
	if uc.publisher == nil {
		return
	}
	subject := utils.GetSubjectOrDefault(ctx, "")
	event := &model.ChangeEvent{
		Entity:      entity,
		Action:      action,
		EntityID:    entityID,
		FranchiseID: franchiseID,
		BranchID:    branchID,
		Subject:     subject,
		OccurredAt:  time.Now().UTC(),
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"event_type": event.EventType(),
			"entity_id":  entityID,
			"error":      err.Error(),
		}).Warn("Failed to record change event")
	}
}

func (uc *CatalogUsecase) logFailure(ctx context.Context, operation string, err error) {
	log := uc.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"operation": operation,
		"error":     err.Error(),
	})
	if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
		log.Error("Catalog operation failed")
		return
	}
	log.Debug("Catalog operation rejected")
}

func requireName(entity, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", model.InvalidName(entity)
	}
	return trimmed, nil
}

func requireID(entity, id string) error {
	if strings.TrimSpace(id) == "" {
		return model.InvalidID(entity)
	}
	return nil
}

func requireParents(franchiseID, branchID string) error {
	if err := requireID(model.EntityFranchise, franchiseID); err != nil {
		return err
	}
	return requireID(model.EntityBranch, branchID)
}
