package mongodb

import (
	"context"
	"math"
	"regexp"
	"strings"

	"franchise-catalog/internal/catalog/domain/model"
	apperrors "franchise-catalog/internal/shared/errors"
	"franchise-catalog/internal/shared/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductAdapter persists products. Names are unique within a branch and the branch must exist.
type ProductAdapter struct {
	*AdapterOperations[model.Product, ProductDocument, string]
	branches *BranchAdapter
	logger   logger.Logger
}

// NewProductAdapter creates the product collection adapter
func NewProductAdapter(col CollectionInterface, name string, branches *BranchAdapter, log logger.Logger) *ProductAdapter {
	return &ProductAdapter{
		AdapterOperations: NewAdapterOperations(col, name, model.EntityProduct, ProductMapper(),
			func(d *ProductDocument) string { return d.ID },
			func(d *ProductDocument) *int64 { return &d.Version },
			log),
		branches: branches,
		logger:   log.WithComponent("product_adapter"),
	}
}

// Create inserts a product under branchID. The branch must exist and the name must be free in it.
func (a *ProductAdapter) Create(ctx context.Context, branchID, name string, stock int) (*model.Product, error) {
	name = strings.TrimSpace(name)

	if err := a.requireBranch(ctx, branchID); err != nil {
		return nil, err
	}

	taken, err := a.ExistsByQuery(ctx, bson.M{fieldBranchID: branchID, fieldName: name})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, model.ProductNameTaken(branchID, name)
	}

	ts := now()
	saved, err := a.Save(ctx, model.Product{
		ID:        uuid.NewString(),
		BranchID:  branchID,
		Name:      name,
		Stock:     stock,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		return nil, translateProductError(err, branchID, name)
	}

	a.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"branch_id":  branchID,
		"product_id": saved.ID,
		"stock":      saved.Stock,
	}).Info("Created product")
	return &saved, nil
}

// GetByID returns the product or a PRODUCT_NOT_FOUND error
func (a *ProductAdapter) GetByID(ctx context.Context, id string) (*model.Product, error) {
	p, found, err := a.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, model.ProductNotFound(id)
	}
	return &p, nil
}

// ListByBranch returns the products of a branch ordered by name
func (a *ProductAdapter) ListByBranch(ctx context.Context, branchID string) ([]model.Product, error) {
	return a.FindByQuery(ctx, bson.M{fieldBranchID: branchID},
		options.Find().SetSort(bson.D{{Key: fieldName, Value: 1}}))
}

// SearchByName matches names containing term, ignoring case. term is matched literally.
func (a *ProductAdapter) SearchByName(ctx context.Context, term string) ([]model.Product, error) {
	pattern := regexp.QuoteMeta(strings.TrimSpace(term))
	return a.FindByQuery(ctx, bson.M{fieldName: bson.M{"$regex": pattern, "$options": "i"}},
		options.Find().SetSort(bson.D{{Key: fieldName, Value: 1}}))
}

// UpdateStock sets the stock of a product without touching its other fields
func (a *ProductAdapter) UpdateStock(ctx context.Context, id string, stock int) (*model.Product, error) {
	matched, err := a.UpdateFirstMatched(ctx, bson.M{fieldID: id}, bson.M{
		"$set": bson.M{fieldStock: stock, fieldUpdatedAt: now()},
	})
	if err != nil {
		return nil, apperrors.NewInfrastructureError("failed to update stock").WithCause(err).WithComponent("product_adapter")
	}
	if !matched {
		return nil, model.ProductNotFound(id)
	}

	a.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"product_id": id,
		"stock":      stock,
	}).Info("Updated product stock")
	return a.GetByID(ctx, id)
}

// AdjustStock adds delta to the stock atomically. A decrement larger than the stock fails with
// INSUFFICIENT_STOCK, an increment that would overflow fails with INVALID_STOCK; either way the
// product is unchanged.
func (a *ProductAdapter) AdjustStock(ctx context.Context, id string, delta int) (*model.Product, error) {
	if delta < -model.MaxStockDelta || delta > model.MaxStockDelta {
		return nil, model.InvalidStockDelta(delta)
	}
	filter := bson.M{fieldID: id}
	switch {
	case delta < 0:
		filter[fieldStock] = bson.M{"$gte": -delta}
	case delta > 0:
		filter[fieldStock] = bson.M{"$lte": math.MaxInt - delta}
	}
	p, found, err := a.FindAndModifyReturningEntity(ctx, filter, bson.M{
		"$inc": bson.M{fieldStock: delta},
		"$set": bson.M{fieldUpdatedAt: now()},
	})
	if err != nil {
		return nil, apperrors.NewInfrastructureError("failed to adjust stock").WithCause(err).WithComponent("product_adapter")
	}
	if !found {
		exists, err := a.ExistsByQuery(ctx, bson.M{fieldID: id})
		if err != nil {
			return nil, err
		}
		if exists && delta > 0 {
			return nil, model.InvalidStockDelta(delta)
		}
		if exists {
			return nil, model.InsufficientStock(id, delta)
		}
		return nil, model.ProductNotFound(id)
	}

	a.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"product_id": id,
		"delta":      delta,
		"stock":      p.Stock,
	}).Info("Adjusted product stock")
	return &p, nil
}

// Update applies the set fields of patch to the stored product in one write. Moving the product to
// another branch requires that branch to exist; the name must stay free in the target branch.
func (a *ProductAdapter) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	partial := model.Product{UpdatedAt: now()}
	if patch.BranchID != nil {
		partial.BranchID = strings.TrimSpace(*patch.BranchID)
	}
	if patch.Name != nil {
		partial.Name = strings.TrimSpace(*patch.Name)
	}
	var set []func(*ProductDocument)
	if patch.Stock != nil {
		stock := *patch.Stock
		set = append(set, func(d *ProductDocument) { d.Stock = stock })
	}
	branchID, name := partial.BranchID, partial.Name

	if branchID != "" {
		if err := a.requireBranch(ctx, branchID); err != nil {
			return nil, err
		}
	}

	scopeBranch, scopeName := branchID, name
	if branchID != "" || name != "" {
		current, err := a.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if scopeBranch == "" {
			scopeBranch = current.BranchID
		}
		if scopeName == "" {
			scopeName = current.Name
		}
		taken, err := a.ExistsByQuery(ctx, bson.M{
			fieldBranchID: scopeBranch,
			fieldName:     scopeName,
			fieldID:       bson.M{"$ne": id},
		})
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, model.ProductNameTaken(scopeBranch, scopeName)
		}
	}

	updated, err := a.MergeNonNullAndSave(ctx, id, partial, set...)
	if err != nil {
		if model.HasCode(err, CodeDocumentNotFound) {
			return nil, model.ProductNotFound(id)
		}
		return nil, translateProductError(err, scopeBranch, scopeName)
	}

	a.logger.WithContext(ctx).WithFields(map[string]interface{}{"product_id": id}).Info("Updated product")
	return &updated, nil
}

// Delete removes the product
func (a *ProductAdapter) Delete(ctx context.Context, id string) error {
	deleted, err := a.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ProductNotFound(id)
	}
	a.logger.WithContext(ctx).WithFields(map[string]interface{}{"product_id": id}).Info("Deleted product")
	return nil
}

func (a *ProductAdapter) requireBranch(ctx context.Context, branchID string) error {
	exists, err := a.branches.Exists(ctx, branchID)
	if err != nil {
		return err
	}
	if !exists {
		return model.BranchNotFound(branchID)
	}
	return nil
}

func translateProductError(err error, branchID, name string) error {
	if mongo.IsDuplicateKeyError(err) {
		return model.ProductNameTaken(branchID, name).WithCause(err)
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	return apperrors.NewInfrastructureError("failed to write product").WithCause(err).WithComponent("product_adapter")
}
