package mongodb

import (
	"context"
	"strings"

	"franchise-catalog/internal/catalog/domain/model"
	apperrors "franchise-catalog/internal/shared/errors"
	"franchise-catalog/internal/shared/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FranchiseAdapter persists franchises. Names are unique across all franchises.
type FranchiseAdapter struct {
	*AdapterOperations[model.Franchise, FranchiseDocument, string]
	logger logger.Logger
}

// NewFranchiseAdapter creates the franchise collection adapter
func NewFranchiseAdapter(col CollectionInterface, name string, log logger.Logger) *FranchiseAdapter {
	return &FranchiseAdapter{
		AdapterOperations: NewAdapterOperations(col, name, model.EntityFranchise, FranchiseMapper(),
			func(d *FranchiseDocument) string { return d.ID },
			func(d *FranchiseDocument) *int64 { return &d.Version },
			log),
		logger: log.WithComponent("franchise_adapter"),
	}
}

// Create inserts a franchise with a fresh id. A taken name fails with Conflict and nothing is written.
func (a *FranchiseAdapter) Create(ctx context.Context, name string) (*model.Franchise, error) {
	name = strings.TrimSpace(name)

	taken, err := a.ExistsByQuery(ctx, bson.M{fieldName: name})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, model.FranchiseNameTaken(name)
	}

	ts := now()
	saved, err := a.Save(ctx, model.Franchise{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		return nil, translateFranchiseError(err, name)
	}

	a.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"franchise_id": saved.ID,
		"name":         saved.Name,
	}).Info("Created franchise")
	return &saved, nil
}

// GetByID returns the franchise or a FRANCHISE_NOT_FOUND error
func (a *FranchiseAdapter) GetByID(ctx context.Context, id string) (*model.Franchise, error) {
	f, found, err := a.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, model.FranchiseNotFound(id)
	}
	return &f, nil
}

// GetByName returns the franchise with the exact name
func (a *FranchiseAdapter) GetByName(ctx context.Context, name string) (*model.Franchise, error) {
	name = strings.TrimSpace(name)
	f, found, err := a.FindOneByQuery(ctx, bson.M{fieldName: name})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, model.FranchiseNameNotFound(name)
	}
	return &f, nil
}

// List returns every franchise ordered by name
func (a *FranchiseAdapter) List(ctx context.Context) ([]model.Franchise, error) {
	return a.FindByQuery(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: fieldName, Value: 1}}))
}

// Exists reports whether a franchise is stored under id
func (a *FranchiseAdapter) Exists(ctx context.Context, id string) (bool, error) {
	return a.ExistsByQuery(ctx, bson.M{fieldID: id})
}

// Update merges the present fields of patch into the stored franchise
func (a *FranchiseAdapter) Update(ctx context.Context, id string, patch model.Franchise) (*model.Franchise, error) {
	patch.UpdatedAt = now()

	if name := strings.TrimSpace(patch.Name); name != "" {
		taken, err := a.ExistsByQuery(ctx, bson.M{fieldName: name, fieldID: bson.M{"$ne": id}})
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, model.FranchiseNameTaken(name)
		}
	}

	updated, err := a.MergeNonNullAndSave(ctx, id, patch)
	if err != nil {
		if model.HasCode(err, CodeDocumentNotFound) {
			return nil, model.FranchiseNotFound(id)
		}
		return nil, translateFranchiseError(err, strings.TrimSpace(patch.Name))
	}

	a.logger.WithContext(ctx).WithFields(map[string]interface{}{"franchise_id": id}).Info("Updated franchise")
	return &updated, nil
}

// Delete removes the franchise. Its branches are left in place.
func (a *FranchiseAdapter) Delete(ctx context.Context, id string) error {
	deleted, err := a.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.FranchiseNotFound(id)
	}
	a.logger.WithContext(ctx).WithFields(map[string]interface{}{"franchise_id": id}).Info("Deleted franchise")
	return nil
}

func translateFranchiseError(err error, name string) error {
	if mongo.IsDuplicateKeyError(err) {
		return model.FranchiseNameTaken(name).WithCause(err)
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	return apperrors.NewInfrastructureError("failed to write franchise").WithCause(err).WithComponent("franchise_adapter")
}
