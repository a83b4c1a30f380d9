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

// BranchAdapter persists branches. Names are unique within a franchise and the franchise must exist.
type BranchAdapter struct {
	*AdapterOperations[model.Branch, BranchDocument, string]
	franchises *FranchiseAdapter
	logger     logger.Logger
}

// NewBranchAdapter creates the branch collection adapter
func NewBranchAdapter(col CollectionInterface, name string, franchises *FranchiseAdapter, log logger.Logger) *BranchAdapter {
	return &BranchAdapter{
		AdapterOperations: NewAdapterOperations(col, name, model.EntityBranch, BranchMapper(),
			func(d *BranchDocument) string { return d.ID },
			func(d *BranchDocument) *int64 { return &d.Version },
			log),
		franchises: franchises,
		logger:     log.WithComponent("branch_adapter"),
	}
}

// Create inserts a branch under franchiseID. The franchise must exist and the name must be free in it.
func (a *BranchAdapter) Create(ctx context.Context, franchiseID, name string) (*model.Branch, error) {
	name = strings.TrimSpace(name)

	if err := a.requireFranchise(ctx, franchiseID); err != nil {
		return nil, err
	}

	taken, err := a.ExistsByQuery(ctx, bson.M{fieldFranchiseID: franchiseID, fieldName: name})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, model.BranchNameTaken(franchiseID, name)
	}

	ts := now()
	saved, err := a.Save(ctx, model.Branch{
		ID:          uuid.NewString(),
		FranchiseID: franchiseID,
		Name:        name,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	})
	if err != nil {
		return nil, translateBranchError(err, franchiseID, name)
	}

	a.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"franchise_id": franchiseID,
		"branch_id":    saved.ID,
		"name":         saved.Name,
	}).Info("Created branch")
	return &saved, nil
}

// GetByID returns the branch or a BRANCH_NOT_FOUND error
func (a *BranchAdapter) GetByID(ctx context.Context, id string) (*model.Branch, error) {
	b, found, err := a.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, model.BranchNotFound(id)
	}
	return &b, nil
}

// ListByFranchise returns the branches of a franchise ordered by name
func (a *BranchAdapter) ListByFranchise(ctx context.Context, franchiseID string) ([]model.Branch, error) {
	return a.FindByQuery(ctx, bson.M{fieldFranchiseID: franchiseID},
		options.Find().SetSort(bson.D{{Key: fieldName, Value: 1}}))
}

// Exists reports whether a branch is stored under id
func (a *BranchAdapter) Exists(ctx context.Context, id string) (bool, error) {
	return a.ExistsByQuery(ctx, bson.M{fieldID: id})
}

// Update merges the present fields of patch into the stored branch. Moving the branch to another
// franchise requires that franchise to exist; the name must stay free in the target franchise.
func (a *BranchAdapter) Update(ctx context.Context, id string, patch model.Branch) (*model.Branch, error) {
	patch.UpdatedAt = now()
	franchiseID := strings.TrimSpace(patch.FranchiseID)
	name := strings.TrimSpace(patch.Name)

	if franchiseID != "" {
		if err := a.requireFranchise(ctx, franchiseID); err != nil {
			return nil, err
		}
	}

	scopeFranchise, scopeName := franchiseID, name
	if franchiseID != "" || name != "" {
		current, err := a.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if scopeFranchise == "" {
			scopeFranchise = current.FranchiseID
		}
		if scopeName == "" {
			scopeName = current.Name
		}
		taken, err := a.ExistsByQuery(ctx, bson.M{
			fieldFranchiseID: scopeFranchise,
			fieldName:        scopeName,
			fieldID:          bson.M{"$ne": id},
		})
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, model.BranchNameTaken(scopeFranchise, scopeName)
		}
	}

	updated, err := a.MergeNonNullAndSave(ctx, id, patch)
	if err != nil {
		if model.HasCode(err, CodeDocumentNotFound) {
			return nil, model.BranchNotFound(id)
		}
		return nil, translateBranchError(err, scopeFranchise, scopeName)
	}

	a.logger.WithContext(ctx).WithFields(map[string]interface{}{"branch_id": id}).Info("Updated branch")
	return &updated, nil
}

// Delete removes the branch. Its products are left in place.
func (a *BranchAdapter) Delete(ctx context.Context, id string) error {
	deleted, err := a.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.BranchNotFound(id)
	}
	a.logger.WithContext(ctx).WithFields(map[string]interface{}{"branch_id": id}).Info("Deleted branch")
	return nil
}

func (a *BranchAdapter) requireFranchise(ctx context.Context, franchiseID string) error {
	exists, err := a.franchises.Exists(ctx, franchiseID)
	if err != nil {
		return err
	}
	if !exists {
		return model.FranchiseNotFound(franchiseID)
	}
	return nil
}

func translateBranchError(err error, franchiseID, name string) error {
	if mongo.IsDuplicateKeyError(err) {
		return model.BranchNameTaken(franchiseID, name).WithCause(err)
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	return apperrors.NewInfrastructureError("failed to write branch").WithCause(err).WithComponent("branch_adapter")
}
