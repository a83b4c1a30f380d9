package mongodb

import (
	"context"
	"fmt"

	"franchise-catalog/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Index names
const (
	IndexFranchiseName       = "ux_franchise_name"
	IndexBranchFranchiseName = "ux_branch_franchise_name"
	IndexProductBranchName   = "ux_product_branch_name"
	IndexBranchFranchise     = "ix_branch_franchise"
	IndexProductBranch       = "ix_product_branch"
)

// FranchiseIndexes declares the unique franchise name
func FranchiseIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: fieldName, Value: 1}},
			Options: options.Index().SetName(IndexFranchiseName).SetUnique(true),
		},
	}
}

// BranchIndexes declares the branch name unique per franchise and the franchise lookup
func BranchIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: fieldFranchiseID, Value: 1}, {Key: fieldName, Value: 1}},
			Options: options.Index().SetName(IndexBranchFranchiseName).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: fieldFranchiseID, Value: 1}},
			Options: options.Index().SetName(IndexBranchFranchise),
		},
	}
}

// ProductIndexes declares the product name unique per branch and the branch lookup
func ProductIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: fieldBranchID, Value: 1}, {Key: fieldName, Value: 1}},
			Options: options.Index().SetName(IndexProductBranchName).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: fieldBranchID, Value: 1}},
			Options: options.Index().SetName(IndexProductBranch),
		},
	}
}

// EnsureIndexes creates the catalog indexes. Collections that cannot declare indexes are skipped.
func EnsureIndexes(ctx context.Context, franchises, branches, products CollectionInterface, log logger.Logger) error {
	plan := []struct {
		name   string
		col    CollectionInterface
		models []mongo.IndexModel
	}{
		{"franchises", franchises, FranchiseIndexes()},
		{"branches", branches, BranchIndexes()},
		{"products", products, ProductIndexes()},
	}

	for _, step := range plan {
		creator, ok := step.col.(IndexCreator)
		if !ok {
			log.WithFields(map[string]interface{}{"collection": step.name}).Warn("Collection does not support index creation")
			continue
		}
		names, err := creator.CreateIndexes(ctx, step.models)
		if err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", step.name, err)
		}
		log.WithFields(map[string]interface{}{
			"collection": step.name,
			"indexes":    names,
		}).Info("Ensured indexes")
	}
	return nil
}
