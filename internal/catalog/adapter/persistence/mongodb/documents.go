package mongodb

import (
	"time"

	"franchise-catalog/internal/catalog/domain/model"
)

// Stored field names
const (
	fieldID          = "_id"
	fieldName        = "name"
	fieldFranchiseID = "franchiseId"
	fieldBranchID    = "branchId"
	fieldStock       = "stock"
	fieldCreatedAt   = "createdAt"
	fieldUpdatedAt   = "updatedAt"
	fieldVersion     = "version"
)

// FranchiseDocument is the stored form of a franchise
type FranchiseDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
	Version   int64     `bson:"version"`
}

// BranchDocument is the stored form of a branch
type BranchDocument struct {
	ID          string    `bson:"_id"`
	FranchiseID string    `bson:"franchiseId"`
	Name        string    `bson:"name"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
	Version     int64     `bson:"version"`
}

// ProductDocument is the stored form of a product
type ProductDocument struct {
	ID        string    `bson:"_id"`
	BranchID  string    `bson:"branchId"`
	Name      string    `bson:"name"`
	Stock     int       `bson:"stock"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
	Version   int64     `bson:"version"`
}

// FranchiseMapper maps franchises. Branches is transient and has no row.
func FranchiseMapper() *Mapper[model.Franchise, FranchiseDocument] {
	return NewMapper(
		TextField(fieldID,
			func(e *model.Franchise) *string { return &e.ID },
			func(d *FranchiseDocument) *string { return &d.ID }),
		TextField(fieldName,
			func(e *model.Franchise) *string { return &e.Name },
			func(d *FranchiseDocument) *string { return &d.Name }),
		TimeField(fieldCreatedAt,
			func(e *model.Franchise) *time.Time { return &e.CreatedAt },
			func(d *FranchiseDocument) *time.Time { return &d.CreatedAt }),
		TimeField(fieldUpdatedAt,
			func(e *model.Franchise) *time.Time { return &e.UpdatedAt },
			func(d *FranchiseDocument) *time.Time { return &d.UpdatedAt }),
		ScalarField[model.Franchise, FranchiseDocument, int64](fieldVersion, nil,
			func(d *FranchiseDocument) *int64 { return &d.Version }),
	)
}

// BranchMapper maps branches. Products is transient and has no row.
func BranchMapper() *Mapper[model.Branch, BranchDocument] {
	return NewMapper(
		TextField(fieldID,
			func(e *model.Branch) *string { return &e.ID },
			func(d *BranchDocument) *string { return &d.ID }),
		TextField(fieldFranchiseID,
			func(e *model.Branch) *string { return &e.FranchiseID },
			func(d *BranchDocument) *string { return &d.FranchiseID }),
		TextField(fieldName,
			func(e *model.Branch) *string { return &e.Name },
			func(d *BranchDocument) *string { return &d.Name }),
		TimeField(fieldCreatedAt,
			func(e *model.Branch) *time.Time { return &e.CreatedAt },
			func(d *BranchDocument) *time.Time { return &d.CreatedAt }),
		TimeField(fieldUpdatedAt,
			func(e *model.Branch) *time.Time { return &e.UpdatedAt },
			func(d *BranchDocument) *time.Time { return &d.UpdatedAt }),
		ScalarField[model.Branch, BranchDocument, int64](fieldVersion, nil,
			func(d *BranchDocument) *int64 { return &d.Version }),
	)
}

// ProductMapper maps products. A zero stock is absent for merge; setting stock to zero uses UpdateStock.
func ProductMapper() *Mapper[model.Product, ProductDocument] {
	return NewMapper(
		TextField(fieldID,
			func(e *model.Product) *string { return &e.ID },
			func(d *ProductDocument) *string { return &d.ID }),
		TextField(fieldBranchID,
			func(e *model.Product) *string { return &e.BranchID },
			func(d *ProductDocument) *string { return &d.BranchID }),
		TextField(fieldName,
			func(e *model.Product) *string { return &e.Name },
			func(d *ProductDocument) *string { return &d.Name }),
		ScalarField(fieldStock,
			func(e *model.Product) *int { return &e.Stock },
			func(d *ProductDocument) *int { return &d.Stock }),
		TimeField(fieldCreatedAt,
			func(e *model.Product) *time.Time { return &e.CreatedAt },
			func(d *ProductDocument) *time.Time { return &d.CreatedAt }),
		TimeField(fieldUpdatedAt,
			func(e *model.Product) *time.Time { return &e.UpdatedAt },
			func(d *ProductDocument) *time.Time { return &d.UpdatedAt }),
		ScalarField[model.Product, ProductDocument, int64](fieldVersion, nil,
			func(d *ProductDocument) *int64 { return &d.Version }),
	)
}

// now returns the current time at the precision the store keeps
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
