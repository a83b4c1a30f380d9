package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductView(t *testing.T) {
	b := &Branch{ID: "b-1", FranchiseID: "f-1", Name: "North"}
	p := &Product{ID: "p-1", BranchID: "b-1", Name: "Widget", Stock: 5}

	assert.Equal(t, &ProductView{
		ProductID:   "p-1",
		ProductName: "Widget",
		Stock:       5,
		BranchID:    "b-1",
		BranchName:  "North",
		FranchiseID: "f-1",
	}, NewProductView(p, b))
}

func TestNewMaxStockEntry(t *testing.T) {
	b := &Branch{ID: "b-1", Name: "North"}

	tests := []struct {
		name      string
		products  []Product
		wantID    *string
		wantStock int
	}{
		{
			name:      "empty branch",
			products:  nil,
			wantID:    nil,
			wantStock: 0,
		},
		{
			name:      "highest stock wins",
			products:  []Product{{ID: "p-1", Stock: 3}, {ID: "p-2", Stock: 10}, {ID: "p-3", Stock: 7}},
			wantID:    strPtr("p-2"),
			wantStock: 10,
		},
		{
			name:      "ties keep the first seen",
			products:  []Product{{ID: "p-1", Stock: 4}, {ID: "p-2", Stock: 4}},
			wantID:    strPtr("p-1"),
			wantStock: 4,
		},
		{
			name:      "all zero still reports a product",
			products:  []Product{{ID: "p-1", Stock: 0}},
			wantID:    strPtr("p-1"),
			wantStock: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := NewMaxStockEntry(b, tt.products)
			assert.Equal(t, "b-1", entry.BranchID)
			assert.Equal(t, "North", entry.BranchName)
			assert.Equal(t, tt.wantStock, entry.Stock)
			if tt.wantID == nil {
				assert.Nil(t, entry.ProductID)
				assert.Nil(t, entry.ProductName)
				return
			}
			require.NotNil(t, entry.ProductID)
			assert.Equal(t, *tt.wantID, *entry.ProductID)
			assert.NotNil(t, entry.ProductName)
		})
	}
}

func TestFranchise_ProductCount(t *testing.T) {
	f := &Franchise{Branches: []Branch{
		{Products: []Product{{ID: "a"}, {ID: "b"}}},
		{},
		{Products: []Product{{ID: "c"}}},
	}}
	assert.Equal(t, 3, f.ProductCount())
	assert.Zero(t, (&Franchise{}).ProductCount())
}

func TestChangeEvent_EventType(t *testing.T) {
	e := &ChangeEvent{Entity: EntityProduct, Action: ActionUpdated}
	assert.Equal(t, "product.updated", e.EventType())
}

func strPtr(s string) *string { return &s }
