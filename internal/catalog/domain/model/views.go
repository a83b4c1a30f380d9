package model

// ProductView flattens a product with the branch that holds it
type ProductView struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Stock       int    `json:"stock"`
	BranchID    string `json:"branchId"`
	BranchName  string `json:"branchName"`
	FranchiseID string `json:"franchiseId"`
}

// NewProductView builds the flattened record for p held by b
func NewProductView(p *Product, b *Branch) *ProductView {
	return &ProductView{
		ProductID:   p.ID,
		ProductName: p.Name,
		Stock:       p.Stock,
		BranchID:    b.ID,
		BranchName:  b.Name,
		FranchiseID: b.FranchiseID,
	}
}

// MaxStockEntry is one row of the max-stock-per-branch report.
// ProductID and ProductName are nil when the branch holds no products.
type MaxStockEntry struct {
	BranchID    string  `json:"branchId"`
	BranchName  string  `json:"branchName"`
	ProductID   *string `json:"productId"`
	ProductName *string `json:"productName"`
	Stock       int     `json:"stock"`
}

// NewMaxStockEntry picks the product with the highest stock. Ties keep the first one seen.
func NewMaxStockEntry(b *Branch, products []Product) *MaxStockEntry {
	entry := &MaxStockEntry{BranchID: b.ID, BranchName: b.Name}
	var best *Product
	for i := range products {
		if best == nil || products[i].Stock > best.Stock {
			best = &products[i]
		}
	}
	if best != nil {
		id, name := best.ID, best.Name
		entry.ProductID = &id
		entry.ProductName = &name
		entry.Stock = best.Stock
	}
	return entry
}
