package model

import "time"

// Franchise is the top-level owner of the catalog. Branches is only populated by hydration
// and is never stored with the franchise.
type Franchise struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Branches  []Branch  `json:"branches,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Branch belongs to exactly one franchise; its name is unique within that franchise.
type Branch struct {
	ID          string    `json:"id"`
	FranchiseID string    `json:"franchiseId"`
	Name        string    `json:"name"`
	Products    []Product `json:"products,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Product belongs to exactly one branch; its name is unique within that branch.
type Product struct {
	ID        string    `json:"id"`
	BranchID  string    `json:"branchId"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProductPatch lists the product fields a partial update sets. Nil fields are left alone, so an
// explicit zero stock is expressible.
type ProductPatch struct {
	Name     *string
	BranchID *string
	Stock    *int
}

// ProductCount returns the number of products over all hydrated branches
func (f *Franchise) ProductCount() int {
	total := 0
	for _, b := range f.Branches {
		total += len(b.Products)
	}
	return total
}
