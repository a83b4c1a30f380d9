package http

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the catalog API on router. guard, when non-nil, protects every
// mutating route. Literal segments are registered before the parameterized routes they shadow.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	write := func(handler fiber.Handler) []fiber.Handler {
		if guard == nil {
			return []fiber.Handler{handler}
		}
		return []fiber.Handler{guard, handler}
	}

	products := router.Group("/products")
	products.Get("/search", h.SearchProducts)
	products.Get("/view", h.AllProductViews)
	products.Get("/view/:productId", h.ProductView)
	products.Get("/", h.AllProducts)
	products.Get("/:productId", h.GetProduct)
	products.Patch("/:productId", write(h.UpdateProduct)...)

	franchises := router.Group("/franchises")
	franchises.Post("/", write(h.CreateFranchise)...)
	franchises.Get("/", h.ListFranchises)
	franchises.Get("/by-name", h.GetFranchiseByName)
	franchises.Get("/:franchiseId", h.GetFranchise)
	franchises.Patch("/:franchiseId", write(h.UpdateFranchise)...)
	franchises.Delete("/:franchiseId", write(h.DeleteFranchise)...)
	franchises.Get("/:franchiseId/max-stock-per-branch", h.MaxStockPerBranch)

	franchises.Post("/:franchiseId/branches", write(h.AddBranch)...)
	franchises.Get("/:franchiseId/branches", h.ListBranches)
	franchises.Post("/:franchiseId/branches/:branchId/products", write(h.AddProduct)...)
	franchises.Get("/:franchiseId/branches/:branchId/products", h.ListBranchProducts)
	franchises.Delete("/:franchiseId/branches/:branchId/products/:productId", write(h.DeleteProduct)...)
	franchises.Patch("/:franchiseId/branches/:branchId/products/:productId/stock", write(h.UpdateStock)...)
	franchises.Post("/:franchiseId/branches/:branchId/products/:productId/stock/adjust", write(h.AdjustStock)...)

	branches := router.Group("/branches")
	branches.Get("/:branchId", h.GetBranch)
	branches.Patch("/:branchId", write(h.UpdateBranch)...)
	branches.Delete("/:branchId", write(h.DeleteBranch)...)

	router.Get("/changes", h.Changes)
}
