package http

import (
	"context"

	"franchise-catalog/internal/catalog/usecase"
	apperrors "franchise-catalog/internal/shared/errors"
	"franchise-catalog/internal/shared/logger"
	"franchise-catalog/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves the catalog API over the use case
type CatalogHandler struct {
	uc  usecase.CatalogUsecaseInterface
	log logger.Logger
}

// NewCatalogHandler creates the handler
func NewCatalogHandler(uc usecase.CatalogUsecaseInterface, log logger.Logger) *CatalogHandler {
	return &CatalogHandler{uc: uc, log: log.WithComponent("catalog_http")}
}

// requestContext adds the path ids of the request to its user context
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if id := c.Params("franchiseId"); id != "" {
		ctx = utils.WithFranchiseID(ctx, id)
	}
	if id := c.Params("branchId"); id != "" {
		ctx = utils.WithBranchID(ctx, id)
	}
	if id := c.Params("productId"); id != "" {
		ctx = utils.WithProductID(ctx, id)
	}
	return ctx
}

func (h *CatalogHandler) parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		h.log.WithContext(c.UserContext()).WithFields(map[string]interface{}{
			"path":  c.Path(),
			"error": err.Error(),
		}).Debug("Failed to parse request body")
		return apperrors.NewValidationError("invalid request body").WithCode("INVALID_BODY")
	}
	return nil
}

// ---- franchises ----

func (h *CatalogHandler) CreateFranchise(c *fiber.Ctx) error {
	var req usecase.CreateFranchiseRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	franchise, err := h.uc.CreateFranchise(requestContext(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Franchise created", franchise)
}

func (h *CatalogHandler) ListFranchises(c *fiber.Ctx) error {
	franchises, err := h.uc.ListFranchises(requestContext(c), c.QueryBool("includeProducts", false))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Franchises retrieved", franchises)
}

func (h *CatalogHandler) GetFranchiseByName(c *fiber.Ctx) error {
	franchise, err := h.uc.GetFranchiseByName(requestContext(c), c.Query("name"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Franchise retrieved", franchise)
}

func (h *CatalogHandler) GetFranchise(c *fiber.Ctx) error {
	franchise, err := h.uc.GetFranchise(requestContext(c), c.Params("franchiseId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Franchise retrieved", franchise)
}

func (h *CatalogHandler) UpdateFranchise(c *fiber.Ctx) error {
	var req usecase.UpdateFranchiseRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	franchise, err := h.uc.UpdateFranchise(requestContext(c), c.Params("franchiseId"), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Franchise updated", franchise)
}

func (h *CatalogHandler) DeleteFranchise(c *fiber.Ctx) error {
	if err := h.uc.DeleteFranchise(requestContext(c), c.Params("franchiseId")); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Franchise deleted", nil)
}

func (h *CatalogHandler) MaxStockPerBranch(c *fiber.Ctx) error {
	report, err := h.uc.MaxStockPerBranch(requestContext(c), c.Params("franchiseId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Max stock per branch retrieved", report)
}

// ---- branches ----

func (h *CatalogHandler) AddBranch(c *fiber.Ctx) error {
	var req usecase.CreateBranchRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	branch, err := h.uc.AddBranch(requestContext(c), c.Params("franchiseId"), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Branch created", branch)
}

func (h *CatalogHandler) ListBranches(c *fiber.Ctx) error {
	branches, err := h.uc.ListBranches(requestContext(c), c.Params("franchiseId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Branches retrieved", branches)
}

func (h *CatalogHandler) GetBranch(c *fiber.Ctx) error {
	branch, err := h.uc.GetBranch(requestContext(c), c.Params("branchId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Branch retrieved", branch)
}

func (h *CatalogHandler) UpdateBranch(c *fiber.Ctx) error {
	var req usecase.UpdateBranchRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	branch, err := h.uc.UpdateBranch(requestContext(c), c.Params("branchId"), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Branch updated", branch)
}

func (h *CatalogHandler) DeleteBranch(c *fiber.Ctx) error {
	if err := h.uc.DeleteBranch(requestContext(c), c.Params("branchId")); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Branch deleted", nil)
}

// ---- products under a branch ----

func (h *CatalogHandler) AddProduct(c *fiber.Ctx) error {
	var req usecase.CreateProductRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	product, err := h.uc.AddProduct(requestContext(c), c.Params("franchiseId"), c.Params("branchId"), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Product created", product)
}

func (h *CatalogHandler) ListBranchProducts(c *fiber.Ctx) error {
	products, err := h.uc.ListProducts(requestContext(c), c.Params("franchiseId"), c.Params("branchId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Products retrieved", products)
}

func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	err := h.uc.DeleteProduct(requestContext(c), c.Params("franchiseId"), c.Params("branchId"), c.Params("productId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Product deleted", nil)
}

func (h *CatalogHandler) UpdateStock(c *fiber.Ctx) error {
	var req usecase.UpdateStockRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	product, err := h.uc.UpdateStock(requestContext(c), c.Params("franchiseId"), c.Params("branchId"), c.Params("productId"), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Stock updated", product)
}

func (h *CatalogHandler) AdjustStock(c *fiber.Ctx) error {
	var req usecase.AdjustStockRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	product, err := h.uc.AdjustStock(requestContext(c), c.Params("franchiseId"), c.Params("branchId"), c.Params("productId"), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Stock adjusted", product)
}

// ---- products ----

func (h *CatalogHandler) SearchProducts(c *fiber.Ctx) error {
	products, err := h.uc.SearchProducts(requestContext(c), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Products retrieved", products)
}

func (h *CatalogHandler) AllProductViews(c *fiber.Ctx) error {
	views, err := h.uc.AllProductViews(requestContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Product views retrieved", views)
}

func (h *CatalogHandler) ProductView(c *fiber.Ctx) error {
	view, err := h.uc.ProductView(requestContext(c), c.Params("productId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Product view retrieved", view)
}

func (h *CatalogHandler) AllProducts(c *fiber.Ctx) error {
	products, err := h.uc.AllProducts(requestContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Products retrieved", products)
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.uc.GetProduct(requestContext(c), c.Params("productId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Product retrieved", product)
}

func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	var req usecase.UpdateProductRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	product, err := h.uc.UpdateProduct(requestContext(c), c.Params("productId"), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Product updated", product)
}

// ---- change trail ----

func (h *CatalogHandler) Changes(c *fiber.Ctx) error {
	events, err := h.uc.Changes(requestContext(c), c.Query("since"), int64(c.QueryInt("limit", 0)))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Changes retrieved", events)
}
