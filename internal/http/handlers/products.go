package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/http/middlewares"
	"github.com/geocoder89/marketlink/internal/repo/memory"
	"github.com/gin-gonic/gin"
)

type ProductStore interface {
	Create(req product.CreateProductRequest) (product.Product, error)
	GetByID(id string) (product.Product, error)
	List(f product.ListProductsFilter) []product.Product
	Update(id string, req product.UpdateProductRequest) (product.Product, error)
	Delete(id string) error
}

type ProductsHandler struct {
	products ProductStore
}

func NewProductsHandler(products ProductStore) *ProductsHandler {
	return &ProductsHandler{products: products}
}

func (h *ProductsHandler) ListProducts(ctx *gin.Context) {
	filter := product.ListProductsFilter{
		Category: ctx.Query("category"),
		Search:   ctx.Query("search"),
		SellerID: ctx.Query("sellerId"),
	}
	if filter.Category == product.CategoryAll {
		filter.Category = ""
	}

	ctx.JSON(http.StatusOK, gin.H{"products": h.products.List(filter)})
}

func (h *ProductsHandler) CreateProduct(ctx *gin.Context) {
	callerID, _ := middlewares.UserIDFromContext(ctx)

	var req product.CreateProductRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(ctx, "Invalid request body", parseDecodeError(err, &req))
		return
	}

	// the seller is always the caller, whatever the body says
	req.SellerID = callerID
	if !validateRequest(ctx, req) {
		return
	}
	if !product.ValidCategory(req.Category) {
		RespondBadRequest(ctx, "Unknown category", nil)
		return
	}

	p, err := h.products.Create(req)
	if err != nil {
		RespondInternal(ctx, "Failed to add product")
		return
	}
	ctx.JSON(http.StatusCreated, p)
}

func (h *ProductsHandler) UpdateProduct(ctx *gin.Context) {
	if _, ok := h.ownedProduct(ctx); !ok {
		return
	}

	var req product.UpdateProductRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if req.Category != nil && !product.ValidCategory(*req.Category) {
		RespondBadRequest(ctx, "Unknown category", nil)
		return
	}

	p, err := h.products.Update(ctx.Param("id"), req)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		RespondInternal(ctx, "Failed to update product")
		return
	}
	ctx.JSON(http.StatusOK, p)
}

func (h *ProductsHandler) DeleteProduct(ctx *gin.Context) {
	if _, ok := h.ownedProduct(ctx); !ok {
		return
	}

	if err := h.products.Delete(ctx.Param("id")); err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		RespondInternal(ctx, "Failed to delete product")
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ownedProduct loads the product in the path and checks the caller owns it
// (or is an admin). It writes the failure response itself.
func (h *ProductsHandler) ownedProduct(ctx *gin.Context) (product.Product, bool) {
	p, err := h.products.GetByID(ctx.Param("id"))
	if err != nil {
		RespondNotFound(ctx, "Product not found")
		return product.Product{}, false
	}

	callerID, _ := middlewares.UserIDFromContext(ctx)
	role, _ := middlewares.RoleFromContext(ctx)
	if !p.OwnedBy(callerID) && role != string(user.RoleAdmin) {
		RespondForbidden(ctx, "You can only change your own products")
		return product.Product{}, false
	}
	return p, true
}
