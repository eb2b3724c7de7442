package handlers

import (
	"net/http"
	"time"

	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/repo/memory"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	users    *memory.UsersRepo
	products *memory.ProductsRepo
	started  time.Time
}

func NewHealthHandler(users *memory.UsersRepo, products *memory.ProductsRepo) *HealthHandler {
	return &HealthHandler{users: users, products: products, started: time.Now()}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports how much the in-memory stores hold. There is nothing to
// wait on, so it is always ready.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"uptime":   time.Since(h.started).Round(time.Second).String(),
		"users":    len(h.users.List()),
		"products": len(h.products.List(product.ListProductsFilter{})),
	})
}
