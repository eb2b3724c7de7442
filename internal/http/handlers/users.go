package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/http/middlewares"
	"github.com/geocoder89/marketlink/internal/repo/memory"
	"github.com/gin-gonic/gin"
)

type UserDirectory interface {
	List() []user.User
	GetByID(id string) (user.User, error)
	Update(id string, req user.UpdateProfileRequest) (user.User, error)
	AddReview(sellerID string, review user.Review) (user.User, error)
}

type UsersHandler struct {
	users UserDirectory
}

func NewUsersHandler(users UserDirectory) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, h.users.List())
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	u, err := h.users.GetByID(ctx.Param("id"))
	if err != nil {
		RespondNotFound(ctx, "User not found")
		return
	}
	ctx.JSON(http.StatusOK, u)
}

// UpdateUser lets a user edit their own profile; admins may edit anyone.
func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id := ctx.Param("id")

	callerID, _ := middlewares.UserIDFromContext(ctx)
	role, _ := middlewares.RoleFromContext(ctx)
	if callerID != id && role != string(user.RoleAdmin) {
		RespondForbidden(ctx, "You can only update your own profile")
		return
	}

	var req user.UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.users.Update(id, req)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Failed to update profile")
		return
	}
	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) RateUser(ctx *gin.Context) {
	sellerID := ctx.Param("id")

	var req user.RateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	callerID, _ := middlewares.UserIDFromContext(ctx)
	if req.RaterID != callerID {
		RespondForbidden(ctx, "You can only rate as yourself")
		return
	}
	if sellerID == callerID {
		RespondBadRequest(ctx, "You cannot rate yourself", nil)
		return
	}

	seller, err := h.users.GetByID(sellerID)
	if err != nil {
		RespondNotFound(ctx, "User not found")
		return
	}
	if !seller.IsSeller() {
		RespondBadRequest(ctx, "Only sellers can be rated", nil)
		return
	}

	updated, err := h.users.AddReview(sellerID, user.Review{
		RaterID:   req.RaterID,
		RaterName: req.RaterName,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		RespondInternal(ctx, "Failed to rate seller")
		return
	}
	ctx.JSON(http.StatusOK, updated)
}
