package handlers

import (
	"net/http"

	"github.com/geocoder89/marketlink/internal/repo/memory"
	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	inbox *memory.ContactRepo
}

func NewContactHandler(inbox *memory.ContactRepo) *ContactHandler {
	return &ContactHandler{inbox: inbox}
}

type contactRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"omitempty,max=2000"`
}

func (h *ContactHandler) Submit(ctx *gin.Context) {
	var req contactRequest
	if !BindJSON(ctx, &req) {
		return
	}

	h.inbox.Append(req.Email, req.Message)
	ctx.JSON(http.StatusCreated, gin.H{"message": "Thanks, we will be in touch"})
}
