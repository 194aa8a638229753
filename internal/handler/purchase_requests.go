package handler

import (
	"net/http"

	"schoolfood/internal/dto"
	"schoolfood/internal/middleware"
	"schoolfood/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PurchaseRequestsHandler struct {
	svc     service.PurchaseService
	kitchen service.PreparationService
}

func NewPurchaseRequestsHandler(svc service.PurchaseService, kitchen service.PreparationService) *PurchaseRequestsHandler {
	return &PurchaseRequestsHandler{svc: svc, kitchen: kitchen}
}

func (h *PurchaseRequestsHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateRequest(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// FromShortfall recomputes what is missing to prepare the given portions and
// files one request per short ingredient. Nothing short means an empty list.
func (h *PurchaseRequestsHandler) FromShortfall(c *gin.Context) {
	var req dto.FromShortfallRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()
	short, err := h.kitchen.Shortfall(ctx, uuid.MustParse(req.MealID), req.Portions)
	if err != nil {
		writeError(c, err)
		return
	}
	resp, err := h.svc.RequestFromShortfall(ctx, middleware.UserID(c), short, req.Urgency)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PurchaseRequestsHandler) List(c *gin.Context) {
	var q dto.PurchaseListQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), q.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PurchaseRequestsHandler) Approve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Approve(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PurchaseRequestsHandler) Reject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ReviewPurchaseRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reject(c.Request.Context(), id, middleware.UserID(c), req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
