package handler

import (
	"net/http"

	"schoolfood/internal/dto"
	"schoolfood/internal/middleware"
	"schoolfood/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type KitchenHandler struct{ svc service.PreparationService }

func NewKitchenHandler(svc service.PreparationService) *KitchenHandler {
	return &KitchenHandler{svc: svc}
}

// Prepare cooks a batch. A shortfall answers 422 with every short line.
func (h *KitchenHandler) Prepare(c *gin.Context) {
	var req dto.PrepareRequest
	if !bindAndValidate(c, &req) {
		return
	}
	in := service.PrepareInput{
		MealID:     uuid.MustParse(req.MealID),
		Portions:   req.Portions,
		PreparerID: middleware.UserID(c),
		Notes:      req.Notes,
	}
	if req.ExpiryDate != nil {
		exp, err := service.ParseDate(*req.ExpiryDate)
		if err != nil {
			writeError(c, service.ErrInvalidExpiryDate)
			return
		}
		in.ExpiryDate = &exp
	}

	batch, err := h.svc.Prepare(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.BatchToResponse(batch))
}

func (h *KitchenHandler) Preview(c *gin.Context) {
	var q dto.PreviewQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.Preview(c.Request.Context(), uuid.MustParse(q.MealID), q.Portions)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Batches lists what the kitchen can still hand out today, per meal.
func (h *KitchenHandler) Batches(c *gin.Context) {
	resp, err := h.svc.ActiveBatches(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
