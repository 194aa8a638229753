package handler

import (
	"net/http"
	"time"

	"schoolfood/internal/dto"
	"schoolfood/internal/middleware"
	"schoolfood/internal/service"

	"github.com/gin-gonic/gin"
)

type SubscriptionsHandler struct{ svc service.SubscriptionService }

func NewSubscriptionsHandler(svc service.SubscriptionService) *SubscriptionsHandler {
	return &SubscriptionsHandler{svc: svc}
}

func (h *SubscriptionsHandler) Purchase(c *gin.Context) {
	var req dto.PurchaseSubscriptionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Purchase(c.Request.Context(), middleware.UserID(c), req.MealType, req.Weeks)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SubscriptionsHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionsHandler) CanUse(c *gin.Context) {
	var q dto.CanUseQuery
	if !bindQuery(c, &q) {
		return
	}
	day, ok := dateOr(c, q.Date, service.DateOf(time.Now()))
	if !ok {
		return
	}
	usable, err := h.svc.CanUse(c.Request.Context(), middleware.UserID(c), q.MealType, day)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CanUseResponse{
		MealType: q.MealType,
		Date:     day.Format("2006-01-02"),
		CanUse:   usable,
	})
}
