package handler

import (
	"net/http"
	"time"

	"schoolfood/internal/dto"
	"schoolfood/internal/middleware"
	"schoolfood/internal/repository"
	"schoolfood/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrdersHandler struct{ svc service.FulfillmentService }

func NewOrdersHandler(svc service.FulfillmentService) *OrdersHandler {
	return &OrdersHandler{svc: svc}
}

// Menu lists meals with at least one allocatable portion on the given date.
// Without a date the service picks today from its clock.
func (h *OrdersHandler) Menu(c *gin.Context) {
	var q dto.MenuQuery
	if !bindQuery(c, &q) {
		return
	}
	day, ok := dateOr(c, q.Date, time.Time{})
	if !ok {
		return
	}
	resp, err := h.svc.Menu(c.Request.Context(), q.MealType, day)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Place(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	day, ok := dateOr(c, req.MealDate, time.Time{})
	if !ok {
		return
	}
	in := service.PlaceOrderInput{
		UserID:        middleware.UserID(c),
		MealID:        uuid.MustParse(req.MealID),
		MealDate:      day,
		PaymentMethod: req.PaymentMethod,
	}
	if req.DrinkID != nil {
		drinkID := uuid.MustParse(*req.DrinkID)
		in.DrinkID = &drinkID
	}
	resp, err := h.svc.PlaceOrder(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *OrdersHandler) Pay(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.PayOrder(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Receive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ReceiveOrder(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Mine lists the caller's own orders.
func (h *OrdersHandler) Mine(c *gin.Context) {
	uid := middleware.UserID(c)
	h.list(c, &uid)
}

// All lists every order; kitchen staff only.
func (h *OrdersHandler) All(c *gin.Context) { h.list(c, nil) }

func (h *OrdersHandler) list(c *gin.Context, userID *uuid.UUID) {
	var q dto.OrderListQuery
	if !bindQuery(c, &q) {
		return
	}
	filter := repository.OrderFilter{UserID: userID, Status: q.Status}
	if q.Date != "" {
		day, ok := dateOr(c, q.Date, time.Time{})
		if !ok {
			return
		}
		filter.MealDate = &day
	}
	resp, err := h.svc.ListOrders(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Serve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ServeOrder(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
