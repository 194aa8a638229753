package handler

import (
	"net/http"

	"schoolfood/internal/dto"
	"schoolfood/internal/middleware"
	"schoolfood/internal/service"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct{ svc service.AccountService }

func NewAccountHandler(svc service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) TopUp(c *gin.Context) {
	var req dto.TopUpRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.TopUp(c.Request.Context(), middleware.UserID(c), req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) Balance(c *gin.Context) {
	resp, err := h.svc.Balance(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) Notifications(c *gin.Context) {
	var q dto.NotificationQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.Notifications(c.Request.Context(), middleware.UserID(c), q.Unread)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.MarkNotificationRead(c.Request.Context(), middleware.UserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
