package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookstore/internal/auth"
	"bookstore/internal/models"
	"bookstore/internal/services"
)

type OrderHandler struct {
	svc services.OrderService
}

func (h *OrderHandler) list(c *gin.Context) {
	filter := services.OrderListFilter{}
	if v := c.Query("customer_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
			return
		}
		filter.CustomerID = id
	}
	if v := c.Query("status"); v != "" {
		filter.Status = models.OrderStatus(v)
	}
	orders, err := h.svc.List(auth.CurrentPrincipal(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.svc.Get(auth.CurrentPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) checkout(c *gin.Context) {
	order, err := h.svc.Checkout(auth.CurrentPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// updateStatus accepts a body containing the status field and nothing
// else; any extra key is rejected even when the status value is valid.
func (h *OrderHandler) updateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raw, ok := body["status"]
	if !ok || len(body) > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only the status field can be updated"})
		return
	}
	var status string
	if err := json.Unmarshal(raw, &status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be a string"})
		return
	}

	order, err := h.svc.UpdateStatus(auth.CurrentPrincipal(c), id, models.OrderStatus(status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
