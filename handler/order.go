package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ErikTechForce/TechForcePortal-sub000/middleware"
	"github.com/ErikTechForce/TechForcePortal-sub000/service"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	lifecycle *service.Lifecycle
	chat      *service.Chat
	store     service.Store
}

func NewOrderHandler(lifecycle *service.Lifecycle, chat *service.Chat, store service.Store) *OrderHandler {
	return &OrderHandler{lifecycle: lifecycle, chat: chat, store: store}
}

type CreateOrderRequest struct {
	OrderNumber string `json:"order_number" binding:"required"`
	CompanyName string `json:"company_name" binding:"required"`
}

// Create creates a new order in Contract stage
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_number and company_name are required"})
		return
	}

	order, err := h.lifecycle.CreateOrder(c.Request.Context(), req.OrderNumber, req.CompanyName, middleware.GetUsername(c))
	if err != nil {
		if errors.Is(err, service.ErrDuplicateOrder) {
			c.JSON(http.StatusConflict, gin.H{"error": "Order number already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	c.JSON(http.StatusCreated, order)
}

// List returns all orders
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.store.ListOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Get returns a single order
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.store.GetOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order"})
		return
	}
	c.JSON(http.StatusOK, order)
}

type PatchOrderRequest struct {
	service.OrderEdits
	ActingUser string `json:"acting_user"`
}

// Patch applies a partial edit to an order. Every changed tracked field is
// written to the activity log; an edit with no changes still logs once.
func (h *OrderHandler) Patch(c *gin.Context) {
	var req PatchOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actingUser := req.ActingUser
	if actingUser == "" {
		actingUser = middleware.GetUsername(c)
	}

	order, err := h.lifecycle.ApplyEdit(c.Request.Context(), c.Param("number"), req.OrderEdits, actingUser)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}

	c.JSON(http.StatusOK, order)
}

type AppendLogRequest struct {
	Action string `json:"action" binding:"required"`
	User   string `json:"user"`
}

// AppendLog writes one activity entry directly
func (h *OrderHandler) AppendLog(c *gin.Context) {
	var req AppendLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action is required"})
		return
	}

	entry, err := h.lifecycle.Append(c.Request.Context(), c.Param("number"), req.Action, req.User)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to append log entry"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// ActivityLog returns an order's log entries, newest first
func (h *OrderHandler) ActivityLog(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := h.lifecycle.ActivityLog(c.Request.Context(), c.Param("number"), limit)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load activity log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// SendMessage posts a chat message on an order
func (h *OrderHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	msg, err := h.chat.Send(c.Request.Context(), c.Param("number"), req.Message, middleware.GetUsername(c))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// ListMessages returns an order's chat thread
func (h *OrderHandler) ListMessages(c *gin.Context) {
	messages, err := h.chat.List(c.Request.Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
