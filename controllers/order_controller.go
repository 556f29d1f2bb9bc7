package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Phabs974/ListePCMontage/config"
	"github.com/Phabs974/ListePCMontage/middleware"
	"github.com/Phabs974/ListePCMontage/models"
)

// CreateOrderRequest represents the request body for POST /orders
type CreateOrderRequest struct {
	InvoiceNumber string    `json:"invoice_number" binding:"required"`
	Store         *string   `json:"store"`
	ClientName    string    `json:"client_name" binding:"required"`
	ProductName   string    `json:"product_name" binding:"required"`
	SoldAt        time.Time `json:"sold_at" binding:"required"`
	Prepared      bool      `json:"prepared"`
	Built         bool      `json:"built"`
	Delivered     bool      `json:"delivered"`
	Status        *string   `json:"status"`
}

// ListOrders handles GET /orders - returns orders filtered by view, search
// text and sold_at bounds, newest sale first
func ListOrders(c *gin.Context) {
	view := models.View(c.DefaultQuery("view", string(models.ViewAll)))
	if !view.Valid() {
		abortDetail(c, http.StatusBadRequest, "Invalid view")
		return
	}

	query := config.GetDB().Model(&models.Order{})

	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where(
			"LOWER(invoice_number) LIKE LOWER(?) OR LOWER(client_name) LIKE LOWER(?) OR LOWER(product_name) LIKE LOWER(?) OR LOWER(store) LIKE LOWER(?)",
			like, like, like, like,
		)
	}

	if from := c.Query("from"); from != "" {
		fromDate, err := time.Parse(time.RFC3339, from)
		if err != nil {
			abortDetail(c, http.StatusBadRequest, "Invalid from date")
			return
		}
		query = query.Where("sold_at >= ?", fromDate)
	}
	if to := c.Query("to"); to != "" {
		toDate, err := time.Parse(time.RFC3339, to)
		if err != nil {
			abortDetail(c, http.StatusBadRequest, "Invalid to date")
			return
		}
		query = query.Where("sold_at <= ?", toDate)
	}

	switch view {
	case models.ViewToPrepare:
		query = query.Where("prepared = ? AND (status IS NULL OR status <> ?)", false, models.StatusAlreadyGiven)
	case models.ViewToBuild:
		query = query.Where("prepared = ? AND built = ? AND (status IS NULL OR status <> ?)", true, false, models.StatusAlreadyGiven)
	case models.ViewToDeliver:
		query = query.Where("built = ? AND delivered = ?", true, false)
	case models.ViewDone:
		query = query.Where("delivered = ?", true)
	}

	var orders []models.Order
	if err := query.Order("sold_at DESC").Find(&orders).Error; err != nil {
		abortDetail(c, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	c.JSON(http.StatusOK, orders)
}

// CreateOrder handles POST /orders - records a new sale (admin and vendor)
func CreateOrder(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		abortDetail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusBadRequest, "Invalid request data")
		return
	}

	db := config.GetDB()
	var existing models.Order
	if err := db.Where("invoice_number = ?", req.InvoiceNumber).First(&existing).Error; err == nil {
		abortDetail(c, http.StatusConflict, "Invoice already exists")
		return
	}

	order := models.Order{
		InvoiceNumber: req.InvoiceNumber,
		Store:         req.Store,
		ClientName:    req.ClientName,
		ProductName:   req.ProductName,
		SoldAt:        req.SoldAt,
		Prepared:      req.Prepared,
		Built:         req.Built,
		Delivered:     req.Delivered,
		Status:        req.Status,
		CreatedBy:     &user.ID,
	}
	if err := db.Create(&order).Error; err != nil {
		if isUniqueViolation(err) {
			abortDetail(c, http.StatusConflict, "Invoice already exists")
			return
		}
		abortDetail(c, http.StatusInternalServerError, "Failed to create order")
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateOrder handles PATCH /orders/:id - partial update of the workflow
// fields. Permissions are checked per field against the role table, and an
// explicit null clears the status.
func UpdateOrder(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		abortDetail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, "id = ?", c.Param("id")).Error; err != nil {
		abortDetail(c, http.StatusNotFound, "Order not found")
		return
	}

	var payload map[string]json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		abortDetail(c, http.StatusBadRequest, "Invalid request data")
		return
	}

	updates := make(map[string]interface{}, len(payload))
	for field, raw := range payload {
		switch field {
		case "prepared", "built", "delivered":
			var value bool
			if err := json.Unmarshal(raw, &value); err != nil {
				abortDetail(c, http.StatusBadRequest, "Invalid value for "+field)
				return
			}
			updates[field] = value
		case "status":
			var value *string
			if err := json.Unmarshal(raw, &value); err != nil {
				abortDetail(c, http.StatusBadRequest, "Invalid value for status")
				return
			}
			updates[field] = value
		default:
			abortDetail(c, http.StatusBadRequest, "Unknown field "+field)
			return
		}

		if !models.CanEditOrderField(user.Role, field) {
			abortDetail(c, http.StatusForbidden, "Cannot modify "+field)
			return
		}
	}

	if len(updates) > 0 {
		if err := db.Model(&order).Updates(updates).Error; err != nil {
			abortDetail(c, http.StatusInternalServerError, "Failed to update order")
			return
		}
		if err := db.First(&order, "id = ?", order.ID).Error; err != nil {
			abortDetail(c, http.StatusInternalServerError, "Failed to load order")
			return
		}
	}

	c.JSON(http.StatusOK, order)
}

// DeleteOrder handles DELETE /orders/:id (admin only)
func DeleteOrder(c *gin.Context) {
	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, "id = ?", c.Param("id")).Error; err != nil {
		abortDetail(c, http.StatusNotFound, "Order not found")
		return
	}

	if err := db.Delete(&order).Error; err != nil {
		abortDetail(c, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
