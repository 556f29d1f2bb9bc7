package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Phabs974/ListePCMontage/config"
	"github.com/Phabs974/ListePCMontage/middleware"
	"github.com/Phabs974/ListePCMontage/models"
	"github.com/Phabs974/ListePCMontage/services"
	"github.com/Phabs974/ListePCMontage/utils"
)

// ImportInvoice handles POST /import/invoice - parses an uploaded invoice
// PDF and creates the matching order (admin and vendor)
func ImportInvoice(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		abortDetail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortDetail(c, http.StatusBadRequest, "File required")
		return
	}
	if err := utils.ValidateInvoiceFile(fileHeader); err != nil {
		abortDetail(c, http.StatusBadRequest, err.Error())
		return
	}

	content, err := utils.ReadUploadedFile(fileHeader)
	if err != nil {
		abortDetail(c, http.StatusBadRequest, "Failed to read file")
		return
	}

	data, err := services.GetInvoiceService().Parse(content)
	if err != nil {
		var parseErr *services.InvoiceParseError
		if errors.As(err, &parseErr) {
			c.JSON(http.StatusOK, models.ImportResult{
				Status: models.ImportError,
				Errors: map[string]string{"code": parseErr.Code},
			})
			return
		}
		abortDetail(c, http.StatusInternalServerError, "Failed to parse invoice")
		return
	}

	db := config.GetDB()
	var existing models.Order
	if err := db.Where("invoice_number = ?", data.InvoiceNumber).First(&existing).Error; err == nil {
		c.JSON(http.StatusOK, models.ImportResult{
			Status: models.ImportAlreadyExists,
			Order:  &existing,
		})
		return
	}

	order := models.Order{
		InvoiceNumber: data.InvoiceNumber,
		Store:         &data.Store,
		ClientName:    data.ClientName,
		ProductName:   data.ProductName,
		SoldAt:        data.SoldAt,
		CreatedBy:     &user.ID,
	}
	if err := db.Create(&order).Error; err != nil {
		abortDetail(c, http.StatusInternalServerError, "Failed to create order")
		return
	}

	archiveInvoice(order.InvoiceNumber, content)

	c.JSON(http.StatusOK, models.ImportResult{
		Status: models.ImportCreated,
		Order:  &order,
	})
}

// archiveInvoice keeps a copy of the uploaded PDF when an archive is
// configured. Failures only get logged: the order is already created.
func archiveInvoice(invoiceNumber string, content []byte) {
	archive := services.GetArchive()
	if archive == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	key := "invoices/" + invoiceNumber + ".pdf"
	if err := archive.Store(ctx, key, content); err != nil {
		log.Printf("Failed to archive invoice %s: %v", invoiceNumber, err)
	}
}
