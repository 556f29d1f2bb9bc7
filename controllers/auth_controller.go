package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Phabs974/ListePCMontage/config"
	"github.com/Phabs974/ListePCMontage/middleware"
	"github.com/Phabs974/ListePCMontage/models"
)

// LoginRequest represents the request body for POST /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login - verifies credentials and issues a token
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusBadRequest, "Invalid request data")
		return
	}

	db := config.GetDB()
	var user models.User
	if err := db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		abortDetail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.CheckPassword(req.Password) {
		abortDetail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := middleware.CreateAccessToken(config.GetConfig(), user.ID)
	if err != nil {
		abortDetail(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Me handles GET /auth/me - returns the authenticated user
func Me(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		abortDetail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	c.JSON(http.StatusOK, user)
}
