package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Phabs974/ListePCMontage/config"
	"github.com/Phabs974/ListePCMontage/models"
)

// CreateUserRequest represents the request body for POST /users
type CreateUserRequest struct {
	Username string      `json:"username" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role" binding:"required"`
}

// UpdateUserRequest represents the request body for PATCH /users/:id
type UpdateUserRequest struct {
	Username *string      `json:"username"`
	Password *string      `json:"password"`
	Role     *models.Role `json:"role"`
}

// ListUsers handles GET /users (admin only)
func ListUsers(c *gin.Context) {
	var users []models.User
	if err := config.GetDB().Order("username").Find(&users).Error; err != nil {
		abortDetail(c, http.StatusInternalServerError, "Failed to list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser handles POST /users (admin only)
func CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusBadRequest, "Invalid request data")
		return
	}
	if !req.Role.Valid() {
		abortDetail(c, http.StatusBadRequest, "Invalid role")
		return
	}

	db := config.GetDB()
	var existing models.User
	if err := db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		abortDetail(c, http.StatusConflict, "Username already exists")
		return
	}

	user := models.User{
		Username: req.Username,
		Role:     req.Role,
	}
	if err := user.SetPassword(req.Password); err != nil {
		abortDetail(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			abortDetail(c, http.StatusConflict, "Username already exists")
			return
		}
		abortDetail(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser handles PATCH /users/:id (admin only)
func UpdateUser(c *gin.Context) {
	db := config.GetDB()
	var user models.User
	if err := db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		abortDetail(c, http.StatusNotFound, "User not found")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusBadRequest, "Invalid request data")
		return
	}

	updates := make(map[string]interface{})
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			abortDetail(c, http.StatusBadRequest, "Invalid role")
			return
		}
		updates["role"] = *req.Role
	}
	if req.Password != nil {
		rehashed := models.User{}
		if err := rehashed.SetPassword(*req.Password); err != nil {
			abortDetail(c, http.StatusInternalServerError, "Failed to hash password")
			return
		}
		updates["password_hash"] = rehashed.PasswordHash
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				abortDetail(c, http.StatusConflict, "Username already exists")
				return
			}
			abortDetail(c, http.StatusInternalServerError, "Failed to update user")
			return
		}
		if err := db.First(&user, "id = ?", user.ID).Error; err != nil {
			abortDetail(c, http.StatusInternalServerError, "Failed to load user")
			return
		}
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /users/:id (admin only)
func DeleteUser(c *gin.Context) {
	db := config.GetDB()
	var user models.User
	if err := db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		abortDetail(c, http.StatusNotFound, "User not found")
		return
	}

	if err := db.Delete(&user).Error; err != nil {
		abortDetail(c, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
