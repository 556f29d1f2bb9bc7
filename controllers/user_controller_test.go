package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Phabs974/ListePCMontage/models"
)

func usersRouter(user *models.User) *gin.Engine {
	router := setupTestRouter()
	group := router.Group("/users", asUser(user))
	group.GET("", ListUsers)
	group.POST("", CreateUser)
	group.PATCH("/:id", UpdateUser)
	group.DELETE("/:id", DeleteUser)
	return router
}

func TestListUsersSortedByUsername(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "boss", models.RoleAdmin)
	createTestUser(t, db, "marie", models.RoleVendor)
	createTestUser(t, db, "alex", models.RoleBuilder)
	router := usersRouter(admin)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var users []models.User
	decodeBody(t, w, &users)
	usernames := make([]string, 0, len(users))
	for _, u := range users {
		usernames = append(usernames, u.Username)
	}
	assert.Equal(t, []string{"alex", "boss", "marie"}, usernames)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "boss", models.RoleAdmin)
	router := usersRouter(admin)

	body := map[string]string{"username": "kevin", "password": "secret123", "role": "BUILDER"}
	req := jsonRequest(t, http.MethodPost, "/users", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

	var created models.User
	decodeBody(t, w, &created)
	assert.Equal(t, "kevin", created.Username)
	assert.Equal(t, models.RoleBuilder, created.Role)

	var stored models.User
	assert.NoError(t, db.Where("username = ?", "kevin").First(&stored).Error)
	assert.True(t, stored.CheckPassword("secret123"))
}

func TestCreateUserRejections(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "boss", models.RoleAdmin)
	createTestUser(t, db, "marie", models.RoleVendor)
	router := usersRouter(admin)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
		expectedDetail string
	}{
		{
			name:           "duplicate username",
			body:           map[string]string{"username": "marie", "password": "secret123", "role": "VENDOR"},
			expectedStatus: http.StatusConflict,
			expectedDetail: "Username already exists",
		},
		{
			name:           "invalid role",
			body:           map[string]string{"username": "kevin", "password": "secret123", "role": "SUPERUSER"},
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Invalid role",
		},
		{
			name:           "missing password",
			body:           map[string]string{"username": "kevin", "role": "VENDOR"},
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Invalid request data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(t, http.MethodPost, "/users", tt.body)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var response map[string]interface{}
			decodeBody(t, w, &response)
			assert.Equal(t, tt.expectedDetail, response["detail"])
		})
	}
}

func TestUpdateUser(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "boss", models.RoleAdmin)
	target := createTestUser(t, db, "marie", models.RoleVendor)
	router := usersRouter(admin)

	body := map[string]string{"role": "ADMIN", "password": "newsecret"}
	req := jsonRequest(t, http.MethodPatch, "/users/"+target.ID.String(), body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

	var updated models.User
	decodeBody(t, w, &updated)
	assert.Equal(t, "marie", updated.Username)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	var stored models.User
	assert.NoError(t, db.First(&stored, "id = ?", target.ID).Error)
	assert.True(t, stored.CheckPassword("newsecret"))
	assert.False(t, stored.CheckPassword("secret123"))
}

func TestUpdateUserInvalidRole(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "boss", models.RoleAdmin)
	target := createTestUser(t, db, "marie", models.RoleVendor)
	router := usersRouter(admin)

	req := jsonRequest(t, http.MethodPatch, "/users/"+target.ID.String(), map[string]string{"role": "SUPERUSER"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUserNotFound(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "boss", models.RoleAdmin)
	router := usersRouter(admin)

	req := jsonRequest(t, http.MethodPatch, "/users/7b7f4f2e-0000-0000-0000-000000000000", map[string]string{"role": "ADMIN"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUser(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "boss", models.RoleAdmin)
	target := createTestUser(t, db, "marie", models.RoleVendor)
	router := usersRouter(admin)

	req := httptest.NewRequest(http.MethodDelete, "/users/"+target.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	decodeBody(t, w, &response)
	assert.Equal(t, "deleted", response["status"])

	var count int64
	db.Model(&models.User{}).Where("id = ?", target.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	req = httptest.NewRequest(http.MethodDelete, "/users/"+target.ID.String(), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
