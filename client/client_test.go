package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Phabs974/ListePCMontage/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	session := NewSessionAt(filepath.Join(t.TempDir(), "token"))
	return New(server.URL, session)
}

func TestLoginStoresToken(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "marie", body["username"])
		assert.Equal(t, "secret123", body["password"])

		writeJSON(w, http.StatusOK, TokenResponse{AccessToken: "tok-1", TokenType: "bearer"})
	})

	api := newTestClient(t, handler)
	token, err := api.Login(context.Background(), "marie", "secret123")

	assert.NoError(t, err)
	assert.Equal(t, "tok-1", token.AccessToken)
	assert.Equal(t, "tok-1", api.Session().Token())
}

func TestRequestsCarryBearerToken(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, []models.Order{})
	})

	api := newTestClient(t, handler)
	assert.NoError(t, api.Session().SetToken("tok-1"))

	_, err := api.ListOrders(context.Background(), ListOrdersOptions{})
	assert.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestErrorDetailIsSurfaced(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"detail": "Invoice already exists"})
	})

	api := newTestClient(t, handler)
	_, err := api.CreateOrder(context.Background(), OrderDraft{InvoiceNumber: "F-1"})

	assert.EqualError(t, err, "Invoice already exists")
	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestErrorFallsBackToGenericMessage(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "no body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "non JSON body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("<html>bad gateway</html>"))
			},
		},
		{
			name: "JSON without detail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestClient(t, tt.handler)
			_, err := api.Me(context.Background())
			assert.EqualError(t, err, "Erreur API")
		})
	}
}

func TestConnectionFailureIsGenericError(t *testing.T) {
	session := NewSessionAt(filepath.Join(t.TempDir(), "token"))
	api := New("http://127.0.0.1:1", session)

	_, err := api.Me(context.Background())
	assert.EqualError(t, err, "Erreur API")
}

func TestLoadUserClearsTokenOnFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token"})
	})

	api := newTestClient(t, handler)
	assert.NoError(t, api.Session().SetToken("expired"))

	_, err := api.LoadUser(context.Background())
	assert.Error(t, err)
	assert.Empty(t, api.Session().Token(), "an unusable token must be dropped")
}

func TestLoadUserKeepsTokenOnSuccess(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.User{Username: "marie", Role: models.RoleVendor})
	})

	api := newTestClient(t, handler)
	assert.NoError(t, api.Session().SetToken("tok-1"))

	user, err := api.LoadUser(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "marie", user.Username)
	assert.Equal(t, "tok-1", api.Session().Token())
}

func TestListOrdersSendsFilters(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "to_prepare", r.URL.Query().Get("view"))
		assert.Equal(t, "dupont", r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, []models.Order{})
	})

	api := newTestClient(t, handler)
	_, err := api.ListOrders(context.Background(), ListOrdersOptions{View: models.ViewToPrepare, Query: "dupont"})
	assert.NoError(t, err)
}

func TestImportInvoiceUploadsMultipart(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/import/invoice", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")

		file, header, err := r.FormFile("file")
		assert.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "facture.pdf", header.Filename)

		writeJSON(w, http.StatusOK, models.ImportResult{Status: models.ImportCreated})
	})

	api := newTestClient(t, handler)
	result, err := api.ImportInvoice(context.Background(), "facture.pdf", strings.NewReader("%PDF-1.4 fake"))

	assert.NoError(t, err)
	assert.Equal(t, models.ImportCreated, result.Status)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
