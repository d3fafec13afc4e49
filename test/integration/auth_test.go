package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"supportchat/internal/dto"
)

func TestAuth_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	email := fmt.Sprintf("alice-%s@test.local", uuid.NewString()[:8])

	registerBody := map[string]interface{}{
		"name":     "Alice",
		"email":    email,
		"password": "password123",
	}
	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/auth/register", "", registerBody)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Contains(t, bodyStr, email)
	assert.NotContains(t, bodyStr, "password123", "Password must never appear in a response")

	loginBody := map[string]interface{}{
		"email":    email,
		"password": "password123",
	}
	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/auth/login", "", loginBody)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var login dto.LoginResponse
	err := json.Unmarshal([]byte(bodyStr), &login)
	assert.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "Alice", login.Name)
	assert.False(t, login.IsStaff)
}

func TestAuth_DuplicateEmail(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	email := fmt.Sprintf("bob-%s@test.local", uuid.NewString()[:8])

	registerBody := map[string]interface{}{
		"name":     "Bob",
		"email":    email,
		"password": "password123",
	}
	res, _ := ts.SendRequest(t, "POST", "/api/v1/auth/register", "", registerBody)
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/auth/register", "", registerBody)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, bodyStr, "ALREADY_EXISTS")
}

func TestAuth_WrongPassword(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	email := fmt.Sprintf("carol-%s@test.local", uuid.NewString()[:8])

	registerBody := map[string]interface{}{
		"name":     "Carol",
		"email":    email,
		"password": "password123",
	}
	res, _ := ts.SendRequest(t, "POST", "/api/v1/auth/register", "", registerBody)
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	loginBody := map[string]interface{}{
		"email":    email,
		"password": "wrong-password",
	}
	res, _ = ts.SendRequest(t, "POST", "/api/v1/auth/login", "", loginBody)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAuth_ProtectedRouteRequiresToken(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)

	res, _ := ts.SendRequest(t, "GET", "/api/v1/chat/rooms", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
