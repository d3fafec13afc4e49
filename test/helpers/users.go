package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"supportchat/internal/dto"
)

// CreateAndLoginUser registers a user through the API and logs them in,
// returning the access token and user ID. Emails get a random suffix so
// parallel tests never collide.
func CreateAndLoginUser(t *testing.T, ts *TestServer, name string, isStaff bool) (string, uint) {
	t.Helper()

	email := fmt.Sprintf("%s-%s@test.local", name, uuid.NewString()[:8])
	password := "password123"

	registerBody := map[string]interface{}{
		"name":     name,
		"email":    email,
		"password": password,
		"is_staff": isStaff,
	}
	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/auth/register", "", registerBody)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("Register failed (%d): %s", res.StatusCode, bodyStr)
	}

	loginBody := map[string]interface{}{
		"email":    email,
		"password": password,
	}
	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/auth/login", "", loginBody)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Login failed (%d): %s", res.StatusCode, bodyStr)
	}

	var login dto.LoginResponse
	if err := json.Unmarshal([]byte(bodyStr), &login); err != nil {
		t.Fatalf("Failed to parse login response: %v", err)
	}
	return login.AccessToken, login.UserID
}

// CreateAndLoginCustomer is shorthand for a non-staff user.
func CreateAndLoginCustomer(t *testing.T, ts *TestServer, name string) (string, uint) {
	t.Helper()
	return CreateAndLoginUser(t, ts, name, false)
}

// CreateAndLoginStaff is shorthand for a staff user.
func CreateAndLoginStaff(t *testing.T, ts *TestServer, name string) (string, uint) {
	t.Helper()
	return CreateAndLoginUser(t, ts, name, true)
}
