package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"supportchat/internal/dto"
	chatmodels "supportchat/internal/models/chat"
	"supportchat/test/helpers"
)

func openRoomAs(t *testing.T, ts *helpers.TestServer, token string, roomID uint) {
	t.Helper()
	res, bodyStr := ts.SendRequest(t, "GET", fmt.Sprintf("/api/v1/chat/rooms/%d", roomID), token, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Open room failed (%d): %s", res.StatusCode, bodyStr)
	}
}

func unseenCount(t *testing.T, ts *helpers.TestServer, token string) int64 {
	t.Helper()
	res, bodyStr := ts.SendRequest(t, "GET", "/api/v1/chat/unseen-count", token, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Unseen count failed (%d): %s", res.StatusCode, bodyStr)
	}
	var out dto.UnseenCountResponse
	if err := json.Unmarshal([]byte(bodyStr), &out); err != nil {
		t.Fatalf("Failed to parse unseen count: %v", err)
	}
	return out.Count
}

func TestNotifications_CounterpartTargeting(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)

	customerToken, _ := helpers.CreateAndLoginCustomer(t, ts, "customer-notif")
	staffToken, _ := helpers.CreateAndLoginStaff(t, ts, "staff-notif")

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/chat/rooms", customerToken, map[string]interface{}{
		"subject":         "Notification targeting",
		"initial_message": "Hello, anyone there?",
	})
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	var room chatmodels.Room
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &room))
	messagesPath := fmt.Sprintf("/api/v1/chat/rooms/%d/messages", room.ID)

	// Unassigned room: the initial message notified nobody.
	assert.Equal(t, int64(0), unseenCount(t, ts, staffToken))

	openRoomAs(t, ts, staffToken, room.ID)

	// The join system message notifies nobody either.
	assert.Equal(t, int64(0), unseenCount(t, ts, customerToken))

	// Each customer message after assignment notifies the manager.
	res, _ = ts.SendRequest(t, "POST", messagesPath, customerToken, map[string]interface{}{
		"content": "Still waiting.",
	})
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, int64(1), unseenCount(t, ts, staffToken))

	// And each staff message notifies the customer.
	res, _ = ts.SendRequest(t, "POST", messagesPath, staffToken, map[string]interface{}{
		"content": "Here now.",
	})
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, int64(1), unseenCount(t, ts, customerToken))
}

func TestNotifications_OpenRoomClearsUnseen(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)

	customerToken, _ := helpers.CreateAndLoginCustomer(t, ts, "customer-clear")
	staffToken, _ := helpers.CreateAndLoginStaff(t, ts, "staff-clear")

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/chat/rooms", customerToken, map[string]interface{}{
		"subject": "Clearing",
	})
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	var room chatmodels.Room
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &room))
	messagesPath := fmt.Sprintf("/api/v1/chat/rooms/%d/messages", room.ID)

	openRoomAs(t, ts, staffToken, room.ID)

	for i := 0; i < 3; i++ {
		res, _ = ts.SendRequest(t, "POST", messagesPath, staffToken, map[string]interface{}{
			"content": fmt.Sprintf("update %d", i),
		})
		assert.Equal(t, http.StatusCreated, res.StatusCode)
	}
	assert.Equal(t, int64(3), unseenCount(t, ts, customerToken))

	// Opening the room marks everything in it read and seen.
	openRoomAs(t, ts, customerToken, room.ID)
	assert.Equal(t, int64(0), unseenCount(t, ts, customerToken))

	// Opening again stays at zero.
	openRoomAs(t, ts, customerToken, room.ID)
	assert.Equal(t, int64(0), unseenCount(t, ts, customerToken))
}

func TestNotifications_IsolatedBetweenUsers(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)

	firstCustomer, _ := helpers.CreateAndLoginCustomer(t, ts, "customer-iso-a")
	secondCustomer, _ := helpers.CreateAndLoginCustomer(t, ts, "customer-iso-b")
	staffToken, _ := helpers.CreateAndLoginStaff(t, ts, "staff-iso")

	for _, token := range []string{firstCustomer, secondCustomer} {
		res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/chat/rooms", token, map[string]interface{}{
			"subject": "Isolation",
		})
		assert.Equal(t, http.StatusCreated, res.StatusCode)
		var room chatmodels.Room
		assert.NoError(t, json.Unmarshal([]byte(bodyStr), &room))

		openRoomAs(t, ts, staffToken, room.ID)
		res, _ = ts.SendRequest(t, "POST", fmt.Sprintf("/api/v1/chat/rooms/%d/messages", room.ID), staffToken, map[string]interface{}{
			"content": "Reply for this room only.",
		})
		assert.Equal(t, http.StatusCreated, res.StatusCode)
	}

	// Each customer sees exactly their own notification.
	assert.Equal(t, int64(1), unseenCount(t, ts, firstCustomer))
	assert.Equal(t, int64(1), unseenCount(t, ts, secondCustomer))
}
