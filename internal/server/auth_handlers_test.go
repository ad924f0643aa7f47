package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Validation(t *testing.T) {
	_, app := newTestServer(t)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
	}{
		{"Success", map[string]string{"username": "alice", "password": "SecurePass12!@"}, http.StatusCreated},
		{"Missing Password", map[string]string{"username": "bob"}, http.StatusBadRequest},
		{"Weak Password", map[string]string{"username": "bob", "password": "short"}, http.StatusBadRequest},
		{"Bad Username", map[string]string{"username": "a!", "password": "SecurePass12!@"}, http.StatusBadRequest},
		{"Duplicate Username", map[string]string{"username": "alice", "password": "SecurePass12!@"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestLogin(t *testing.T) {
	_, app := newTestServer(t)
	registerUser(t, app, "alice")

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "SecurePass12!@",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "WrongPass12!@",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "nobody", "password": "SecurePass12!@",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_RevokesAllTokens(t *testing.T) {
	_, app := newTestServer(t)
	token := registerUser(t, app, "alice")

	// A second login issues a second token at the same epoch.
	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "SecurePass12!@",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	secondToken := body["token"].(string)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/chats", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Both tokens carry the old epoch and are dead.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/chats", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/chats", secondToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Logging back in works and issues a live token.
	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "SecurePass12!@",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/chats", body["token"].(string), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChangePassword(t *testing.T) {
	_, app := newTestServer(t)
	token := registerUser(t, app, "alice")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "WrongPass12!@", "newPassword": "NewSecurePass34!@",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "SecurePass12!@", "newPassword": "NewSecurePass34!@",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	freshToken := body["token"].(string)
	require.NotEmpty(t, freshToken)

	// The pre-change token is revoked; the returned one is live.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/chats", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/chats", freshToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Only the new password logs in.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "SecurePass12!@",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "NewSecurePass34!@",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired_RejectsGarbage(t *testing.T) {
	_, app := newTestServer(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/chats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/chats", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSTicket_SingleUse(t *testing.T) {
	_, app := newTestServerWithRedis(t, withRedis(t))
	token := registerUser(t, app, "alice")

	resp, body := doJSON(t, app, http.MethodPost, "/api/ws/ticket", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ticket, _ := body["ticket"].(string)
	require.NotEmpty(t, ticket)

	// The ticket authenticates once.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/chats?ticket="+ticket, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A second use is rejected; the ticket is consumed on first use.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/chats?ticket="+ticket, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSTicket_RevokedByLogout(t *testing.T) {
	_, app := newTestServerWithRedis(t, withRedis(t))
	token := registerUser(t, app, "alice")

	resp, body := doJSON(t, app, http.MethodPost, "/api/ws/ticket", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ticket, _ := body["ticket"].(string)
	require.NotEmpty(t, ticket)

	// Logging out bumps the revocation epoch while the ticket is still live.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/chats?ticket="+ticket, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSTicket_WorksWithoutRedis(t *testing.T) {
	_, app := newTestServer(t)
	token := registerUser(t, app, "alice")

	// Without Redis, tickets come from the in-process store and are still
	// single-use.
	resp, body := doJSON(t, app, http.MethodPost, "/api/ws/ticket", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ticket, _ := body["ticket"].(string)
	require.NotEmpty(t, ticket)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/chats?ticket="+ticket, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/chats?ticket="+ticket, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
