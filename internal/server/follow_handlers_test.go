package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowUnfollowRoundTrip(t *testing.T) {
	_, app := newTestServer(t)
	aliceToken := registerUser(t, app, "alice")
	registerUser(t, app, "carol")

	resp, body := doJSON(t, app, http.MethodGet, "/api/follow/check/carol", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["following"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/follow/carol", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Now following carol", body["message"])

	// Following twice is a success that reports the existing edge.
	resp, body = doJSON(t, app, http.MethodPost, "/api/follow/carol", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Already following carol", body["message"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/follow/check/carol", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["following"])

	resp, _ = doJSON(t, app, http.MethodPost, "/api/unfollow/carol", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/follow/check/carol", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["following"])
}

func TestFollowRejectsSelfAndUnknown(t *testing.T) {
	_, app := newTestServer(t)
	aliceToken := registerUser(t, app, "alice")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/follow/alice", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/follow/ghost", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
