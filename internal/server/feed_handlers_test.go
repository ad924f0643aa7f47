package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postTitles(t *testing.T, body map[string]any) []string {
	t.Helper()
	rawPosts, ok := body["posts"].([]any)
	require.True(t, ok, "response must carry a posts array")
	titles := make([]string, 0, len(rawPosts))
	for _, rp := range rawPosts {
		post := rp.(map[string]any)
		titles = append(titles, post["title"].(string))
	}
	return titles
}

func TestGetFeed_OrderingAndModeration(t *testing.T) {
	s, app := newTestServer(t)
	registerUser(t, app, "carol")
	carolID := userIDByName(t, s, "carol")

	base := time.Now().Add(-time.Hour)
	seedPost(t, s, carolID, "carol", "oldest", base)
	seedPost(t, s, carolID, "carol", "newest", base.Add(2*time.Minute))
	seedPost(t, s, carolID, "carol", "middle", base.Add(time.Minute))
	pending := seedPost(t, s, carolID, "carol", "hidden", base.Add(3*time.Minute))
	require.NoError(t, s.db.Model(pending).Update("status", "pending").Error)

	resp, body := doJSON(t, app, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"newest", "middle", "oldest"}, postTitles(t, body))
	assert.EqualValues(t, 1, body["page"])
}

func TestGetFeed_GuestHasNoViewerState(t *testing.T) {
	s, app := newTestServer(t)
	registerUser(t, app, "carol")
	seedPost(t, s, userIDByName(t, s, "carol"), "carol", "clip", time.Now())

	resp, body := doJSON(t, app, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	post := body["posts"].([]any)[0].(map[string]any)
	assert.Equal(t, false, post["liked"])
	assert.Equal(t, false, post["isFollowing"])
}

func TestGetFeed_FollowingMode(t *testing.T) {
	s, app := newTestServer(t)
	aliceToken := registerUser(t, app, "alice")
	registerUser(t, app, "carol")
	registerUser(t, app, "dave")

	now := time.Now()
	seedPost(t, s, userIDByName(t, s, "carol"), "carol", "from-carol", now)
	seedPost(t, s, userIDByName(t, s, "dave"), "dave", "from-dave", now.Add(time.Minute))

	// Nothing followed yet: the following feed is empty.
	resp, body := doJSON(t, app, http.MethodGet, "/api/posts?feed=following", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, postTitles(t, body))

	resp, _ = doJSON(t, app, http.MethodPost, "/api/follow/carol", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The first follow shows up immediately, and only carol's posts appear.
	resp, body = doJSON(t, app, http.MethodGet, "/api/posts?feed=following", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"from-carol"}, postTitles(t, body))

	post := body["posts"].([]any)[0].(map[string]any)
	assert.Equal(t, true, post["isFollowing"])
}

func TestGetFeed_ClampsPagination(t *testing.T) {
	s, app := newTestServer(t)
	registerUser(t, app, "carol")
	carolID := userIDByName(t, s, "carol")
	for i := 0; i < 3; i++ {
		seedPost(t, s, carolID, "carol", fmt.Sprintf("clip-%d", i), time.Now().Add(time.Duration(i)*time.Second))
	}

	resp, body := doJSON(t, app, http.MethodGet, "/api/posts?page=-5&limit=9999", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 50, body["limit"])
}

func TestGetPost(t *testing.T) {
	s, app := newTestServer(t)
	registerUser(t, app, "carol")
	post := seedPost(t, s, userIDByName(t, s, "carol"), "carol", "clip", time.Now())

	resp, body := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "clip", body["title"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/posts/99999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/posts/not-a-number", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetReels_HasMore(t *testing.T) {
	s, app := newTestServer(t)
	registerUser(t, app, "carol")
	carolID := userIDByName(t, s, "carol")
	for i := 0; i < 6; i++ {
		seedPost(t, s, carolID, "carol", fmt.Sprintf("reel-%d", i), time.Now().Add(time.Duration(i)*time.Second))
	}

	resp, body := doJSON(t, app, http.MethodGet, "/api/posts/reels?limit=5", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["hasMore"])
	assert.Len(t, body["posts"].([]any), 5)

	resp, body = doJSON(t, app, http.MethodGet, "/api/posts/reels?page=2&limit=5", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["hasMore"])
	assert.Len(t, body["posts"].([]any), 1)
}
