package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRepositories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/repositories", r.URL.Path)
		assert.Equal(t, "Bearer ghp-token", r.Header.Get("Authorization"))
		assert.Equal(t, "chat backend", r.URL.Query().Get("q"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"full_name": "org/chat", "description": "a chat backend", "stargazers_count": 12},
			},
		})
	}))
	defer server.Close()

	c := NewWithBaseURL("ghp-token", server.URL)
	repos, err := c.SearchRepositories(context.Background(), "chat backend", 5)
	require.NoError(t, err)

	require.Len(t, repos, 1)
	assert.Equal(t, "org/chat", repos[0].FullName)
	assert.Equal(t, 12, repos[0].Stars)
}

func TestFileContentDecodesBase64(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/org/chat/contents/README.md", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]string{
			"content":  base64.StdEncoding.EncodeToString([]byte("# Chat\n")),
			"encoding": "base64",
		})
	}))
	defer server.Close()

	c := NewWithBaseURL("ghp-token", server.URL)
	content, err := c.FileContent(context.Background(), "org/chat", "README.md")
	require.NoError(t, err)
	assert.Equal(t, "# Chat\n", content)
}

func TestWithoutCredential(t *testing.T) {
	c := New("")
	assert.False(t, c.Available())

	_, err := c.SearchRepositories(context.Background(), "q", 1)
	assert.ErrorContains(t, err, "not configured")
}
