package e2b

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCode(t *testing.T) {
	var killed atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "e2b-key", r.Header.Get("X-API-Key"))

		switch {
		case r.Method == "POST" && r.URL.Path == "/sandboxes":
			json.NewEncoder(w).Encode(map[string]string{"sandboxID": "sb-42"})
		case r.Method == "POST" && r.URL.Path == "/sandboxes/sb-42/execute":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "python", body["language"])
			assert.Equal(t, "print('hi')", body["code"])
			json.NewEncoder(w).Encode(map[string]string{"stdout": "hi\n"})
		case r.Method == "DELETE" && r.URL.Path == "/sandboxes/sb-42":
			killed.Store(true)
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewWithBaseURL("e2b-key", server.URL)
	exec, err := c.RunCode(context.Background(), "", "print('hi')")
	require.NoError(t, err)
	assert.Equal(t, "hi\n", exec.Stdout)

	// The sandbox is torn down before RunCode returns
	assert.True(t, killed.Load())
}

func TestRunCodeWithoutCredential(t *testing.T) {
	c := New("")
	assert.False(t, c.Available())

	_, err := c.RunCode(context.Background(), "python", "print(1)")
	assert.ErrorContains(t, err, "not configured")
}

func TestRunCodeSandboxCreationFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "invalid api key"}`))
	}))
	defer server.Close()

	c := NewWithBaseURL("bad-key", server.URL)
	_, err := c.RunCode(context.Background(), "python", "print(1)")
	assert.ErrorContains(t, err, "failed to create sandbox")
}
