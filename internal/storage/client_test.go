package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestListObjects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/list/workers", r.URL.Path)
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "t1/sello", body["prefix"])
		assert.Equal(t, map[string]any{"column": "name", "order": "asc"}, body["sortBy"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"1","name":".emptyFolderPlaceholder"},
			{"id":"2","name":"a.png","metadata":{"size":1200}},
			{"id":"3","name":"b.png"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "service-key", 5*time.Second, zap.NewNop())
	objects, err := client.ListObjects(context.Background(), "workers", "t1/sello/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "a.png", objects[0].Name)
	assert.Equal(t, "b.png", objects[1].Name)
}

func TestListObjects_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Bucket not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", 5*time.Second, zap.NewNop())
	_, err := client.ListObjects(context.Background(), "missing", "t1/sello/")
	require.Error(t, err)
	assert.True(t, apperrors.IsRemote(err))
	assert.Contains(t, err.Error(), "Bucket not found")
}

func TestCreateSignedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/sign/workers/t1/sello/mi%20sello.png", r.URL.EscapedPath())

		var body signRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 3600, body.ExpiresIn)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"signedURL":"/object/sign/workers/t1/sello/mi%20sello.png?token=abc"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "k", 5*time.Second, zap.NewNop())
	u, err := client.CreateSignedURL(context.Background(), "workers", "t1/sello/mi sello.png", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/storage/v1/object/sign/workers/t1/sello/mi%20sello.png?token=abc", u)
}

func TestCreateSignedURL_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(server.URL, "k", 5*time.Second, zap.NewNop())
	_, err := client.CreateSignedURL(ctx, "workers", "t1/sello/x.png", time.Hour)
	require.Error(t, err)
	assert.True(t, apperrors.IsRemote(err))
}
