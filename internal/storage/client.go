// Package storage is a small client for the hosted object storage REST API
// (Supabase Storage): folder listing and signed download URLs.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// placeholder object the storage service creates for empty folders
const emptyFolderPlaceholder = ".emptyFolderPlaceholder"

// Object one entry of a folder listing.
type Object struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type listRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	SortBy struct {
		Column string `json:"column"`
		Order  string `json:"order"`
	} `json:"sortBy"`
}

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

// errorResponse body returned by the storage service on 4xx/5xx.
type errorResponse struct {
	StatusCode string `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// Client storage REST client.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	logger     *zap.Logger
}

// NewClient creates a client for the project at baseURL authenticated with serviceKey.
func NewClient(baseURL, serviceKey string, timeout time.Duration, logger *zap.Logger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	client := resty.New().
		SetBaseURL(baseURL+"/storage/v1").
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("apikey", serviceKey).
		SetAuthToken(serviceKey)

	return &Client{
		httpClient: client,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// ListObjects lists the objects directly under prefix, ordered by name ascending.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error) {
	body := listRequest{Prefix: strings.TrimSuffix(prefix, "/"), Limit: 100}
	body.SortBy.Column = "name"
	body.SortBy.Order = "asc"

	var objects []Object
	var apiErr errorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("bucket", bucket).
		SetBody(body).
		SetResult(&objects).
		SetError(&apiErr).
		Post("/object/list/{bucket}")
	if err != nil {
		c.logger.Error("Storage list failed", zap.String("bucket", bucket), zap.String("prefix", prefix), zap.Error(err))
		return nil, apperrors.Remote("storage list", err)
	}
	if resp.IsError() {
		err := statusError(resp.StatusCode(), apiErr)
		c.logger.Error("Storage list returned error", zap.String("bucket", bucket), zap.String("prefix", prefix), zap.Error(err))
		return nil, apperrors.Remote("storage list", err)
	}

	out := make([]Object, 0, len(objects))
	for _, o := range objects {
		if o.Name == "" || o.Name == emptyFolderPlaceholder {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// CreateSignedURL returns an absolute URL granting read access to path for ttl.
func (c *Client) CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	var result signResponse
	var apiErr errorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("bucket", bucket).
		SetRawPathParam("path", escapePath(path)).
		SetBody(signRequest{ExpiresIn: int(ttl / time.Second)}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/object/sign/{bucket}/{path}")
	if err != nil {
		c.logger.Error("Storage sign failed", zap.String("bucket", bucket), zap.String("path", path), zap.Error(err))
		return "", apperrors.Remote("storage sign", err)
	}
	if resp.IsError() {
		err := statusError(resp.StatusCode(), apiErr)
		c.logger.Error("Storage sign returned error", zap.String("bucket", bucket), zap.String("path", path), zap.Error(err))
		return "", apperrors.Remote("storage sign", err)
	}
	if result.SignedURL == "" {
		return "", apperrors.Remote("storage sign", fmt.Errorf("empty signedURL for %s", path))
	}

	if strings.HasPrefix(result.SignedURL, "http://") || strings.HasPrefix(result.SignedURL, "https://") {
		return result.SignedURL, nil
	}
	return c.baseURL + "/storage/v1" + result.SignedURL, nil
}

func statusError(status int, body errorResponse) error {
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = "unexpected response"
	}
	return fmt.Errorf("status %d: %s", status, msg)
}

// escapePath escapes each segment of an object path, keeping the separators.
func escapePath(p string) string {
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
