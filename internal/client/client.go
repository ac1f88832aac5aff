// Package client provides an HTTP client for the property listing REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/property-listing/internal/logging"
	"github.com/evcraddock/property-listing/internal/property"
	"github.com/evcraddock/property-listing/internal/session"
)

const defaultUserAgent = "property-listing-cli"

// Client is an HTTP client for the property listing API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is used
// as is, without request logging.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: logging.NewTransport(nil),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RegistrationResult is the response from POST /register.
type RegistrationResult struct {
	Message string `json:"message"`
}

// MutationResult is the response from a create or edit.
type MutationResult struct {
	Message string `json:"message"`
}

// CancelResult is the response from a soft delete.
type CancelResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UploadResult is the response from POST /upload_image.
type UploadResult struct {
	FilePath string `json:"filePath"`
}

// Filename returns the name to store on a property: the last path segment
// of FilePath. A path ending in a separator names a directory and yields "".
func (r UploadResult) Filename() string {
	path := strings.TrimSpace(r.FilePath)
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, `\`) {
		return ""
	}
	return property.Basename(path)
}

// msgBadCredentials is shown when login or registration is refused without
// a server message.
const msgBadCredentials = "Invalid login credentials"

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an admin and returns the raw login response.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	resp, err := c.postJSON(ctx, "/login", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, &AuthError{Status: resp.status, Message: resp.message(msgBadCredentials)}
	}

	sess, err := session.New(resp.body)
	if err != nil {
		return nil, &ServerError{Status: resp.status, Message: "Unexpected response from server"}
	}
	return sess, nil
}

// Register creates an admin account.
func (c *Client) Register(ctx context.Context, email, password string) (*RegistrationResult, error) {
	resp, err := c.postJSON(ctx, "/register", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, &AuthError{Status: resp.status, Message: resp.message(msgBadCredentials)}
	}

	var result RegistrationResult
	if len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, &result); err != nil {
			return nil, &ServerError{Status: resp.status, Message: "Unexpected response from server"}
		}
	}
	return &result, nil
}

// ListProperties returns every property, including soft-deleted ones.
// Filtering is left to the caller.
func (c *Client) ListProperties(ctx context.Context) ([]property.Property, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/get_properties", nil, "")
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, &FetchError{Status: resp.status, Message: "Failed to fetch properties"}
	}

	var props []property.Property
	if err := json.Unmarshal(resp.body, &props); err != nil {
		return nil, &TransportError{Op: "decoding properties", Err: err}
	}
	if props == nil {
		props = []property.Property{}
	}
	return props, nil
}

// GetProperty returns a single property.
func (c *Client) GetProperty(ctx context.Context, id int64) (*property.Property, error) {
	resp, err := c.send(ctx, http.MethodGet, fmt.Sprintf("/api/get_property/%d", id), nil, "")
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, &NotFoundError{ID: id}
	}

	var p property.Property
	if err := json.Unmarshal(resp.body, &p); err != nil {
		return nil, &TransportError{Op: "decoding property", Err: err}
	}
	return &p, nil
}

// CreateProperty submits a new property.
func (c *Client) CreateProperty(ctx context.Context, d property.Draft) (*MutationResult, error) {
	resp, err := c.postJSON(ctx, "/api/properties", d.Trimmed())
	if err != nil {
		return nil, err
	}
	return mutationResult(resp, "Failed to add property")
}

// EditProperty replaces an existing property.
func (c *Client) EditProperty(ctx context.Context, id int64, d property.Draft) (*MutationResult, error) {
	body, err := json.Marshal(d.Trimmed())
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	resp, err := c.send(ctx, http.MethodPut, fmt.Sprintf("/api/edit_property/%d", id), bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	return mutationResult(resp, "Failed to edit property")
}

// mutationResult maps a create/edit response. A success without a message
// is not a shape the server produces, so it is reported as an error.
func mutationResult(resp *response, fallback string) (*MutationResult, error) {
	if !resp.ok() {
		return nil, &ServerError{Status: resp.status, Message: resp.message(fallback)}
	}

	var result MutationResult
	if err := json.Unmarshal(resp.body, &result); err != nil || result.Message == "" {
		return nil, &ServerError{Status: resp.status, Message: "Unexpected response from server"}
	}
	return &result, nil
}

// CancelProperty soft-deletes a property by setting its status to 0.
// It never returns an error: failures are reported as an unsuccessful result
// so callers handle every outcome the same way.
func (c *Client) CancelProperty(ctx context.Context, id int64) CancelResult {
	failed := CancelResult{Success: false, Message: "Failed to cancel property"}

	resp, err := c.send(ctx, http.MethodPut, fmt.Sprintf("/cancel_property/%d/status", id), nil, "")
	if err != nil {
		return failed
	}

	var result CancelResult
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return failed
	}
	if !resp.ok() {
		result.Success = false
	}
	if !result.Success && result.Message == "" {
		result.Message = failed.Message
	}
	return result
}

// UploadImage uploads an image as multipart form field "image".
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &UploadError{Message: fmt.Sprintf("Failed to read image: %v", err)}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, "/upload_image", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, &UploadError{
			Status:  resp.status,
			Message: resp.message(fmt.Sprintf("HTTP Error! Status: %d", resp.status)),
		}
	}

	var result UploadResult
	if err := json.Unmarshal(resp.body, &result); err != nil || result.Filename() == "" {
		return nil, &UploadError{Status: resp.status, Message: "Image upload failed. No valid filePath returned."}
	}
	return &result, nil
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// message returns the server-supplied message from a JSON body, or fallback.
func (r *response) message(fallback string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(r.body, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return fallback
}

// postJSON performs a POST request with a JSON body.
func (c *Client) postJSON(ctx context.Context, path string, body interface{}) (*response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return c.send(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json")
}

// send executes a request and reads the whole response. Only failures to
// reach the server or read its reply are returned as errors.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*response, error) {
	op := method + " " + path

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(logging.RequestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	return &response{status: resp.StatusCode, body: respBody}, nil
}
