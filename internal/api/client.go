// ABOUTME: HTTP client for the plugin backend API.
// ABOUTME: One method per endpoint, JSON envelope parsing, typed errors.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pixeldeck/pixeldeck/internal/schema"
	"github.com/pixeldeck/pixeldeck/plugins/core"
)

// Error is a backend failure, carrying whatever the envelope reported.
type Error struct {
	StatusCode       int
	Message          string
	ValidationErrors []string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Client talks to the plugin backend.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a client for the backend at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// envelope is the wire shape every endpoint responds with.
type envelope struct {
	Status           string          `json:"status"`
	Message          string          `json:"message"`
	Data             json.RawMessage `json:"data"`
	ValidationErrors []string        `json:"validation_errors"`
}

// Schema fetches a plugin's configuration schema.
func (c *Client) Schema(ctx context.Context, pluginID string) (*schema.Node, error) {
	env, err := c.get(ctx, "/plugins/schema?plugin_id="+url.QueryEscape(pluginID))
	if err != nil {
		return nil, err
	}
	var data struct {
		Schema *schema.Node `json:"schema"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("malformed schema response: %w", err)
	}
	return data.Schema, nil
}

// Config fetches a plugin's saved configuration.
func (c *Client) Config(ctx context.Context, pluginID string) (map[string]interface{}, error) {
	env, err := c.get(ctx, "/plugins/config?plugin_id="+url.QueryEscape(pluginID))
	if err != nil {
		return nil, err
	}
	var config map[string]interface{}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &config); err != nil {
			return nil, fmt.Errorf("malformed config response: %w", err)
		}
	}
	return config, nil
}

// SaveConfig persists a plugin's configuration. Validation failures come back
// as an *Error carrying the per-field list.
func (c *Client) SaveConfig(ctx context.Context, pluginID string, config map[string]interface{}) error {
	_, err := c.post(ctx, "/plugins/config", map[string]interface{}{
		"plugin_id": pluginID,
		"config":    config,
	})
	return err
}

// ResetConfig restores a plugin's configuration to schema defaults and
// returns the new configuration.
func (c *Client) ResetConfig(ctx context.Context, pluginID string, preserveSecrets bool) (map[string]interface{}, error) {
	env, err := c.post(ctx, "/plugins/config/reset", map[string]interface{}{
		"plugin_id":        pluginID,
		"preserve_secrets": preserveSecrets,
	})
	if err != nil {
		return nil, err
	}
	var data struct {
		Config map[string]interface{} `json:"config"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("malformed reset response: %w", err)
	}
	return data.Config, nil
}

// Installed fetches the installed-plugin listing.
func (c *Client) Installed(ctx context.Context) ([]core.PluginRecord, error) {
	env, err := c.get(ctx, "/plugins/installed")
	if err != nil {
		return nil, err
	}
	var data struct {
		Plugins []core.PluginRecord `json:"plugins"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("malformed installed response: %w", err)
	}
	return data.Plugins, nil
}

// Toggle enables or disables a plugin.
func (c *Client) Toggle(ctx context.Context, pluginID string, enabled bool) error {
	_, err := c.post(ctx, "/plugins/toggle", map[string]interface{}{
		"plugin_id": pluginID,
		"enabled":   enabled,
	})
	return err
}

// Install installs a plugin. Any 2xx response is terminal.
func (c *Client) Install(ctx context.Context, pluginID string) error {
	_, err := c.post(ctx, "/plugins/install", map[string]interface{}{"plugin_id": pluginID})
	return err
}

// Update updates a plugin. Any 2xx response is terminal.
func (c *Client) Update(ctx context.Context, pluginID string) error {
	_, err := c.post(ctx, "/plugins/update", map[string]interface{}{"plugin_id": pluginID})
	return err
}

// Uninstall requests plugin removal. When the backend chose to do the work
// asynchronously the returned operation id is non-empty and must be polled.
func (c *Client) Uninstall(ctx context.Context, pluginID string) (string, error) {
	env, err := c.post(ctx, "/plugins/uninstall", map[string]interface{}{"plugin_id": pluginID})
	if err != nil {
		return "", err
	}
	if len(env.Data) == 0 {
		return "", nil
	}
	var data struct {
		OperationID string `json:"operation_id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", fmt.Errorf("malformed uninstall response: %w", err)
	}
	return data.OperationID, nil
}

// Operation fetches the current state of an asynchronous operation.
func (c *Client) Operation(ctx context.Context, id string) (*core.Operation, error) {
	env, err := c.get(ctx, "/plugins/operation/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var op core.Operation
	if err := json.Unmarshal(env.Data, &op); err != nil {
		return nil, fmt.Errorf("malformed operation response: %w", err)
	}
	op.ID = id
	return &op, nil
}

// UploadAsset uploads one file for a plugin and returns its stored path.
func (c *Client) UploadAsset(ctx context.Context, pluginID, filename string, content io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("plugin_id", pluginID); err != nil {
		return "", err
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/plugins/assets/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", parseError(resp.StatusCode, raw)
	}

	var uploaded struct {
		UploadedFiles []struct {
			Path string `json:"path"`
		} `json:"uploaded_files"`
	}
	if err := json.Unmarshal(raw, &uploaded); err != nil || len(uploaded.UploadedFiles) == 0 {
		return "", fmt.Errorf("malformed upload response")
	}
	return uploaded.UploadedFiles[0].Path, nil
}

func (c *Client) get(ctx context.Context, path string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed response body: %w", err)
	}
	return &env, nil
}

// parseError pulls message/validation_errors out of an error body when
// present, and falls back to the transport status otherwise.
func parseError(status int, raw []byte) error {
	apiErr := &Error{StatusCode: status}
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		apiErr.Message = env.Message
		apiErr.ValidationErrors = env.ValidationErrors
	}
	return apiErr
}
