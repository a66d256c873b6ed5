// Package vault is a minimal Vault API client covering what the secrets
// bootstrap needs: health probing, the kubernetes auth method, ACL policies,
// KV v2 mounts and static secret material.
package vault

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anhhoangdev/ldpctl/internal/util/retry"
)

// ErrNotFound is returned when a path has no secret or configuration.
var ErrNotFound = errors.New("not found")

// Client is a minimal Vault API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithInsecureTLS skips certificate verification. Meant for clusters where
// Vault serves a self-signed certificate and no CA bundle is distributed.
func WithInsecureTLS() Option {
	return func(c *Client) {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		}
	}
}

// NewClient creates a new Vault API client.
func NewClient(addr, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(addr, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HealthStatus is the subset of /sys/health the orchestrator cares about.
type HealthStatus struct {
	Initialized bool   `json:"initialized"`
	Sealed      bool   `json:"sealed"`
	Standby     bool   `json:"standby"`
	Version     string `json:"version"`
}

// Health probes /sys/health. Vault encodes state in the status code (200
// active, 429 standby, 501 uninitialized, 503 sealed) but returns the same
// body for all of them, so any parseable response is a successful probe.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/sys/health?standbyok=true", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read health response: %w", err)
	}

	var status HealthStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("parse health response: %w (status %d)", err, resp.StatusCode)
	}
	return &status, nil
}

// EnableKubernetesAuth mounts the kubernetes auth method at auth/kubernetes.
// An already-mounted method is not an error.
func (c *Client) EnableKubernetesAuth(ctx context.Context) error {
	payload := map[string]string{"type": "kubernetes"}

	err := c.write(ctx, "/v1/sys/auth/kubernetes", payload)
	if isAlreadyInUse(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enable kubernetes auth: %w", err)
	}
	return nil
}

// KubernetesAuthConfig points the kubernetes auth method at the cluster's
// token review endpoint.
type KubernetesAuthConfig struct {
	Host             string `json:"kubernetes_host"`
	CACert           string `json:"kubernetes_ca_cert,omitempty"`
	TokenReviewerJWT string `json:"token_reviewer_jwt,omitempty"`
}

// ConfigureKubernetesAuth writes the auth method's cluster configuration.
func (c *Client) ConfigureKubernetesAuth(ctx context.Context, cfg KubernetesAuthConfig) error {
	if err := c.write(ctx, "/v1/auth/kubernetes/config", cfg); err != nil {
		return fmt.Errorf("configure kubernetes auth: %w", err)
	}
	return nil
}

// WritePolicy creates or updates an ACL policy.
func (c *Client) WritePolicy(ctx context.Context, name, rules string) error {
	payload := map[string]string{"policy": rules}

	if err := c.write(ctx, "/v1/sys/policies/acl/"+name, payload); err != nil {
		return fmt.Errorf("write policy %s: %w", name, err)
	}
	return nil
}

// KubernetesRole binds service accounts to policies.
type KubernetesRole struct {
	BoundServiceAccountNames      []string `json:"bound_service_account_names"`
	BoundServiceAccountNamespaces []string `json:"bound_service_account_namespaces"`
	Policies                      []string `json:"policies"`
	TTL                           string   `json:"ttl,omitempty"`
}

// WriteKubernetesRole creates or updates a role on the kubernetes auth method.
func (c *Client) WriteKubernetesRole(ctx context.Context, name string, role KubernetesRole) error {
	if err := c.write(ctx, "/v1/auth/kubernetes/role/"+name, role); err != nil {
		return fmt.Errorf("write kubernetes role %s: %w", name, err)
	}
	return nil
}

// EnableKVEngine mounts a KV v2 secrets engine at the given path. An existing
// mount at the path is not an error.
func (c *Client) EnableKVEngine(ctx context.Context, path string) error {
	payload := map[string]any{
		"type":    "kv",
		"options": map[string]string{"version": "2"},
	}

	err := c.write(ctx, "/v1/sys/mounts/"+path, payload)
	if isAlreadyInUse(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enable kv engine at %s: %w", path, err)
	}
	return nil
}

// WriteSecret stores key/value material at mount/path using the KV v2 data
// envelope.
func (c *Client) WriteSecret(ctx context.Context, mount, path string, data map[string]any) error {
	payload := map[string]any{"data": data}

	if err := c.write(ctx, fmt.Sprintf("/v1/%s/data/%s", mount, path), payload); err != nil {
		return fmt.Errorf("write secret %s/%s: %w", mount, path, err)
	}
	return nil
}

// ReadSecret fetches key/value material from mount/path. Returns ErrNotFound
// when nothing is stored there.
func (c *Client) ReadSecret(ctx context.Context, mount, path string) (map[string]any, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/%s/data/%s", mount, path), nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			Data map[string]any `json:"data"`
		} `json:"data"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("read secret %s/%s: %w", mount, path, err)
	}
	return resp.Data.Data, nil
}

// APIError is a non-2xx Vault response.
type APIError struct {
	StatusCode int
	Errors     []string `json:"errors"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("vault API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("vault API error (status %d): %s", e.StatusCode, strings.Join(e.Errors, "; "))
}

// Classify maps a Vault client error onto a retry class. Auth and request
// shape problems are fatal; everything else, sealed or unreachable servers
// included, is worth another attempt.
func Classify(err error) retry.Class {
	if err == nil {
		return retry.ClassTransient
	}
	if retry.IsFatal(err) {
		return retry.ClassFatal
	}
	if errors.Is(err, ErrNotFound) {
		return retry.ClassFatal
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusBadRequest,
			apiErr.StatusCode == http.StatusForbidden,
			apiErr.StatusCode == http.StatusMethodNotAllowed:
			return retry.ClassFatal
		}
	}
	return retry.ClassTransient
}

// write POSTs a JSON payload and discards the response body.
func (c *Client) write(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("X-Vault-Token", c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parse response: %w (status %d)", err, resp.StatusCode)
		}
	}
	return nil
}

// isAlreadyInUse matches the 400 Vault returns when mounting over an existing
// auth method or secrets engine.
func isAlreadyInUse(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		return false
	}
	for _, msg := range apiErr.Errors {
		if strings.Contains(msg, "already in use") || strings.Contains(msg, "existing mount") {
			return true
		}
	}
	return false
}
