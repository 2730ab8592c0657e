// Package api is the REST client for the Hive chat endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "github.com/saithsab877/hivechat/internal/errors"
	"github.com/saithsab877/hivechat/internal/logging"
	"github.com/saithsab877/hivechat/internal/models"
	"github.com/saithsab877/hivechat/internal/telemetry"
)

// maxBodySize bounds how much of a response is read into memory
const maxBodySize = 8 << 20

// ClientInterface is the set of REST operations the views depend on
type ClientInterface interface {
	ChatHistory(ctx context.Context, chatID string, limit, offset int) ([]models.ChatMessage, error)
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)
	ListChats(ctx context.Context, workspaceID string) ([]models.Chat, error)
	SendMessage(ctx context.Context, req models.SendRequest) (*models.ChatMessage, error)
	UpdateChatTitle(ctx context.Context, chatID, title string) (*models.Chat, error)
	ChatLogs(ctx context.Context, chatID string, limit, offset int) (*models.LogsPage, error)
	BountyCards(ctx context.Context, workspaceUUID string) ([]models.BountyCard, error)
	Close()
}

// Client talks to the Hive REST API
type Client struct {
	httpClient tls_client.HttpClient
	baseURL    string
	token      string
	timeout    int
	logger     *slog.Logger
	tel        *telemetry.Telemetry
	mu         sync.RWMutex
	closed     bool
}

var _ ClientInterface = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the TLS client, mainly for tests
func WithHTTPClient(hc tls_client.HttpClient) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithTelemetry sets the tracer and instruments used for requests
func WithTelemetry(t *telemetry.Telemetry) ClientOption {
	return func(c *Client) {
		c.tel = t
	}
}

// WithTimeoutSeconds sets the request timeout of the default TLS client
func WithTimeoutSeconds(seconds int) ClientOption {
	return func(c *Client) {
		c.timeout = seconds
	}
}

// NewClient creates a client for baseURL authenticating with token
func NewClient(baseURL, token string, opts ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, apierrors.NewAuthError("")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}

	client := &Client{
		baseURL: baseURL,
		token:   token,
		timeout: 60,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(client.timeout),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	client.logger = logging.OrDiscard(client.logger)
	client.tel = telemetry.OrNoop(client.tel)

	return client, nil
}

// Close releases idle connections. Further calls fail.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.httpClient.CloseIdleConnections()
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// BaseURL returns the server URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ChatHistory fetches the stored messages of a chat
func (c *Client) ChatHistory(ctx context.Context, chatID string, limit, offset int) ([]models.ChatMessage, error) {
	q := pageQuery(limit, offset)
	var out []models.ChatMessage
	if err := c.doEnvelope(ctx, "load chat history", fhttp.MethodGet, models.PathChatHistory+url.PathEscape(chatID), q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetChat fetches a chat's metadata
func (c *Client) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	var out models.Chat
	if err := c.doEnvelope(ctx, "get chat", fhttp.MethodGet, models.PathChat+url.PathEscape(chatID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListChats fetches the chats of a workspace
func (c *Client) ListChats(ctx context.Context, workspaceID string) ([]models.Chat, error) {
	q := url.Values{}
	q.Set("workspace_id", workspaceID)
	var out []models.Chat
	if err := c.doEnvelope(ctx, "list chats", fhttp.MethodGet, models.PathChats, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts a user message; the server answers with the stored message
func (c *Client) SendMessage(ctx context.Context, req models.SendRequest) (*models.ChatMessage, error) {
	if req.ContextTags == nil {
		req.ContextTags = []string{}
	}
	var out models.ChatMessage
	if err := c.doEnvelope(ctx, "send message", fhttp.MethodPost, models.PathSend, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateChatTitle renames a chat
func (c *Client) UpdateChatTitle(ctx context.Context, chatID, title string) (*models.Chat, error) {
	body := map[string]string{"title": title}
	var out models.Chat
	if err := c.doEnvelope(ctx, "update chat title", fhttp.MethodPut, models.PathChat+url.PathEscape(chatID), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatLogs fetches one page of historic log records for a chat
func (c *Client) ChatLogs(ctx context.Context, chatID string, limit, offset int) (*models.LogsPage, error) {
	q := pageQuery(limit, offset)
	var out models.LogsPage
	if err := c.doEnvelope(ctx, "load chat logs", fhttp.MethodGet, models.PathChatLogs+url.PathEscape(chatID), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BountyCards fetches the planner cards of a workspace. This endpoint
// returns a bare array rather than an envelope.
func (c *Client) BountyCards(ctx context.Context, workspaceUUID string) ([]models.BountyCard, error) {
	q := url.Values{}
	q.Set("workspace_uuid", workspaceUUID)

	body, err := c.do(ctx, "load bounty cards", fhttp.MethodGet, models.PathBountyCards, q, nil)
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(body)
	if parsed.Type == gjson.Null {
		return []models.BountyCard{}, nil
	}
	if !parsed.IsArray() {
		return nil, apierrors.NewParseError("bounty cards: expected array", string(body))
	}

	var cards []models.BountyCard
	if err := json.Unmarshal(body, &cards); err != nil {
		return nil, apierrors.NewParseError("bounty cards: "+err.Error(), string(body))
	}
	return cards, nil
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if offset > 0 {
		q.Set("offset", fmt.Sprint(offset))
	}
	return q
}

// doEnvelope performs a request whose response is an APIResponse envelope
// and decodes its data field into out.
func (c *Client) doEnvelope(ctx context.Context, op, method, path string, query url.Values, payload, out any) error {
	body, err := c.do(ctx, op, method, path, query, payload)
	if err != nil {
		return err
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return apierrors.NewParseError(op+": expected JSON object", string(body))
	}

	if success := parsed.Get("success"); success.Exists() && !success.Bool() {
		msg := parsed.Get("message").String()
		if msg == "" {
			msg = op + " failed"
		}
		apiErr := apierrors.NewAPIError(fhttp.StatusOK, path, msg)
		apiErr.WithBody(string(body))
		return apiErr
	}

	data := parsed.Get("data")
	if !data.Exists() || data.Type == gjson.Null {
		// an empty history is returned as a missing or null data field
		return nil
	}

	if err := json.Unmarshal([]byte(data.Raw), out); err != nil {
		return apierrors.NewParseError(op+": "+err.Error(), data.Raw)
	}
	return nil
}

// do sends one request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any) ([]byte, error) {
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	requestID := uuid.NewString()
	ctx, span := c.tel.Tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.String("request.id", requestID),
	))
	defer span.End()

	start := time.Now()
	status, body, err := c.roundTrip(ctx, op, method, path, query, payload, requestID)
	c.tel.RecordRequest(ctx, path, status, time.Since(start), err)

	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("request failed", "op", op, "path", path, "status", status, "request_id", requestID, "error", err)
		return nil, err
	}

	c.logger.Debug("request ok", "op", op, "path", path, "status", status, "request_id", requestID, "bytes", len(body))
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, query url.Values, payload any, requestID string) (int, []byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := fhttp.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	req.Header.Set("x-jwt", c.token)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, apierrors.NewNetworkError(op, path, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, apierrors.NewNetworkError(op, path, err)
	}

	if resp.StatusCode == fhttp.StatusUnauthorized {
		authErr := apierrors.NewAuthError("token rejected by server")
		authErr.Endpoint = path
		authErr.HTTPStatus = resp.StatusCode
		return resp.StatusCode, nil, authErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := apierrors.NewAPIError(resp.StatusCode, path, op+" failed")
		apiErr.WithBody(string(body))
		return resp.StatusCode, nil, apiErr
	}

	return resp.StatusCode, body, nil
}
