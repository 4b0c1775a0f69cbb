package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/investiq/internal/api/handlers"
	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/pkg/httputil"
)

// Client calls a running investiq API server
type Client struct {
	http    *httputil.Client
	baseURL string
}

// New creates a client for the server at baseURL (e.g. http://localhost:8080)
func New(baseURL string, http *httputil.Client) *Client {
	return &Client{http: http, baseURL: strings.TrimRight(baseURL, "/")}
}

// Error is a failed API call
type Error struct {
	Status  int
	Message string
	Details []handlers.ValidationError
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unwrap maps the status back onto the analysis error kinds
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return contracts.ErrInvalidSymbol
	case http.StatusNotFound:
		return contracts.ErrNoData
	case http.StatusUnprocessableEntity:
		if strings.HasPrefix(e.Message, contracts.ErrMissingSignal.Error()) {
			return contracts.ErrMissingSignal
		}
		return contracts.ErrInvalidSignal
	case http.StatusGatewayTimeout:
		return context.DeadlineExceeded
	default:
		return nil
	}
}

// envelope mirrors handlers.Envelope with a typed decision
type envelope[T any] struct {
	Success   bool                       `json:"success"`
	Decision  *T                         `json:"decision"`
	Error     string                     `json:"error"`
	Details   []handlers.ValidationError `json:"details"`
	Timestamp string                     `json:"timestamp"`
}

// Analyze runs a full server-side analysis
func (c *Client) Analyze(ctx context.Context, symbol string) (*contracts.Analysis, error) {
	resp, err := c.http.Post(ctx, c.baseURL+"/api/analyze/"+url.PathEscape(symbol), "application/json", nil)
	if err != nil {
		return nil, err
	}
	return decode[contracts.Analysis](resp)
}

// Decide evaluates caller-supplied analyst outputs on the server
func (c *Client) Decide(ctx context.Context, req handlers.DecideRequest) (*contracts.CombinedVerdict, error) {
	resp, err := c.http.PostJSON(ctx, c.baseURL+"/api/decide", req)
	if err != nil {
		return nil, err
	}
	return decode[contracts.CombinedVerdict](resp)
}

// Policy returns the server's active policy
func (c *Client) Policy(ctx context.Context) (*handlers.PolicyResponse, error) {
	resp, err := c.http.Get(ctx, c.baseURL+"/api/policy")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var out handlers.PolicyResponse
	if err := httputil.DecodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks the server health endpoint
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.Get(ctx, c.baseURL+"/health")
	if err != nil {
		return err
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := httputil.DecodeJSON(resp, &body); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return &Error{Status: resp.StatusCode, Message: "unhealthy: " + body.Status}
	}
	return nil
}

func decode[T any](resp *http.Response) (*T, error) {
	var env envelope[T]
	if err := httputil.DecodeJSON(resp, &env); err != nil {
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			return nil, &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, err
	}

	if !env.Success || env.Decision == nil {
		return nil, &Error{Status: resp.StatusCode, Message: env.Error, Details: env.Details}
	}
	return env.Decision, nil
}
