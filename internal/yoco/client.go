// Package yoco talks to the Yoco hosted-checkout API. It is a credential-
// holding relay: no retries, no persistence, one fresh idempotency key per
// checkout creation.
package yoco

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base32"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultAPIURL = "https://payments.yoco.com/api"

type Client struct {
	apiURL    string
	secretKey string
	http      *http.Client
}

func NewClient(apiURL, secretKey string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL:    strings.TrimRight(apiURL, "/"),
		secretKey: secretKey,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Response carries the gateway's status code and body verbatim so callers can
// relay them unmodified.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ErrorMessage digs a human-readable message out of a gateway error body,
// falling back to the raw body.
func (r Response) ErrorMessage() string {
	var body struct {
		Error       json.RawMessage `json:"error"`
		Message     string          `json:"message"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(r.Body, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Description != "" {
			return body.Description
		}
		if len(body.Error) > 0 {
			return string(body.Error)
		}
	}
	return string(r.Body)
}

// CheckoutResult is the subset of the checkout-session body the assignment
// flow needs; the full body is still relayed to clients untouched.
type CheckoutResult struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirectUrl"`
	Status      string `json:"status"`
}

// NewIdempotencyKey generates a key unique per call; keys are never reused
// even for identical request bodies.
func NewIdempotencyKey() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	suffix := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf))
	return fmt.Sprintf("checkout_%d_%s", time.Now().UnixMilli(), suffix)
}

// StringifyMetadata coerces every metadata value to a string; the gateway
// rejects non-string metadata values.
func StringifyMetadata(payload map[string]interface{}) {
	raw, ok := payload["metadata"].(map[string]interface{})
	if !ok {
		return
	}
	for key, value := range raw {
		if _, isString := value.(string); !isString {
			raw[key] = fmt.Sprintf("%v", value)
		}
	}
}

// CreateCheckout posts a checkout-session payload to the gateway. The legacy
// token field is dropped and metadata values are stringified before sending.
// A non-2xx gateway status is returned in the Response, not as an error;
// err is only non-nil for transport failures.
func (c *Client) CreateCheckout(ctx context.Context, payload map[string]interface{}) (Response, error) {
	delete(payload, "token")
	StringifyMetadata(payload)

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/checkouts", bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Idempotency-Key", NewIdempotencyKey())

	return c.do(req)
}

// GetCheckout retrieves a checkout session's current state by id.
func (c *Client) GetCheckout(ctx context.Context, id string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/checkouts/"+id, nil)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	return c.do(req)
}

func (c *Client) do(req *http.Request) (Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}
	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// LiveKey reports whether the configured secret is a live (non-test)
// credential. Production refuses to create checkouts without one.
func LiveKey(secretKey string) bool {
	return strings.HasPrefix(secretKey, "sk_live_")
}
