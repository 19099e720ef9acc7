// Package paystack talks to the Paystack transaction API and checks webhook signatures.
package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/trisend/trisend/internal/app/model"
)

const (
	SignatureHeader = "x-paystack-signature"
	EventChargeOK   = "charge.success"
	defaultTimeout  = 15 * time.Second
)

var ErrInvalidResponse = errors.New("paystack: invalid response")

// Client verifies transactions with the secret key.
type Client struct {
	baseURL string
	secret  string
	timeout time.Duration
}

// NewClient returns a Paystack client.
func NewClient(baseURL, secret string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		timeout: defaultTimeout,
	}
}

type verifyResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    *chargeData `json:"data"`
}

type chargeData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
	Metadata json.RawMessage `json:"metadata"`
}

func (d *chargeData) transaction() *model.Transaction {
	return &model.Transaction{
		Reference: d.Reference,
		Status:    d.Status,
		Amount:    d.Amount,
		Email:     d.Customer.Email,
		UserID:    metadataUserID(d.Metadata),
	}
}

// Verify fetches the transaction for reference. A response whose top-level
// status is false yields a transaction with an empty status.
func (c *Client) Verify(ctx context.Context, reference string) (*model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := fiber.Get(c.baseURL + "/transaction/verify/" + url.PathEscape(reference))
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.secret)
	agent.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	agent.Timeout(c.timeout)

	_, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("paystack: verify %q: %w", reference, errors.Join(errs...))
	}

	var resp verifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !resp.Status || resp.Data == nil {
		return &model.Transaction{Reference: reference}, nil
	}
	return resp.Data.transaction(), nil
}

// event is a webhook delivery.
type event struct {
	Event string      `json:"event"`
	Data  *chargeData `json:"data"`
}

// ParseEvent decodes a webhook body.
func ParseEvent(body []byte) (string, *model.Transaction, error) {
	var ev event
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if ev.Data == nil {
		return ev.Event, nil, nil
	}
	return ev.Event, ev.Data.transaction(), nil
}

// Sign returns the hex HMAC-SHA512 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches body.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(strings.ToLower(signature)))
}

// metadataUserID reads metadata.userId, which Paystack may send as an object
// or as a JSON-encoded string.
func metadataUserID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var meta struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(raw, &meta); err == nil {
		return meta.UserID
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &meta); err == nil {
			return meta.UserID
		}
	}
	return ""
}
