// Package razorpay wraps the parts of the Razorpay API the premium purchase needs
package razorpay

import (
	"context"
	"errors"
	"fmt"

	rzp "github.com/razorpay/razorpay-go"
	"github.com/spf13/viper"
)

const StatusCaptured = "captured"

var ErrMalformedResponse = errors.New("malformed gateway response")

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Payment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
}

type Client struct {
	keyID string
	c     *rzp.Client
}

// New builds a client from razorpay.key_id and razorpay.key_secret
func New() (*Client, error) {
	keyID := viper.GetString("razorpay.key_id")
	secret := viper.GetString("razorpay.key_secret")

	if keyID == "" || secret == "" {
		return nil, errors.New("razorpay credentials are missing")
	}

	return &Client{
		keyID: keyID,
		c:     rzp.NewClient(keyID, secret),
	}, nil
}

// KeyID is public and handed to the checkout widget
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder opens an order for amount minor units of currency
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := c.c.Order.Create(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create order, %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, ErrMalformedResponse
	}

	return &Order{
		ID:       id,
		Amount:   toInt64(body["amount"]),
		Currency: str(body["currency"]),
		Receipt:  str(body["receipt"]),
		Status:   str(body["status"]),
	}, nil
}

// FetchPayment looks up a payment's current state
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := c.c.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment, %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, ErrMalformedResponse
	}

	return &Payment{
		ID:      id,
		OrderID: str(body["order_id"]),
		Amount:  toInt64(body["amount"]),
		Status:  str(body["status"]),
	}, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// Numbers come back from the SDK as float64 since the body is decoded into a map
func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}

	return 0
}
