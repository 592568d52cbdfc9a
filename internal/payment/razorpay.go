package payment

import (
	"context"

	"github.com/pkg/errors"
	razorpay "github.com/razorpay/razorpay-go"
)

type razorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) Gateway {
	return &razorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
	}
}

// The SDK does not take a context; the ctx parameter keeps the interface
// uniform for implementations that do.
func (g *razorpayGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*Order, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "razorpay order create failed")
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return nil, errors.New("razorpay order response missing id")
	}

	order := &Order{
		ID:       id,
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}
	if a, ok := body["amount"].(float64); ok {
		order.Amount = int64(a)
	}
	if c, ok := body["currency"].(string); ok && c != "" {
		order.Currency = c
	}

	return order, nil
}
