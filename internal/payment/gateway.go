package payment

import "context"

// Order is the gateway-side record an eventual payment callback refers to.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// Gateway creates orders. Nothing else from the gateway is trusted except
// signed callback data, which is verified separately.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error)
}
