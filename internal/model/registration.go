package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type Registration struct {
	ID               string        `json:"id"`
	TeamName         string        `json:"teamName" validate:"required"`
	Members          []*TeamMember `json:"members" validate:"required,min=1,dive"`
	RegistrationDate time.Time     `json:"registrationDate"`
	PaymentStatus    PaymentStatus `json:"paymentStatus"`
	Amount           int64         `json:"amount"`
	OrderID          string        `json:"orderId,omitempty"`
}

// Members keep submission order; no uniqueness is enforced.
type TeamMember struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Roll    string `json:"roll" validate:"required"`
	College string `json:"college" validate:"required"`
}

// Checkout is what the client needs to open the payment UI. Key is the
// public key id, never the secret.
type Checkout struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
}

type PaymentResult struct {
	Verified bool   `json:"verified"`
	OrderID  string `json:"orderId"`
}
