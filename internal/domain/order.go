package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type OrderStatus string

const (
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// ErrMissingFields is returned when a submission lacks the order id,
// customer name, or customer email.
var ErrMissingFields = errors.New("missing required fields")

type CustomerInfo struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zipCode"`
	FullAddress string `json:"fullAddress"`
}

type CartItem struct {
	ID       int64           `json:"id"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// OrderRequest is the checkout payload as the storefront sends it. The
// order id is caller-generated; ReceiptFile, when present, is a base64
// data URI.
type OrderRequest struct {
	OrderID         string          `json:"orderId"`
	CustomerInfo    CustomerInfo    `json:"customerInfo"`
	Cart            []CartItem      `json:"cart"`
	Total           decimal.Decimal `json:"total"`
	PaymentOption   string          `json:"paymentOption"`
	ReceiptFile     string          `json:"receiptFile,omitempty"`
	ReceiptFileName string          `json:"receiptFileName,omitempty"`
}

// Validate checks the request before any side effect is attempted.
func (r *OrderRequest) Validate() error {
	if r.OrderID == "" || r.CustomerInfo.FullName == "" || r.CustomerInfo.Email == "" {
		return ErrMissingFields
	}
	return nil
}

// Order is the persisted row. ID is assigned by the database; OrderID is
// the caller-supplied identifier and is not unique by design.
type Order struct {
	ID              int64
	OrderID         string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerCity    string
	CustomerState   string
	CustomerZipCode string
	CustomerAddress string
	TotalAmount     decimal.Decimal
	PaymentOption   string
	PaymentStatus   PaymentStatus
	OrderStatus     OrderStatus
	ReceiptURL      *string
	ReceiptFileName *string
	CreatedAt       time.Time
}

type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int64
	Price     decimal.Decimal
}
