package dto

// CreateOrderRequest payload.
type CreateOrderRequest struct {
	RegistrationID string `json:"registration_id"`
}

// OrderResponse describes a created gateway order.
type OrderResponse struct {
	OrderID     string `json:"order_id"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// PaymentCallbackRequest is what the gateway webhook delivers.
type PaymentCallbackRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// PaymentCallbackResponse acknowledges a processed callback.
type PaymentCallbackResponse struct {
	Status      string  `json:"status"`
	TicketCode  *string `json:"ticket_code,omitempty"`
	AlreadyPaid bool    `json:"already_paid,omitempty"`
}
