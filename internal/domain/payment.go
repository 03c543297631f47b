package domain

import "strings"

type PaymentKind string

const (
	PaymentKindCard PaymentKind = "card"
	PaymentKindUPI  PaymentKind = "upi"
)

// PaymentMethod is a saved payment method. Type is the label the user picked
// ("Visa", "UPI", ...); only UPI changes which fields are meaningful.
type PaymentMethod struct {
	ID         string `json:"_id,omitempty"`
	Type       string `json:"type"`
	CardNumber string `json:"cardNumber,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
	CVV        string `json:"cvv,omitempty"`
	UPIID      string `json:"upiId,omitempty"`
}

func (p PaymentMethod) Kind() PaymentKind {
	if strings.EqualFold(strings.TrimSpace(p.Type), string(PaymentKindUPI)) {
		return PaymentKindUPI
	}
	return PaymentKindCard
}

// Display is the short label shown next to a saved method.
func (p PaymentMethod) Display() string {
	if p.Kind() == PaymentKindUPI {
		return p.UPIID
	}
	return p.CardNumber
}

// PaymentDetails is the fixed-shape record the order schema expects.
// Fields that do not apply to the method are empty, never omitted.
type PaymentDetails struct {
	CardNumber string `json:"cardNumber"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	UPIID      string `json:"upiId"`
}
