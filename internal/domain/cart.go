package domain

// CartLine is one product+quantity entry. Quantity is always >= 1.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Cart holds at most one line per product ID.
type Cart struct {
	Lines []CartLine `json:"products"`
}

func (c *Cart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Lines)
}

// Find returns the line for productID, if any.
func (c *Cart) Find(productID string) (CartLine, bool) {
	if c == nil {
		return CartLine{}, false
	}
	for _, l := range c.Lines {
		if l.Product.ID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return &Cart{Lines: []CartLine{}}
	}
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return &Cart{Lines: lines}
}
