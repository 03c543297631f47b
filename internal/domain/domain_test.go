package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleAdmin, ParseRole("Admin"))
	assert.Equal(t, RoleSuperAdmin, ParseRole(" superadmin "))
	assert.Equal(t, RoleGuest, ParseRole(""))
	assert.Equal(t, RoleGuest, ParseRole("owner"))
}

func TestRole_JSONRoundTripThroughUser(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"u1","fullname":"Asha","email":"a@x.io","role":"superadmin"}`), &u))
	assert.Equal(t, RoleSuperAdmin, u.Role)

	out, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"role":"superadmin"`)
}

func TestPaymentMethod_Kind(t *testing.T) {
	assert.Equal(t, PaymentKindUPI, PaymentMethod{Type: "UPI"}.Kind())
	assert.Equal(t, PaymentKindUPI, PaymentMethod{Type: "upi"}.Kind())
	assert.Equal(t, PaymentKindCard, PaymentMethod{Type: "Visa"}.Kind())
	assert.Equal(t, PaymentKindCard, PaymentMethod{}.Kind())

	assert.Equal(t, "me@okbank", PaymentMethod{Type: "UPI", UPIID: "me@okbank", CardNumber: "4111"}.Display())
	assert.Equal(t, "4111", PaymentMethod{Type: "Visa", UPIID: "me@okbank", CardNumber: "4111"}.Display())
}

func TestCart_FindAndClone(t *testing.T) {
	c := &Cart{Lines: []CartLine{
		{Product: Product{ID: "p1", Price: 10}, Quantity: 2},
		{Product: Product{ID: "p2", Price: 5}, Quantity: 1},
	}}

	line, ok := c.Find("p2")
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)

	_, ok = c.Find("missing")
	assert.False(t, ok)

	clone := c.Clone()
	clone.Lines[0].Quantity = 99
	assert.Equal(t, 2, c.Lines[0].Quantity)

	var nilCart *Cart
	assert.Equal(t, 0, nilCart.Len())
	assert.NotNil(t, nilCart.Clone().Lines)
}

func TestProduct_CategoryKey(t *testing.T) {
	assert.Equal(t, "mobile", Product{Category: "  Mobile "}.CategoryKey())
	assert.Equal(t, 0.0, Product{}.RatingValue())
	r := 4.5
	assert.Equal(t, 4.5, Product{Rating: &r}.RatingValue())
}
