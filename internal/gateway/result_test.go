package gateway

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelopeSuccess(t *testing.T) {
	res, err := DecodeEnvelope(strings.NewReader(`{"success":true,"message":"Product added to cart","cart_count":3}`))
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "Product added to cart", res.Message)

	var count int
	require.True(t, res.Field("cart_count", &count))
	assert.Equal(t, 3, count)
	assert.False(t, res.Field("absent", &count))
}

func TestDecodeEnvelopeRejected(t *testing.T) {
	res, err := DecodeEnvelope(strings.NewReader(`{"success":false,"message":"Coupon expired"}`))
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "Coupon expired", res.Message)
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	// A body without the success key is a decode error, not an implicit
	// failure.
	_, err := DecodeEnvelope(strings.NewReader(`{"message":"hello"}`))
	require.ErrorIs(t, err, ErrMalformedEnvelope)

	_, err = DecodeEnvelope(strings.NewReader(`not json`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedEnvelope)
}

func TestDecodeEnvelopeDecimalSlices(t *testing.T) {
	res, err := DecodeEnvelope(strings.NewReader(`{"success":true,"cart_total":"1234.50","discount":150}`))
	require.NoError(t, err)

	var total, discount decimal.Decimal
	require.True(t, res.Field("cart_total", &total))
	require.True(t, res.Field("discount", &discount))
	assert.True(t, total.Equal(decimal.RequireFromString("1234.50")))
	assert.True(t, discount.Equal(decimal.NewFromInt(150)))
}
