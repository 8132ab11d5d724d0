package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/unifex/encoding/json"
)

func TestNumberUnmarshal(t *testing.T) {
	t.Parallel()

	var payload struct {
		Bare   Number `json:"bare"`
		Quoted Number `json:"quoted"`
		Padded Number `json:"padded"`
		Null   Number `json:"null"`
		Empty  Number `json:"empty"`
		Absent Number `json:"absent"`
		Zero   Number `json:"zero"`
	}
	err := json.Unmarshal([]byte(`{
		"bare": 7750.50,
		"quoted": "-0.000001",
		"padded": "62883.50",
		"null": null,
		"empty": "",
		"zero": 0
	}`), &payload)
	require.NoError(t, err)

	// The wire text survives verbatim, trailing zeros included.
	assert.Equal(t, "7750.50", payload.Bare.String())
	assert.Equal(t, "-0.000001", payload.Quoted.String())
	assert.Equal(t, "62883.50", payload.Padded.String())
	assert.False(t, payload.Null.IsSet())
	assert.False(t, payload.Empty.IsSet())
	assert.False(t, payload.Absent.IsSet())

	// An explicit zero is set; an absent field is not. The two must stay
	// distinguishable.
	assert.True(t, payload.Zero.IsSet())
	assert.True(t, payload.Zero.IsZero())
	assert.NotEqual(t, payload.Zero, payload.Absent)

	var bad Number
	assert.Error(t, json.Unmarshal([]byte(`"not-a-number"`), &bad))
}

func TestNumberMarshal(t *testing.T) {
	t.Parallel()

	n, err := NewNumberFromString("27808970.000")
	require.NoError(t, err)
	assert.Equal(t, "27808970.000", n.String(), "String keeps the source text")
	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Equal(t, "27808970", string(out), "marshalling emits canonical decimal text")

	out, err = json.Marshal(Number{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestNumberArithmetic(t *testing.T) {
	t.Parallel()

	price, err := NewNumberFromString("47946.5")
	require.NoError(t, err)
	amount, err := NewNumberFromString("580.0")
	require.NoError(t, err)

	assert.Equal(t, "27808970", price.Mul(amount).String())
	assert.Equal(t, "0.0120968162431043", amount.Div(price).String())

	// Division by zero yields the unset value rather than a panic.
	assert.False(t, amount.Div(NewNumberFromFloat(0)).IsSet())

	// Unset operands propagate through Mul and Div, but Add treats them
	// as zero so balances can accumulate from partial payloads. Adding to
	// the unset value hands the operand back, source text and all.
	assert.False(t, price.Mul(Number{}).IsSet())
	assert.Equal(t, "580.0", Number{}.Add(amount).String())

	assert.Equal(t, "-580", amount.Neg().String())
	assert.Equal(t, "580", amount.Neg().Abs().String())
}

func TestNumberEqual(t *testing.T) {
	t.Parallel()

	a, err := NewNumberFromString("1.50")
	require.NoError(t, err)
	b, err := NewNumberFromString("1.5")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.True(t, Number{}.Equal(Number{}))
	assert.False(t, NewNumberFromFloat(0).Equal(Number{}), "set zero is not the unset value")
}
