package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, CurrencyUSD, c)

	c, err = ParseCurrency("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCurrency, c)

	_, err = ParseCurrency("XYZ")
	assert.Error(t, err)
}

func TestMoney_Arithmetic(t *testing.T) {
	price := MustNewMoney("19.999", CurrencyUSD)
	assert.Equal(t, "20.00 USD", price.String())

	total, err := price.Times(3).Add(MustNewMoney("0.50", CurrencyUSD))
	require.NoError(t, err)
	assert.Equal(t, "60.50 USD", total.String())
	assert.Equal(t, int64(6050), total.MinorUnits())

	_, err = price.Add(MustNewMoney("1", CurrencyEUR))
	assert.Error(t, err)

	_, err = NewMoney(decimal.NewFromInt(-1), CurrencyUSD)
	assert.Error(t, err)
}

func TestMoney_MinorUnits(t *testing.T) {
	assert.Equal(t, int64(1500), MustNewMoney("1500", CurrencyJPY).MinorUnits())
	assert.True(t, FromMinorUnits(1234, CurrencyUSD).Equals(MustNewMoney("12.34", CurrencyUSD)))
	assert.True(t, FromMinorUnits(1234, CurrencyJPY).Equals(MustNewMoney("1234", CurrencyJPY)))
}

func TestMoney_JSONAndSQL(t *testing.T) {
	m := MustNewMoney("9.90", CurrencyGBP)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"9.9","currency":"GBP"}`, string(b))

	var back Money
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, m.Equals(back))

	v, err := m.Value()
	require.NoError(t, err)
	var scanned Money
	require.NoError(t, scanned.Scan(v))
	assert.True(t, m.Equals(scanned))
	assert.Error(t, scanned.Scan(42))
}

func TestShippingAddress_Validate(t *testing.T) {
	valid := ShippingAddress{
		Name: "Ada Lovelace", Line1: "1 Main St", City: "Springfield",
		PostalCode: "12345", Country: "us",
	}.Normalize()
	require.NoError(t, valid.Validate())
	assert.Equal(t, "US", valid.Country)

	missing := valid
	missing.City = ""
	assert.Error(t, missing.Validate())

	badCountry := valid
	badCountry.Country = "USA"
	assert.Error(t, badCountry.Validate())

	v, err := valid.Value()
	require.NoError(t, err)
	var scanned ShippingAddress
	require.NoError(t, scanned.Scan([]byte(v.(string))))
	assert.Equal(t, valid, scanned)
	assert.True(t, ShippingAddress{}.IsZero())
}
