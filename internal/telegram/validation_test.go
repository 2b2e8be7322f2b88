package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	assert.True(t, SafeName("vegas_value"))
	assert.True(t, SafeName("mean-reversion"))
	assert.False(t, SafeName(""))
	assert.False(t, SafeName("drop table;"))
	assert.False(t, SafeName("name with spaces"))
	assert.False(t, SafeName(strings.Repeat("a", 65)))
}

func TestSafeParam(t *testing.T) {
	assert.True(t, SafeParam("max_order_size"))
	assert.True(t, SafeParam("strategy.vegas_value"))
	assert.False(t, SafeParam("strategy value"))
	assert.False(t, SafeParam("a/b"))
}

func TestSafeMarketID(t *testing.T) {
	assert.True(t, SafeMarketID("0x1234abcd"))
	assert.True(t, SafeMarketID(strings.Repeat("a", 128)))
	assert.False(t, SafeMarketID(strings.Repeat("a", 129)))
	assert.False(t, SafeMarketID("market 1"))
}

func TestValidateNumericValue(t *testing.T) {
	v, err := ValidateNumericValue("12.5", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	_, err = ValidateNumericValue("abc", 0, 100)
	assert.Error(t, err)

	_, err = ValidateNumericValue("-1", 0, 100)
	assert.Error(t, err)

	_, err = ValidateNumericValue("101", 0, 100)
	assert.Error(t, err)
}

func TestSanitizeLogMessage(t *testing.T) {
	assert.Equal(t, "a b c", SanitizeLogMessage("a\nb\rc"))
	assert.Equal(t, "clean", SanitizeLogMessage("clean"))

	long := strings.Repeat("x", 400)
	assert.Len(t, SanitizeLogMessage(long), 256)
}
