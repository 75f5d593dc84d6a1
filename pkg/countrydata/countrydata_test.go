package countrydata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	r := require.New(t)

	us, ok := Get("US")
	r.True(ok)
	r.Equal("USA", us.ISO3)
	r.Equal("Washington, D.C.", us.Capital)
	r.False(us.EU)

	de, ok := Get("de")
	r.True(ok, "lookup must be case-insensitive")
	r.True(de.EU)
	r.Equal("EUR", de.CurrencyCode)

	_, ok = Get("XX")
	r.False(ok)
}

func TestLanguages(t *testing.T) {
	r := require.New(t)
	r.Equal([]string{"en", "fr"}, Languages("CA"))
	r.Nil(Languages("ZZ"))
}

func TestFlag(t *testing.T) {
	r := require.New(t)
	r.Equal("🇺🇸", Flag("US"))
	r.Equal("🇯🇵", Flag("jp"))
	r.Equal("", Flag("U1"))
	r.Equal("", Flag("USA"))
}
