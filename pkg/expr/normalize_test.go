package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeForSearch(t *testing.T) {
	assert.Equal(t, "null", NormalizeForSearch(nil, false))
	assert.Equal(t, "false", NormalizeForSearch(false, false))
	assert.Equal(t, "true", NormalizeForSearch(true, false))
	assert.Equal(t, "3.0", NormalizeForSearch(3.0, false))
	assert.Equal(t, "1e+16", NormalizeForSearch(1e16, false))
	assert.Equal(t, "12", NormalizeForSearch(12, false))

	assert.Equal(t, "(code)stuff(/code)", NormalizeForSearch("(code)stuff(/code)", false))
	assert.Equal(t, "<code>stuff</code>", NormalizeForSearch("<code>stuff</code>", false))
	assert.Equal(t, "<code>stuff</code>ed", NormalizeForSearch("<code>stuff</code>ed", false))
	assert.Equal(t, "st<code>uff</code>ed", NormalizeForSearch("st<code>uff</code>ed", false))

	assert.Equal(t, "(code)stuff(/code)", NormalizeForSearch("(code)stuff(/code)", true))
	assert.Equal(t, "stuff", NormalizeForSearch("<code>stuff</code>", true))
	assert.Equal(t, "stuffed", NormalizeForSearch("<code>stuff</code>ed", true))
	assert.Equal(t, "stuffed", NormalizeForSearch("st<code>uff</code>ed", true))
}

func TestNormalizeForSearchUnicode(t *testing.T) {
	assert.Equal(t, "puff", NormalizeForSearch("Püﬀ", false))
	assert.Equal(t, "an", NormalizeForSearch("ĄÑ", false))
	assert.Equal(t, "paß", NormalizeForSearch("PÄẞ", false))
	assert.Equal(t, "paß", NormalizeForSearch("pÄß", false))
}

func TestNormalizeForSearchIdempotent(t *testing.T) {
	for _, value := range []string{"", "abc", "ÄñD.Püﬀ.xyz", "PÄẞ", "<b>Bold</b>", "Ⅻ ½ ﬁ", "ǅemal"} {
		once := NormalizeForSearch(value, false)
		assert.Equal(t, once, NormalizeForSearch(once, false), value)
	}
}
