package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{"hello", "world"}, Tokenize("Hello, World!"))
	assert.Equal([]string{"cafe", "naive"}, Tokenize("café naïve"))
	assert.Empty(Tokenize("!!! ..."))
}

func TestListMatch(t *testing.T) {
	assert := assert.New(t)

	l := NewList([]string{"badword", "two part"})

	assert.Equal("badword", l.Match("this contains BadWord somewhere"))
	assert.Equal("badword", l.Match("punctuated: BADWORD!"))
	assert.Equal("two part", l.Match("a Two Part phrase here"))
	assert.Equal("", l.Match("entirely innocuous text"))

	// whole-word only
	assert.Equal("", l.Match("badwording along"))
}

func TestBaseBlocklistAlwaysPresent(t *testing.T) {
	assert := assert.New(t)

	l := NewList(nil)
	assert.NotEqual("", l.Match("nazi propaganda"))
}
