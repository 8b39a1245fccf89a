package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLanguage(t *testing.T) {
	assert := assert.New(t)

	saved := printer
	defer func() { printer = saved }()

	assert.NoError(SetLanguage("en-US"))
	assert.NotSame(saved, printer)
	assert.Equal("frame 3 at 0x1000", From("frame %d at %#x", 3, 0x1000))

	pinned := printer
	assert.Error(SetLanguage("not a language tag"))
	assert.Same(pinned, printer)
}
