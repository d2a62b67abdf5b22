package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPreview_ShortContentUnchanged(t *testing.T) {
	assert.Equal(t, "hello", preview("hello"))
}

func TestPreview_TruncatesLongContent(t *testing.T) {
	content := strings.Repeat("a", 200)

	got := preview(content)

	assert.Len(t, got, 120)
	assert.True(t, strings.HasPrefix(content, got))
}

func TestPreview_NeverSplitsMultibyteRune(t *testing.T) {
	// 1 ASCII byte then 3-byte runes; byte 120 falls mid-rune.
	content := "a" + strings.Repeat("€", 50)

	got := preview(content)

	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 120)
	assert.True(t, strings.HasPrefix(content, got))
}
