package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateMessage(t *testing.T) {
	assert.Equal(t, "short", TruncateMessage("short", 10))
	assert.Equal(t, "exact", TruncateMessage("exact", 5))
	assert.Equal(t, "abc…", TruncateMessage("abcdef", 4))
	assert.Equal(t, "", TruncateMessage("abc", 0))

	long := strings.Repeat("あ", MessageLimit+10)
	out := TruncateMessage(long, MessageLimit)
	assert.Equal(t, MessageLimit, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "…"))
}

func TestJSONString(t *testing.T) {
	assert.Equal(t, "{\n\t\"a\": 1\n}", JSONString(map[string]int{"a": 1}))
	assert.Contains(t, JSONString(make(chan int)), "unprintable")
}
