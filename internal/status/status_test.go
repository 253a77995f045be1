package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompactPayload(t *testing.T) {
	assert.Equal(t, "", compactPayload("  "))
	assert.Equal(t, `{"a":[1,2]}`, compactPayload("{\n  \"a\": [1, 2]\n}\n"))
	assert.Equal(t, "plain text", compactPayload(" plain text\n"))
}

func TestJoinNonEmpty(t *testing.T) {
	assert.Equal(t, "a: b", joinNonEmpty(": ", "a", "", "b"))
	assert.Equal(t, "", joinNonEmpty(": ", "", ""))
}
