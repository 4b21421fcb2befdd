package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeyLayout(t *testing.T) {
	key := ObjectKey("m1", "invoice.pdf")

	assert.True(t, strings.HasPrefix(key, "maintenance/m1/"))
	assert.True(t, strings.HasSuffix(key, "-invoice.pdf"))
}

func TestObjectKeySanitizesFilename(t *testing.T) {
	key := ObjectKey("m1", "../../weird name?.pdf")

	assert.False(t, strings.Contains(key, ".."), key)
	assert.True(t, strings.HasSuffix(key, "-weird_name_.pdf"), key)
}

func TestObjectKeysAreUnique(t *testing.T) {
	assert.NotEqual(t, ObjectKey("m1", "a.pdf"), ObjectKey("m1", "a.pdf"))
}
