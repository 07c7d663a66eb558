package ordtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, BinaryVersion, 1) // github.com/cyraxred/ordtree
	assert.Equal(t, "<unknown>", BinaryGitHash)
}
