package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkBoundsEmpty(t *testing.T) {
	assert.Nil(t, chunkBounds(0, 300))
}

func TestChunkBoundsSingleChunk(t *testing.T) {
	bounds := chunkBounds(10, 300)
	assert.Equal(t, [][2]int{{0, 10}}, bounds)
}

func TestChunkBoundsExactMultiple(t *testing.T) {
	bounds := chunkBounds(600, 300)
	assert.Equal(t, [][2]int{{0, 300}, {300, 600}}, bounds)
}

func TestChunkBoundsTrailingPartial(t *testing.T) {
	bounds := chunkBounds(650, 300)
	assert.Equal(t, [][2]int{{0, 300}, {300, 600}, {600, 650}}, bounds)
}
