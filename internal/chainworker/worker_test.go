package chainworker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luxfi/dexindexer/internal/models"
)

func TestSortDedupRemovesDuplicatesAndSorts(t *testing.T) {
	got := sortDedup([]string{"0xb", "0xa", "0xb", "0xa", "0xc"})
	assert.Equal(t, []string{"0xa", "0xb", "0xc"}, got)
}

func TestSortDedupEmptyInput(t *testing.T) {
	assert.Empty(t, sortDedup(nil))
}

func TestFactoryAllowedAcceptsAnyWhenAllowlistEmpty(t *testing.T) {
	w := &Worker{chain: models.ChainConfig{}}
	assert.True(t, w.factoryAllowed("0xanything"))
}

func TestFactoryAllowedRejectsUnlistedFactory(t *testing.T) {
	w := &Worker{chain: models.ChainConfig{Factories: []string{"0xgood"}}}
	assert.True(t, w.factoryAllowed("0xGOOD"))
	assert.False(t, w.factoryAllowed("0xbad"))
}

func TestComputeV4PoolIDIsDeterministic(t *testing.T) {
	a := computeV4PoolID("0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222", 3000, 60, "0x0000000000000000000000000000000000000000")
	b := computeV4PoolID("0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222", 3000, 60, "0x0000000000000000000000000000000000000000")
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}

func TestComputeV4PoolIDDiffersOnFee(t *testing.T) {
	a := computeV4PoolID("0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222", 3000, 60, "0x0000000000000000000000000000000000000000")
	b := computeV4PoolID("0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222", 500, 60, "0x0000000000000000000000000000000000000000")
	assert.NotEqual(t, a, b)
}
