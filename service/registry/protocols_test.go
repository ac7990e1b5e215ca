package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectorFirstMatchWins(t *testing.T) {
	d := DefaultDetector()

	// Jupiter routes through Raydium pools; the router program appears first
	// in the program list and should win.
	p := d.Detect([]string{
		SystemProgramID,
		"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4",
		"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8",
	})
	require.NotNil(t, p)
	assert.Equal(t, "jupiter", p.ID)
	assert.Equal(t, ProtocolKindDEX, p.Kind)
}

func TestDetectorNoMatch(t *testing.T) {
	d := DefaultDetector()

	p := d.Detect([]string{SystemProgramID, TokenProgramID})
	assert.Nil(t, p)

	p = d.Detect(nil)
	assert.Nil(t, p)
}

func TestDetectorStakeProgram(t *testing.T) {
	d := DefaultDetector()

	p := d.Detect([]string{StakeProgramID})
	require.NotNil(t, p)
	assert.Equal(t, "native_stake", p.ID)
	assert.True(t, p.IsStake())
	assert.False(t, p.IsDEX())
}

func TestDetectorAirdropDistributor(t *testing.T) {
	d := DefaultDetector()

	p := d.Detect([]string{
		SystemProgramID,
		"meRjbQXFNf5En86FXT2YPz1dQzLj4Yb3xK8u1MVgqpb",
	})
	require.NotNil(t, p)
	assert.Equal(t, "merkle_distributor", p.ID)
	assert.True(t, p.IsAirdrop())
	assert.False(t, p.IsDEX())
}

func TestDetectorFacilitator(t *testing.T) {
	d := DefaultDetector()

	name, ok := d.Facilitator([]string{
		SystemProgramID,
		"meRjbQXFNf5En86FXT2YPz1dQzLj4Yb3xK8u1MVgqpb",
	})
	require.True(t, ok)
	assert.Equal(t, "merkle_distributor", name)

	_, ok = d.Facilitator([]string{SystemProgramID})
	assert.False(t, ok)
}

func TestProtocolKindHelpersNilSafe(t *testing.T) {
	var p *ProtocolInfo
	assert.False(t, p.IsDEX())
	assert.False(t, p.IsStake())
	assert.False(t, p.IsAirdrop())
}
