package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solledger/solledger/service/classify"
	"github.com/solledger/solledger/service/solana"
)

func TestNilCacheIsAlwaysMiss(t *testing.T) {
	ctx := context.Background()
	var c *ClassificationCache

	ct, err := c.Get(ctx, "sig")
	require.NoError(t, err)
	assert.Nil(t, ct)

	found, err := c.GetMany(ctx, []string{"sig1", "sig2"})
	require.NoError(t, err)
	assert.Empty(t, found)

	assert.NoError(t, c.Set(ctx, &classify.ClassifiedTransaction{
		Tx: &solana.RawTransaction{Signature: "sig"},
	}))
	assert.NoError(t, c.SetMany(ctx, nil))
}

func TestCacheWithoutClientIsAlwaysMiss(t *testing.T) {
	ctx := context.Background()
	c := New(nil, nil)

	ct, err := c.Get(ctx, "sig")
	require.NoError(t, err)
	assert.Nil(t, ct)

	found, err := c.GetMany(ctx, []string{"sig"})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestCacheKeyPrefix(t *testing.T) {
	assert.Equal(t, "classified:abc", cacheKey("abc"))
}
