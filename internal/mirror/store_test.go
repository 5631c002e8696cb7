package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LookupByStringAndNumericTokens(t *testing.T) {
	s := NewStore(OriginPages, 0, mkPosts(10, 9, 8))

	p, ok := s.Get("9")
	require.True(t, ok)
	assert.Equal(t, int64(9), p.ID.Int64())

	// 带空白、前导零、带符号的数字 token 都归一到同一个键
	for _, tok := range []string{" 9 ", "09", "+9"} {
		p, ok := s.Get(tok)
		require.Truef(t, ok, "token %q", tok)
		assert.Equal(t, int64(9), p.ID.Int64())
	}

	_, ok = s.Get("404")
	assert.False(t, ok)
	_, ok = s.Get("not-a-number")
	assert.False(t, ok)
}

func TestStore_IndexOfFollowsSequenceOrder(t *testing.T) {
	s := NewStore(OriginShard, 2, mkPosts(8, 7))

	assert.Equal(t, 0, s.IndexOf("8"))
	assert.Equal(t, 1, s.IndexOf("7"))
	assert.Equal(t, -1, s.IndexOf("99"))
	assert.Equal(t, 2, s.ShardNum())
	assert.Equal(t, OriginShard, s.Origin())
}

func TestStore_IdentityDiffersPerBuild(t *testing.T) {
	a := NewStore(OriginPages, 0, mkPosts(3, 2, 1))
	b := NewStore(OriginPages, 0, mkPosts(3, 2, 1))
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "42", NormalizeKey("42"))
	assert.Equal(t, "42", NormalizeKey("  42\n"))
	assert.Equal(t, "42", NormalizeKey("042"))
	assert.Equal(t, "abc", NormalizeKey(" abc "))
}
