package kvvector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndLookupUnsorted(t *testing.T) {
	v := New(0)
	v.AddString("foo", "bar")
	v.AddString("lala", "trudeldudel")
	v.AddString("key", "value")

	val, ok := v.LookupString("lala")
	require.True(t, ok)
	assert.Equal(t, "trudeldudel", val)

	_, ok = v.LookupString("missing")
	assert.False(t, ok)
}

func TestSortThenBinarySearch(t *testing.T) {
	v := New(0)
	v.AddString("zebra", "1")
	v.AddString("apple", "2")
	v.AddString("mango", "3")
	v.Sort()

	require.Equal(t, 3, v.Len())
	assert.Equal(t, "apple", string(v.Pairs()[0].Key))
	assert.Equal(t, "mango", string(v.Pairs()[1].Key))
	assert.Equal(t, "zebra", string(v.Pairs()[2].Key))

	val, ok := v.LookupString("mango")
	require.True(t, ok)
	assert.Equal(t, "3", val)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v := New(0)
	v.AddString("foo", "bar")
	v.AddString("lul", "bar")
	v.AddString("haha", "lulu")

	buf := Encode(v, '=', ';')
	decoded, err := Decode(buf, '=', ';', Copy)
	require.NoError(t, err)

	require.Equal(t, v.Len(), decoded.Len())
	for i, p := range v.Pairs() {
		assert.Equal(t, string(p.Key), string(decoded.Pairs()[i].Key))
		assert.Equal(t, string(p.Value), string(decoded.Pairs()[i].Value))
	}
}

// Matches the upstream pair_term_missing fixture: a final pair with no
// trailing separator still decodes.
func TestDecodeUnterminatedLastPair(t *testing.T) {
	buf := []byte("foo=bar;lul=bar;haha=lulu")
	v, err := Decode(buf, '=', ';', Assign)
	require.NoError(t, err)
	require.Equal(t, 3, v.Len())

	val, ok := v.LookupString("haha")
	require.True(t, ok)
	assert.Equal(t, "lulu", val)
}

func TestDecodeTruncatedPairIsError(t *testing.T) {
	_, err := Decode([]byte("foo;bar=baz"), '=', ';', Assign)
	require.Error(t, err)
}

func TestDecodeEmptyValue(t *testing.T) {
	v, err := Decode([]byte("key="), '=', ';', Assign)
	require.NoError(t, err)
	require.Equal(t, 1, v.Len())
	val, ok := v.LookupString("key")
	require.True(t, ok)
	assert.Equal(t, "", val)
}

func TestDuplicateKeysPreserveOrder(t *testing.T) {
	v := New(0)
	v.AddString("k", "first")
	v.AddString("k", "second")
	require.Equal(t, 2, v.Len())
	val, ok := v.LookupString("k")
	require.True(t, ok)
	assert.Equal(t, "first", val, "unsorted lookup resolves to first insertion order match")
}
