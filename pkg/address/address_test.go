package address

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helium-ledger/pkg/errno"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	b := make([]byte, KeySize)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func TestTextRoundTrip(t *testing.T) {
	for _, network := range []Network{MainNet, TestNet} {
		for i := 0; i < 64; i++ {
			a, err := FromBytes(randomKey(t), network)
			require.NoError(t, err)

			parsed, err := Parse(a.String())
			require.NoError(t, err)
			assert.Equal(t, a, parsed)
			assert.Equal(t, network, parsed.Network)
			assert.Equal(t, a.Bytes(), parsed.Bytes())
		}
	}
}

func TestFixedEdgeKeys(t *testing.T) {
	zero := make([]byte, KeySize)
	ones := make([]byte, KeySize)
	for i := range ones {
		ones[i] = 0xFF
	}
	for _, key := range [][]byte{zero, ones} {
		a, err := FromBytes(key, TestNet)
		require.NoError(t, err)
		assert.Equal(t, a, MustParse(a.String()))
	}
}

func TestChecksumRegionFlipRejected(t *testing.T) {
	a, err := FromBytes(randomKey(t), MainNet)
	require.NoError(t, err)

	raw := base58.Decode(a.String())
	require.Len(t, raw, 1+BinSize+4)

	for i := len(raw) - 4; i < len(raw); i++ {
		tampered := append([]byte(nil), raw...)
		tampered[i] ^= 0x01
		_, err := Parse(base58.Encode(tampered))
		require.Error(t, err, "flipped checksum byte %d", i)
		assert.True(t, errors.Is(err, errno.ErrChecksumMismatch))
	}
}

func TestParseRejectsNonZeroVersion(t *testing.T) {
	a, err := FromBytes(randomKey(t), MainNet)
	require.NoError(t, err)

	_, err = Parse(base58.CheckEncode(a.Bin(), 0x01))
	assert.True(t, errors.Is(err, errno.ErrBadEncoding))
}

func TestParseBadEncoding(t *testing.T) {
	_, err := Parse("0OIl")
	assert.True(t, errors.Is(err, errno.ErrBadEncoding))

	_, err = Parse("")
	assert.True(t, errors.Is(err, errno.ErrBadEncoding))
}

func TestFromBytesLength(t *testing.T) {
	_, err := FromBytes(make([]byte, 31), MainNet)
	assert.True(t, errors.Is(err, errno.ErrMalformedAddress))

	_, err = FromBytes(make([]byte, 33), MainNet)
	assert.True(t, errors.Is(err, errno.ErrMalformedAddress))
}

func TestBinCarriesNetwork(t *testing.T) {
	a, err := FromBytes(randomKey(t), TestNet)
	require.NoError(t, err)

	bin := a.Bin()
	assert.Equal(t, byte(0x11), bin[0])

	back, err := FromBin(bin)
	require.NoError(t, err)
	assert.True(t, a.Equal(back))

	bin[0] = 0x02
	_, err = FromBin(bin)
	assert.True(t, errors.Is(err, errno.ErrUnknownKeyType))
}
