package validatorpk

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func genKey(t *testing.T) (PubKey, ed25519.PrivateKey) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return FromEd25519(pub), priv
}

func TestFromString(t *testing.T) {
	require := require.New(t)

	const rawHex = "3d4017c3e843895a92b70aa74d1b7ebc9c982ccf2ec4968cc0cd55f12af4660c"

	for _, prefixed := range []string{"e0" + rawHex, "0xe0" + rawHex} {
		got, err := FromString(prefixed)
		require.NoError(err)
		require.Equal(Types.Ed25519, got.Type)
		require.Equal("0xe0"+rawHex, got.String())
	}

	for _, bad := range []string{"", "0x", "-", "e0a"} {
		_, err := FromString(bad)
		require.Error(err, "input %q", bad)
	}
}

func TestWireRoundTrip(t *testing.T) {
	require := require.New(t)
	pk, _ := genKey(t)

	// bytes -> parse
	parsed, err := FromBytes(pk.Bytes())
	require.NoError(err)
	require.True(pk.Equal(parsed))

	// string -> parse
	parsed, err = FromString(pk.String())
	require.NoError(err)
	require.True(pk.Equal(parsed))

	// json -> parse; the encoding is a quoted hex string, not a byte array
	blob, err := json.Marshal(&pk)
	require.NoError(err)
	require.Equal(`"`+pk.String()+`"`, string(blob))
	var decoded PubKey
	require.NoError(json.Unmarshal(blob, &decoded))
	require.True(pk.Equal(decoded))
}

func TestOk(t *testing.T) {
	require := require.New(t)
	pk, _ := genKey(t)

	require.True(pk.Ok())
	require.False(PubKey{}.Ok())
	require.False(PubKey{Type: Types.Ed25519, Raw: []byte{0x01}}.Ok())
	require.False(PubKey{Type: 0xc0, Raw: pk.Raw}.Ok())
}

func TestEmpty(t *testing.T) {
	require := require.New(t)

	require.True(PubKey{}.Empty())
	pk, _ := genKey(t)
	require.False(pk.Empty())
	require.False(PubKey{Type: Types.Ed25519}.Empty())
}

func TestEqual(t *testing.T) {
	require := require.New(t)
	a, _ := genKey(t)
	b, _ := genKey(t)

	require.True(a.Equal(a.Copy()))
	require.False(a.Equal(b))
	require.False(a.Equal(PubKey{Type: 0xc0, Raw: a.Raw}))
}

func TestVerify(t *testing.T) {
	require := require.New(t)
	pk, priv := genKey(t)

	digest := []byte("0123456789abcdef0123456789abcdef")
	sig := ed25519.Sign(priv, digest)

	require.True(pk.Verify(digest, sig))
	// wrong digest
	require.False(pk.Verify([]byte("fedcba9876543210fedcba9876543210"), sig))
	// truncated signature
	require.False(pk.Verify(digest, sig[:32]))
	// malformed key never verifies
	require.False(PubKey{Type: Types.Ed25519, Raw: []byte{0x01}}.Verify(digest, sig))
}

func TestNoSharedMemory(t *testing.T) {
	require := require.New(t)

	// FromEd25519 detaches from the caller's slice
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(err)
	pk := FromEd25519(pub)
	pub[0] ^= 0xff
	require.NotEqual(pub[0], pk.Raw[0])

	// Copy detaches from the receiver
	cp := pk.Copy()
	cp.Raw[0] ^= 0xff
	require.NotEqual(cp.Raw[0], pk.Raw[0])

	// FromBytes detaches from the input
	wire := pk.Bytes()
	parsed, err := FromBytes(wire)
	require.NoError(err)
	wire[1] ^= 0xff
	require.NotEqual(wire[1], parsed.Raw[0])
}
