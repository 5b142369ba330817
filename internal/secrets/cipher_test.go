package secrets

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T, passphrase string) *Cipher {
	t.Helper()
	c, err := NewCipher(passphrase)
	require.NoError(t, err)
	return c
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c := newTestCipher(t, "roundtrip-passphrase")
	for _, p := range []string{"", "gh_token_x", "gho_" + strings.Repeat("a", 36), "ünïcødé ✓"} {
		blob, err := c.Encrypt(p)
		require.NoError(t, err)
		got, err := c.Decrypt(blob)
		require.NoError(t, err)
		require.Equal(t, p, got)
	}
}

func TestEncrypt_LayoutAndFreshNonce(t *testing.T) {
	c := newTestCipher(t, "layout-passphrase")
	a, err := c.Encrypt("gh_token_x")
	require.NoError(t, err)
	b, err := c.Encrypt("gh_token_x")
	require.NoError(t, err)

	// nonce(16) + tag(16) + len(plaintext) bytes, hex encoded
	require.Len(t, a, 2*(nonceSize+tagSize+len("gh_token_x")))
	require.NotEqual(t, a, b, "each call must use a fresh nonce")
	require.Equal(t, strings.ToLower(a), a)
}

// Blob produced by the previous Node.js implementation
// (crypto.scryptSync(pass, "salt", 32) + aes-256-gcm, iv||tag||ct hex).
func TestDecrypt_CompatibleWithExistingCiphertext(t *testing.T) {
	c := newTestCipher(t, "compat-passphrase")
	got, err := c.Decrypt("000102030405060708090a0b0c0d0e0f8b3f7521a40ef341554b854e7ad862c50faf339447592bc1ba37")
	require.NoError(t, err)
	require.Equal(t, "gh_token_x", got)
}

func TestDecrypt_DetectsEverySingleBitFlip(t *testing.T) {
	c := newTestCipher(t, "tamper-passphrase")
	blob, err := c.Encrypt("gh_token_x")
	require.NoError(t, err)
	raw, err := hex.DecodeString(blob)
	require.NoError(t, err)

	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), raw...)
			mutated[i] ^= 1 << bit
			_, err := c.Decrypt(hex.EncodeToString(mutated))
			require.ErrorIs(t, err, ErrDecrypt, "byte %d bit %d", i, bit)
		}
	}

	// flips on the encoded string itself, including case flips
	for i := 0; i < len(blob); i++ {
		for bit := 0; bit < 8; bit++ {
			mutated := []byte(blob)
			mutated[i] ^= 1 << bit
			_, err := c.Decrypt(string(mutated))
			require.ErrorIs(t, err, ErrDecrypt, "char %d bit %d", i, bit)
		}
	}
}

func TestDecrypt_MalformedInputs(t *testing.T) {
	c := newTestCipher(t, "malformed-passphrase")
	for _, in := range []string{"", "zz", "abc", strings.Repeat("00", nonceSize+tagSize-1)} {
		_, err := c.Decrypt(in)
		require.ErrorIs(t, err, ErrDecrypt, "input %q", in)
	}
}

func TestDecrypt_WrongPassphraseFails(t *testing.T) {
	blob, err := newTestCipher(t, "passphrase-one").Encrypt("gh_token_x")
	require.NoError(t, err)
	_, err = newTestCipher(t, "passphrase-two").Decrypt(blob)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestNewCipher_EmptyPassphrase(t *testing.T) {
	_, err := NewCipher("")
	require.Error(t, err)
}
