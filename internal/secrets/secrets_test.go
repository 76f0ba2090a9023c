package secrets_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"onyx.dev/onyx/internal/secrets"
)

func testKey() []byte {
	return []byte("01234567890123456789012345678901")
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	m, err := secrets.NewManager(testKey())
	require.NoError(t, err)

	encrypted, err := m.Encrypt("hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", encrypted)

	decrypted, err := m.Decrypt(encrypted)
	require.NoError(t, err)
	require.Equal(t, "hunter2", decrypted)
}

func TestEncryptDictRoundTrip(t *testing.T) {
	m, err := secrets.NewManager(testKey())
	require.NoError(t, err)

	plain := map[string]string{"api_key": "abc123", "client_secret": "xyz789"}
	encrypted, err := m.EncryptDict(plain)
	require.NoError(t, err)
	for k, v := range encrypted {
		require.NotEqual(t, plain[k], v)
	}

	decrypted, err := m.DecryptDict(encrypted)
	require.NoError(t, err)
	require.Equal(t, plain, decrypted)
}

func TestNewManagerRejectsWrongKeySize(t *testing.T) {
	_, err := secrets.NewManager([]byte("too short"))
	require.Error(t, err)
}

// TestEncryptDecryptRoundTripProperty covers invariant 5: every string
// round-trips through Encrypt/Decrypt unchanged.
func TestEncryptDecryptRoundTripProperty(t *testing.T) {
	m, err := secrets.NewManager(testKey())
	require.NoError(t, err)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("round trip preserves plaintext", prop.ForAll(
		func(s string) bool {
			enc, err := m.Encrypt(s)
			if err != nil {
				return false
			}
			dec, err := m.Decrypt(enc)
			return err == nil && dec == s
		},
		gen.AnyString(),
	))
	properties.TestingRun(t)
}
