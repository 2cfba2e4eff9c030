package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecretsFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	secrets := map[string]string{"ANTHROPIC_API_KEY": "sk-test-123"}

	require.NoError(t, EncryptSecretsFile(dir, "hunter2", secrets))

	got, err := DecryptSecretsFile(dir, "hunter2")
	require.NoError(t, err)
	require.Equal(t, secrets, got)
}

func TestDecryptSecretsFileWrongPasswordFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EncryptSecretsFile(dir, "hunter2", map[string]string{"K": "V"}))

	_, err := DecryptSecretsFile(dir, "wrong")
	require.Error(t, err)
}

func TestGetSecretFallsBackToEnv(t *testing.T) {
	SetDecryptedSecrets(nil)
	t.Setenv("RCVE_TEST_SECRET", "from-env")

	got, err := GetSecret("RCVE_TEST_SECRET")
	require.NoError(t, err)
	require.Equal(t, "from-env", got)
}

func TestGetSecretPrefersDecryptedOverEnv(t *testing.T) {
	t.Setenv("RCVE_TEST_SECRET", "from-env")
	SetDecryptedSecrets(map[string]string{"RCVE_TEST_SECRET": "from-file"})
	defer SetDecryptedSecrets(nil)

	got, err := GetSecret("RCVE_TEST_SECRET")
	require.NoError(t, err)
	require.Equal(t, "from-file", got)
}
