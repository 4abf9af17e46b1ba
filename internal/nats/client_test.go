package nats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/workspace-assistant/pkg/logger"
)

func TestConnectOptions(t *testing.T) {
	base, err := connectOptions(Config{URL: "nats://localhost:4222"}, logger.Nop())
	require.NoError(t, err)

	withToken, err := connectOptions(Config{URL: "nats://localhost:4222", Token: "s3cret"}, logger.Nop())
	require.NoError(t, err)
	assert.Len(t, withToken, len(base)+1)

	// Partial TLS settings are ignored.
	partial, err := connectOptions(Config{CAFile: "/missing/ca.pem"}, logger.Nop())
	require.NoError(t, err)
	assert.Len(t, partial, len(base))
}

func TestConnectOptions_BadTLS(t *testing.T) {
	dir := t.TempDir()
	ca := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(ca, []byte("not a certificate"), 0o600))

	_, err := connectOptions(Config{CAFile: ca, CertFile: "c.pem", KeyFile: "k.pem"}, logger.Nop())
	assert.ErrorContains(t, err, "no certificates found")

	_, err = connectOptions(Config{CAFile: filepath.Join(dir, "absent.pem"), CertFile: "c.pem", KeyFile: "k.pem"}, logger.Nop())
	assert.ErrorContains(t, err, "read NATS CA file")
}

func TestClient_NilConnection(t *testing.T) {
	c := &Client{logger: logger.Nop()}
	assert.False(t, c.IsConnected())
	c.Close()
}
