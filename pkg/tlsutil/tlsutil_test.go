package tlsutil

import (
	"crypto/tls"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSelfSignedCert_Handshake(t *testing.T) {
	paths, err := GenerateSelfSignedCert([]string{"localhost", "127.0.0.1"}, filepath.Join(t.TempDir(), "certs"))
	require.NoError(t, err)

	for _, p := range []string{paths.CACert, paths.CAKey, paths.ServerCert, paths.ServerKey} {
		assert.FileExists(t, p)
	}

	serverCfg, err := LoadServerConfig(paths.ServerCert, paths.ServerKey)
	require.NoError(t, err)
	clientCfg, err := ClientConfig(paths.CACert)
	require.NoError(t, err)
	clientCfg.ServerName = "localhost"

	ln, err := tls.Listen("tcp", "127.0.0.1:0", serverCfg)
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("ok"))
	}()

	conn, err := tls.Dial("tcp", ln.Addr().String(), clientCfg)
	require.NoError(t, err)
	defer conn.Close()

	buf := make([]byte, 2)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(buf))
	assert.Equal(t, "127.0.0.1", conn.RemoteAddr().(*net.TCPAddr).IP.String())
}

func TestClientConfig(t *testing.T) {
	t.Run("system pool", func(t *testing.T) {
		cfg, err := ClientConfig("")
		require.NoError(t, err)
		assert.Nil(t, cfg.RootCAs)
		assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	})

	t.Run("not a certificate", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ca.pem")
		require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))
		_, err := ClientConfig(path)
		assert.ErrorContains(t, err, "no certificates")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ClientCredentials(filepath.Join(t.TempDir(), "missing.pem"))
		assert.ErrorContains(t, err, "read CA file")
	})
}

func TestServerCredentials_MissingFiles(t *testing.T) {
	_, err := ServerCredentials("nope.pem", "nope-key.pem")
	assert.ErrorContains(t, err, "load server key pair")
}
