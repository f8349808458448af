package hostsim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindlink/add-in-client/pkg/addin"
)

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
room:
  name: Support
  domain: example.net
  topic: tickets
user:
  uri: sip:carol@example.net
  displayName: Carol
domain: example.net
maxMessageLength: 2048
`), 0o644))

	fixture, err := LoadFixture(path)
	require.NoError(t, err)
	require.Equal(t, addin.ChatRoom{Name: "Support", Domain: "example.net", Topic: "tickets"}, fixture.Room)
	require.Equal(t, addin.User{URI: "sip:carol@example.net", DisplayName: "Carol"}, fixture.User)
	require.Equal(t, "example.net", fixture.Domain)
	require.Equal(t, 2048, fixture.MaxMessageLength)
}

func TestLoadFixtureDefaultsMaxMessageLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte("domain: example.net\n"), 0o644))

	fixture, err := LoadFixture(path)
	require.NoError(t, err)
	require.Equal(t, DefaultFixture().MaxMessageLength, fixture.MaxMessageLength)
}

func TestLoadFixtureErrors(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("room: [not, a, map]\n"), 0o644))
	_, err = LoadFixture(path)
	require.Error(t, err)
}
