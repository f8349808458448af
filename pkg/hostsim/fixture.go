package hostsim

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mindlink/add-in-client/pkg/addin"
)

// Fixture is the host state a simulated host answers from.
type Fixture struct {
	Room             addin.ChatRoom `yaml:"room"`
	User             addin.User     `yaml:"user"`
	Domain           string         `yaml:"domain"`
	MaxMessageLength int            `yaml:"maxMessageLength"`
}

// DefaultFixture returns a small self-consistent fixture for demos and
// tests that do not care about the values.
func DefaultFixture() Fixture {
	return Fixture{
		Room: addin.ChatRoom{
			Name:        "Engineering",
			Domain:      "example.org",
			Description: "Engineering team room",
			Topic:       "release planning",
		},
		User: addin.User{
			URI:         "sip:alice@example.org",
			DisplayName: "Alice",
		},
		Domain:           "example.org",
		MaxMessageLength: 512,
	}
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (Fixture, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, errors.Wrapf(err, "read fixture %q", path)
	}
	var fixture Fixture
	if err := yaml.Unmarshal(blob, &fixture); err != nil {
		return Fixture{}, errors.Wrapf(err, "parse fixture %q", path)
	}
	if fixture.MaxMessageLength <= 0 {
		fixture.MaxMessageLength = DefaultFixture().MaxMessageLength
	}
	return fixture, nil
}
