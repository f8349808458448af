package addin

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/mindlink/add-in-client/pkg/hostenv"
)

// markerMethod is the probe used to recognize a usable direct API surface
// on partially populated host objects.
const markerMethod = methodGetChatRoom

// Capabilities is a snapshot of the signals the transport selection is a
// pure function of. Capture one with DetectCapabilities, or build one by
// hand in tests.
type Capabilities struct {
	// ParentAccessible is true when the parent frame's location can be
	// read, i.e. the page is not cross-domain embedded.
	ParentAccessible bool
	// DirectAPI is true when the host-exposed add-in API object carries
	// the marker method.
	DirectAPI bool
	// LegacyExternal is true when the legacy external object carries the
	// marker method.
	LegacyExternal bool
}

// DetectCapabilities probes the environment. Reading the parent location is
// the cross-domain proxy: a denial (any non-ErrNoParent error) or an absent
// parent both mean cross-domain.
func DetectCapabilities(env *hostenv.Environment) Capabilities {
	var caps Capabilities
	if _, err := env.ParentLocation(); err == nil {
		caps.ParentAccessible = true
	}
	if obj := env.AddIns(); obj != nil {
		_, caps.DirectAPI = obj.Lookup(markerMethod)
	}
	if ext := env.External(); ext != nil {
		caps.LegacyExternal = ext.HasMember(markerMethod)
	}
	return caps
}

// SelectTransport picks the integration strategy. The priority order is
// part of the compatibility contract with deployed hosts: a recognizable
// legacy external object, then a recognizable add-in API global, then
// same-origin embedding all select the direct transport; only a
// cross-domain page with no direct surface falls through to messaging.
func SelectTransport(caps Capabilities) TransportKind {
	if caps.LegacyExternal || caps.DirectAPI || caps.ParentAccessible {
		return KindDirect
	}
	return KindMessage
}

// Config configures New.
type Config struct {
	// Environment is the host-interop boundary. Required.
	Environment *hostenv.Environment

	// API optionally pre-assigns the direct transport's API object,
	// bypassing its probe. It does not influence transport selection.
	API hostenv.HostObject
}

// New runs transport selection once and returns the client that owns the
// chosen transport for the page's lifetime. The transport is never
// re-evaluated or swapped at runtime.
func New(cfg Config) (*Client, error) {
	if cfg.Environment == nil {
		return nil, errors.New("addin: environment is required")
	}

	caps := DetectCapabilities(cfg.Environment)
	kind := SelectTransport(caps)
	log.Debug().
		Str("component", "addin").
		Bool("parent_accessible", caps.ParentAccessible).
		Bool("direct_api", caps.DirectAPI).
		Bool("legacy_external", caps.LegacyExternal).
		Stringer("transport", kind).
		Msg("selected transport")

	switch kind {
	case KindMessage:
		t, err := NewMessageTransport(cfg.Environment)
		if err != nil {
			return nil, errors.Wrap(err, "addin: message transport")
		}
		return NewClient(t), nil
	default:
		return NewClient(NewDirectTransport(cfg.Environment, cfg.API)), nil
	}
}
