package hostenv

// HostFunc is a synchronous host operation. A returned error is the host
// reporting failure; a panic inside the host propagates to the caller
// unwrapped, matching the direct call-through contract.
type HostFunc func(args ...any) (any, error)

// HostObject is a host-injected API object with named synchronous
// operations. Lookup reports whether the named method exists; absent
// methods are a lookup miss, never an error.
type HostObject interface {
	Lookup(method string) (HostFunc, bool)
}

// MapObject is the simplest HostObject: a name-to-function map. Hosts and
// tests build their API surface with it directly.
type MapObject map[string]HostFunc

func (m MapObject) Lookup(method string) (HostFunc, bool) {
	fn, ok := m[method]
	if !ok || fn == nil {
		return nil, false
	}
	return fn, true
}

// LegacyExternal is the read-only external object older hosts expose. Its
// members are not directly invocable bindings; the only way to call one is
// through the generic CallMember entry point with an explicit member name.
type LegacyExternal interface {
	HasMember(name string) bool
	CallMember(name string, args ...any) (any, error)
}

// AdaptExternal wraps a legacy external object so it can stand in for a
// HostObject. Each Lookup hit returns a thin closure that routes the call
// through CallMember with the member name bound.
func AdaptExternal(ext LegacyExternal) HostObject {
	if ext == nil {
		return nil
	}
	return externalAdapter{ext: ext}
}

type externalAdapter struct {
	ext LegacyExternal
}

func (a externalAdapter) Lookup(method string) (HostFunc, bool) {
	if !a.ext.HasMember(method) {
		return nil, false
	}
	return func(args ...any) (any, error) {
		return a.ext.CallMember(method, args...)
	}, true
}
