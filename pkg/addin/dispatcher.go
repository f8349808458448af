package addin

import (
	"reflect"
	"sync"
)

// HandlerFunc is a multicast event handler. It receives the dispatched
// arguments and its return value is collected by CallHandlers.
type HandlerFunc func(args ...any) any

type registration struct {
	fn    HandlerFunc
	fnPtr uintptr
	scope any
}

// Dispatcher is a name-keyed multicast registry of handler/scope pairs.
// Registration order is preserved and is the invocation order.
//
// There is no fault isolation: a handler that panics aborts the dispatch
// pass, skipping the remaining handlers, and the panic propagates to the
// dispatcher's caller. Callers rely on this fail-fast behavior; it is part
// of the contract, fragile as it is.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[string][]registration
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[string][]registration{}}
}

// AddHandler appends the handler/scope pair to the named event's list. A
// nil handler is ignored. The scope is an opaque owner token used only for
// removal identity; it carries no invocation semantics.
func (d *Dispatcher) AddHandler(event string, fn HandlerFunc, scope any) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.handlers[event] = append(d.handlers[event], registration{
		fn:    fn,
		fnPtr: reflect.ValueOf(fn).Pointer(),
		scope: scope,
	})
	d.mu.Unlock()
}

// RemoveHandler removes every entry whose handler and scope are both
// identical to the arguments. Removing from an event with no registrations
// is a no-op.
func (d *Dispatcher) RemoveHandler(event string, fn HandlerFunc, scope any) {
	if fn == nil {
		return
	}
	ptr := reflect.ValueOf(fn).Pointer()

	d.mu.Lock()
	defer d.mu.Unlock()
	list, ok := d.handlers[event]
	if !ok {
		return
	}
	kept := list[:0]
	for _, reg := range list {
		if reg.fnPtr == ptr && sameScope(reg.scope, scope) {
			continue
		}
		kept = append(kept, reg)
	}
	if len(kept) == 0 {
		delete(d.handlers, event)
		return
	}
	d.handlers[event] = kept
}

// CallHandlers invokes every handler registered for the event, in
// registration order, and returns their results in that order. Each handler
// gets its own copy of args. An event with no registrations yields an empty
// result.
//
// The registration list is snapshotted when the dispatch starts: handlers
// added from within a handler fire on the next dispatch, removed ones still
// fire on this one.
func (d *Dispatcher) CallHandlers(event string, args ...any) []any {
	d.mu.Lock()
	snapshot := append([]registration(nil), d.handlers[event]...)
	d.mu.Unlock()

	results := make([]any, 0, len(snapshot))
	for _, reg := range snapshot {
		callArgs := append([]any(nil), args...)
		results = append(results, reg.fn(callArgs...))
	}
	return results
}

// HandlerCount reports how many handlers the event currently has.
func (d *Dispatcher) HandlerCount(event string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers[event])
}

// sameScope compares two owner tokens by identity. Comparable values use
// ==; reference kinds fall back to pointer identity so that map, slice, and
// func scopes can still match themselves.
func sameScope(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra := reflect.ValueOf(a)
	rb := reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	if ra.Type().Comparable() {
		return a == b
	}
	switch ra.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		return ra.Pointer() == rb.Pointer()
	default:
		return false
	}
}
