package scripting

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/mindlink/add-in-client/pkg/addin"
)

// Runtime hosts one JavaScript add-in. All VM access is funneled through
// the event loop; callbacks arriving from the client's transport are
// re-queued onto it.
type Runtime struct {
	loop   *eventloop.EventLoop
	client *addin.Client
}

// NewRuntime starts an event loop and installs the addin global. Close the
// runtime when done with it.
func NewRuntime(client *addin.Client) (*Runtime, error) {
	if client == nil {
		return nil, errors.New("scripting: client is required")
	}
	r := &Runtime{
		loop:   eventloop.NewEventLoop(),
		client: client,
	}
	r.loop.Start()
	if err := r.onLoop(r.install); err != nil {
		r.loop.Stop()
		return nil, err
	}
	return r, nil
}

// Close stops the event loop after pending jobs drain.
func (r *Runtime) Close() {
	r.loop.Stop()
}

// LoadScriptFile reads and runs an add-in script. Must not be called from
// within script code.
func (r *Runtime) LoadScriptFile(path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "scripting: read script %q", path)
	}
	return r.LoadScriptSource(path, string(blob))
}

// LoadScriptSource runs an add-in script on the loop and waits for it to
// finish.
func (r *Runtime) LoadScriptSource(name, source string) error {
	if strings.TrimSpace(name) == "" {
		name = "addin.js"
	}
	return r.onLoop(func(vm *goja.Runtime) error {
		if _, err := vm.RunScript(name, source); err != nil {
			return errors.Wrapf(err, "scripting: run script %q", name)
		}
		return nil
	})
}

// onLoop runs fn on the event loop and waits for its result.
func (r *Runtime) onLoop(fn func(vm *goja.Runtime) error) error {
	done := make(chan error, 1)
	r.loop.RunOnLoop(func(vm *goja.Runtime) {
		done <- fn(vm)
	})
	return <-done
}

func (r *Runtime) install(vm *goja.Runtime) error {
	obj := vm.NewObject()

	getters := map[string]func(onSuccess func(any), onFailure func(error)){
		"getChatRoom": func(onSuccess func(any), onFailure func(error)) {
			r.client.GetChatRoom(func(room addin.ChatRoom) { onSuccess(room) }, onFailure)
		},
		"getLocalUserDetails": func(onSuccess func(any), onFailure func(error)) {
			r.client.GetLocalUserDetails(func(user addin.User) { onSuccess(user) }, onFailure)
		},
		"getDomainDetails": func(onSuccess func(any), onFailure func(error)) {
			r.client.GetDomainDetails(func(domain string) { onSuccess(domain) }, onFailure)
		},
		"getMaxMessageLength": func(onSuccess func(any), onFailure func(error)) {
			r.client.GetMaxMessageLength(func(length int) { onSuccess(length) }, onFailure)
		},
	}
	for name, start := range getters {
		err := obj.Set(name, func(call goja.FunctionCall) goja.Value {
			onSuccess := callableArg(call, 0)
			onFailure := callableArg(call, 1)
			start(
				func(v any) { r.invoke(onSuccess, v) },
				func(err error) { r.invoke(onFailure, err.Error()) },
			)
			return goja.Undefined()
		})
		if err != nil {
			return errors.Wrapf(err, "scripting: install %s", name)
		}
	}

	err := obj.Set("sendMessage", func(call goja.FunctionCall) goja.Value {
		message := call.Argument(0).String()
		alert := call.Argument(1).ToBoolean()
		onSuccess := callableArg(call, 2)
		onFailure := callableArg(call, 3)
		r.client.SendMessage(message, alert,
			func(sent bool) { r.invoke(onSuccess, sent) },
			func(err error) { r.invoke(onFailure, err.Error()) },
		)
		return goja.Undefined()
	})
	if err != nil {
		return errors.Wrap(err, "scripting: install sendMessage")
	}

	err = obj.Set("addMessageReceivedHandler", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("addMessageReceivedHandler requires a function"))
		}
		r.client.AddMessageReceivedHandler(func(message, senderURI string) {
			r.invoke(fn, message, senderURI)
		}, r)
		return goja.Undefined()
	})
	if err != nil {
		return errors.Wrap(err, "scripting: install addMessageReceivedHandler")
	}

	err = obj.Set("addBeforeMessageSendHandler", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("addBeforeMessageSendHandler requires a function"))
		}
		// The interceptor's answer is needed synchronously, so the Go
		// side blocks on the loop. Interception must therefore never be
		// consulted from script code itself.
		r.client.AddBeforeMessageSendHandler(func(message string) bool {
			answer := make(chan bool, 1)
			r.loop.RunOnLoop(func(vm *goja.Runtime) {
				v, err := fn(goja.Undefined(), vm.ToValue(message))
				if err != nil {
					log.Warn().Err(err).Str("component", "scripting").Msg("beforemessagesend handler failed")
					answer <- false
					return
				}
				b, ok := v.Export().(bool)
				answer <- ok && b
			})
			return <-answer
		}, r)
		return goja.Undefined()
	})
	if err != nil {
		return errors.Wrap(err, "scripting: install addBeforeMessageSendHandler")
	}

	err = obj.Set("addClosingHandler", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("addClosingHandler requires a function"))
		}
		r.client.AddClosingHandler(func() {
			r.invoke(fn)
		}, r)
		return goja.Undefined()
	})
	if err != nil {
		return errors.Wrap(err, "scripting: install addClosingHandler")
	}

	return vm.Set("addin", obj)
}

// invoke queues a script callback onto the loop. Arguments cross the
// boundary in their wire shape so scripts see the same keys the host
// protocol uses.
func (r *Runtime) invoke(fn goja.Callable, args ...any) {
	if fn == nil {
		return
	}
	r.loop.RunOnLoop(func(vm *goja.Runtime) {
		values := make([]goja.Value, 0, len(args))
		for _, arg := range args {
			values = append(values, wireValue(vm, arg))
		}
		if _, err := fn(goja.Undefined(), values...); err != nil {
			log.Warn().Err(err).Str("component", "scripting").Msg("script callback failed")
		}
	})
}

func callableArg(call goja.FunctionCall, i int) goja.Callable {
	fn, _ := goja.AssertFunction(call.Argument(i))
	return fn
}

// wireValue converts a Go value through its JSON wire shape so structs
// surface with their camelCase keys rather than Go field names.
func wireValue(vm *goja.Runtime, v any) goja.Value {
	switch v.(type) {
	case nil, string, bool, int, float64:
		return vm.ToValue(v)
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return vm.ToValue(v)
	}
	var plain any
	if err := json.Unmarshal(encoded, &plain); err != nil {
		return vm.ToValue(v)
	}
	return vm.ToValue(plain)
}
