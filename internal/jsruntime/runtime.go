// Package jsruntime executes compiled configuration artifacts in an embedded
// JavaScript engine.
package jsruntime

import (
	"context"
	"fmt"
	"os"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"

	"github.com/confload/confload/internal/resolver"
)

// Runtime implements resolver.Loader with a goja engine. Every load gets a
// fresh runtime and event loop, so a rebuilt artifact can never be shadowed
// by an earlier in-process evaluation.
type Runtime struct{}

// New creates a runtime
func New() *Runtime {
	return &Runtime{}
}

// LoadFresh evaluates the CommonJS artifact and returns its configuration
// export, or nil if the module does not define one. The token is folded into
// the script name so stack traces identify this particular load.
func (r *Runtime) LoadFresh(ctx context.Context, artifact, token string) (*resolver.Export, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := os.ReadFile(artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	loop := eventloop.NewEventLoop()

	var (
		exported goja.Value
		value    any
		callable goja.Callable
		runErr   error
	)

	loop.Run(func(vm *goja.Runtime) {
		exported, runErr = evaluate(vm, string(src), artifact+"?t="+token)
		if runErr != nil || exported == nil {
			return
		}

		if fn, ok := goja.AssertFunction(exported); ok {
			callable = fn
			return
		}

		// Export must happen on the loop; goja values are not safe to
		// touch once it has stopped.
		value = exported.Export()
	})

	if runErr != nil {
		return nil, runErr
	}

	if exported == nil {
		return nil, nil // Missing export
	}

	if callable == nil {
		return &resolver.Export{Value: value}, nil
	}

	return &resolver.Export{
		Producer: func(ctx context.Context) (any, error) {
			return produce(ctx, loop, callable)
		},
	}, nil
}

// evaluate runs src as a CommonJS module and returns its configuration
// export, or nil when the module does not define one.
func evaluate(vm *goja.Runtime, src, name string) (goja.Value, error) {
	wrapper := "(function(module, exports, require) {\n" + src + "\n})"

	v, err := vm.RunScript(name, wrapper)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate artifact: %w", err)
	}

	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("artifact wrapper did not evaluate to a function")
	}

	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}

	req := vm.Get("require")
	if req == nil {
		req = goja.Undefined()
	}

	if _, err := fn(goja.Undefined(), module, exports, req); err != nil {
		return nil, fmt.Errorf("failed to execute artifact: %w", err)
	}

	result := module.Get("exports")
	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return nil, nil
	}

	export := result.ToObject(vm).Get(resolver.ExportName)
	if export == nil || goja.IsUndefined(export) || goja.IsNull(export) {
		return nil, nil
	}

	return export, nil
}

// produce invokes a deferred configuration producer on the loop and settles
// any promise it returns. loop.Run does not return until the job queue
// drains, so a returned promise is settled by the time the call completes.
func produce(ctx context.Context, loop *eventloop.EventLoop, fn goja.Callable) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		result  any
		promise *goja.Promise
		callErr error
	)

	loop.Run(func(vm *goja.Runtime) {
		v, err := fn(goja.Undefined())
		if err != nil {
			callErr = fmt.Errorf("configuration producer failed: %w", err)
			return
		}

		if p, ok := v.Export().(*goja.Promise); ok {
			promise = p
			return
		}

		result = v.Export()
	})

	if callErr != nil {
		return nil, callErr
	}

	if promise == nil {
		return result, nil
	}

	var err error
	loop.Run(func(vm *goja.Runtime) {
		switch promise.State() {
		case goja.PromiseStateFulfilled:
			result = promise.Result().Export()
		case goja.PromiseStateRejected:
			err = fmt.Errorf("configuration producer rejected: %s", promise.Result().String())
		default:
			err = fmt.Errorf("configuration producer never settled")
		}
	})

	return result, err
}
