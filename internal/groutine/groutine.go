// Package groutine starts named goroutines so their label shows up in
// pprof goroutine dumps and in the context they run with.
package groutine

import (
	"context"
	"runtime/pprof"
)

type ctxKey struct{}

// Label is the pprof label key carrying the goroutine name.
const Label = "granble_goroutine"

// Go runs fn on a new goroutine named name. A nil parent uses context.Background().
//
//	groutine.Go(ctx, "board-dispatch", func(ctx context.Context) {
//	    dispatcher.Run(ctx, ch)
//	})
func Go(parent context.Context, name string, fn func(ctx context.Context)) {
	if parent == nil {
		parent = context.Background()
	}
	go pprof.Do(parent, pprof.Labels(Label, name), func(ctx context.Context) {
		fn(context.WithValue(ctx, ctxKey{}, name))
	})
}

// Name returns the name given to Go, or "" outside a named goroutine.
func Name(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(ctxKey{}).(string)
	return name
}
