package httpapi

import "context"

// baseCtx is canceled when the daemon shuts down, so in-flight
// generations stop even if their client keeps the connection open.
var baseCtx = context.Background()

// SetBaseContext installs the process lifetime context handlers derive
// from. Passing nil restores the default Background context.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	baseCtx = ctx
}

// mergeCancel returns a context canceled as soon as either parent is
// done. Callers must invoke the cancel func to release the watcher.
func mergeCancel(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		select {
		case <-a.Done():
		case <-b.Done():
		}
	}()
	return ctx, cancel
}
