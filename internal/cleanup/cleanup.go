// Package cleanup holds the resources the CLI must release before exit,
// such as the log file. The root command drains it after Execute returns.
package cleanup

import (
	"errors"
	"fmt"
	"sync"
)

type hook struct {
	name string
	run  func() error
}

var (
	mu    sync.Mutex
	stack []hook
)

// Register pushes a named hook. Hooks run newest first, so a resource
// opened later is released before the ones it may depend on.
func Register(name string, run func() error) {
	if run == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	stack = append(stack, hook{name: name, run: run})
}

// Pending reports how many hooks are waiting to run.
func Pending() int {
	mu.Lock()
	defer mu.Unlock()
	return len(stack)
}

// RunAll drains the stack. A failing hook does not stop the rest; each
// failure is reported under its hook name.
func RunAll() error {
	mu.Lock()
	drained := stack
	stack = nil
	mu.Unlock()

	var errs []error
	for len(drained) > 0 {
		h := drained[len(drained)-1]
		drained = drained[:len(drained)-1]
		if err := h.run(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", h.name, err))
		}
	}
	return errors.Join(errs...)
}
