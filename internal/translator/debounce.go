package translator

import (
	"context"
	"sync"
	"time"
)

const DefaultDebounce = 300 * time.Millisecond

// Debouncer coalesces rapid language selections. Only the last selection
// made within the delay window starts a cycle.
type Debouncer struct {
	o        *Orchestrator
	ctx      context.Context
	delay    time.Duration
	onResult func(PageResult)

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// NewDebouncer returns a Debouncer whose cycles run with ctx. onResult,
// when non-nil, receives every cycle result.
func NewDebouncer(ctx context.Context, o *Orchestrator, delay time.Duration, onResult func(PageResult)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{o: o, ctx: ctx, delay: delay, onResult: onResult}
}

// Select records a language selection and restarts the delay window.
func (d *Debouncer) Select(code string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.o.SetLanguage(code)
		res := d.o.TranslatePage(d.ctx)
		if d.onResult != nil {
			d.onResult(res)
		}
	})
}

// Stop cancels a pending selection and waits for a running cycle to finish.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Flush waits for the pending selection, if any, to fire and finish its cycle.
func (d *Debouncer) Flush() {
	d.wg.Wait()
}
