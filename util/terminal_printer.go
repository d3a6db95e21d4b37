package util

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// TerminalPrinter redraws a fixed set of panels in place at a fixed
// frequency. Producers update panels from any goroutine.
type TerminalPrinter struct {
	panels    []*Panel
	frequency time.Duration
	doneCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	writer  *uilive.Writer
	writers []io.Writer
}

func NewTerminalPrinter(out io.Writer, frequency time.Duration) *TerminalPrinter {
	writer := uilive.New()
	writer.Out = out
	return &TerminalPrinter{
		panels:    make([]*Panel, 0),
		frequency: frequency,
		doneCh:    make(chan struct{}),

		writer:  writer,
		writers: make([]io.Writer, 0),
	}
}

// NewPanel adds a panel below the existing ones. Call before Start.
func (t *TerminalPrinter) NewPanel() *Panel {
	p := NewPanel()
	t.panels = append(t.panels, p)
	if len(t.panels) > 1 {
		t.writers = append(t.writers, t.writer.Newline())
	} else {
		t.writers = append(t.writers, t.writer)
	}
	return p
}

func (t *TerminalPrinter) Start(ctx context.Context) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			select {
			case <-t.doneCh:
				t.print()
				return
			case <-ctx.Done():
				t.print()
				return
			case <-time.After(t.frequency):
				t.print()
			}
		}
	}()
}

// Stop draws the panels one last time and waits for the redraw loop.
func (t *TerminalPrinter) Stop() {
	t.stopOnce.Do(func() { close(t.doneCh) })
	t.wg.Wait()
}

func (t *TerminalPrinter) print() {
	for i, panel := range t.panels {
		fmt.Fprint(t.writers[i], panel.Get()+"\n")
	}
	t.writer.Flush()
}

// Panel holds the latest text of one region of the display.
type Panel struct {
	mu        *sync.Mutex
	printable string
}

func NewPanel() *Panel {
	return &Panel{
		mu:        new(sync.Mutex),
		printable: "",
	}
}

// Set the panel text (blocking)
func (p *Panel) Set(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
}

// TrySet sets the panel text unless a redraw holds the lock.
func (p *Panel) TrySet(s string) bool {
	if p.mu.TryLock() {
		defer p.mu.Unlock()
		p.printable = s
		return true
	}
	return false
}

func (p *Panel) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printable
}
