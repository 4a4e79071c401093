/*
Package chat contains the core logic of the relay.

This file defines the inactivity monitor, a background ticker that periodically
sweeps the user registry and ages out idle users. The sweep is purely
interval-based: a user crossing the timeout goes INACTIVE within one interval,
not instantly.
*/
package chat

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/logx"
)

// Monitor periodically marks idle users as INACTIVE.
type Monitor struct {
	// users is the registry being swept.
	users *UserRegistry

	// interval is the time between sweeps.
	interval time.Duration

	// stop asks the loop to exit.
	stop chan struct{}

	// stopOnce guards the stop channel close.
	stopOnce sync.Once

	// wg is used to wait for the loop goroutine during shutdown.
	wg sync.WaitGroup

	// structured logger with monitor context.
	logger zerolog.Logger
}

// NewMonitor constructs a monitor over the given registry. The loop is not
// running until Start is called.
func NewMonitor(users *UserRegistry, interval time.Duration) *Monitor {
	return &Monitor{
		users:    users,
		interval: interval,
		stop:     make(chan struct{}),
		logger:   logx.Component("Monitor"),
	}
}

// Start launches the sweep loop goroutine.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.run()
	m.logger.Info().Dur("interval", m.interval).Msg("Inactivity monitor started.")
}

// run ticks at the configured interval and sweeps the registry until stopped.
func (m *Monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if flipped := m.users.CheckInactive(time.Now()); flipped > 0 {
				m.logger.Debug().Int("flipped", flipped).Msg("Inactivity sweep completed.")
			}
		}
	}
}

// Stop terminates the sweep loop and waits for it to exit. Safe to call more
// than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	m.wg.Wait()
	m.logger.Info().Msg("Inactivity monitor stopped.")
}
