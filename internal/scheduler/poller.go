package scheduler

import (
	"log/slog"
	"sync"
	"time"
)

// authPollInterval is how often the resolver chain is re-run while the
// user remains unauthenticated.
const authPollInterval = 3 * time.Second

// AuthPoller re-runs an authentication check on a fixed interval until it
// succeeds or the poller is stopped. The poll must always be stopped on
// teardown so no orphaned timer outlives its owner.
type AuthPoller struct {
	tasks   Tasks
	check   func() bool
	onReady func()
	log     *slog.Logger

	mu   sync.Mutex
	stop func()
}

// NewAuthPoller builds a poller; onReady fires once when check first
// returns true and may be nil.
func NewAuthPoller(tasks Tasks, check func() bool, onReady func(), log *slog.Logger) *AuthPoller {
	if log == nil {
		log = slog.Default()
	}
	return &AuthPoller{tasks: tasks, check: check, onReady: onReady, log: log}
}

// Start begins polling. Starting an already running poller is a no-op.
func (p *AuthPoller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.log.Debug("auth poll started", "interval", authPollInterval)
	p.stop = p.tasks.Every(authPollInterval, p.tick)
}

func (p *AuthPoller) tick() {
	if !p.check() {
		return
	}
	p.log.Info("authentication detected, poll cleared")
	p.Stop()
	if p.onReady != nil {
		p.onReady()
	}
}

// Stop cancels the poll.
func (p *AuthPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
}

// Running reports whether the poll is active.
func (p *AuthPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}
