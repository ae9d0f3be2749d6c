package util

import (
	"sync"
	"time"
)

// Heartbeat runs a set of jobs on a fixed period: availability pings,
// discovery re-advertisement and retained state refreshes.
type Heartbeat struct {
	Frequency int64 `mapstructure:"frequency"` // seconds
	Enabled   bool  `mapstructure:"enabled"`

	mu     sync.Mutex
	jobs   []func()
	ticker *time.Ticker
	stop   chan struct{}
}

func (h *Heartbeat) Load() {
	h.mu.Lock()
	defer h.mu.Unlock()
	// decoding merges into h, so keys dropped on reload must not survive
	h.Enabled = false
	h.Frequency = 0
	err := Config.UnmarshalKey("heartbeat", h)
	if err != nil {
		Logger.Error().Msgf("Error loading heartbeat config: %v", err)
	}
	if h.Frequency <= 0 {
		h.Frequency = 60
	}
}

func (h *Heartbeat) Add(job func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs = append(h.jobs, job)
}

// Start begins ticking. Calling Start again restarts with the current
// frequency, which is how config changes are picked up.
func (h *Heartbeat) Start() {
	h.Stop()
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.Enabled {
		Logger.Debug().Msg("heartbeat disabled")
		return
	}
	h.ticker = time.NewTicker(time.Duration(h.Frequency) * time.Second)
	h.stop = make(chan struct{})
	go h.loop(h.ticker, h.stop)
}

func (h *Heartbeat) loop(ticker *time.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.beat()
		}
	}
}

func (h *Heartbeat) beat() {
	h.mu.Lock()
	jobs := append([]func(){}, h.jobs...)
	h.mu.Unlock()
	for _, job := range jobs {
		job()
	}
}

func (h *Heartbeat) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ticker != nil {
		h.ticker.Stop()
		close(h.stop)
		h.ticker = nil
	}
}
