package memwatch

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
)

// Releasable is the eviction contract the monitor drives. The content cache
// implements it, and sibling caches (image, localization) register as peers
// through the same interface.
type Releasable interface {
	ApproxBytes() int64
	ReleaseModerate()
	ReleaseAll()
}

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

type Config struct {
	Interval    time.Duration
	MediumBytes int64
	HighBytes   int64
}

// Monitor samples aggregate cache usage on an interval and triggers tiered
// cleanup: nothing at low, moderate trims at medium, full clears at high.
type Monitor struct {
	log *logger.Logger
	cfg Config

	mu    sync.Mutex
	peers []Releasable
	level Level

	cancel context.CancelFunc
}

func NewMonitor(log *logger.Logger, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MediumBytes <= 0 {
		cfg.MediumBytes = 4 << 20
	}
	if cfg.HighBytes <= cfg.MediumBytes {
		cfg.HighBytes = cfg.MediumBytes * 2
	}
	return &Monitor{
		log:   log.With("component", "MemoryPressureMonitor"),
		cfg:   cfg,
		level: LevelLow,
	}
}

func (m *Monitor) Register(peer Releasable) {
	if peer == nil {
		return
	}
	m.mu.Lock()
	m.peers = append(m.peers, peer)
	m.mu.Unlock()
}

func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sample()
			}
		}
	}()
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()
}

// Level returns the classification from the most recent sample.
func (m *Monitor) Level() Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// Sample classifies current usage and runs the cleanup tier. Exported so
// callers can force a check outside the ticker.
func (m *Monitor) Sample() Level {
	m.mu.Lock()
	peers := make([]Releasable, len(m.peers))
	copy(peers, m.peers)
	m.mu.Unlock()

	var total int64
	for _, p := range peers {
		total += p.ApproxBytes()
	}

	level := LevelLow
	switch {
	case total >= m.cfg.HighBytes:
		level = LevelHigh
	case total >= m.cfg.MediumBytes:
		level = LevelMedium
	}

	m.mu.Lock()
	changed := level != m.level
	m.level = level
	m.mu.Unlock()

	switch level {
	case LevelMedium:
		m.log.Warn("memory pressure medium, trimming caches", "bytes", total)
		for _, p := range peers {
			p.ReleaseModerate()
		}
	case LevelHigh:
		m.log.Warn("memory pressure high, clearing caches", "bytes", total)
		for _, p := range peers {
			p.ReleaseAll()
		}
	default:
		if changed {
			m.log.Info("memory pressure back to low", "bytes", total)
		}
	}
	return level
}
