package monitor

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"cepradar/server/internal/models"
)

// Lister is the slice of the engine client the monitor polls.
type Lister interface {
	ListCEPs(ctx context.Context) ([]models.CEPRecord, error)
}

// Store persists CEP snapshots between polls and across restarts.
type Store interface {
	ReplaceCEPs(records []models.CEPRecord) error
	ListCEPs() ([]models.CEPRecord, error)
}

// Monitor keeps a live snapshot of the registered CEPs by polling the engine
// while any record is still pending or processing. Once every record reaches
// a terminal status the loop goes idle; registrations and retries wake it
// again. With keepAlive set the loop never goes idle.
//
// A single goroutine performs all polls, so overlapping requests cannot
// happen and snapshot merges are strictly ordered.
type Monitor struct {
	engine    Lister
	store     Store
	logger    *logrus.Logger
	interval  time.Duration
	keepAlive bool

	mu      sync.RWMutex
	records []models.CEPRecord

	wake     chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a monitor. The store may be nil, in which case snapshots are
// held in memory only.
func New(engine Lister, store Store, logger *logrus.Logger, interval time.Duration, keepAlive bool) *Monitor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Monitor{
		engine:    engine,
		store:     store,
		logger:    logger,
		interval:  interval,
		keepAlive: keepAlive,
		wake:      make(chan struct{}, 1),
		stopChan:  make(chan struct{}),
	}
}

// Start loads the cached snapshot, schedules an immediate poll and begins
// the polling loop.
func (m *Monitor) Start() {
	if m.store != nil {
		if cached, err := m.store.ListCEPs(); err != nil {
			m.logger.WithError(err).Warn("Could not load cached CEP snapshot")
		} else {
			m.mu.Lock()
			m.records = cached
			m.mu.Unlock()
		}
	}

	m.Wake()
	m.wg.Add(1)
	go m.run()
}

// Stop shuts the polling loop down and waits for it to exit.
func (m *Monitor) Stop() {
	close(m.stopChan)
	m.wg.Wait()
}

// Wake forces a poll on the next loop iteration. Safe to call from any
// goroutine; extra wakes while one is pending are dropped.
func (m *Monitor) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the current CEP list, newest first.
func (m *Monitor) Snapshot() []models.CEPRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.CEPRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Track prepends a freshly registered record to the snapshot and wakes the
// loop so its processing is followed. An existing record with the same ID is
// replaced in place instead.
func (m *Monitor) Track(record models.CEPRecord) {
	m.mu.Lock()
	if i := m.indexOf(record.ID); i >= 0 {
		m.records[i] = record
	} else {
		m.records = append([]models.CEPRecord{record}, m.records...)
	}
	m.mu.Unlock()

	m.persist()
	if !record.Terminal() {
		m.Wake()
	}
}

// Replace swaps a record in place after a retry and wakes the loop when the
// record went back to a non-terminal state.
func (m *Monitor) Replace(record models.CEPRecord) {
	m.Track(record)
}

// Remove drops a record from the snapshot after a delete.
func (m *Monitor) Remove(id int64) {
	m.mu.Lock()
	if i := m.indexOf(id); i >= 0 {
		m.records = append(m.records[:i], m.records[i+1:]...)
	}
	m.mu.Unlock()

	m.persist()
}

// Active reports whether any record is still pending or processing.
func (m *Monitor) Active() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records {
		if !r.Terminal() {
			return true
		}
	}
	return false
}

// indexOf requires m.mu to be held.
func (m *Monitor) indexOf(id int64) int {
	for i, r := range m.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (m *Monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-m.wake:
			m.poll()
		case <-ticker.C:
			if !m.keepAlive && !m.Active() {
				continue
			}
			m.poll()
		}
	}
}

// poll fetches the authoritative list and merges it into the snapshot.
// Failures are silent beyond a debug log; the next tick retries.
func (m *Monitor) poll() {
	started := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), m.interval)
	defer cancel()

	fetched, err := m.engine.ListCEPs(ctx)
	if err != nil {
		m.logger.WithError(err).Debug("CEP poll failed")
		return
	}

	m.merge(fetched, started)
	m.persist()
}

// merge reconciles a fetched list with the local snapshot. Fetched versions
// win for records both sides know. Local records missing from the fetch are
// dropped as deleted, unless they were registered after the poll started, in
// which case the fetch is stale for them and they are kept.
func (m *Monitor) merge(fetched []models.CEPRecord, pollStart time.Time) {
	byID := make(map[int64]models.CEPRecord, len(fetched))
	for _, r := range fetched {
		byID[r.ID] = r
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	merged := make([]models.CEPRecord, 0, len(fetched))
	for _, local := range m.records {
		if remote, ok := byID[local.ID]; ok {
			merged = append(merged, remote)
			delete(byID, local.ID)
			continue
		}
		if local.CreatedAt.After(pollStart) {
			merged = append(merged, local)
		}
	}
	for _, r := range fetched {
		if _, pending := byID[r.ID]; pending {
			merged = append(merged, r)
		}
	}

	m.records = merged
}

func (m *Monitor) persist() {
	if m.store == nil {
		return
	}
	if err := m.store.ReplaceCEPs(m.Snapshot()); err != nil {
		m.logger.WithError(err).Warn("Failed to persist CEP snapshot")
	}
}
