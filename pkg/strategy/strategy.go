package strategy

import (
	"sync"

	"github.com/zen-systems/taskpilot/pkg/config"
	"github.com/zen-systems/taskpilot/pkg/task"
)

// Key identifies a performance record.
type Key struct {
	TaskType task.Type
	Model    string
}

// Record holds the rolling performance statistics for one key.
// All float fields stay within [0,1] except Latency, which is seconds.
type Record struct {
	SuccessRate float64 `json:"success_rate"`
	MeanQuality float64 `json:"mean_quality"`
	MeanLatency float64 `json:"mean_latency"`
	Samples     int     `json:"samples"`
}

// record is the internal, lock-guarded form.
type record struct {
	mu sync.Mutex
	Record
}

// Manager tracks per-(task type, model) performance with exponentially
// weighted moving averages. Updates for the same key are serialized;
// different keys update in parallel.
type Manager struct {
	mu      sync.RWMutex
	records map[Key]*record

	alpha   float64
	neutral float64
	minSamp int
}

// NewManager creates a manager with the given strategy tunables.
func NewManager(cfg config.StrategyConfig) *Manager {
	return &Manager{
		records: make(map[Key]*record),
		alpha:   cfg.Alpha,
		neutral: cfg.NeutralPrior,
		minSamp: cfg.MinSamples,
	}
}

// get returns the record for a key, creating it seeded at the neutral
// prior on first observation.
func (m *Manager) get(key Key) *record {
	m.mu.RLock()
	r, ok := m.records[key]
	m.mu.RUnlock()
	if ok {
		return r
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[key]; ok {
		return r
	}
	r = &record{Record: Record{
		SuccessRate: m.neutral,
		MeanQuality: m.neutral,
	}}
	m.records[key] = r
	return r
}

// RecordOutcome folds one evaluated response into the key's record.
// Quality is clamped to [0,1]; negative latency is treated as zero.
func (m *Manager) RecordOutcome(taskType task.Type, model string, success bool, quality, latency float64) {
	quality = clamp01(quality)
	if latency < 0 {
		latency = 0
	}

	r := m.get(Key{TaskType: taskType, Model: model})
	r.mu.Lock()
	defer r.mu.Unlock()

	obs := 0.0
	if success {
		obs = 1.0
	}
	r.SuccessRate = m.alpha*obs + (1-m.alpha)*r.SuccessRate
	r.MeanQuality = m.alpha*quality + (1-m.alpha)*r.MeanQuality
	if r.Samples == 0 {
		r.MeanLatency = latency
	} else {
		r.MeanLatency = m.alpha*latency + (1-m.alpha)*r.MeanLatency
	}
	r.Samples++
}

// SuccessRate returns the adaptive success rate for a key, blended
// toward the neutral prior when the sample count is below the
// confidence threshold.
func (m *Manager) SuccessRate(taskType task.Type, model string) float64 {
	rec := m.Snapshot(taskType, model)
	return m.blend(rec.SuccessRate, rec.Samples)
}

// MeanQuality returns the adaptive quality score for a key, blended
// like SuccessRate.
func (m *Manager) MeanQuality(taskType task.Type, model string) float64 {
	rec := m.Snapshot(taskType, model)
	return m.blend(rec.MeanQuality, rec.Samples)
}

// MeanLatency returns the adaptive mean latency in seconds for a key,
// zero when unobserved.
func (m *Manager) MeanLatency(taskType task.Type, model string) float64 {
	return m.Snapshot(taskType, model).MeanLatency
}

// Samples returns the observation count for a key.
func (m *Manager) Samples(taskType task.Type, model string) int {
	return m.Snapshot(taskType, model).Samples
}

// Snapshot returns an internally consistent copy of the record for a
// key. Unobserved keys report the neutral prior with zero samples.
func (m *Manager) Snapshot(taskType task.Type, model string) Record {
	m.mu.RLock()
	r, ok := m.records[Key{TaskType: taskType, Model: model}]
	m.mu.RUnlock()
	if !ok {
		return Record{SuccessRate: m.neutral, MeanQuality: m.neutral}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Record
}

// All returns a consistent copy of every record, keyed for reporting.
func (m *Manager) All() map[Key]Record {
	m.mu.RLock()
	keys := make([]Key, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	m.mu.RUnlock()

	out := make(map[Key]Record, len(keys))
	for _, k := range keys {
		out[k] = m.Snapshot(k.TaskType, k.Model)
	}
	return out
}

// Reset atomically clears all records.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[Key]*record)
}

// blend pulls a low-confidence value toward the neutral prior.
func (m *Manager) blend(value float64, samples int) float64 {
	if samples >= m.minSamp {
		return value
	}
	confidence := float64(samples) / float64(m.minSamp)
	return confidence*value + (1-confidence)*m.neutral
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
