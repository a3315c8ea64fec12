package learning

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/zen-systems/taskpilot/pkg/config"
	"github.com/zen-systems/taskpilot/pkg/task"
)

// Key identifies a failure-tracking window.
type Key struct {
	TaskType task.Type
	Model    string
}

// Episode records one failed attempt. Episodes are append-only.
type Episode struct {
	Timestamp time.Time `json:"timestamp"`
	TaskType  task.Type `json:"task_type"`
	Model     string    `json:"model"`
	Category  string    `json:"category"`
	Signature string    `json:"signature"`
}

// window is a fixed-capacity ring of recent attempt outcomes for a key.
// true marks a failure.
type window struct {
	mu       sync.Mutex
	outcomes []bool
	next     int
	filled   int
	episodes []Episode
}

// System derives per-key suppression decisions from recent failure
// patterns. Suppression clears on the next success for the key
// (decay-on-success), which keeps behavior deterministic under test.
type System struct {
	mu      sync.RWMutex
	windows map[Key]*window

	capacity  int
	threshold int

	sigMu      sync.Mutex
	signatures map[string]int
}

// NewSystem creates a learning system with the given tunables.
func NewSystem(cfg config.LearningConfig) *System {
	return &System{
		windows:    make(map[Key]*window),
		capacity:   cfg.WindowSize,
		threshold:  cfg.FailureThreshold,
		signatures: make(map[string]int),
	}
}

func (s *System) get(key Key) *window {
	s.mu.RLock()
	w, ok := s.windows[key]
	s.mu.RUnlock()
	if ok {
		return w
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.windows[key]; ok {
		return w
	}
	w = &window{outcomes: make([]bool, s.capacity)}
	s.windows[key] = w
	return w
}

// RecordError appends a failure episode and counts its normalized
// signature.
func (s *System) RecordError(taskType task.Type, model string, err error) {
	if err == nil {
		return
	}
	signature := NormalizeSignature(err.Error())
	episode := Episode{
		Timestamp: time.Now().UTC(),
		TaskType:  taskType,
		Model:     model,
		Category:  categorize(err.Error()),
		Signature: signature,
	}

	w := s.get(Key{TaskType: taskType, Model: model})
	w.mu.Lock()
	w.outcomes[w.next] = true
	w.next = (w.next + 1) % len(w.outcomes)
	if w.filled < len(w.outcomes) {
		w.filled++
	}
	w.episodes = append(w.episodes, episode)
	if len(w.episodes) > len(w.outcomes) {
		w.episodes = w.episodes[len(w.episodes)-len(w.outcomes):]
	}
	w.mu.Unlock()

	s.sigMu.Lock()
	s.signatures[signature]++
	s.sigMu.Unlock()
}

// RecordSuccess appends a success, clearing any active suppression for
// the key.
func (s *System) RecordSuccess(taskType task.Type, model string) {
	w := s.get(Key{TaskType: taskType, Model: model})
	w.mu.Lock()
	defer w.mu.Unlock()
	w.outcomes[w.next] = false
	w.next = (w.next + 1) % len(w.outcomes)
	if w.filled < len(w.outcomes) {
		w.filled++
	}
}

// ShouldExclude reports whether the key's recent failure pattern
// warrants suppression: threshold or more failures within the window,
// with no success since the most recent failure run reaching it.
func (s *System) ShouldExclude(taskType task.Type, model string) bool {
	s.mu.RLock()
	w, ok := s.windows[Key{TaskType: taskType, Model: model}]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Most recent outcome wins: one success clears suppression.
	if w.filled > 0 {
		last := (w.next - 1 + len(w.outcomes)) % len(w.outcomes)
		if !w.outcomes[last] {
			return false
		}
	}

	failures := 0
	for i := 0; i < w.filled; i++ {
		if w.outcomes[i] {
			failures++
		}
	}
	return failures >= s.threshold
}

// KeyStats summarizes the window state for one key.
type KeyStats struct {
	Failures   int  `json:"failures"`
	Window     int  `json:"window"`
	Suppressed bool `json:"suppressed"`
}

// Stats returns per-signature counts and per-key suppression state.
func (s *System) Stats() map[string]any {
	s.sigMu.Lock()
	signatures := make(map[string]int, len(s.signatures))
	for sig, count := range s.signatures {
		signatures[sig] = count
	}
	s.sigMu.Unlock()

	s.mu.RLock()
	keys := make([]Key, 0, len(s.windows))
	for k := range s.windows {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	perKey := make(map[string]KeyStats, len(keys))
	for _, k := range keys {
		suppressed := s.ShouldExclude(k.TaskType, k.Model)

		s.mu.RLock()
		w := s.windows[k]
		s.mu.RUnlock()

		w.mu.Lock()
		failures := 0
		for i := 0; i < w.filled; i++ {
			if w.outcomes[i] {
				failures++
			}
		}
		filled := w.filled
		w.mu.Unlock()

		perKey[string(k.TaskType)+"/"+k.Model] = KeyStats{
			Failures:   failures,
			Window:     filled,
			Suppressed: suppressed,
		}
	}

	return map[string]any{
		"signatures": signatures,
		"keys":       perKey,
	}
}

// Episodes returns a copy of the retained episodes for a key, oldest
// first.
func (s *System) Episodes(taskType task.Type, model string) []Episode {
	s.mu.RLock()
	w, ok := s.windows[Key{TaskType: taskType, Model: model}]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Episode, len(w.episodes))
	copy(out, w.episodes)
	return out
}

var (
	timestampRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:?\d{2})?`)
	uuidRe      = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	hexRe       = regexp.MustCompile(`\b[0-9a-fA-F]{8,}\b`)
	numberRe    = regexp.MustCompile(`\b\d+\b`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// NormalizeSignature strips variable substrings (timestamps, uuids,
// hex ids, numbers) so repeated identical failures collapse to one
// pattern.
func NormalizeSignature(message string) string {
	sig := strings.TrimSpace(message)
	sig = timestampRe.ReplaceAllString(sig, "<ts>")
	sig = uuidRe.ReplaceAllString(sig, "<id>")
	sig = hexRe.ReplaceAllString(sig, "<hex>")
	sig = numberRe.ReplaceAllString(sig, "<n>")
	sig = spaceRe.ReplaceAllString(sig, " ")
	if len(sig) > 160 {
		sig = sig[:160]
	}
	return sig
}

// categorize buckets an error message into a coarse category.
func categorize(message string) string {
	msgLower := strings.ToLower(message)
	switch {
	case strings.Contains(msgLower, "deadline") || strings.Contains(msgLower, "timeout"):
		return "timeout"
	case strings.Contains(msgLower, "rate limit") || strings.Contains(msgLower, "429"):
		return "rate_limit"
	case strings.Contains(msgLower, "unauthorized") || strings.Contains(msgLower, "api key"):
		return "auth"
	case strings.Contains(msgLower, "connection") || strings.Contains(msgLower, "network"):
		return "network"
	default:
		return "provider"
	}
}
