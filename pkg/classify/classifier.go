package classify

import (
	"errors"
	"sort"
	"strings"

	"github.com/zen-systems/taskpilot/pkg/fault"
	"github.com/zen-systems/taskpilot/pkg/task"
)

// Hints carries optional caller-supplied overrides. A set field always
// wins over heuristic inference for that field.
type Hints struct {
	TaskType   task.Type
	Complexity *task.Complexity
}

// Classifier maps raw request text to a (task type, complexity) pair.
// Classification is deterministic for identical input and trigger sets.
type Classifier struct {
	triggers map[task.Type][]string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTriggers replaces the trigger set for a task type.
func WithTriggers(t task.Type, triggers []string) Option {
	return func(c *Classifier) {
		c.triggers[t] = triggers
	}
}

// NewClassifier creates a classifier with the default trigger sets.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{triggers: defaultTriggers()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultTriggers() map[task.Type][]string {
	return map[task.Type][]string{
		task.TypeCodeGeneration: {"implement", "code", "write a function", "build", "create", "scaffold", "generate"},
		task.TypeCodeReview:     {"review", "check", "audit", "evaluate", "critique"},
		task.TypeRefactoring:    {"refactor", "restructure", "migrate", "rewrite", "remove duplication", "clean up"},
		task.TypeExplanation:    {"explain", "what is", "how does", "describe", "summarize", "why"},
		task.TypeDebugging:      {"debug", "fix", "error", "bug", "failing", "crash", "stack trace"},
		task.TypePlanning:       {"plan", "outline", "design", "architecture", "roadmap", "break down"},
	}
}

// Classify determines the task type and complexity for a request.
// Empty or blank input fails with a classification error; anything else
// classifies, falling back to (general, moderate) when no trigger matches.
func (c *Classifier) Classify(text string, hints Hints) (task.Type, task.Complexity, error) {
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return "", 0, fault.New(fault.KindClassification, "classify", errors.New("input is empty after normalization"))
	}

	taskType := hints.TaskType
	if taskType == "" {
		taskType = c.inferType(normalized)
	}

	complexity := c.inferComplexity(normalized)
	if hints.Complexity != nil {
		complexity = *hints.Complexity
	}

	return taskType, complexity, nil
}

// inferType scores trigger matches per task type and returns the best.
// Ties break lexicographically by task type for determinism.
func (c *Classifier) inferType(text string) task.Type {
	textLower := strings.ToLower(text)

	type candidate struct {
		taskType task.Type
		score    int
	}
	var candidates []candidate
	for taskType, triggers := range c.triggers {
		score := 0
		for _, trig := range triggers {
			if containsTrigger(textLower, strings.ToLower(trig)) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, candidate{taskType, score})
		}
	}

	if len(candidates) == 0 {
		return task.TypeGeneral
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score == candidates[j].score {
			return candidates[i].taskType < candidates[j].taskType
		}
		return candidates[i].score > candidates[j].score
	})

	return candidates[0].taskType
}

// complexity cue phrases, matched with word boundaries.
var (
	expertCues  = []string{"distributed", "concurrency", "race condition", "deadlock", "memory leak", "security", "cryptography", "formal proof"}
	complexCues = []string{"architecture", "performance", "optimize", "across", "multiple", "system", "migration", "end to end"}
	trivialCues = []string{"simple", "trivial", "one-liner", "quick", "typo", "rename"}
)

// inferComplexity estimates difficulty from structure and cue words.
func (c *Classifier) inferComplexity(text string) task.Complexity {
	textLower := strings.ToLower(text)

	for _, cue := range expertCues {
		if containsTrigger(textLower, cue) {
			return task.Expert
		}
	}
	for _, cue := range trivialCues {
		if containsTrigger(textLower, cue) {
			return task.Trivial
		}
	}

	level := task.Moderate
	if len(text) > 600 || strings.Count(text, "```") >= 2 {
		level = task.Complex
	}
	for _, cue := range complexCues {
		if containsTrigger(textLower, cue) {
			level = task.Complex
			break
		}
	}
	return level
}

// containsTrigger checks if the text contains the trigger phrase.
// It looks for the trigger as a word or phrase boundary match.
func containsTrigger(text, trigger string) bool {
	start := 0
	for {
		idx := strings.Index(text[start:], trigger)
		if idx == -1 {
			return false
		}
		idx += start

		boundedBefore := idx == 0 || !isWordChar(text[idx-1])
		endIdx := idx + len(trigger)
		boundedAfter := endIdx >= len(text) || !isWordChar(text[endIdx])
		if boundedBefore && boundedAfter {
			return true
		}
		start = idx + 1
	}
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
