package classify

import (
	"testing"

	"github.com/zen-systems/taskpilot/pkg/fault"
	"github.com/zen-systems/taskpilot/pkg/task"
)

func TestClassifier_TaskType(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name     string
		prompt   string
		expected task.Type
	}{
		{
			name:     "refactoring",
			prompt:   "refactor this function to remove duplication",
			expected: task.TypeRefactoring,
		},
		{
			name:     "code generation",
			prompt:   "implement a binary search function",
			expected: task.TypeCodeGeneration,
		},
		{
			name:     "code review",
			prompt:   "review this pull request for style issues",
			expected: task.TypeCodeReview,
		},
		{
			name:     "debugging",
			prompt:   "debug this nil pointer bug",
			expected: task.TypeDebugging,
		},
		{
			name:     "explanation",
			prompt:   "explain what is a goroutine",
			expected: task.TypeExplanation,
		},
		{
			name:     "planning",
			prompt:   "outline a migration plan for the service",
			expected: task.TypePlanning,
		},
		{
			name:     "no trigger match falls back to general",
			prompt:   "hello there",
			expected: task.TypeGeneral,
		},
		{
			name:     "partial word does not trigger",
			prompt:   "the refactored module works now, thanks",
			expected: task.TypeGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taskType, _, err := c.Classify(tt.prompt, Hints{})
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if taskType != tt.expected {
				t.Errorf("Classify() taskType = %v, want %v", taskType, tt.expected)
			}
		})
	}
}

func TestClassifier_Complexity(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name     string
		prompt   string
		expected task.Complexity
	}{
		{
			name:     "default is moderate",
			prompt:   "implement a parser for dates",
			expected: task.Moderate,
		},
		{
			name:     "expert cue",
			prompt:   "fix the race condition in the worker pool",
			expected: task.Expert,
		},
		{
			name:     "trivial cue",
			prompt:   "fix this simple typo",
			expected: task.Trivial,
		},
		{
			name:     "complex cue",
			prompt:   "implement caching across multiple services",
			expected: task.Complex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, complexity, err := c.Classify(tt.prompt, Hints{})
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if complexity != tt.expected {
				t.Errorf("Classify() complexity = %v, want %v", complexity, tt.expected)
			}
		})
	}
}

func TestClassifier_HintsOverride(t *testing.T) {
	c := NewClassifier()
	level := task.Expert

	taskType, complexity, err := c.Classify("fix this simple typo", Hints{
		TaskType:   task.TypePlanning,
		Complexity: &level,
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if taskType != task.TypePlanning {
		t.Errorf("hint did not override task type: got %v", taskType)
	}
	if complexity != task.Expert {
		t.Errorf("hint did not override complexity: got %v", complexity)
	}
}

func TestClassifier_EmptyInput(t *testing.T) {
	c := NewClassifier()

	for _, input := range []string{"", "   ", "\n\t"} {
		_, _, err := c.Classify(input, Hints{})
		if err == nil {
			t.Fatalf("Classify(%q) expected error", input)
		}
		if !fault.IsKind(err, fault.KindClassification) {
			t.Errorf("Classify(%q) error kind = %v, want classification", input, fault.KindOf(err))
		}
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	c := NewClassifier()
	prompt := "review and fix the error handling in this code"

	firstType, firstLevel, err := c.Classify(prompt, Hints{})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		taskType, level, err := c.Classify(prompt, Hints{})
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if taskType != firstType || level != firstLevel {
			t.Fatalf("Classify() not deterministic: got (%v,%v), want (%v,%v)", taskType, level, firstType, firstLevel)
		}
	}
}

func TestContainsTrigger(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		trigger  string
		expected bool
	}{
		{name: "match at start", text: "refactor this code", trigger: "refactor", expected: true},
		{name: "match in middle", text: "please refactor this", trigger: "refactor", expected: true},
		{name: "match at end", text: "time to refactor", trigger: "refactor", expected: true},
		{name: "prefix does not match", text: "prerefactor step", trigger: "refactor", expected: false},
		{name: "suffix does not match", text: "refactoring time", trigger: "refactor", expected: false},
		{name: "phrase trigger", text: "write a function to parse json", trigger: "write a function", expected: true},
		{name: "punctuation boundary", text: "fix, then ship", trigger: "fix", expected: true},
		{name: "later occurrence bounded", text: "refactored code needs a refactor now", trigger: "refactor", expected: true},
		{name: "no match", text: "hello world", trigger: "refactor", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := containsTrigger(tt.text, tt.trigger); got != tt.expected {
				t.Errorf("containsTrigger(%q, %q) = %v, want %v", tt.text, tt.trigger, got, tt.expected)
			}
		})
	}
}
