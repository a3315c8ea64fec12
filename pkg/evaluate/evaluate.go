package evaluate

import (
	"strings"

	"github.com/zen-systems/taskpilot/pkg/config"
	"github.com/zen-systems/taskpilot/pkg/task"
)

// Result is the structured outcome of evaluating one response.
// A bad response is routine output, never an error.
type Result struct {
	Passed   bool     `json:"passed"`
	Quality  float64  `json:"quality"`
	Failures []string `json:"failures,omitempty"`
}

// Evaluator scores a model response against task-type expectations.
type Evaluator struct {
	passThreshold float64
	minLength     int
}

// NewEvaluator creates an evaluator with the given tunables.
func NewEvaluator(cfg config.EvaluatorConfig) *Evaluator {
	return &Evaluator{
		passThreshold: cfg.PassThreshold,
		minLength:     cfg.MinLength,
	}
}

// check is one weighted sub-score contribution.
type check struct {
	name   string
	weight float64
	run    func(text string) (float64, string)
}

// Evaluate applies the check sequence for the task type and aggregates
// a weighted mean quality score clipped to [0,1]. Empty or garbled
// content produces a failing result with captured reasons.
func (e *Evaluator) Evaluate(taskType task.Type, prompt, response string) Result {
	checks := e.checksFor(taskType, prompt)

	var weighted, totalWeight float64
	var failures []string
	for _, c := range checks {
		score, reason := c.run(response)
		weighted += c.weight * score
		totalWeight += c.weight
		if reason != "" {
			failures = append(failures, c.name+": "+reason)
		}
	}

	quality := 0.0
	if totalWeight > 0 {
		quality = weighted / totalWeight
	}
	quality = clamp01(quality)

	return Result{
		Passed:   quality >= e.passThreshold,
		Quality:  quality,
		Failures: failures,
	}
}

// checksFor builds the weighted check sequence for a task type.
func (e *Evaluator) checksFor(taskType task.Type, prompt string) []check {
	checks := []check{
		{name: "substantive_content", weight: 0.25, run: e.checkSubstantive},
		{name: "no_refusal", weight: 0.25, run: checkNoRefusal},
	}

	switch taskType {
	case task.TypeCodeGeneration, task.TypeRefactoring, task.TypeDebugging:
		checks = append(checks,
			check{name: "code_present", weight: 0.35, run: checkCodePresent},
			check{name: "balanced_fences", weight: 0.15, run: checkBalancedFences},
		)
	case task.TypeExplanation, task.TypePlanning, task.TypeCodeReview:
		checks = append(checks,
			check{name: "topical_relevance", weight: 0.35, run: func(text string) (float64, string) {
				return checkTopicalOverlap(prompt, text)
			}},
			check{name: "structure", weight: 0.15, run: checkStructure},
		)
	default:
		checks = append(checks,
			check{name: "topical_relevance", weight: 0.5, run: func(text string) (float64, string) {
				return checkTopicalOverlap(prompt, text)
			}},
		)
	}
	return checks
}

func (e *Evaluator) checkSubstantive(text string) (float64, string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, "response is empty"
	}
	if len(trimmed) < e.minLength {
		return 0.3, "response shorter than minimum length"
	}
	return 1, ""
}

var refusalMarkers = []string{
	"i can't help",
	"i cannot help",
	"i'm unable to",
	"i am unable to",
	"as an ai",
	"error:",
	"internal error",
}

func checkNoRefusal(text string) (float64, string) {
	textLower := strings.ToLower(text)
	for _, marker := range refusalMarkers {
		if strings.Contains(textLower, marker) {
			return 0, "contains refusal or error marker: " + marker
		}
	}
	return 1, ""
}

func checkCodePresent(text string) (float64, string) {
	if strings.Contains(text, "```") {
		return 1, ""
	}
	// Unfenced code still counts if it looks like source.
	for _, hint := range []string{"func ", "def ", "class ", "return ", "import "} {
		if strings.Contains(text, hint) {
			return 0.7, ""
		}
	}
	return 0, "no code block found"
}

func checkBalancedFences(text string) (float64, string) {
	if strings.Count(text, "```")%2 != 0 {
		return 0, "unbalanced code fences"
	}
	return 1, ""
}

// checkTopicalOverlap measures how many significant prompt words recur
// in the response.
func checkTopicalOverlap(prompt, text string) (float64, string) {
	promptWords := significantWords(prompt)
	if len(promptWords) == 0 {
		return 1, ""
	}
	textLower := strings.ToLower(text)

	hits := 0
	for word := range promptWords {
		if strings.Contains(textLower, word) {
			hits++
		}
	}
	overlap := float64(hits) / float64(len(promptWords))
	if overlap < 0.2 {
		return overlap, "response does not address the prompt"
	}
	return clamp01(overlap * 2), ""
}

func checkStructure(text string) (float64, string) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) >= 3 {
		return 1, ""
	}
	return 0.5, ""
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "this": true, "that": true,
	"with": true, "from": true, "what": true, "how": true, "why": true,
	"can": true, "you": true, "please": true, "are": true, "not": true,
}

func significantWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?()[]{}\"'`")
		if len(w) < 4 || stopWords[w] {
			continue
		}
		words[w] = true
	}
	return words
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
