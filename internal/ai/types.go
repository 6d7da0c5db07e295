package ai

// ContentType is the classification outcome for a capture.
type ContentType string

const (
	ContentTask      ContentType = "task"
	ContentGoal      ContentType = "goal"
	ContentPrinciple ContentType = "principle"
)

// RecognitionResult is the classifier output. Construction always goes
// through normalizeRecognition or fallbackRecognition, so every field
// is populated and Confidence sits in [0,1].
type RecognitionResult struct {
	Type       ContentType `json:"type"`
	Summary    string      `json:"summary"`
	Confidence float64     `json:"confidence"`
	Reasoning  string      `json:"reasoning"`
}

type TimeAnalysis struct {
	EstimatedDuration  string `json:"estimatedDuration"`
	HasDeadline        bool   `json:"hasDeadline"`
	SuggestedTimeframe string `json:"suggestedTimeframe"`
}

type RepetitionAnalysis struct {
	IsRecurring bool   `json:"isRecurring"`
	Frequency   string `json:"frequency,omitempty"` // daily, weekly or monthly
}

type RelatedGoal struct {
	GoalID         string  `json:"goalId,omitempty"`
	GoalTitle      string  `json:"goalTitle"`
	AlignmentScore float64 `json:"alignmentScore"`
	Reasoning      string  `json:"reasoning"`
}

type GoalAlignmentDetail struct {
	RelatedGoals []RelatedGoal `json:"relatedGoals"`
}

// TaskAnalysis is the enricher output. Partial provider output never
// leaks: every nested field is defaulted at construction.
type TaskAnalysis struct {
	Priority           string              `json:"priority"`
	EstimatedTime      string              `json:"estimatedTime"`
	Category           string              `json:"category"`
	Suggestions        []string            `json:"suggestions"`
	TimeAnalysis       TimeAnalysis        `json:"timeAnalysis"`
	RepetitionAnalysis RepetitionAnalysis  `json:"repetitionAnalysis"`
	GoalAlignment      GoalAlignmentDetail `json:"goalAlignment"`
}

type GoalAlignmentResult struct {
	AlignmentScore float64  `json:"alignmentScore"`
	AlignedGoals   []string `json:"alignedGoals"`
	Suggestions    []string `json:"suggestions"`
}

// Goal is the read-only goal context handed to the enricher. Keywords
// arrive already decoded from their stored JSON form.
type Goal struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Keywords    []string `json:"keywords"`
}
