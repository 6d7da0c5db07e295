package ai

// partialRecognition mirrors the JSON the classifier prompt asks for,
// with every field optional.
type partialRecognition struct {
	Type       string  `json:"type"`
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

type partialRelatedGoal struct {
	GoalID         string  `json:"goalId"`
	GoalTitle      string  `json:"goalTitle"`
	AlignmentScore float64 `json:"alignmentScore"`
	Reasoning      string  `json:"reasoning"`
}

type partialTaskAnalysis struct {
	Priority      string   `json:"priority"`
	EstimatedTime string   `json:"estimatedTime"`
	Category      string   `json:"category"`
	Suggestions   []string `json:"suggestions"`
	TimeAnalysis  struct {
		EstimatedDuration  string `json:"estimatedDuration"`
		HasDeadline        bool   `json:"hasDeadline"`
		SuggestedTimeframe string `json:"suggestedTimeframe"`
	} `json:"timeAnalysis"`
	RepetitionAnalysis struct {
		IsRecurring bool   `json:"isRecurring"`
		Frequency   string `json:"frequency"`
	} `json:"repetitionAnalysis"`
	GoalAlignment struct {
		RelatedGoals []partialRelatedGoal `json:"relatedGoals"`
	} `json:"goalAlignment"`
}

type partialAlignment struct {
	AlignmentScore float64  `json:"alignmentScore"`
	AlignedGoals   []string `json:"alignedGoals"`
	Suggestions    []string `json:"suggestions"`
}

// normalizeRecognition fills missing classifier fields. An unknown type
// degrades to task, the safest bucket for follow-up.
func normalizeRecognition(content string, p partialRecognition) RecognitionResult {
	kind := ContentType(p.Type)
	switch kind {
	case ContentTask, ContentGoal, ContentPrinciple:
	default:
		kind = ContentTask
	}

	summary := p.Summary
	if summary == "" {
		summary = content
	}
	confidence := p.Confidence
	if confidence == 0 {
		confidence = 0.5
	}
	reasoning := p.Reasoning
	if reasoning == "" {
		reasoning = "AI分析完成"
	}

	return RecognitionResult{
		Type:       kind,
		Summary:    summary,
		Confidence: clamp01(confidence),
		Reasoning:  reasoning,
	}
}

// normalizeTaskAnalysis defaults every field the model left out, so a
// zero-value partial yields the full fallback enrichment.
func normalizeTaskAnalysis(p partialTaskAnalysis) TaskAnalysis {
	priority := p.Priority
	switch priority {
	case "low", "medium", "high":
	default:
		priority = "medium"
	}

	estimatedTime := p.EstimatedTime
	if estimatedTime == "" {
		estimatedTime = "1小时"
	}
	category := p.Category
	if category == "" {
		category = "其他"
	}
	suggestions := p.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}

	duration := p.TimeAnalysis.EstimatedDuration
	if duration == "" {
		duration = estimatedTime
	}

	frequency := p.RepetitionAnalysis.Frequency
	switch frequency {
	case "daily", "weekly", "monthly":
	default:
		frequency = ""
	}

	related := make([]RelatedGoal, 0, len(p.GoalAlignment.RelatedGoals))
	for _, rg := range p.GoalAlignment.RelatedGoals {
		if rg.GoalTitle == "" {
			continue
		}
		related = append(related, RelatedGoal{
			GoalID:         rg.GoalID,
			GoalTitle:      rg.GoalTitle,
			AlignmentScore: clamp01(rg.AlignmentScore),
			Reasoning:      rg.Reasoning,
		})
	}

	return TaskAnalysis{
		Priority:      priority,
		EstimatedTime: estimatedTime,
		Category:      category,
		Suggestions:   suggestions,
		TimeAnalysis: TimeAnalysis{
			EstimatedDuration:  duration,
			HasDeadline:        p.TimeAnalysis.HasDeadline,
			SuggestedTimeframe: p.TimeAnalysis.SuggestedTimeframe,
		},
		RepetitionAnalysis: RepetitionAnalysis{
			IsRecurring: p.RepetitionAnalysis.IsRecurring,
			Frequency:   frequency,
		},
		GoalAlignment: GoalAlignmentDetail{RelatedGoals: related},
	}
}

// DefaultTaskAnalysis is the enrichment used when the AI backend is
// unavailable or returns garbage.
func DefaultTaskAnalysis() TaskAnalysis {
	return normalizeTaskAnalysis(partialTaskAnalysis{})
}

func normalizeAlignment(p partialAlignment) GoalAlignmentResult {
	score := p.AlignmentScore
	if score == 0 {
		score = 0.5
	}
	aligned := p.AlignedGoals
	if aligned == nil {
		aligned = []string{}
	}
	suggestions := p.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return GoalAlignmentResult{
		AlignmentScore: clamp01(score),
		AlignedGoals:   aligned,
		Suggestions:    suggestions,
	}
}

// DefaultAlignment is the neutral score used when scoring fails.
func DefaultAlignment() GoalAlignmentResult {
	return normalizeAlignment(partialAlignment{})
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
