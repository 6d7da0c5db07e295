package ai

import (
	"fmt"
	"strings"
)

// PromptConfig is one chat turn ready for dispatch. Model, when set,
// overrides the scenario's resolved model.
type PromptConfig struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	Model       string
}

const (
	promptTemperature = 0.3
	promptMaxTokens   = 500
)

// ContentRecognitionPrompt classifies free text into task / goal / principle.
func ContentRecognitionPrompt(content string) PromptConfig {
	return PromptConfig{
		System: "你是一个智能内容分析助手，擅长准确判断用户输入内容的类型。请始终以JSON格式返回分析结果。",
		User: fmt.Sprintf(`请分析以下内容的类型：

内容：%s

类型说明：
- task（任务）：需要完成的具体事项
- goal（目标）：想要达成的长期愿景或阶段性成果
- principle（心则）：个人的价值观、信念或行为准则

请返回JSON：{"type":"task|goal|principle","summary":"一句话摘要","confidence":0.85,"reasoning":"判断理由"}`, content),
		Temperature: promptTemperature,
		MaxTokens:   promptMaxTokens,
	}
}

// TaskAnalysisPrompt enriches a task with priority, time and goal
// alignment hints, using the user's active goals as context.
func TaskAnalysisPrompt(content string, goals []Goal) PromptConfig {
	return PromptConfig{
		System: "你是一个任务分析助手，擅长评估任务的优先级、耗时和与用户目标的关联。请始终以JSON格式返回分析结果。",
		User: fmt.Sprintf(`请分析以下任务：

任务：%s

用户目标：
%s

请返回JSON：{"priority":"low|medium|high","estimatedTime":"预计耗时","category":"分类","suggestions":["建议"],"timeAnalysis":{"estimatedDuration":"时长","hasDeadline":false,"suggestedTimeframe":"建议时段"},"repetitionAnalysis":{"isRecurring":false,"frequency":"daily|weekly|monthly"},"goalAlignment":{"relatedGoals":[{"goalTitle":"目标标题","alignmentScore":0.8,"reasoning":"关联理由"}]}}`,
			content, formatGoals(goals)),
		Temperature: promptTemperature,
		MaxTokens:   promptMaxTokens,
	}
}

// GoalAlignmentPrompt scores how well a task serves the given goals.
func GoalAlignmentPrompt(task string, goalTitles []string) PromptConfig {
	return PromptConfig{
		System: "你是一个目标对齐分析助手，擅长评估任务与目标之间的关联程度。请始终以JSON格式返回分析结果。",
		User: fmt.Sprintf(`请评估以下任务与目标的对齐程度：

任务：%s

目标列表：
%s

请返回JSON：{"alignmentScore":0.75,"alignedGoals":["目标标题"],"suggestions":["改进建议"]}`,
			task, strings.Join(goalTitles, "\n")),
		Temperature: promptTemperature,
		MaxTokens:   promptMaxTokens,
	}
}

// GeneralPrompt wraps an ad-hoc question with no scenario-specific framing.
func GeneralPrompt(question string) PromptConfig {
	return PromptConfig{
		System:      "你是一个个人效率助手，回答要简洁、可执行。",
		User:        question,
		Temperature: promptTemperature,
		MaxTokens:   promptMaxTokens,
	}
}

// formatGoals renders the goal context one goal per line so the model
// can reference titles verbatim.
func formatGoals(goals []Goal) string {
	if len(goals) == 0 {
		return "（暂无目标）"
	}
	lines := make([]string, 0, len(goals))
	for _, g := range goals {
		lines = append(lines, fmt.Sprintf("%s | %s | %s | %s",
			g.Title, g.Description, g.Category, strings.Join(g.Keywords, ",")))
	}
	return strings.Join(lines, "\n")
}
