package ai

import (
	"fmt"
	"strings"
)

// Keyword tables for the offline classifier. Goal keywords are checked
// before principle keywords, so ambiguous inputs resolve to goal.
var goalKeywords = []string{
	"目标", "梦想", "希望", "想要", "计划", "愿景",
	"学习", "掌握", "提升", "成为", "实现", "达到",
}

var principleKeywords = []string{
	"原则", "价值观", "信念", "理念", "准则", "信条",
	"感觉", "感悟", "体会", "心得", "启发", "智慧",
}

var typeLabels = map[ContentType]string{
	ContentTask:      "任务",
	ContentGoal:      "目标",
	ContentPrinciple: "心则",
}

// fallbackRecognition classifies by keyword scan when the AI backend is
// unreachable. Deterministic: same input, same result.
func fallbackRecognition(content string) RecognitionResult {
	kind := ContentTask
	switch {
	case containsAny(content, goalKeywords):
		kind = ContentGoal
	case containsAny(content, principleKeywords):
		kind = ContentPrinciple
	}

	return RecognitionResult{
		Type:       kind,
		Summary:    fmt.Sprintf("这是一个%s，内容为：%s", typeLabels[kind], content),
		Confidence: 0.3,
		Reasoning:  "关键词匹配（AI服务不可用）",
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
