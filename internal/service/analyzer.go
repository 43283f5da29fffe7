package service

import (
	"strings"

	"github.com/timmy/memematch/internal/domain"
)

// Trigger tables for rule-based query analysis. Matching is substring
// containment over the lowercased input, so multiple labels can fire at once.
var (
	emotionTriggers = map[string][]string{
		"tired": {"累", "疲憊", "好累", "不行了", "撐不下去", "deadline", "加班", "社畜"},
		"angry": {"生氣", "氣", "不爽", "火大", "煩", "討厭"},
		"happy": {"爽", "開心", "高興", "快樂", "讚", "好棒"},
		"sad":   {"難過", "傷心", "哭", "悲傷", "失落"},
		"crazy": {"瘋", "抓狂", "崩潰", "爆炸", "受不了"},
	}

	intentTriggers = map[string][]string{
		"complain":  {"抱怨", "不爽", "煩", "討厭", "爛", "爛透了"},
		"celebrate": {"慶祝", "恭喜", "太棒", "讚", "成功"},
		"mock":      {"嘲諷", "諷刺", "酸", "笑死"},
		"comfort":   {"安慰", "加油", "支持", "陪伴"},
	}

	toneTriggers = map[string][]string{
		"sarcastic": {"笑死", "哈哈", "XD", "www"},
		"cute":      {"可愛", "萌", "好萌"},
		"dark":      {"黑暗", "絕望", "人生好難"},
	}

	// fixed iteration order so repeated analyses of the same text agree
	emotionOrder = []string{"tired", "angry", "happy", "sad", "crazy"}
	intentOrder  = []string{"complain", "celebrate", "mock", "comfort"}
	toneOrder    = []string{"sarcastic", "cute", "dark"}
)

// Analyzer derives emotion, intent, and tone labels from free-form text.
type Analyzer struct{}

// NewAnalyzer creates a query analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze classifies the text against the trigger tables. Every dimension
// falls back to its neutral label when nothing fires, and the lowercased
// text itself becomes the keyword list.
func (a *Analyzer) Analyze(text string) *domain.QueryAnalysis {
	lower := strings.ToLower(text)

	return &domain.QueryAnalysis{
		Emotion:      matchTriggers(lower, emotionTriggers, emotionOrder, domain.EmotionNeutral),
		Intent:       matchTriggers(lower, intentTriggers, intentOrder, domain.IntentGeneral),
		Tone:         matchTriggers(lower, toneTriggers, toneOrder, domain.ToneNeutral),
		Keywords:     []string{lower},
		OriginalText: text,
	}
}

func matchTriggers(text string, triggers map[string][]string, order []string, fallback string) []string {
	var labels []string
	for _, label := range order {
		for _, trigger := range triggers[label] {
			if strings.Contains(text, trigger) {
				labels = append(labels, label)
				break
			}
		}
	}
	if len(labels) == 0 {
		return []string{fallback}
	}
	return labels
}
