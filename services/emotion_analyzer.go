package services

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/krudrav/solace/backend/models"
)

// EmotionResult is one analyzer run. Scores carries the raw per-category
// match counts for diagnostics and tests.
type EmotionResult struct {
	Emotion    string         `json:"emotion"`
	Intensity  float64        `json:"intensity"`
	Confidence float64        `json:"confidence"`
	Sarcasm    bool           `json:"sarcasm"`
	Patterns   []string       `json:"patterns"`
	Scores     map[string]int `json:"emotion_scores,omitempty"`
}

// emotionLexicon maps each category to its weighted vocabulary: single words,
// multi-word phrases, and emoji. Loaded once, never mutated.
var emotionLexicon = map[string][]string{
	models.EmotionHappy: {
		// Words
		"happy", "joy", "delighted", "cheerful", "smiling", "grateful", "positive", "optimistic",
		"excited", "great", "awesome", "amazing", "perfect", "fantastic", "wonderful", "joyful",
		"vibrant", "playful", "energetic", "bright",
		// Phrases
		"feeling good", "so happy", "i am great", "this is awesome", "feeling blessed",
		"could not be better", "life is beautiful", "so much joy", "full of energy", "happy vibes only",
		// Emojis
		"😊", "😄", "😁", "🎉", "🥳", "✨", "🌈", "💖", "😃", "🙌",
	},
	models.EmotionSad: {
		"sad", "unhappy", "depressed", "down", "heartbroken", "lonely", "gloomy", "blue",
		"disappointed", "hurt", "upset", "sorrow", "miserable", "hopeless", "grief", "melancholy",
		"tearful", "downhearted", "forlorn", "regret",
		"feeling low", "i am sad", "so broken", "i feel empty", "nothing feels right",
		"life is tough", "tears won't stop", "feeling hopeless", "lost in sorrow", "heart is heavy",
		"😢", "😭", "😞", "💔", "😔", "🥺", "🙁", "😟", "😩", "😿",
	},
	models.EmotionAngry: {
		"angry", "mad", "furious", "irritated", "annoyed", "frustrated", "rage", "agitated",
		"hostile", "fuming", "upset", "resentful", "hateful", "provoked", "enraged", "irate",
		"aggressive", "bitter", "offended", "stormy",
		"i am so mad", "this makes me furious", "boiling with anger", "i cannot stand this",
		"losing my temper", "so frustrating", "full of rage", "angry outburst",
		"beyond control", "frustration overload",
		"😠", "😡", "🤬", "👿", "🔥", "💢", "😤", "😾", "⚡", "🙄",
	},
	models.EmotionExcited: {
		"excited", "thrilled", "pumped", "energetic", "enthusiastic", "motivated", "hyped", "joyful",
		"overjoyed", "delighted", "eager", "ecstatic", "cheerful", "optimistic", "inspired", "exhilarated",
		"lively", "elated", "playful", "spirited",
		"feeling pumped", "can't wait", "so excited", "i am thrilled", "this is amazing",
		"feeling awesome", "super hyped", "bursting with energy", "thrilled to bits", "ready to go",
		"🤩", "🚀", "⚡", "🔥", "🙌", "🎊", "💫", "🌟", "🎉", "😆",
	},
	models.EmotionConfused: {
		"confused", "puzzled", "uncertain", "lost", "unclear", "doubtful", "hesitant", "indecisive",
		"questioning", "unsure", "mixed", "blurred", "disoriented", "confounded", "baffled", "stuck",
		"undecided", "unsettled", "vague", "perplexed",
		"i am confused", "don't understand", "this is unclear", "so puzzling", "lost in thought",
		"i am unsure", "full of doubts", "mind is blank", "cannot decide", "totally lost",
		"🤔", "😕", "❓", "😵", "🤷", "🙃", "😐", "❔", "😮", "😶",
	},
	models.EmotionNeutral: {
		"neutral", "okay", "fine", "alright", "normal", "average", "standard", "regular",
		"plain", "moderate", "balanced", "typical", "ordinary", "middle", "fair", "casual",
		"calm", "relaxed", "simple", "steady",
		"i am okay", "just fine", "all normal", "feeling regular", "nothing special",
		"pretty average", "life is balanced", "staying calm", "in the middle", "keeping it simple",
		"😐", "😶", "🙂", "👌", "👍", "🤝", "😌", "🙆", "😑", "🌀",
	},
}

var sarcasmIndicators = []string{"yeah right", "sure thing", "oh great", "fantastic"}

// keywordMatcher counts occurrences of one lexicon entry.
type keywordMatcher struct {
	pattern *regexp.Regexp // whole-word match for words and phrases
	literal string         // substring count for emoji entries
}

func (m keywordMatcher) count(text string) int {
	if m.pattern != nil {
		return len(m.pattern.FindAllStringIndex(text, -1))
	}
	return strings.Count(text, m.literal)
}

var emotionMatchers = compileLexicon()

func compileLexicon() map[string][]keywordMatcher {
	compiled := make(map[string][]keywordMatcher, len(emotionLexicon))
	for category, keywords := range emotionLexicon {
		matchers := make([]keywordMatcher, 0, len(keywords))
		for _, keyword := range keywords {
			if startsWithWordRune(keyword) {
				re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
				matchers = append(matchers, keywordMatcher{pattern: re})
			} else {
				// Word boundaries are meaningless next to emoji; count raw.
				matchers = append(matchers, keywordMatcher{literal: keyword})
			}
		}
		compiled[category] = matchers
	}
	return compiled
}

func startsWithWordRune(s string) bool {
	for _, r := range s {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}
	return false
}

func neutralFallback() EmotionResult {
	return EmotionResult{
		Emotion:    models.EmotionNeutral,
		Intensity:  0.5,
		Confidence: 0.3,
		Sarcasm:    false,
		Patterns:   []string{},
	}
}

// AnalyzeEmotion scores text against the per-category lexicons and returns
// the primary emotion with intensity, confidence and a sarcasm flag. It never
// fails: empty input yields a fixed low-confidence neutral result.
func AnalyzeEmotion(text string) EmotionResult {
	if text == "" {
		return neutralFallback()
	}

	lowercase := strings.ToLower(text)

	scores := make(map[string]int, len(models.EmotionCategories))
	for _, category := range models.EmotionCategories {
		score := 0
		for _, matcher := range emotionMatchers[category] {
			score += matcher.count(text)
		}
		scores[category] = score
	}

	// Primary emotion: strictly highest score wins; ties resolve to the
	// first-listed category. All zeros stays neutral.
	primaryEmotion := models.EmotionNeutral
	maxScore := 0
	for _, category := range models.EmotionCategories {
		if scores[category] > maxScore {
			maxScore = scores[category]
			primaryEmotion = category
		}
	}

	intensity := 0.5
	if maxScore > 0 {
		intensity = math.Min(0.9, 0.3+float64(maxScore)*0.2)
	}

	sarcasm := false
	for _, indicator := range sarcasmIndicators {
		if strings.Contains(lowercase, indicator) {
			sarcasm = true
			break
		}
	}

	confidence := 0.6
	if maxScore > 0 {
		confidence += 0.2
	}
	if strings.Contains(text, "!!!") || strings.Contains(text, "???") {
		confidence += 0.1
	}
	confidence = math.Min(0.95, math.Max(0.3, confidence))

	return EmotionResult{
		Emotion:    primaryEmotion,
		Intensity:  round2(intensity),
		Confidence: round2(confidence),
		Sarcasm:    sarcasm,
		Patterns:   []string{},
		Scores:     scores,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
