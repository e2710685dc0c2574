package domain

import "strings"

// FallbackLocale is used whenever a localized field has no entry for the
// requested locale.
const FallbackLocale = "en"

type Category string

const (
	CategoryBreeds    Category = "breeds"
	CategoryTraining  Category = "training"
	CategoryHealth    Category = "health"
	CategoryPuppyCare Category = "puppy_care"
	CategorySports    Category = "sports"
	CategoryFunFacts  Category = "fun_facts"
)

func AllCategories() []Category {
	return []Category{
		CategoryBreeds,
		CategoryTraining,
		CategoryHealth,
		CategoryPuppyCare,
		CategorySports,
		CategoryFunFacts,
	}
}

// Tier is the ordinal difficulty of a content item.
type Tier string

const (
	TierEasy     Tier = "easy"
	TierEasyPlus Tier = "easy_plus"
	TierMedium   Tier = "medium"
	TierHard     Tier = "hard"
	TierExpert   Tier = "expert"
)

// OrderedTiers lists tiers from easiest to hardest.
func OrderedTiers() []Tier {
	return []Tier{TierEasy, TierEasyPlus, TierMedium, TierHard, TierExpert}
}

func (t Tier) Order() int {
	switch t {
	case TierEasy:
		return 0
	case TierEasyPlus:
		return 1
	case TierMedium:
		return 2
	case TierHard:
		return 3
	case TierExpert:
		return 4
	default:
		return -1
	}
}

func (t Tier) Valid() bool { return t.Order() >= 0 }

// ParseTier accepts both the canonical spelling and the wire spelling of the
// source documents ("easy+").
func ParseTier(s string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return TierEasy, true
	case "easy+", "easy_plus", "easy-plus", "easyplus":
		return TierEasyPlus, true
	case "medium":
		return TierMedium, true
	case "hard":
		return TierHard, true
	case "expert":
		return TierExpert, true
	default:
		return "", false
	}
}

// LocalizedText maps a locale code to a translated string.
type LocalizedText map[string]string

func (lt LocalizedText) Resolve(locale string) string {
	if len(lt) == 0 {
		return ""
	}
	if v, ok := lt[locale]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return lt[FallbackLocale]
}

// LocalizedList maps a locale code to an ordered list of strings.
type LocalizedList map[string][]string

func (ll LocalizedList) Resolve(locale string) []string {
	if len(ll) == 0 {
		return nil
	}
	if v, ok := ll[locale]; ok && len(v) > 0 {
		return v
	}
	return ll[FallbackLocale]
}

// ContentItem is a single trivia question. Immutable once loaded.
type ContentItem struct {
	ID                 string        `json:"id"`
	Category           Category      `json:"category"`
	Tier               Tier          `json:"difficulty"`
	Text               LocalizedText `json:"text"`
	Answers            LocalizedList `json:"answers"`
	Hint               LocalizedText `json:"hint,omitempty"`
	FunFact            LocalizedText `json:"fun_fact,omitempty"`
	CorrectAnswerIndex int           `json:"correct_answer_index"`
	AgeRange           string        `json:"age_range,omitempty"`
	Tags               []string      `json:"tags,omitempty"`
}

func (ci ContentItem) HasTag(tag string) bool {
	for _, t := range ci.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// EstimatedBytes is a rough per-item memory estimate used by cache stats.
func (ci ContentItem) EstimatedBytes() int {
	n := len(ci.ID) + len(ci.Category) + len(ci.Tier) + len(ci.AgeRange)
	for _, s := range ci.Tags {
		n += len(s)
	}
	for k, v := range ci.Text {
		n += len(k) + len(v)
	}
	for k, vs := range ci.Answers {
		n += len(k)
		for _, v := range vs {
			n += len(v)
		}
	}
	for k, v := range ci.Hint {
		n += len(k) + len(v)
	}
	for k, v := range ci.FunFact {
		n += len(k) + len(v)
	}
	return n + 64
}
