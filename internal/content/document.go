package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/pawquest-backend/internal/domain"
)

// itemRecord is the wire shape of a single question in a content document.
// Documents map category name -> list of records.
type itemRecord struct {
	ID                 string              `json:"id" yaml:"id"`
	Category           string              `json:"category" yaml:"category"`
	Difficulty         string              `json:"difficulty" yaml:"difficulty"`
	Text               map[string]string   `json:"text" yaml:"text"`
	Answers            map[string][]string `json:"answers" yaml:"answers"`
	Hint               map[string]string   `json:"hint" yaml:"hint"`
	FunFact            map[string]string   `json:"funFact" yaml:"funFact"`
	CorrectAnswerIndex int                 `json:"correctAnswerIndex" yaml:"correctAnswerIndex"`
	AgeRange           string              `json:"ageRange" yaml:"ageRange"`
	Tags               []string            `json:"tags" yaml:"tags"`
}

type rawDocument map[string][]itemRecord

func decodeJSONDocument(data []byte) (rawDocument, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json document: %w", err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("document has no categories")
	}
	return doc, nil
}

func decodeYAMLDocument(data []byte) (rawDocument, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	var doc rawDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml document: %w", err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("document has no categories")
	}
	return doc, nil
}

// parseItem validates one record. Malformed records are skipped by the
// caller, never fatal.
func parseItem(categoryKey string, rec itemRecord) (domain.ContentItem, error) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return domain.ContentItem{}, fmt.Errorf("missing id")
	}
	catName := strings.TrimSpace(rec.Category)
	if catName == "" {
		catName = categoryKey
	}
	category := domain.Category(strings.ToLower(catName))
	tier, ok := domain.ParseTier(rec.Difficulty)
	if !ok {
		return domain.ContentItem{}, fmt.Errorf("item %s: unknown difficulty %q", id, rec.Difficulty)
	}
	text := domain.LocalizedText(rec.Text)
	if strings.TrimSpace(text.Resolve(domain.FallbackLocale)) == "" {
		return domain.ContentItem{}, fmt.Errorf("item %s: no question text for fallback locale", id)
	}
	answers := domain.LocalizedList(rec.Answers)
	base := answers.Resolve(domain.FallbackLocale)
	if len(base) < 2 {
		return domain.ContentItem{}, fmt.Errorf("item %s: needs at least two answers", id)
	}
	if rec.CorrectAnswerIndex < 0 || rec.CorrectAnswerIndex >= len(base) {
		return domain.ContentItem{}, fmt.Errorf("item %s: correctAnswerIndex %d out of range", id, rec.CorrectAnswerIndex)
	}
	return domain.ContentItem{
		ID:                 id,
		Category:           category,
		Tier:               tier,
		Text:               text,
		Answers:            answers,
		Hint:               domain.LocalizedText(rec.Hint),
		FunFact:            domain.LocalizedText(rec.FunFact),
		CorrectAnswerIndex: rec.CorrectAnswerIndex,
		AgeRange:           strings.TrimSpace(rec.AgeRange),
		Tags:               rec.Tags,
	}, nil
}
