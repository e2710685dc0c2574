package engine

import (
	"strings"

	"github.com/yungbote/pawquest-backend/internal/domain"
)

// RelevancePolicy decides whether a content item belongs on a themed path.
// Policies are named so that "match everything" is a visible, deliberate
// choice instead of a fallback clause buried in a boolean chain.
type RelevancePolicy interface {
	Name() string
	Matches(item domain.ContentItem) bool
}

// CategoryPolicy matches items in any of the listed categories, or carrying
// any of the listed tags.
type CategoryPolicy struct {
	PolicyName string
	Categories []domain.Category
	Tags       []string
}

func (p CategoryPolicy) Name() string { return p.PolicyName }

func (p CategoryPolicy) Matches(item domain.ContentItem) bool {
	for _, c := range p.Categories {
		if item.Category == c {
			return true
		}
	}
	for _, t := range p.Tags {
		if item.HasTag(t) {
			return true
		}
	}
	return false
}

// AnyCategoryPolicy deliberately matches every item. Used by the free-play
// path.
type AnyCategoryPolicy struct{}

func (AnyCategoryPolicy) Name() string                    { return "any_category" }
func (AnyCategoryPolicy) Matches(domain.ContentItem) bool { return true }

// Path is a themed sequence of checkpoints grouping and ordering content.
type Path struct {
	Slug        string
	Title       string
	Policy      RelevancePolicy
	Checkpoints []domain.Checkpoint
}

// NextCheckpoint returns the first checkpoint whose threshold is above the
// given answered count, or nil when the path is complete.
func (p Path) NextCheckpoint(answered int) *domain.Checkpoint {
	for i := range p.Checkpoints {
		if p.Checkpoints[i].QuestionsRequired > answered {
			cp := p.Checkpoints[i]
			return &cp
		}
	}
	return nil
}

// CheckpointAtLevel returns the checkpoint with the given 1-based level.
func (p Path) CheckpointAtLevel(level int) *domain.Checkpoint {
	for i := range p.Checkpoints {
		if p.Checkpoints[i].Level == level {
			cp := p.Checkpoints[i]
			return &cp
		}
	}
	return nil
}

// DefaultPaths returns the shipped themed paths. Each path carries a real
// relevance predicate; only free play uses AnyCategoryPolicy.
func DefaultPaths() []Path {
	cps := DefaultCheckpoints()
	return []Path{
		{
			Slug:  "dog-breeds",
			Title: "Dog Breeds",
			Policy: CategoryPolicy{
				PolicyName: "breeds",
				Categories: []domain.Category{domain.CategoryBreeds},
				Tags:       []string{"breed"},
			},
			Checkpoints: cps,
		},
		{
			Slug:  "dog-training",
			Title: "Dog Training",
			Policy: CategoryPolicy{
				PolicyName: "training",
				Categories: []domain.Category{domain.CategoryTraining},
				Tags:       []string{"obedience"},
			},
			Checkpoints: cps,
		},
		{
			Slug:  "puppy-care",
			Title: "Puppy Care",
			Policy: CategoryPolicy{
				PolicyName: "puppy_care",
				Categories: []domain.Category{domain.CategoryPuppyCare, domain.CategoryHealth},
				Tags:       []string{"puppies"},
			},
			Checkpoints: cps,
		},
		{
			Slug:  "dog-sports",
			Title: "Dog Sports",
			Policy: CategoryPolicy{
				PolicyName: "sports",
				Categories: []domain.Category{domain.CategorySports},
				Tags:       []string{"agility", "competition"},
			},
			Checkpoints: cps,
		},
		{
			Slug:        "free-play",
			Title:       "Free Play",
			Policy:      AnyCategoryPolicy{},
			Checkpoints: cps,
		},
	}
}

// PathBySlug finds a shipped path; ok is false for unknown slugs.
func PathBySlug(paths []Path, slug string) (Path, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, p := range paths {
		if p.Slug == slug {
			return p, true
		}
	}
	return Path{}, false
}
