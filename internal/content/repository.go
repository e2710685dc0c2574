package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/yungbote/pawquest-backend/internal/domain"
	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
)

// ErrContentLoad means every source tier (primary, legacy, builtin) was
// missing or unparseable. This is the only fatal content error; individual
// malformed items are skipped during parsing instead.
var ErrContentLoad = errors.New("content: source missing or unparseable")

// Repository loads and indexes the raw trivia document.
type Repository interface {
	LoadCategory(ctx context.Context, category domain.Category) ([]domain.ContentItem, error)
	LoadAll(ctx context.Context) (map[domain.Category][]domain.ContentItem, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Invalidate()
}

type RepositoryConfig struct {
	// PrimaryPath points at the JSON document; LegacyPath at the older YAML
	// one. Either may be empty.
	PrimaryPath string
	LegacyPath  string
	// LoadTimeout bounds a single load attempt across all tiers.
	LoadTimeout time.Duration
}

type fileRepository struct {
	log *logger.Logger
	cfg RepositoryConfig

	// builtin is injectable so tests can exercise total-load failure.
	builtin []byte

	mu     sync.Mutex
	loaded map[domain.Category][]domain.ContentItem
}

func NewRepository(log *logger.Logger, cfg RepositoryConfig) Repository {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 10 * time.Second
	}
	return &fileRepository{
		log:     log.With("component", "ContentRepository"),
		cfg:     cfg,
		builtin: builtinContent,
	}
}

func (r *fileRepository) LoadAll(ctx context.Context) (map[domain.Category][]domain.ContentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(ctx)
}

func (r *fileRepository) LoadCategory(ctx context.Context, category domain.Category) ([]domain.ContentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	return all[category], nil
}

func (r *fileRepository) Categories(ctx context.Context) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	cats := make([]domain.Category, 0, len(all))
	for cat := range all {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats, nil
}

func (r *fileRepository) Invalidate() {
	r.mu.Lock()
	r.loaded = nil
	r.mu.Unlock()
}

// loadLocked memoizes the parsed document. Callers hold r.mu.
func (r *fileRepository) loadLocked(ctx context.Context) (map[domain.Category][]domain.ContentItem, error) {
	if r.loaded != nil {
		return r.loaded, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.LoadTimeout)
	defer cancel()

	doc, source, err := r.readDocument(ctx)
	if err != nil {
		return nil, err
	}

	parsed := make(map[domain.Category][]domain.ContentItem, len(doc))
	skipped := 0
	total := 0
	for categoryKey, records := range doc {
		for _, rec := range records {
			item, perr := parseItem(categoryKey, rec)
			if perr != nil {
				skipped++
				r.log.Warn("skipping malformed content item", "category", categoryKey, "error", perr)
				continue
			}
			parsed[item.Category] = append(parsed[item.Category], item)
			total++
		}
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: %s document had no valid items", ErrContentLoad, source)
	}
	for cat := range parsed {
		items := parsed[cat]
		sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	}
	r.loaded = parsed
	r.log.Info("content loaded", "source", source, "items", total, "skipped", skipped, "categories", len(parsed))
	return parsed, nil
}

// readDocument tries primary JSON, then legacy YAML, then the builtin
// sample set.
func (r *fileRepository) readDocument(ctx context.Context) (rawDocument, string, error) {
	var attempts []error

	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrContentLoad, err)
	}
	if r.cfg.PrimaryPath != "" {
		data, err := os.ReadFile(r.cfg.PrimaryPath)
		if err == nil {
			doc, derr := decodeJSONDocument(data)
			if derr == nil {
				return doc, "primary", nil
			}
			err = derr
		}
		attempts = append(attempts, fmt.Errorf("primary %s: %w", r.cfg.PrimaryPath, err))
		r.log.Warn("primary content document unavailable", "path", r.cfg.PrimaryPath, "error", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrContentLoad, err)
	}
	if r.cfg.LegacyPath != "" {
		data, err := os.ReadFile(r.cfg.LegacyPath)
		if err == nil {
			doc, derr := decodeYAMLDocument(data)
			if derr == nil {
				return doc, "legacy", nil
			}
			err = derr
		}
		attempts = append(attempts, fmt.Errorf("legacy %s: %w", r.cfg.LegacyPath, err))
		r.log.Warn("legacy content document unavailable", "path", r.cfg.LegacyPath, "error", err)
	}

	if doc, err := decodeJSONDocument(r.builtin); err == nil {
		return doc, "builtin", nil
	} else {
		attempts = append(attempts, fmt.Errorf("builtin: %w", err))
	}

	return nil, "", fmt.Errorf("%w: %v", ErrContentLoad, errors.Join(attempts...))
}
