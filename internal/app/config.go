package app

import (
	"time"

	"github.com/yungbote/pawquest-backend/internal/platform/envutil"
)

type Config struct {
	ServiceName string
	Environment string

	ContentPrimaryPath string
	ContentLegacyPath  string
	ContentLoadTimeout time.Duration

	MaxCachedCategories int
	MaxItemsPerCategory int
	CacheExpiration     time.Duration
	PreloadParallelism  int
	PreloadOnStart      bool

	MemoryCheckInterval time.Duration
	MemoryMediumBytes   int64
	MemoryHighBytes     int64

	MaxLives     int
	RecentWindow int
	MaxBatchSize int
	SessionTTL   time.Duration

	RandSeed int64
}

func LoadConfig() Config {
	return Config{
		ServiceName: envutil.Str("SERVICE_NAME", "pawquest"),
		Environment: envutil.Str("ENVIRONMENT", "development"),

		ContentPrimaryPath: envutil.Str("CONTENT_PRIMARY_PATH", "content/questions.json"),
		ContentLegacyPath:  envutil.Str("CONTENT_LEGACY_PATH", ""),
		ContentLoadTimeout: envutil.Duration("CONTENT_LOAD_TIMEOUT", 10*time.Second),

		MaxCachedCategories: envutil.Int("CACHE_MAX_CATEGORIES", 6),
		MaxItemsPerCategory: envutil.Int("CACHE_MAX_ITEMS_PER_CATEGORY", 50),
		CacheExpiration:     envutil.Duration("CACHE_EXPIRATION", 30*time.Minute),
		PreloadParallelism:  envutil.Int("CACHE_PRELOAD_PARALLELISM", 3),
		PreloadOnStart:      envutil.Bool("CACHE_PRELOAD_ON_START", true),

		MemoryCheckInterval: envutil.Duration("MEMORY_CHECK_INTERVAL", 30*time.Second),
		MemoryMediumBytes:   envutil.Int64("MEMORY_MEDIUM_BYTES", 4<<20),
		MemoryHighBytes:     envutil.Int64("MEMORY_HIGH_BYTES", 8<<20),

		MaxLives:     envutil.Int("SESSION_MAX_LIVES", 3),
		RecentWindow: envutil.Int("SESSION_RECENT_WINDOW", 5),
		MaxBatchSize: envutil.Int("SESSION_MAX_BATCH", 20),
		SessionTTL:   envutil.Duration("SESSION_TTL", 12*time.Hour),

		RandSeed: envutil.Int64("RAND_SEED", time.Now().UnixNano()),
	}
}
