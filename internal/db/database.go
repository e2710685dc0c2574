package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/pawquest-backend/internal/domain"
	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
	"github.com/yungbote/pawquest-backend/internal/platform/envutil"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New opens the progress database. Sqlite is the default so a local game
// server needs no infrastructure; DB_DRIVER=postgres switches to the
// production setup.
func New(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DatabaseService")
	driver := strings.ToLower(envutil.Str("DB_DRIVER", "sqlite"))

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		host := envutil.Str("POSTGRES_HOST", "localhost")
		port := envutil.Str("POSTGRES_PORT", "5432")
		user := envutil.Str("POSTGRES_USER", "postgres")
		password := envutil.Str("POSTGRES_PASSWORD", "")
		name := envutil.Str("POSTGRES_NAME", "pawquest")
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(envutil.Str("SQLITE_PATH", "pawquest.db"))
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}

	serviceLog.Info("connecting to database", "driver", driver)
	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	return &Service{db: gdb, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) AutoMigrateAll() error {
	s.log.Info("auto migrating tables...")
	if err := s.db.AutoMigrate(&domain.PathProgress{}); err != nil {
		s.log.Error("auto migration failed", "error", err)
		return err
	}
	return nil
}
