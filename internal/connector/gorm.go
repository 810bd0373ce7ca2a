package connector

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fenwicklabs/orchestrator/internal/conductor"
	"github.com/fenwicklabs/orchestrator/internal/orcerr"
)

func init() {
	conductor.Register(conductor.RoleStorage, "gorm", func(bag conductor.Bag) (any, error) {
		dsn := bagString(bag, "dsn", "")
		driver := bagString(bag, "driver", "sqlite")
		return NewGorm(driver, dsn)
	})
}

// kvEntry is the single generic table backing Gorm, grounded on the
// teacher's internal/task/store.go / internal/database GORM usage
// generalized from a domain-specific task_executions row to a plain
// key/value row.
type kvEntry struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     []byte `gorm:"column:value"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
}

func (kvEntry) TableName() string { return "kv_entries" }

// Gorm is the Connector backend for SQL stores (Postgres for production,
// SQLite for local/dev and tests), dialing and auto-migrating a single
// generic kv_entries table.
type Gorm struct {
	db *gorm.DB
}

// NewGorm opens a SQL connection with the named driver ("postgres" or
// "sqlite") and auto-migrates the kv_entries table. Construction fails
// with orcerr.ErrConnectorInitFail if the database is unreachable.
func NewGorm(driver, dsn string) (*Gorm, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		if dsn == "" {
			dsn = ":memory:"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("connector: unknown gorm driver %q: %w", driver, orcerr.ErrConnectorInitFail)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connector: gorm open %s: %w: %w", driver, orcerr.ErrConnectorInitFail, err)
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("connector: gorm migrate: %w: %w", orcerr.ErrConnectorInitFail, err)
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Get(ctx context.Context, key string) ([]byte, error) {
	var row kvEntry
	err := g.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connector: gorm get %q: %w", key, err)
	}
	if row.ExpiresAt != nil && time.Now().After(*row.ExpiresAt) {
		return nil, nil
	}
	return row.Value, nil
}

func (g *Gorm) Set(ctx context.Context, key string, value []byte, ex int) error {
	var expiresAt *time.Time
	if ex > 0 {
		t := time.Now().Add(time.Duration(ex) * time.Second)
		expiresAt = &t
	}
	row := kvEntry{Key: key, Value: value, ExpiresAt: expiresAt}
	err := g.db.WithContext(ctx).Save(&row).Error
	if err != nil {
		return fmt.Errorf("connector: gorm set %q: %w", key, err)
	}
	return nil
}

func (g *Gorm) Delete(ctx context.Context, key string) (int, error) {
	res := g.db.WithContext(ctx).Delete(&kvEntry{}, "key = ?", key)
	if res.Error != nil {
		return 0, fmt.Errorf("connector: gorm delete %q: %w", key, res.Error)
	}
	return int(res.RowsAffected), nil
}

func (g *Gorm) Keys(ctx context.Context, pattern string) ([]string, error) {
	var rows []kvEntry
	if err := g.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("connector: gorm keys: %w", err)
	}
	now := time.Now()
	var out []string
	for _, row := range rows {
		if row.ExpiresAt != nil && now.After(*row.ExpiresAt) {
			continue
		}
		ok, err := filepath.Match(pattern, row.Key)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row.Key)
		}
	}
	return out, nil
}

func (g *Gorm) GracefulShutdown(_ context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("connector: gorm underlying db: %w", err)
	}
	return sqlDB.Close()
}
