package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tf2automatic/internal/store"
	"tf2automatic/internal/store/model"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultListLimit = 50

// GormStore keeps the decision log in SQLite through gorm.
type GormStore struct {
	db *gorm.DB
}

var _ store.DecisionRepository = (*GormStore)(nil)

func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: decisions path is empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.DecisionModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// WAL allows concurrent HTTP reads next to the evaluation writer.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &GormStore{db: db}, nil
}

func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveDecision inserts rec, assigning an id and timestamp when missing.
func (s *GormStore) SaveDecision(ctx context.Context, rec *model.DecisionModel) error {
	if rec == nil {
		return nil
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.DecidedAt.IsZero() {
		rec.DecidedAt = time.Now()
	}
	rec.DecidedAtUnix = rec.DecidedAt.UnixMilli()
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *GormStore) FindDecision(ctx context.Context, offerID string) (*model.DecisionModel, error) {
	var rec model.DecisionModel
	err := s.db.WithContext(ctx).
		Where("offer_id = ?", offerID).
		Order("decided_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	hydrate(&rec)
	return &rec, nil
}

// ListDecisions returns the newest verdicts first, optionally for one partner.
func (s *GormStore) ListDecisions(ctx context.Context, partner string, limit int) ([]model.DecisionModel, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	q := s.db.WithContext(ctx).Order("decided_at DESC").Limit(limit)
	if partner != "" {
		q = q.Where("partner = ?", partner)
	}
	var recs []model.DecisionModel
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	for i := range recs {
		hydrate(&recs[i])
	}
	return recs, nil
}

func hydrate(rec *model.DecisionModel) {
	rec.DecidedAt = time.UnixMilli(rec.DecidedAtUnix)
}

func ensureDir(path string) error {
	if strings.HasPrefix(path, ":memory:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
