package store

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ARF-DEV/caffeine_reply_bot/model"
)

var _ Store = (*GormStore)(nil)

// GormStore keeps one row per pattern in the reply_patterns table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the reply_patterns table on db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&model.ReplyPatternRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate reply_patterns")
	}
	return &GormStore{db: db}, nil
}

// ConnectMySQL opens a gorm DB with utf8mb4 and parsed times forced on.
func ConnectMySQL(dsn string) (*gorm.DB, error) {
	dsn = ensureParam(dsn, "parseTime", "true")
	if !strings.Contains(dsn, "charset=") {
		dsn = ensureParam(dsn, "charset", "utf8mb4")
		dsn = ensureParam(dsn, "collation", "utf8mb4_unicode_ci")
	}

	return gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: warnLogger()})
}

func warnLogger() logger.Interface {
	return logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{SlowThreshold: time.Second, LogLevel: logger.Warn, IgnoreRecordNotFoundError: true},
	)
}

func ensureParam(dsn, key, val string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + val
}

func (gs *GormStore) Load(ctx context.Context, guildID string) ([]model.ReplyPatternRecord, error) {
	var records []model.ReplyPatternRecord
	err := gs.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Order("position ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrapf(err, "load reply patterns for guild %s", guildID)
	}
	return records, nil
}

func (gs *GormStore) Save(ctx context.Context, guildID string, patterns []model.ReplyPatternRecord) error {
	err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guild_id = ?", guildID).Delete(&model.ReplyPatternRecord{}).Error; err != nil {
			return err
		}
		if len(patterns) == 0 {
			return nil
		}

		rows := make([]model.ReplyPatternRecord, len(patterns))
		for i, p := range patterns {
			rows[i] = model.ReplyPatternRecord{
				GuildID:      guildID,
				Position:     i,
				Trigger:      p.Trigger,
				Response:     p.Response,
				PerfectMatch: p.PerfectMatch,
			}
		}
		return tx.Create(&rows).Error
	})
	return errors.Wrapf(err, "save reply patterns for guild %s", guildID)
}

func (gs *GormStore) Close() error {
	sqlDB, err := gs.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
