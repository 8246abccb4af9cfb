package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"zhipin-sync/internal/model"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// documentKey 聚合文档在配置表中的固定主键。
	documentKey = "zhipin_data"
	// historyCap 同步历史保留上限，超出后裁剪最旧记录。
	historyCap = 50
)

// Store 封装 SQLite 访问，负责聚合配置文档与同步历史的读写。
type Store struct {
	db *gorm.DB
}

// documentRow 聚合文档行，整个领域文档作为一个 JSON 负载存储。
type documentRow struct {
	Key       string         `gorm:"primaryKey;column:key"`
	Data      datatypes.JSON `gorm:"column:data"`
	UpdatedAt time.Time
}

func (documentRow) TableName() string { return "config_documents" }

// syncRecordRow 一次同步运行的历史行，创建后不再修改。
type syncRecordRow struct {
	ID              string         `gorm:"primaryKey"`
	Timestamp       time.Time      `gorm:"index"`
	OrganizationIDs datatypes.JSON `gorm:"column:organization_ids"`
	Results         datatypes.JSON `gorm:"column:results"`
	OverallSuccess  bool
	TotalDurationMS int64 `gorm:"column:total_duration_ms"`
	CreatedAt       time.Time
}

func (syncRecordRow) TableName() string { return "sync_records" }

// NewStore 创建 Store 并自动迁移数据表。
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&documentRow{}, &syncRecordRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// LoadDocument 读取聚合文档；尚未写入过时返回空文档而非错误。
func (s *Store) LoadDocument(ctx context.Context) (model.ZhipinData, error) {
	empty := model.ZhipinData{
		City:   "上海",
		Brands: map[string]model.BrandConfig{},
		Stores: []model.Store{},
	}

	var row documentRow
	if err := s.db.WithContext(ctx).First(&row, "key = ?", documentKey).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return empty, nil
		}
		return empty, fmt.Errorf("load document: %w", err)
	}

	var doc model.ZhipinData
	if err := json.Unmarshal(row.Data, &doc); err != nil {
		return empty, fmt.Errorf("decode document: %w", err)
	}
	if doc.Brands == nil {
		doc.Brands = map[string]model.BrandConfig{}
	}
	if doc.Stores == nil {
		doc.Stores = []model.Store{}
	}
	return doc, nil
}

// SaveDocument 整体写回聚合文档。
func (s *Store) SaveDocument(ctx context.Context, doc model.ZhipinData) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	row := documentRow{Key: documentKey, Data: payload, UpdatedAt: time.Now()}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row)
	if tx.Error != nil {
		return fmt.Errorf("save document: %w", tx.Error)
	}
	return nil
}

// AppendSyncRecord 追加一条运行记录并裁剪超出上限的最旧历史。
func (s *Store) AppendSyncRecord(ctx context.Context, rec model.SyncRecord) error {
	orgIDs, err := json.Marshal(rec.OrganizationIDs)
	if err != nil {
		return fmt.Errorf("encode organization ids: %w", err)
	}
	results, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	row := syncRecordRow{
		ID:              rec.ID,
		Timestamp:       rec.Timestamp,
		OrganizationIDs: orgIDs,
		Results:         results,
		OverallSuccess:  rec.OverallSuccess,
		TotalDurationMS: rec.TotalDurationMS,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append sync record: %w", err)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&syncRecordRow{}).Count(&total).Error; err != nil {
		return fmt.Errorf("count sync records: %w", err)
	}
	if total <= historyCap {
		return nil
	}

	var staleIDs []string
	if err := s.db.WithContext(ctx).Model(&syncRecordRow{}).
		Order("timestamp ASC").
		Limit(int(total - historyCap)).
		Pluck("id", &staleIDs).Error; err != nil {
		return fmt.Errorf("find stale sync records: %w", err)
	}
	if len(staleIDs) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Delete(&syncRecordRow{}, "id IN ?", staleIDs).Error; err != nil {
		return fmt.Errorf("trim sync records: %w", err)
	}
	return nil
}

// ListSyncRecords 返回按时间倒序的运行历史。
func (s *Store) ListSyncRecords(ctx context.Context, limit int) ([]model.SyncRecord, error) {
	if limit <= 0 || limit > historyCap {
		limit = historyCap
	}

	var rows []syncRecordRow
	if err := s.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sync records: %w", err)
	}

	records := make([]model.SyncRecord, 0, len(rows))
	for _, row := range rows {
		rec := model.SyncRecord{
			ID:              row.ID,
			Timestamp:       row.Timestamp,
			OverallSuccess:  row.OverallSuccess,
			TotalDurationMS: row.TotalDurationMS,
		}
		if err := json.Unmarshal(row.OrganizationIDs, &rec.OrganizationIDs); err != nil {
			return nil, fmt.Errorf("decode organization ids of %s: %w", row.ID, err)
		}
		if err := json.Unmarshal(row.Results, &rec.Results); err != nil {
			return nil, fmt.Errorf("decode results of %s: %w", row.ID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
