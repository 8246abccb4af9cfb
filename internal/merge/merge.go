package merge

import (
	"context"
	"fmt"
	"log"
	"os"

	"zhipin-sync/internal/model"
)

// Merge 将若干转换产物叠加到既有聚合文档上，返回新文档，不修改入参。
// 合并规则：
// - 品牌只在键不存在时插入，已存在的品牌配置（含人工编辑内容）原样保留；
// - 门店按 ID 整体替换，不做字段级合并，新门店追加；
// - defaultBrand 仅在既有文档尚未设置时采用来料的值。
func Merge(existing model.ZhipinData, incoming ...*model.ZhipinData) model.ZhipinData {
	merged := model.ZhipinData{
		City:         existing.City,
		DefaultBrand: existing.DefaultBrand,
		Brands:       make(map[string]model.BrandConfig, len(existing.Brands)),
		Stores:       make([]model.Store, len(existing.Stores)),
	}
	if merged.City == "" {
		merged.City = "上海"
	}
	for name, cfg := range existing.Brands {
		merged.Brands[name] = cfg
	}
	copy(merged.Stores, existing.Stores)

	storeIndex := make(map[string]int, len(merged.Stores))
	for i, store := range merged.Stores {
		storeIndex[store.ID] = i
	}

	for _, part := range incoming {
		if part == nil {
			continue
		}
		for name, cfg := range part.Brands {
			if _, ok := merged.Brands[name]; !ok {
				merged.Brands[name] = cfg
			}
		}
		if merged.DefaultBrand == "" {
			merged.DefaultBrand = part.DefaultBrand
		}
		for _, store := range part.Stores {
			if i, ok := storeIndex[store.ID]; ok {
				merged.Stores[i] = store
				continue
			}
			merged.Stores = append(merged.Stores, store)
			storeIndex[store.ID] = len(merged.Stores) - 1
		}
	}

	return merged
}

// DocumentStore 合并落盘所需的外部配置存储接口。
type DocumentStore interface {
	LoadDocument(ctx context.Context) (model.ZhipinData, error)
	SaveDocument(ctx context.Context, doc model.ZhipinData) error
	AppendSyncRecord(ctx context.Context, rec model.SyncRecord) error
}

// Persister 将一次运行的成功结果批量合并进聚合文档并追加历史。
type Persister struct {
	store  DocumentStore
	logger *log.Logger
}

// NewPersister 创建 Persister。
func NewPersister(store DocumentStore, logger *log.Logger) *Persister {
	if logger == nil {
		logger = log.New(os.Stdout, "[merge] ", log.LstdFlags)
	}
	return &Persister{store: store, logger: logger}
}

// MergeAndSave 读取当前文档、合并记录中所有成功结果、整体写回并追加历史。
// 合并在内存完成，写回失败时不留下半成品状态。
func (p *Persister) MergeAndSave(ctx context.Context, rec model.SyncRecord) error {
	existing, err := p.store.LoadDocument(ctx)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	parts := make([]*model.ZhipinData, 0, len(rec.Results))
	for _, res := range rec.Results {
		if res.Success && res.ConvertedData != nil {
			parts = append(parts, res.ConvertedData)
		}
	}

	merged := Merge(existing, parts...)
	if err := p.store.SaveDocument(ctx, merged); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	if err := p.store.AppendSyncRecord(ctx, rec); err != nil {
		return fmt.Errorf("append sync record: %w", err)
	}

	p.logger.Printf("merged run=%s parts=%d brands=%d stores=%d", rec.ID, len(parts), len(merged.Brands), len(merged.Stores))
	return nil
}
