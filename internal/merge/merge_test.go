package merge

import (
	"context"
	"errors"
	"testing"
	"time"

	"zhipin-sync/internal/model"
)

func TestMergePreservesExistingBrandConfig(t *testing.T) {
	t.Parallel()

	// 人工编辑过的模板必须在重新同步后逐字保留。
	edited := "您好，这是人工精修过的开场白。"
	existing := model.ZhipinData{
		City:         "上海",
		DefaultBrand: "测试品牌",
		Brands: map[string]model.BrandConfig{
			"测试品牌": {Templates: map[string]string{"initial_inquiry": edited}},
		},
		Stores: []model.Store{
			{ID: "store_s001", Name: "门店A(旧)", Brand: "测试品牌"},
		},
	}

	incoming := &model.ZhipinData{
		DefaultBrand: "测试品牌",
		Brands: map[string]model.BrandConfig{
			"测试品牌": {Templates: map[string]string{"initial_inquiry": "全新默认模板"}},
		},
		Stores: []model.Store{
			{ID: "store_s001", Name: "门店A(新)", Brand: "测试品牌"},
			{ID: "store_s002", Name: "门店B", Brand: "测试品牌"},
		},
	}

	merged := Merge(existing, incoming)

	if got := merged.Brands["测试品牌"].Templates["initial_inquiry"]; got != edited {
		t.Fatalf("hand-edited template overwritten: %q", got)
	}
	if len(merged.Stores) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(merged.Stores))
	}
	if merged.Stores[0].Name != "门店A(新)" {
		t.Fatalf("store not wholesale-replaced: %+v", merged.Stores[0])
	}
	if merged.Stores[1].ID != "store_s002" {
		t.Fatalf("new store not appended: %+v", merged.Stores[1])
	}
}

func TestMergeInsertsNewBrand(t *testing.T) {
	t.Parallel()

	existing := model.ZhipinData{Brands: map[string]model.BrandConfig{}}
	incoming := &model.ZhipinData{
		DefaultBrand: "新品牌",
		Brands: map[string]model.BrandConfig{
			"新品牌": {Templates: map[string]string{"general_chat": "收到"}},
		},
		Stores: []model.Store{{ID: "store_x", Brand: "新品牌"}},
	}

	merged := Merge(existing, incoming)

	if _, ok := merged.Brands["新品牌"]; !ok {
		t.Fatal("new brand not inserted")
	}
	if merged.DefaultBrand != "新品牌" {
		t.Fatalf("default brand = %q, want 新品牌", merged.DefaultBrand)
	}
	if merged.City != "上海" {
		t.Fatalf("expected default city, got %q", merged.City)
	}
	// 不变式：所有门店品牌都能在品牌表中命中。
	for _, store := range merged.Stores {
		if _, ok := merged.Brands[store.Brand]; !ok {
			t.Fatalf("store %s brand %q unresolved", store.ID, store.Brand)
		}
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	existing := model.ZhipinData{
		Brands: map[string]model.BrandConfig{"甲": {}},
		Stores: []model.Store{{ID: "store_1", Name: "原名", Brand: "甲"}},
	}
	incoming := &model.ZhipinData{
		Brands: map[string]model.BrandConfig{"乙": {}},
		Stores: []model.Store{{ID: "store_1", Name: "新名", Brand: "乙"}},
	}

	_ = Merge(existing, incoming)

	if existing.Stores[0].Name != "原名" {
		t.Fatal("existing document mutated")
	}
	if _, ok := existing.Brands["乙"]; ok {
		t.Fatal("existing brands mutated")
	}
}

type stubDocStore struct {
	doc     model.ZhipinData
	saved   *model.ZhipinData
	records []model.SyncRecord
	saveErr error
}

func (s *stubDocStore) LoadDocument(ctx context.Context) (model.ZhipinData, error) {
	return s.doc, nil
}

func (s *stubDocStore) SaveDocument(ctx context.Context, doc model.ZhipinData) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = &doc
	return nil
}

func (s *stubDocStore) AppendSyncRecord(ctx context.Context, rec model.SyncRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func TestMergeAndSaveSkipsFailedResults(t *testing.T) {
	t.Parallel()

	store := &stubDocStore{doc: model.ZhipinData{Brands: map[string]model.BrandConfig{}}}
	p := NewPersister(store, nil)

	rec := model.SyncRecord{
		ID:        "sync_001",
		Timestamp: time.Now(),
		Results: []model.SyncResult{
			{
				Success:   true,
				BrandName: "甲",
				ConvertedData: &model.ZhipinData{
					DefaultBrand: "甲",
					Brands:       map[string]model.BrandConfig{"甲": {}},
					Stores:       []model.Store{{ID: "store_1", Brand: "甲"}},
				},
			},
			{Success: false, BrandName: "乙", Errors: []string{"network error"}},
		},
	}

	if err := p.MergeAndSave(context.Background(), rec); err != nil {
		t.Fatalf("MergeAndSave error: %v", err)
	}
	if store.saved == nil {
		t.Fatal("document not saved")
	}
	if len(store.saved.Stores) != 1 {
		t.Fatalf("expected 1 store from the successful result, got %d", len(store.saved.Stores))
	}
	if _, ok := store.saved.Brands["乙"]; ok {
		t.Fatal("failed result leaked into merge")
	}
	if len(store.records) != 1 || store.records[0].ID != "sync_001" {
		t.Fatalf("sync record not appended: %+v", store.records)
	}
}

func TestMergeAndSavePropagatesPersistenceError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("disk full")
	store := &stubDocStore{doc: model.ZhipinData{}, saveErr: wantErr}
	p := NewPersister(store, nil)

	err := p.MergeAndSave(context.Background(), model.SyncRecord{ID: "sync_002"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped persistence error, got %v", err)
	}
	if len(store.records) != 0 {
		t.Fatal("record appended despite save failure")
	}
}
