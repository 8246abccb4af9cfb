package reconciler

import (
	"context"
	"fmt"
	"log"
	"os"

	"zhipin-sync/internal/brandmap"
	"zhipin-sync/internal/model"
	"zhipin-sync/internal/syncer"
)

// Orchestrator 品牌对账消费的编排接口。
type Orchestrator interface {
	SyncMultipleOrganizations(ctx context.Context, token string, orgIDs []int64, pageSize int, onProgress syncer.ProgressFunc) (model.SyncRecord, error)
}

// TokenResolver 凭证回退链解析。
type TokenResolver interface {
	Resolve(override string) string
}

// DocumentLoader 读取当前聚合文档。
type DocumentLoader interface {
	LoadDocument(ctx context.Context) (model.ZhipinData, error)
}

// Persister 批量合并落盘，一次运行只调用一次。
type Persister interface {
	MergeAndSave(ctx context.Context, rec model.SyncRecord) error
}

// Outcome 一次缺失品牌同步的分类结果。
type Outcome struct {
	SyncedBrands []string          `json:"syncedBrands"`
	FailedBrands []string          `json:"failedBrands"`
	Errors       map[string]string `json:"errors"`
	Record       *model.SyncRecord `json:"record,omitempty"`
}

// Service 比对静态品牌映射与已落盘品牌，驱动缺失品牌的补同步。
type Service struct {
	brands  brandmap.Lookup
	orch    Orchestrator
	tokens  TokenResolver
	store   DocumentLoader
	persist Persister
	logger  *log.Logger
}

// New 创建品牌对账服务。
func New(brands brandmap.Lookup, orch Orchestrator, tokens TokenResolver, store DocumentLoader, persist Persister, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stdout, "[reconciler] ", log.LstdFlags)
	}
	return &Service{brands: brands, orch: orch, tokens: tokens, store: store, persist: persist, logger: logger}
}

// BrandSyncStatus 返回静态映射品牌与已同步品牌的差集视图。
// missingBrands 与 syncedBrands 互不相交，并集恰为全部静态映射品牌。
func (s *Service) BrandSyncStatus(ctx context.Context) (model.BrandSyncStatus, error) {
	doc, err := s.store.LoadDocument(ctx)
	if err != nil {
		return model.BrandSyncStatus{}, fmt.Errorf("load document: %w", err)
	}

	mapped := s.brands.Brands()
	status := model.BrandSyncStatus{
		TotalMapped:   len(mapped),
		MissingBrands: make([]string, 0),
		SyncedBrands:  make([]string, 0),
	}
	for _, name := range mapped {
		if _, ok := doc.Brands[name]; ok {
			status.SyncedBrands = append(status.SyncedBrands, name)
		} else {
			status.MissingBrands = append(status.MissingBrands, name)
		}
	}
	status.TotalSynced = len(status.SyncedBrands)
	return status, nil
}

// SyncMissingBrands 同步所有缺失品牌；force 为真时重新拉取全部映射品牌。
// 凭证缺失是整次调用的终止性错误；单品牌失败只计入 FailedBrands/Errors，
// 不影响其余品牌。至少一个品牌成功时恰好执行一次批量落盘。
func (s *Service) SyncMissingBrands(ctx context.Context, tokenOverride string, force bool) (Outcome, error) {
	outcome := Outcome{
		SyncedBrands: make([]string, 0),
		FailedBrands: make([]string, 0),
		Errors:       make(map[string]string),
	}

	tok := s.tokens.Resolve(tokenOverride)
	if tok == "" {
		return outcome, syncer.ErrMissingToken
	}

	status, err := s.BrandSyncStatus(ctx)
	if err != nil {
		return outcome, err
	}

	targets := status.MissingBrands
	if force {
		targets = s.brands.Brands()
	}
	if len(targets) == 0 {
		s.logger.Printf("no brands to sync")
		return outcome, nil
	}

	orgIDs := make([]int64, 0, len(targets))
	brandByOrg := make(map[int64]string, len(targets))
	for _, name := range targets {
		orgID, ok := s.brands.OrganizationID(name)
		if !ok {
			// 静态映射里没有组织 ID 的品牌无法同步，直接记失败。
			outcome.FailedBrands = append(outcome.FailedBrands, name)
			outcome.Errors[name] = "no organization mapped for brand"
			continue
		}
		orgIDs = append(orgIDs, orgID)
		brandByOrg[orgID] = name
	}
	if len(orgIDs) == 0 {
		return outcome, nil
	}

	record, err := s.orch.SyncMultipleOrganizations(ctx, tok, orgIDs, 0, func(percent int, orgID int64, message string) {
		s.logger.Printf("progress %d%% brand=%s %s", percent, brandByOrg[orgID], message)
	})
	if err != nil {
		return outcome, err
	}

	anySuccess := false
	for _, res := range record.Results {
		name := brandByOrg[res.OrganizationID]
		if res.Success {
			anySuccess = true
			outcome.SyncedBrands = append(outcome.SyncedBrands, name)
			continue
		}
		outcome.FailedBrands = append(outcome.FailedBrands, name)
		if len(res.Errors) > 0 {
			outcome.Errors[name] = res.Errors[0]
		} else {
			outcome.Errors[name] = "sync failed"
		}
	}
	outcome.Record = &record

	if anySuccess {
		if err := s.persist.MergeAndSave(ctx, record); err != nil {
			return outcome, fmt.Errorf("persist sync results: %w", err)
		}
	}

	s.logger.Printf("brand sync done synced=%d failed=%d force=%v", len(outcome.SyncedBrands), len(outcome.FailedBrands), force)
	return outcome, nil
}
