package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"zhipin-sync/internal/brandmap"
	"zhipin-sync/internal/model"
	"zhipin-sync/internal/upstream"
)

var (
	// ErrMissingToken 未配置上游凭证，在任何网络 I/O 之前终止整次调用。
	ErrMissingToken = errors.New("upstream token not configured")
	// ErrInvalidToken 凭证校验未通过，在批次开始前终止。
	ErrInvalidToken = errors.New("upstream token invalid")
	// ErrSyncInProgress 已有同步在运行，共享文档采用单写者保护。
	ErrSyncInProgress = errors.New("sync already in progress")
)

// UpstreamClient 编排层消费的上游接口。
type UpstreamClient interface {
	ValidateToken(ctx context.Context) (bool, error)
	ListOrganizationPositions(ctx context.Context, orgID int64, pageNum, pageSize int) (model.RawListResponse, error)
}

// Mapper 原始记录到领域文档的转换接口。
type Mapper interface {
	Convert(resp model.RawListResponse, orgID int64) (*model.ZhipinData, error)
}

// ClientProvider 按令牌构造上游客户端，令牌在一次调用内解析一次。
type ClientProvider func(token string) UpstreamClient

// ProgressFunc 进度回调，同步调用、不阻塞结果。
type ProgressFunc func(percent int, orgID int64, message string)

// Config 编排配置。
type Config struct {
	PageSize int `yaml:"page_size" json:"page_size"`
}

// Orchestrator 串行同步一个或多个组织，单组织失败不影响批次其余部分。
type Orchestrator struct {
	newClient ClientProvider
	mapper    Mapper
	brands    brandmap.Lookup
	pageSize  int
	running   atomic.Bool
	logger    *log.Logger
	now       func() time.Time
}

// New 创建 Orchestrator。
func New(newClient ClientProvider, mapper Mapper, brands brandmap.Lookup, cfg Config, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(os.Stdout, "[syncer] ", log.LstdFlags)
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = upstream.DefaultPageSize
	}
	return &Orchestrator{
		newClient: newClient,
		mapper:    mapper,
		brands:    brands,
		pageSize:  pageSize,
		logger:    logger,
		now:       time.Now,
	}
}

// Running 返回是否有同步在进行。
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// ValidateToken 对外暴露一次性凭证校验，供调用方在批次前使用。
func (o *Orchestrator) ValidateToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, ErrMissingToken
	}
	return o.newClient(token).ValidateToken(ctx)
}

// SyncOrganization 同步单个组织。
// 凭证由调用方事先校验；客户端或转换层的任何错误都会折叠进
// 返回结果的 Errors 而不是向上传播。
func (o *Orchestrator) SyncOrganization(ctx context.Context, token string, orgID int64) model.SyncResult {
	return o.syncOne(ctx, o.newClient(token), orgID, o.pageSize)
}

func (o *Orchestrator) syncOne(ctx context.Context, client UpstreamClient, orgID int64, pageSize int) model.SyncResult {
	start := o.now()
	result := model.SyncResult{OrganizationID: orgID}
	if name, ok := o.brands.BrandName(orgID); ok {
		result.BrandName = name
	} else {
		result.BrandName = brandmap.PlaceholderBrand(orgID)
	}

	fail := func(err error) model.SyncResult {
		result.Success = false
		result.Errors = append(result.Errors, err.Error())
		result.DurationMS = o.now().Sub(start).Milliseconds()
		o.logger.Printf("org=%d brand=%s sync failed: %v", orgID, result.BrandName, err)
		return result
	}

	// 当前实现单页拉取，页大小放得足够大；翻页循环是已知的未覆盖项。
	resp, err := client.ListOrganizationPositions(ctx, orgID, 1, pageSize)
	if err != nil {
		return fail(err)
	}

	data, err := o.mapper.Convert(resp, orgID)
	if err != nil {
		return fail(err)
	}

	processed := 0
	for _, store := range data.Stores {
		processed += len(store.Positions)
	}

	result.Success = true
	result.BrandName = data.DefaultBrand
	result.ProcessedRecords = processed
	result.StoreCount = len(data.Stores)
	result.ConvertedData = data
	result.DurationMS = o.now().Sub(start).Milliseconds()
	o.logger.Printf("org=%d brand=%s stores=%d records=%d duration=%dms", orgID, result.BrandName, result.StoreCount, processed, result.DurationMS)
	return result
}

// SyncMultipleOrganizations 串行同步多个组织并汇总为一条运行记录。
// pageSize 为 0 时使用配置值。凭证缺失、校验失败或已有运行时返回
// 终止性错误；一旦批次开始，单组织的失败只会体现在对应结果的 Errors 里。
func (o *Orchestrator) SyncMultipleOrganizations(ctx context.Context, token string, orgIDs []int64, pageSize int, onProgress ProgressFunc) (model.SyncRecord, error) {
	if token == "" {
		return model.SyncRecord{}, ErrMissingToken
	}
	if pageSize <= 0 {
		pageSize = o.pageSize
	}
	if o.running.Swap(true) {
		return model.SyncRecord{}, ErrSyncInProgress
	}
	defer o.running.Store(false)

	client := o.newClient(token)
	ok, err := client.ValidateToken(ctx)
	if err != nil {
		return model.SyncRecord{}, fmt.Errorf("validate token: %w", err)
	}
	if !ok {
		return model.SyncRecord{}, ErrInvalidToken
	}

	start := o.now()
	record := model.SyncRecord{
		ID:              fmt.Sprintf("sync_%d", start.UnixMilli()),
		Timestamp:       start,
		OrganizationIDs: append([]int64(nil), orgIDs...),
		Results:         make([]model.SyncResult, 0, len(orgIDs)),
		OverallSuccess:  true,
	}

	report := func(percent int, orgID int64, message string) {
		if onProgress != nil {
			onProgress(percent, orgID, message)
		}
	}

	for i, orgID := range orgIDs {
		report(i*100/len(orgIDs), orgID, fmt.Sprintf("开始同步组织 %d", orgID))

		result := o.syncOne(ctx, client, orgID, pageSize)
		record.Results = append(record.Results, result)
		record.TotalDurationMS += result.DurationMS
		if !result.Success {
			record.OverallSuccess = false
		}

		report((i+1)*100/len(orgIDs), orgID, fmt.Sprintf("组织 %d 同步%s", orgID, statusWord(result.Success)))
	}

	return record, nil
}

func statusWord(success bool) string {
	if success {
		return "完成"
	}
	return "失败"
}
