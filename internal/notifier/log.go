package notifier

import (
	"context"
	"log"
	"os"

	"zhipin-sync/internal/model"
)

// Notifier 同步完成通知接口。
type Notifier interface {
	NotifyRunCompleted(ctx context.Context, rec model.SyncRecord) error
}

// Multi 依次调用多个通知渠道，单渠道失败不阻断其余渠道。
type Multi []Notifier

// NotifyRunCompleted 逐个通知，返回最后一个失败。
func (m Multi) NotifyRunCompleted(ctx context.Context, rec model.SyncRecord) error {
	var last error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NotifyRunCompleted(ctx, rec); err != nil {
			last = err
		}
	}
	return last
}

// LogNotifier 仅打印运行摘要，适合开发阶段使用。
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier 创建日志通知器，未提供 logger 时默认输出到标准输出。
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(os.Stdout, "[notify] ", log.LstdFlags)
	}
	return &LogNotifier{logger: logger}
}

// NotifyRunCompleted 打印一次运行的逐组织结果。
func (n LogNotifier) NotifyRunCompleted(ctx context.Context, rec model.SyncRecord) error {
	n.logger.Printf("run %s success=%v orgs=%d duration=%dms", rec.ID, rec.OverallSuccess, len(rec.OrganizationIDs), rec.TotalDurationMS)
	for _, res := range rec.Results {
		if res.Success {
			n.logger.Printf("  %s org=%d stores=%d records=%d", res.BrandName, res.OrganizationID, res.StoreCount, res.ProcessedRecords)
			continue
		}
		n.logger.Printf("  %s org=%d failed: %v", res.BrandName, res.OrganizationID, res.Errors)
	}
	return nil
}
