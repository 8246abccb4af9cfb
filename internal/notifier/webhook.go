package notifier

import (
	"context"
	"fmt"
	"time"

	"zhipin-sync/internal/model"

	"github.com/go-resty/resty/v2"
)

// WebhookConfig 企业群机器人等回调通道的配置。
type WebhookConfig struct {
	URL     string `yaml:"url" json:"url"`
	Timeout string `yaml:"timeout" json:"timeout"`
}

// WebhookNotifier 将运行摘要以 JSON 推送到回调地址。
type WebhookNotifier struct {
	url    string
	client *resty.Client
}

// NewWebhookNotifier 创建 WebhookNotifier。
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	timeout := 10 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetHeader("Content-Type", "application/json")
	return &WebhookNotifier{url: cfg.URL, client: client}
}

// webhookPayload 推送体，只携带摘要字段，不携带转换后的完整文档。
type webhookPayload struct {
	RunID           string   `json:"runId"`
	OverallSuccess  bool     `json:"overallSuccess"`
	TotalDurationMS int64    `json:"totalDurationMs"`
	SyncedBrands    []string `json:"syncedBrands"`
	FailedBrands    []string `json:"failedBrands"`
}

// NotifyRunCompleted 推送一次运行的摘要。
func (n *WebhookNotifier) NotifyRunCompleted(ctx context.Context, rec model.SyncRecord) error {
	payload := webhookPayload{
		RunID:           rec.ID,
		OverallSuccess:  rec.OverallSuccess,
		TotalDurationMS: rec.TotalDurationMS,
		SyncedBrands:    make([]string, 0, len(rec.Results)),
		FailedBrands:    make([]string, 0),
	}
	for _, res := range rec.Results {
		if res.Success {
			payload.SyncedBrands = append(payload.SyncedBrands, res.BrandName)
		} else {
			payload.FailedBrands = append(payload.FailedBrands, res.BrandName)
		}
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook rejected: status %d", resp.StatusCode())
	}
	return nil
}
