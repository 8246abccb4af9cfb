package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"zhipin-sync/internal/model"
)

const (
	validatePath = "/api/token/check"
	listPath     = "/api/position/list"
	tokenHeader  = "zp-token"

	// DefaultPageSize 单页请求量放得较大，当前编排层只取一页。
	DefaultPageSize = 100
)

// Config 上游客户端配置。
type Config struct {
	BaseURL  string `yaml:"base_url" json:"base_url"`
	Timeout  string `yaml:"timeout" json:"timeout"`
	PageSize int    `yaml:"page_size" json:"page_size"`
}

// APIError 表示 HTTP 传输成功但业务码非零的错误。
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream business error: code=%d message=%s", e.Code, e.Message)
}

// TransportError 表示网络失败或非 2xx 响应，与业务错误区分。
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream transport error: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client 调用上游 HR 平台的令牌校验与职位列表接口。
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *log.Logger
}

// NewClient 创建客户端，未提供 http.Client 时按配置超时构造。
func NewClient(cfg Config, token string, client *http.Client) *Client {
	if client == nil {
		timeout := 30 * time.Second
		if cfg.Timeout != "" {
			if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
				timeout = d
			}
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   token,
		client:  client,
		logger:  log.New(os.Stdout, "[upstream] ", log.LstdFlags),
	}
}

// HasToken 返回是否配置了凭证。
func (c *Client) HasToken() bool {
	return c.token != ""
}

// ValidateToken 探测令牌有效性。
// 非 2xx 或业务码非零仅视为无效而不是错误；网络失败返回 *TransportError。
func (c *Client) ValidateToken(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+validatePath, nil)
	if err != nil {
		return false, &TransportError{Op: "new request", Err: err}
	}
	req.Header.Set(tokenHeader, c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, &TransportError{Op: "validate token", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Printf("token validation rejected: status=%d", resp.StatusCode)
		return false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, &TransportError{Op: "read validate body", Err: err}
	}
	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false, &TransportError{Op: "decode validate body", Err: err}
	}
	if envelope.Code != 0 {
		c.logger.Printf("token validation rejected: code=%d message=%s", envelope.Code, envelope.Message)
		return false, nil
	}
	return true, nil
}

// ListOrganizationPositions 分页拉取一个组织的职位原始记录。
// 总量超过单页时由调用方负责翻页循环。
func (c *Client) ListOrganizationPositions(ctx context.Context, orgID int64, pageNum, pageSize int) (model.RawListResponse, error) {
	if pageNum <= 0 {
		pageNum = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	payload, err := json.Marshal(map[string]any{
		"organizationIds": []int64{orgID},
		"pageNum":         pageNum,
		"pageSize":        pageSize,
	})
	if err != nil {
		return model.RawListResponse{}, &TransportError{Op: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+listPath, bytes.NewReader(payload))
	if err != nil {
		return model.RawListResponse{}, &TransportError{Op: "new request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(tokenHeader, c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return model.RawListResponse{}, &TransportError{Op: "list positions", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.RawListResponse{}, &TransportError{Op: "list positions", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.RawListResponse{}, &TransportError{Op: "read list body", Err: err}
	}

	var listResp model.RawListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return model.RawListResponse{}, &TransportError{Op: "decode list body", Err: err}
	}
	if listResp.Code != 0 {
		return model.RawListResponse{}, &APIError{Code: listResp.Code, Message: listResp.Message}
	}

	c.logger.Printf("org=%d page=%d size=%d fetched=%d total=%d", orgID, pageNum, pageSize, len(listResp.Data.Result), listResp.Data.Total)
	return listResp, nil
}
