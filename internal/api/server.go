package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"zhipin-sync/internal/model"
	"zhipin-sync/internal/notifier"
	"zhipin-sync/internal/reconciler"
	"zhipin-sync/internal/syncer"
)

// Syncer 抽象编排接口。
type Syncer interface {
	SyncMultipleOrganizations(ctx context.Context, token string, orgIDs []int64, pageSize int, onProgress syncer.ProgressFunc) (model.SyncRecord, error)
	ValidateToken(ctx context.Context, token string) (bool, error)
}

// Reconciler 抽象品牌对账接口。
type Reconciler interface {
	BrandSyncStatus(ctx context.Context) (model.BrandSyncStatus, error)
	SyncMissingBrands(ctx context.Context, tokenOverride string, force bool) (reconciler.Outcome, error)
}

// Persister 批量合并落盘接口。
type Persister interface {
	MergeAndSave(ctx context.Context, rec model.SyncRecord) error
}

// History 运行历史查询接口。
type History interface {
	ListSyncRecords(ctx context.Context, limit int) ([]model.SyncRecord, error)
}

// TokenResolver 凭证回退链解析。
type TokenResolver interface {
	Resolve(override string) string
}

// 错误码常量，HTTP 边界的稳定判别字段。
const (
	codeValidationError = "VALIDATION_ERROR"
	codeMissingToken    = "MISSING_TOKEN"
	codeInvalidToken    = "INVALID_TOKEN"
	codeSyncInProgress  = "SYNC_IN_PROGRESS"
	codeSyncError       = "SYNC_ERROR"
)

// SyncRequest 手动同步请求体。
type SyncRequest struct {
	OrganizationIDs []int64 `json:"organizationIds"`
	PageSize        int     `json:"pageSize"`
	Token           string  `json:"token"`
}

// BrandSyncRequest 缺失品牌补同步请求体。
type BrandSyncRequest struct {
	Token     string `json:"token"`
	ForceSync bool   `json:"forceSync"`
}

// NewHandler 构造 HTTP 多路复用器。
func NewHandler(sync Syncer, recon Reconciler, persist Persister, history History, tokens TokenResolver, notif notifier.Notifier) http.Handler {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags)
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handleSyncStatus(w, r, sync, tokens)
		case http.MethodPost:
			handleSync(w, r, sync, persist, tokens, notif, logger)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/sync/history", func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if l := r.URL.Query().Get("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v > 0 {
				limit = v
			}
		}
		records, err := history.ListSyncRecords(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeSyncError, err.Error(), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": records})
	})

	mux.HandleFunc("/brands/status", func(w http.ResponseWriter, r *http.Request) {
		status, err := recon.BrandSyncStatus(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeSyncError, err.Error(), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": status})
	})

	mux.HandleFunc("/brands/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req BrandSyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidationError, "invalid request body", map[string]string{"body": err.Error()})
			return
		}

		outcome, err := recon.SyncMissingBrands(r.Context(), req.Token, req.ForceSync)
		if err != nil {
			writeSyncError(w, err)
			return
		}
		if notif != nil && outcome.Record != nil {
			if nerr := notif.NotifyRunCompleted(r.Context(), *outcome.Record); nerr != nil {
				logger.Printf("notify run completed: %v", nerr)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": outcome})
	})

	return mux
}

// handleSync 处理手动触发的多组织同步。
func handleSync(w http.ResponseWriter, r *http.Request, sync Syncer, persist Persister, tokens TokenResolver, notif notifier.Notifier, logger *log.Logger) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "invalid request body", map[string]string{"body": err.Error()})
		return
	}
	if len(req.OrganizationIDs) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationError, "organizationIds must contain at least one id", map[string]string{"organizationIds": "required, min 1"})
		return
	}
	if req.PageSize < 0 {
		writeError(w, http.StatusBadRequest, codeValidationError, "pageSize must be positive", map[string]string{"pageSize": "must be > 0"})
		return
	}

	tok := tokens.Resolve(req.Token)
	if tok == "" {
		writeError(w, http.StatusInternalServerError, codeMissingToken, "upstream token not configured", nil)
		return
	}

	record, err := sync.SyncMultipleOrganizations(r.Context(), tok, req.OrganizationIDs, req.PageSize, func(percent int, orgID int64, message string) {
		logger.Printf("progress %d%% org=%d %s", percent, orgID, message)
	})
	if err != nil {
		writeSyncError(w, err)
		return
	}

	if err := persist.MergeAndSave(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, codeSyncError, err.Error(), nil)
		return
	}

	if notif != nil {
		if nerr := notif.NotifyRunCompleted(r.Context(), record); nerr != nil {
			logger.Printf("notify run completed: %v", nerr)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": record})
}

// handleSyncStatus 只读状态探测，无副作用。
func handleSyncStatus(w http.ResponseWriter, r *http.Request, sync Syncer, tokens TokenResolver) {
	tok := tokens.Resolve("")
	resp := map[string]any{"configured": tok != ""}
	if tok == "" {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	valid, err := sync.ValidateToken(r.Context(), tok)
	if err != nil {
		resp["error"] = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp["tokenValid"] = valid
	resp["timestamp"] = time.Now().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, resp)
}

// writeSyncError 将编排层的终止性错误映射为稳定错误码。
func writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, syncer.ErrMissingToken):
		writeError(w, http.StatusInternalServerError, codeMissingToken, err.Error(), nil)
	case errors.Is(err, syncer.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, codeInvalidToken, err.Error(), nil)
	case errors.Is(err, syncer.ErrSyncInProgress):
		writeError(w, http.StatusConflict, codeSyncInProgress, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, codeSyncError, err.Error(), nil)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	body := map[string]any{"success": false, "error": message, "code": code}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
