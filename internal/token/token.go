package token

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvVar 进程级兜底凭证的环境变量名。
const EnvVar = "ZHIPIN_TOKEN"

// Store 本地凭证存取。凭证独立于聚合文档保存，
// 回退链：显式覆盖 → 本地文件 → 环境变量。
type Store struct {
	path string
}

// NewStore 创建凭证存取器，path 为空时仅使用环境变量。
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save 将凭证写入本地文件，权限 0600。
func (s *Store) Save(token string) error {
	if s.path == "" {
		return fmt.Errorf("token file path not configured")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Load 读取本地凭证，文件缺失或为空时回退到环境变量。
func (s *Store) Load() string {
	if s.path != "" {
		if data, err := os.ReadFile(s.path); err == nil {
			if tok := strings.TrimSpace(string(data)); tok != "" {
				return tok
			}
		}
	}
	return strings.TrimSpace(os.Getenv(EnvVar))
}

// Resolve 按回退链解析凭证：override 优先，其次本地存储与环境变量。
func (s *Store) Resolve(override string) string {
	if tok := strings.TrimSpace(override); tok != "" {
		return tok
	}
	return s.Load()
}
