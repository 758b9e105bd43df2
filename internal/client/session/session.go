package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/bookify/internal/model"
)

// Session 本地持久化的登录会话（token + 账号快照）。
// 账号快照仅用于启动时立即渲染，权威数据以 /api/user/me 为准。
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user,omitempty"`
}

// Store 单文件 JSON 会话存储
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath 默认会话文件位置（用户配置目录下）
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".bookify_session.json"
	}
	return filepath.Join(dir, "bookify", "session.json")
}

// Load 读取会话。文件不存在返回空会话而非错误。
func (s *Store) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Session{}, nil
		}
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// 文件损坏按未登录处理，覆盖写入时自愈
		return &Session{}, nil
	}
	return &sess, nil
}

// Save 原子写入（临时文件 + 重命名），避免中途断电留下半个文件
func (s *Store) Save(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "session-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Clear 退出登录时删除会话文件
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
