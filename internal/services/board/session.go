package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/boardkit/internal/platform/session"
)

// DefaultSessionFile returns the per-user session path.
func DefaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".boardkit", "session.json")
	}
	return filepath.Join(dir, "boardkit", "session.json")
}

type savedSession struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// sessionFile persists the session between invocations. An empty path
// disables persistence.
type sessionFile struct {
	path string
}

func (f *sessionFile) load() (session.Session, bool, error) {
	if strings.TrimSpace(f.path) == "" {
		return session.Session{}, false, nil
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return session.Session{}, false, nil
	}
	if err != nil {
		return session.Session{}, false, fmt.Errorf("read session: %w", err)
	}
	var saved savedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return session.Session{}, false, fmt.Errorf("decode session %s: %w", f.path, err)
	}
	return session.Session{UserID: saved.UserID, Token: saved.Token, ExpiresAt: saved.ExpiresAt}, true, nil
}

func (f *sessionFile) save(s session.Session) error {
	if strings.TrimSpace(f.path) == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.Marshal(savedSession{UserID: s.UserID, Token: s.Token, ExpiresAt: s.ExpiresAt})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (f *sessionFile) remove() error {
	if strings.TrimSpace(f.path) == "" {
		return nil
	}
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
