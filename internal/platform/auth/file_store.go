package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	sessionFile = "session.json"
	cookiesFile = "cookies.json"
)

// FileStore keeps the login marker in STATE_DIR/session.json for the CLI.
type FileStore struct {
	mu    sync.Mutex
	path  string
	codec *MarkerCodec
}

type sessionDoc struct {
	Marker    string    `json:"marker"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewFileStore(dir string, codec *MarkerCodec) *FileStore {
	return &FileStore{path: filepath.Join(dir, sessionFile), codec: codec}
}

func (s *FileStore) IsAuthenticated(ctx context.Context) bool {
	_, err := s.Identity(ctx)
	return err == nil
}

func (s *FileStore) Identity(ctx context.Context) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Identity{}, ErrNotLoggedIn
	}
	if err != nil {
		return Identity{}, fmt.Errorf("read session: %w", err)
	}
	var doc sessionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Identity{}, ErrNotLoggedIn
	}
	return s.codec.Decode(doc.Marker)
}

func (s *FileStore) Login(ctx context.Context, id Identity) error {
	token, exp, err := s.codec.Encode(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path, sessionDoc{Marker: token, ExpiresAt: exp})
}

func (s *FileStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// FileJar is an http.CookieJar for a single backend that survives between
// CLI runs in STATE_DIR/cookies.json.
type FileJar struct {
	mu      sync.Mutex
	path    string
	cookies map[string]*http.Cookie
	now     func() time.Time
}

// OpenFileJar loads any cookies saved by a previous run.
func OpenFileJar(dir string) (*FileJar, error) {
	j := &FileJar{
		path:    filepath.Join(dir, cookiesFile),
		cookies: make(map[string]*http.Cookie),
		now:     time.Now,
	}

	raw, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	var saved []*http.Cookie
	if err := json.Unmarshal(raw, &saved); err != nil {
		// A corrupt jar is treated as empty; the next login rewrites it.
		return j, nil
	}
	for _, ck := range saved {
		j.cookies[ck.Name] = ck
	}
	return j, nil
}

func (j *FileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, ck := range cookies {
		if ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(j.now())) {
			delete(j.cookies, ck.Name)
			continue
		}
		stored := &http.Cookie{Name: ck.Name, Value: ck.Value, Expires: ck.Expires}
		if ck.MaxAge > 0 {
			stored.Expires = j.now().Add(time.Duration(ck.MaxAge) * time.Second)
		}
		j.cookies[ck.Name] = stored
	}
	_ = j.saveLocked()
}

func (j *FileJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	out := make([]*http.Cookie, 0, len(j.cookies))
	for _, ck := range j.cookies {
		if !ck.Expires.IsZero() && ck.Expires.Before(now) {
			continue
		}
		out = append(out, &http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	return out
}

// Clear drops every stored cookie.
func (j *FileJar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.cookies = make(map[string]*http.Cookie)
	if err := os.Remove(j.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cookies: %w", err)
	}
	return nil
}

func (j *FileJar) saveLocked() error {
	list := make([]*http.Cookie, 0, len(j.cookies))
	for _, ck := range j.cookies {
		list = append(list, ck)
	}
	return writeJSON(j.path, list)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}
