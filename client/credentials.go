package client

import (
	"os"
	"path/filepath"
	"strings"
)

// StorageKey is the fixed name the reconnection credential is persisted
// under, mirroring the browser client's localStorage key.
const StorageKey = "kurve_reconnection_token"

// CredentialStore persists the reconnection credential between runs.
// Save happens right after a successful join or resume; Clear happens on
// voluntary disconnect.
type CredentialStore interface {
	Load() string
	Save(token string)
	Clear()
}

// FileCredentialStore keeps the credential in a file under dir.
type FileCredentialStore struct {
	dir string
}

func NewFileCredentialStore(dir string) *FileCredentialStore {
	return &FileCredentialStore{dir: dir}
}

func (s *FileCredentialStore) path() string {
	return filepath.Join(s.dir, StorageKey)
}

func (s *FileCredentialStore) Load() string {
	b, err := os.ReadFile(s.path())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func (s *FileCredentialStore) Save(token string) {
	_ = os.MkdirAll(s.dir, 0o700)
	_ = os.WriteFile(s.path(), []byte(token), 0o600)
}

func (s *FileCredentialStore) Clear() {
	_ = os.Remove(s.path())
}

// MemoryCredentialStore holds the credential in memory only.
type MemoryCredentialStore struct {
	token string
}

func (s *MemoryCredentialStore) Load() string      { return s.token }
func (s *MemoryCredentialStore) Save(token string) { s.token = token }
func (s *MemoryCredentialStore) Clear()            { s.token = "" }
