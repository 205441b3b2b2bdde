// score/store.go
package score

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Store persists the local win counter between processes. It is the
// only on-disk artifact the session layer keeps.
type Store interface {
	Load(gameID string) (int, error)
	Save(gameID string, wins int) error
}

// FileStore keeps per-game counters in a small JSON file.
type FileStore struct {
	path  string
	mutex sync.Mutex
	data  map[string]int
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		data: make(map[string]int),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read score file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse score file: %w", err)
	}
	return s, nil
}

func (s *FileStore) Load(gameID string) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.data[gameID], nil
}

func (s *FileStore) Save(gameID string, wins int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[gameID] = wins
	raw, err := json.Marshal(s.data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write score file: %w", err)
	}
	return nil
}

// MemStore is the in-memory Store used by tests and by peers that opt
// out of persistence.
type MemStore struct {
	mutex sync.Mutex
	data  map[string]int
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]int)}
}

func (s *MemStore) Load(gameID string) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.data[gameID], nil
}

func (s *MemStore) Save(gameID string, wins int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data[gameID] = wins
	return nil
}
