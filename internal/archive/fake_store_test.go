package archive

import (
	"context"
	"errors"
	"os"
	"sync"
)

// memStore is an in-memory ObjectStore.
type memStore struct {
	mu      sync.Mutex
	names   []string
	listErr error
	// failFor makes the upload of that name fail.
	failFor  map[string]error
	uploaded map[string][]byte
	folders  map[string]string
}

func newMemStore(names ...string) *memStore {
	return &memStore{
		names:    names,
		failFor:  map[string]error{},
		uploaded: map[string][]byte{},
		folders:  map[string]string{},
	}
}

func (s *memStore) ListObjects(_ context.Context, _, _ string) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]string(nil), s.names...), nil
}

func (s *memStore) UploadObject(_ context.Context, folder, name, localPath string) error {
	if err, ok := s.failFor[name]; ok {
		return err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return errors.New("missing artifact")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded[name] = data
	s.folders[name] = folder
	return nil
}
