package contacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charla-im/charla/internal/backend"
	"github.com/charla-im/charla/internal/store"
)

// FileStore is a contact backend over a single JSON file instead of the
// document store. It enforces the same ownership policy; every mutation
// rewrites the whole file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed contact store at path. The file is
// created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) load() ([]store.Contact, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read contacts file: %w", err)
	}
	var contacts []store.Contact
	if err := json.Unmarshal(data, &contacts); err != nil {
		return nil, fmt.Errorf("parse contacts file: %w", err)
	}
	return contacts, nil
}

func (f *FileStore) save(contacts []store.Contact) error {
	data, err := json.MarshalIndent(contacts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode contacts: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("create contacts dir: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("write contacts file: %w", err)
	}
	return nil
}

func (f *FileStore) CreateContact(_ context.Context, actor string, c store.Contact) (*store.Contact, error) {
	if actor == "" {
		return nil, backend.ErrPermissionDenied
	}
	if c.Name == "" {
		return nil, backend.ErrInvalidDocument
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	contacts, err := f.load()
	if err != nil {
		return nil, err
	}
	c.ID = uuid.NewString()
	c.OwnerUID = actor
	if c.Status == "" {
		c.Status = store.ContactStatusActive
	}
	c.CreatedAt = time.Now().UnixMilli()
	contacts = append(contacts, c)
	if err := f.save(contacts); err != nil {
		return nil, err
	}
	return &c, nil
}

func (f *FileStore) GetContact(_ context.Context, actor, id string) (*store.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	contacts, err := f.load()
	if err != nil {
		return nil, err
	}
	for i := range contacts {
		if contacts[i].ID == id {
			if contacts[i].OwnerUID != actor {
				return nil, backend.ErrPermissionDenied
			}
			c := contacts[i]
			return &c, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (f *FileStore) ListContacts(_ context.Context, actor string) ([]store.Contact, error) {
	if actor == "" {
		return nil, backend.ErrPermissionDenied
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	contacts, err := f.load()
	if err != nil {
		return nil, err
	}
	out := make([]store.Contact, 0)
	for _, c := range contacts {
		if c.OwnerUID == actor {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *FileStore) UpdateContact(_ context.Context, actor string, c store.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	contacts, err := f.load()
	if err != nil {
		return err
	}
	for i := range contacts {
		if contacts[i].ID == c.ID {
			if contacts[i].OwnerUID != actor {
				return backend.ErrPermissionDenied
			}
			// Ownership and creation time are immutable.
			c.OwnerUID = contacts[i].OwnerUID
			c.CreatedAt = contacts[i].CreatedAt
			contacts[i] = c
			return f.save(contacts)
		}
	}
	return backend.ErrNotFound
}

func (f *FileStore) DeleteContact(_ context.Context, actor, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	contacts, err := f.load()
	if err != nil {
		return err
	}
	for i := range contacts {
		if contacts[i].ID == id {
			if contacts[i].OwnerUID != actor {
				return backend.ErrPermissionDenied
			}
			contacts = append(contacts[:i], contacts[i+1:]...)
			return f.save(contacts)
		}
	}
	return backend.ErrNotFound
}
