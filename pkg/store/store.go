// Package store persists presentations as JSON documents in a
// runtime.Storage.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/deckgen/runtime"
)

const prefix = "presentations/"

var (
	ErrNotFound = errors.New("presentation not found")
	ErrInvalid  = errors.New("invalid presentation")
)

// ValidationError lists the required fields that were empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Presentation is a saved outline with its metadata.
type Presentation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Creator      string    `json:"creator"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
}

// Draft holds the editable fields.
type Draft struct {
	Title        string `json:"title"`
	Company      string `json:"company"`
	Creator      string `json:"creator"`
	Content      string `json:"content"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// Validate checks the required fields.
func (d Draft) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(d.Company) == "" {
		missing = append(missing, "company")
	}
	if strings.TrimSpace(d.Creator) == "" {
		missing = append(missing, "creator")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Store is safe for concurrent use within one process.
type Store struct {
	storage runtime.Storage
	now     func() time.Time
	newID   func() string
	log     logrus.FieldLogger

	mu sync.Mutex
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) { s.log = log }
}

func New(storage runtime.Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		now:     time.Now,
		newID:   uuid.NewString,
		log:     logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func key(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return prefix + id + ".json", nil
}

// Create saves a new presentation.
func (s *Store) Create(ctx context.Context, d Draft) (*Presentation, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p := &Presentation{
		ID:           s.newID(),
		Title:        d.Title,
		Company:      d.Company,
		Creator:      d.Creator,
		Content:      d.Content,
		ThumbnailURL: d.ThumbnailURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.put(ctx, p); err != nil {
		return nil, err
	}
	s.log.WithField("id", p.ID).Info("presentation created")
	return p, nil
}

// Get loads a presentation by ID.
func (s *Store) Get(ctx context.Context, id string) (*Presentation, error) {
	k, err := key(id)
	if err != nil {
		return nil, err
	}
	data, err := runtime.ReadAll(ctx, s.storage, k)
	if errors.Is(err, runtime.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read presentation %s: %w", id, err)
	}
	var p Presentation
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode presentation %s: %w", id, err)
	}
	return &p, nil
}

// Exists reports whether id is saved.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Update replaces the editable fields. An empty thumbnail keeps the old one.
func (s *Store) Update(ctx context.Context, id string, d Draft) (*Presentation, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Title, p.Company, p.Creator, p.Content = d.Title, d.Company, d.Creator, d.Content
	if d.ThumbnailURL != "" {
		p.ThumbnailURL = d.ThumbnailURL
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a presentation. Deleting an unknown ID is ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	k, _ := key(id)
	if err := s.storage.Delete(ctx, k); err != nil {
		return fmt.Errorf("delete presentation %s: %w", id, err)
	}
	s.log.WithField("id", id).Info("presentation deleted")
	return nil
}

// List returns every presentation, most recently updated first. Unreadable
// records are skipped.
func (s *Store) List(ctx context.Context) ([]*Presentation, error) {
	res, err := s.storage.List(ctx, prefix, "")
	if err != nil {
		return nil, fmt.Errorf("list presentations: %w", err)
	}
	out := make([]*Presentation, 0, len(res.Keys))
	for _, k := range res.Keys {
		if path.Ext(k) != ".json" {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(k, prefix), ".json")
		p, err := s.Get(ctx, id)
		if err != nil {
			s.log.WithError(err).WithField("key", k).Warn("skip invalid presentation")
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) put(ctx context.Context, p *Presentation) error {
	k, err := key(p.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := s.storage.Put(ctx, k, data, "application/json"); err != nil {
		return fmt.Errorf("write presentation %s: %w", p.ID, err)
	}
	return nil
}
