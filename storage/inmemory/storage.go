package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"postboard/plain"
	"postboard/schemas"
	"postboard/storage"
)

type entry struct {
	post *schemas.Post
	seq  int64
}

type MemoryStorage struct {
	mu sync.RWMutex

	postById map[schemas.PostId]*entry
	// newest first: createdAt desc, then insertion order desc
	ordered []*entry
	nextSeq int64

	now func() time.Time
}

func NewInMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		postById: map[schemas.PostId]*entry{},
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// WithClock replaces the time source; tests use it to create ties and gaps.
func (s *MemoryStorage) WithClock(now func() time.Time) *MemoryStorage {
	s.now = now
	return s
}

func (s *MemoryStorage) PutPost(_ context.Context, post *schemas.Post) (*schemas.Post, error) {
	newPost := post.Copy()
	newPost.ID = schemas.NewPostId()
	newPost.Version = 0
	newPost.Likes = []schemas.Like{}
	newPost.Comments = []schemas.Comment{}

	s.mu.Lock()
	defer s.mu.Unlock()

	newPost.CreatedAt = s.now()
	newPost.UpdatedAt = newPost.CreatedAt
	if err := storage.CheckDocumentSize(newPost); err != nil {
		return nil, err
	}

	e := &entry{post: newPost, seq: s.nextSeq}
	s.nextSeq++
	s.postById[newPost.ID] = e

	i := sort.Search(len(s.ordered), func(i int) bool { return newer(e, s.ordered[i]) })
	s.ordered = append(s.ordered, nil)
	copy(s.ordered[i+1:], s.ordered[i:])
	s.ordered[i] = e

	return newPost.Copy(), nil
}

func newer(a, b *entry) bool {
	if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
		return a.post.CreatedAt.After(b.post.CreatedAt)
	}
	return a.seq > b.seq
}

func (s *MemoryStorage) GetPost(_ context.Context, postId schemas.PostId) (*schemas.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.postById[postId]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", postId, storage.ErrNotFound)
	}
	return e.post.Copy(), nil
}

func (s *MemoryStorage) GetPosts(_ context.Context, page plain.PageRequest) ([]*schemas.Post, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	skip := page.Skip()
	var total int64
	pack := make([]*schemas.Post, 0, page.Size)
	for _, e := range s.ordered {
		if page.AuthorID != "" && e.post.AuthorID != page.AuthorID {
			continue
		}
		if total >= skip && len(pack) < page.Size {
			pack = append(pack, e.post.Copy())
		}
		total++
	}
	return pack, total, nil
}

func (s *MemoryStorage) ToggleLike(_ context.Context, postId schemas.PostId, like schemas.Like) (*schemas.Post, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.postById[postId]
	if !ok {
		return nil, false, fmt.Errorf("post %s: %w", postId, storage.ErrNotFound)
	}

	updated := e.post.Copy()
	liked := updated.ToggleLike(like)
	if err := s.commit(e, updated); err != nil {
		return nil, false, err
	}
	return updated.Copy(), liked, nil
}

func (s *MemoryStorage) AppendComment(_ context.Context, postId schemas.PostId, comment schemas.Comment) (*schemas.Post, *schemas.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.postById[postId]
	if !ok {
		return nil, nil, fmt.Errorf("post %s: %w", postId, storage.ErrNotFound)
	}

	comment.ID = schemas.NewCommentId()
	comment.CreatedAt = s.now()

	updated := e.post.Copy()
	updated.Comments = append(updated.Comments, comment)
	if err := s.commit(e, updated); err != nil {
		return nil, nil, err
	}
	return updated.Copy(), &comment, nil
}

// commit must be called with mu held.
func (s *MemoryStorage) commit(e *entry, updated *schemas.Post) error {
	updated.Version++
	updated.UpdatedAt = s.now()
	if err := storage.CheckDocumentSize(updated); err != nil {
		return err
	}
	e.post = updated
	return nil
}
