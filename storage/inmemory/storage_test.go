package inmemory

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postboard/plain"
	"postboard/schemas"
	"postboard/storage"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newStorage() (*MemoryStorage, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewInMemoryStorage().WithClock(clock.now), clock
}

func put(t *testing.T, s *MemoryStorage, author schemas.UserId, text string) *schemas.Post {
	t.Helper()
	post, err := s.PutPost(context.Background(), &schemas.Post{AuthorID: author, Content: schemas.Text(text)})
	require.NoError(t, err)
	return post
}

func texts(posts []*schemas.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = string(p.Content)
	}
	return out
}

func TestPutPostAssignsIdentity(t *testing.T) {
	s, _ := newStorage()
	post := put(t, s, "u1", "hello")

	assert.False(t, post.ID.IsZero())
	assert.Equal(t, post.CreatedAt, post.UpdatedAt)
	assert.NotNil(t, post.Likes)
	assert.NotNil(t, post.Comments)

	got, err := s.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post, got)
}

func TestGetPostNotFound(t *testing.T) {
	s, _ := newStorage()
	_, err := s.GetPost(context.Background(), schemas.NewPostId())
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, err, schemas.ErrNotFound)
}

func TestGetPostsNewestFirst(t *testing.T) {
	s, clock := newStorage()
	put(t, s, "u1", "first")
	clock.advance(time.Second)
	put(t, s, "u2", "second")
	// same timestamp: later insert wins
	put(t, s, "u1", "third")

	posts, total, err := s.GetPosts(context.Background(), plain.PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"third", "second", "first"}, texts(posts))
}

func TestGetPostsPagesAndFilters(t *testing.T) {
	s, clock := newStorage()
	for i := 0; i < 45; i++ {
		author := schemas.UserId("u1")
		if i%3 == 0 {
			author = "u2"
		}
		put(t, s, author, strings.Repeat("x", i+1))
		clock.advance(time.Millisecond)
	}

	page1, total, err := s.GetPosts(context.Background(), plain.PageRequest{Page: 1, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(45), total)
	assert.Len(t, page1, 20)

	page3, _, err := s.GetPosts(context.Background(), plain.PageRequest{Page: 3, Size: 20})
	require.NoError(t, err)
	assert.Len(t, page3, 5)

	beyond, _, err := s.GetPosts(context.Background(), plain.PageRequest{Page: 9, Size: 20})
	require.NoError(t, err)
	assert.Empty(t, beyond)

	byU2, total, err := s.GetPosts(context.Background(), plain.PageRequest{Page: 1, Size: 100, AuthorID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
	for _, p := range byU2 {
		assert.Equal(t, schemas.UserId("u2"), p.AuthorID)
	}
}

func TestToggleLike(t *testing.T) {
	s, clock := newStorage()
	post := put(t, s, "u1", "hello")
	like := schemas.Like{UserID: "u2", Username: "bo"}
	ctx := context.Background()

	clock.advance(time.Minute)
	liked, isLiked, err := s.ToggleLike(ctx, post.ID, like)
	require.NoError(t, err)
	assert.True(t, isLiked)
	assert.Equal(t, []schemas.Like{like}, liked.Likes)
	assert.Equal(t, 1, liked.Version)
	assert.True(t, liked.UpdatedAt.After(post.CreatedAt))

	unliked, isLiked, err := s.ToggleLike(ctx, post.ID, like)
	require.NoError(t, err)
	assert.False(t, isLiked)
	assert.Empty(t, unliked.Likes)
	assert.Equal(t, 2, unliked.Version)

	_, _, err = s.ToggleLike(ctx, schemas.NewPostId(), like)
	assert.ErrorIs(t, err, schemas.ErrNotFound)
}

func TestConcurrentLikesAreNotLost(t *testing.T) {
	s, _ := newStorage()
	post := put(t, s, "u1", "hello")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := s.ToggleLike(context.Background(), post.ID, schemas.Like{UserID: schemas.UserId(strings.Repeat("u", i+1))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Len(t, got.Likes, 50)
}

func TestAppendCommentKeepsOrder(t *testing.T) {
	s, clock := newStorage()
	post := put(t, s, "u1", "hello")
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		clock.advance(time.Second)
		_, comment, err := s.AppendComment(ctx, post.ID, schemas.Comment{AuthorID: "u2", Content: schemas.Text(text)})
		require.NoError(t, err)
		assert.NotEqual(t, schemas.CommentId{}, comment.ID)
		assert.Equal(t, clock.now(), comment.CreatedAt)
	}

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 3)
	assert.Equal(t, schemas.Text("one"), got.Comments[0].Content)
	assert.Equal(t, schemas.Text("three"), got.Comments[2].Content)

	_, _, err = s.AppendComment(ctx, schemas.NewPostId(), schemas.Comment{Content: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPutPostRejectsOversizedDocument(t *testing.T) {
	s, _ := newStorage()
	_, err := s.PutPost(context.Background(), &schemas.Post{
		AuthorID:   "u1",
		ImageMedia: "data:image/png;base64," + strings.Repeat("A", storage.MaxDocumentSize),
	})
	assert.ErrorIs(t, err, storage.ErrDocumentTooLarge)
	assert.ErrorIs(t, err, schemas.ErrPayloadTooLarge)

	posts, total, err := s.GetPosts(context.Background(), plain.PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, posts)
}

func TestReturnedPostsAreCopies(t *testing.T) {
	s, _ := newStorage()
	post := put(t, s, "u1", "hello")
	post.Content = "mutated"
	post.Likes = append(post.Likes, schemas.Like{UserID: "x"})

	got, err := s.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, schemas.Text("hello"), got.Content)
	assert.Empty(t, got.Likes)
}
