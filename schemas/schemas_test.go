package schemas

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLikeFlipsMembership(t *testing.T) {
	post := &Post{}
	alice := Like{UserID: "alice", Username: "Alice"}
	bob := Like{UserID: "bob", Username: "Bob"}

	assert.True(t, post.ToggleLike(alice))
	assert.True(t, post.ToggleLike(bob))
	assert.True(t, post.HasLike("alice"))

	assert.False(t, post.ToggleLike(alice))
	assert.False(t, post.HasLike("alice"))
	assert.Equal(t, []Like{bob}, post.Likes)

	assert.True(t, post.ToggleLike(alice))
	assert.Equal(t, []Like{bob, alice}, post.Likes)
}

func TestCopyDoesNotShareSlices(t *testing.T) {
	post := &Post{Likes: []Like{{UserID: "a"}}, Comments: []Comment{{Content: "hi"}}}
	cp := post.Copy()
	cp.ToggleLike(Like{UserID: "b"})
	cp.Comments[0].Content = "changed"

	assert.Len(t, post.Likes, 1)
	assert.Equal(t, Text("hi"), post.Comments[0].Content)
}

func TestToPostData(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	post := &Post{
		ID:             NewPostId(),
		AuthorID:       "u1",
		AuthorUsername: "ann",
		Content:        "hello",
		CreatedAt:      created,
		UpdatedAt:      created,
	}

	data := post.ToPostData()
	assert.Equal(t, post.ID.Hex(), data.ID)
	assert.Equal(t, "", data.ImageMedia)
	assert.Equal(t, "", data.VideoMedia)
	require.NotNil(t, data.Likes)
	require.NotNil(t, data.Comments)
	assert.Empty(t, data.Likes)
	assert.Zero(t, data.LikesCount)
	assert.Equal(t, "2024-03-01T12:00:00Z", data.CreatedAt)

	post.ToggleLike(Like{UserID: "u2", Username: "bo"})
	post.Comments = append(post.Comments, Comment{ID: NewCommentId(), AuthorID: "u2", Content: "nice", CreatedAt: created})
	data = post.ToPostData()
	assert.Equal(t, 1, data.LikesCount)
	assert.Equal(t, 1, data.CommentsCount)
	assert.Equal(t, "bo", data.Likes[0].Username)
	assert.Equal(t, Text("nice"), data.Comments[0].Content)
}

func TestIDFromText(t *testing.T) {
	id := NewPostId()
	parsed, err := IDFromText(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = IDFromText("not-an-id")
	assert.Error(t, err)
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	assert.NoError(t, verr.OrNil())

	verr.Add("text", "Either text, image, or video is required")
	verr.Add("imageMedia", "Either text, image, or video is required")
	err := fmt.Errorf("create post: %w", verr.OrNil())

	assert.ErrorIs(t, err, ErrValidation)
	var target *ValidationError
	require.True(t, errors.As(err, &target))
	assert.Len(t, target.Fields, 2)
	assert.Equal(t, "Either text, image, or video is required", target.Error())
}

func TestPayloadTooLargeMessageNamesLimit(t *testing.T) {
	err := &PayloadTooLargeError{Subject: "Image", Limit: 10 << 20}
	assert.Equal(t, "Image must be less than 10MB. Please use a smaller file.", err.Error())
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestNotFoundError(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &NotFoundError{Entity: "Post"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Post not found", (&NotFoundError{Entity: "Post"}).Error())
}

func TestUserDataHasNoSecrets(t *testing.T) {
	user := &User{ID: "u1", Email: "a@b.c", Username: "ann", CreatedAt: time.Unix(0, 0)}
	data := user.ToUserData()
	assert.Equal(t, "u1", data.ID)
	assert.Equal(t, Like{UserID: "u1", Username: "ann"}, user.Like())
}
