package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"postboard/plain"
	"postboard/schemas"
)

// MaxDocumentSize is MongoDB's BSON document ceiling; the in-memory store enforces it too.
const MaxDocumentSize = 16 * 1024 * 1024

var (
	StorageError        = errors.New("storage")
	ErrConflict         = fmt.Errorf("%w.conflict", StorageError)
	ErrNotFound         = fmt.Errorf("%w.not_found: %w", StorageError, schemas.ErrNotFound)
	ErrDocumentTooLarge = fmt.Errorf("%w.document_too_large: %w", StorageError, &schemas.PayloadTooLargeError{
		Subject: "Post with attachments",
		Limit:   MaxDocumentSize,
	})
)

// Storage persists Post aggregates. Implementations assign ids and timestamps
// and must apply like/comment changes atomically per post.
type Storage interface {
	PutPost(ctx context.Context, post *schemas.Post) (*schemas.Post, error)
	GetPost(ctx context.Context, postId schemas.PostId) (*schemas.Post, error)
	GetPosts(ctx context.Context, page plain.PageRequest) (_ []*schemas.Post, total int64, _ error)
	ToggleLike(ctx context.Context, postId schemas.PostId, like schemas.Like) (_ *schemas.Post, liked bool, _ error)
	AppendComment(ctx context.Context, postId schemas.PostId, comment schemas.Comment) (*schemas.Post, *schemas.Comment, error)
}

type UsersStorage interface {
	GetUser(ctx context.Context, userId schemas.UserId) (*schemas.User, error)
}

// CheckDocumentSize fails with ErrDocumentTooLarge if post would not fit in one document.
func CheckDocumentSize(post *schemas.Post) error {
	raw, err := bson.Marshal(post)
	if err != nil {
		return fmt.Errorf("encode post: %w", err)
	}
	if len(raw) > MaxDocumentSize {
		return ErrDocumentTooLarge
	}
	return nil
}
