// Package posts holds the write side of the post aggregate: creation with
// inline media, like toggling and comment appending.
package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"postboard/events"
	"postboard/media"
	"postboard/metrics"
	"postboard/schemas"
	"postboard/storage"
)

const presenceMessage = "Either text, image, or video is required"

type CreatePostInput struct {
	Text  string
	Image *media.Upload
	Video *media.Upload
}

type PostsManager struct {
	postStorage  storage.Storage
	usersStorage storage.UsersStorage
	publisher    events.Publisher
}

func NewPostsManager(postStorage storage.Storage, usersStorage storage.UsersStorage, publisher events.Publisher) *PostsManager {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &PostsManager{
		postStorage:  postStorage,
		usersStorage: usersStorage,
		publisher:    publisher,
	}
}

// CreatePost encodes the attachments, validates the post and
// persists the post with the author's current username.
func (pm *PostsManager) CreatePost(ctx context.Context, authorId schemas.UserId, input CreatePostInput) (*schemas.Post, error) {
	post := &schemas.Post{AuthorID: authorId}

	var err error
	if input.Image != nil {
		if post.ImageMedia, err = encode(*input.Image, media.CategoryImage); err != nil {
			return nil, err
		}
	}
	if input.Video != nil {
		if post.VideoMedia, err = encode(*input.Video, media.CategoryVideo); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, uploadError(err)
	}

	post.Content = schemas.Text(strings.TrimSpace(input.Text))
	if err := validatePost(post); err != nil {
		metrics.RecordUploadRejected("validation")
		return nil, err
	}

	author, err := pm.usersStorage.GetUser(ctx, authorId)
	if err != nil {
		return nil, userError(err)
	}
	post.AuthorUsername = author.Username

	created, err := pm.postStorage.PutPost(ctx, post)
	if err != nil {
		if errors.Is(err, schemas.ErrPayloadTooLarge) {
			metrics.RecordUploadRejected("document_too_large")
		}
		return nil, uploadError(err)
	}

	kind := events.ContentType(created)
	metrics.RecordPostCreated(kind)
	slog.Info("Post created", "post_id", created.ID.Hex(), "author_id", authorId, "type", kind)
	if err := pm.publisher.PublishPostCreated(ctx, created); err != nil {
		slog.Warn("Failed to publish post event", "post_id", created.ID.Hex(), "error", err)
	}
	return created, nil
}

func encode(upload media.Upload, category media.Category) (string, error) {
	upload.Category = category
	encoded, err := upload.Encode()
	if err != nil {
		switch {
		case errors.Is(err, schemas.ErrPayloadTooLarge):
			metrics.RecordUploadRejected("media_too_large")
		case errors.Is(err, schemas.ErrUnsupportedMediaType):
			metrics.RecordUploadRejected("unsupported_media_type")
		}
		return "", err
	}
	metrics.RecordMediaEncoded(string(category), len(upload.Data))
	return encoded, nil
}

func validatePost(post *schemas.Post) error {
	verr := schemas.NewValidationError()
	if utf8.RuneCountInString(string(post.Content)) > schemas.MaxPostTextLength {
		verr.Add("text", fmt.Sprintf("Post text cannot exceed %d characters", schemas.MaxPostTextLength))
	}
	if post.Content == "" && post.ImageMedia == "" && post.VideoMedia == "" {
		verr.Add("text", presenceMessage)
		verr.Add("imageMedia", presenceMessage)
		verr.Add("videoMedia", presenceMessage)
	}
	return verr.OrNil()
}

// ToggleLike adds the user's like if absent and removes it if present.
func (pm *PostsManager) ToggleLike(ctx context.Context, postId schemas.PostId, userId schemas.UserId) (*schemas.Post, bool, error) {
	user, err := pm.usersStorage.GetUser(ctx, userId)
	if err != nil {
		return nil, false, userError(err)
	}

	post, liked, err := pm.postStorage.ToggleLike(ctx, postId, user.Like())
	if err != nil {
		return nil, false, postError(err)
	}

	metrics.RecordLikeToggled(liked)
	if err := pm.publisher.PublishLikeToggled(ctx, post, userId, liked); err != nil {
		slog.Warn("Failed to publish like event", "post_id", postId.Hex(), "error", err)
	}
	return post, liked, nil
}

// AddComment appends a comment and returns it together with the updated post.
func (pm *PostsManager) AddComment(ctx context.Context, postId schemas.PostId, userId schemas.UserId, text string) (*schemas.Comment, *schemas.Post, error) {
	content := strings.TrimSpace(text)
	verr := schemas.NewValidationError()
	switch {
	case content == "":
		verr.Add("text", "Comment text is required")
	case utf8.RuneCountInString(content) > schemas.MaxCommentTextLength:
		verr.Add("text", fmt.Sprintf("Comment cannot exceed %d characters", schemas.MaxCommentTextLength))
	}
	if err := verr.OrNil(); err != nil {
		return nil, nil, err
	}

	user, err := pm.usersStorage.GetUser(ctx, userId)
	if err != nil {
		return nil, nil, userError(err)
	}

	post, comment, err := pm.postStorage.AppendComment(ctx, postId, schemas.Comment{
		AuthorID:       user.ID,
		AuthorUsername: user.Username,
		Content:        schemas.Text(content),
	})
	if err != nil {
		return nil, nil, postError(err)
	}

	metrics.RecordCommentAdded()
	if err := pm.publisher.PublishCommentAdded(ctx, post, comment); err != nil {
		slog.Warn("Failed to publish comment event", "post_id", postId.Hex(), "error", err)
	}
	return comment, post, nil
}

func userError(err error) error {
	if errors.Is(err, schemas.ErrNotFound) {
		return &schemas.NotFoundError{Entity: "User"}
	}
	return fmt.Errorf("failed to load user: %w", err)
}

func postError(err error) error {
	if errors.Is(err, schemas.ErrNotFound) {
		return &schemas.NotFoundError{Entity: "Post"}
	}
	return err
}

func uploadError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", schemas.ErrUploadTimeout, err)
	}
	return err
}
