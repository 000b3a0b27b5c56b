package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"postboard/schemas"
)

const (
	SubjectPostCreated  = "post.created"
	SubjectPostLiked    = "post.liked"
	SubjectPostUnliked  = "post.unliked"
	SubjectCommentAdded = "comment.added"
)

// Event payloads carry ids and a media kind only, never the media itself.
type PostEvent struct {
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Type      string    `json:"type"` // "text", "image", "video"
	CommentID string    `json:"comment_id,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	PublishPostCreated(ctx context.Context, post *schemas.Post) error
	PublishLikeToggled(ctx context.Context, post *schemas.Post, actor schemas.UserId, liked bool) error
	PublishCommentAdded(ctx context.Context, post *schemas.Post, comment *schemas.Comment) error
}

type NatsPublisher struct {
	nc *nats.Conn
}

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

func (p *NatsPublisher) PublishPostCreated(ctx context.Context, post *schemas.Post) error {
	return p.publish(ctx, SubjectPostCreated, PostEvent{
		PostID:   post.ID.Hex(),
		AuthorID: string(post.AuthorID),
		ActorID:  string(post.AuthorID),
		Type:     ContentType(post),
		At:       post.CreatedAt,
	})
}

func (p *NatsPublisher) PublishLikeToggled(ctx context.Context, post *schemas.Post, actor schemas.UserId, liked bool) error {
	subject := SubjectPostUnliked
	if liked {
		subject = SubjectPostLiked
	}
	return p.publish(ctx, subject, PostEvent{
		PostID:   post.ID.Hex(),
		AuthorID: string(post.AuthorID),
		ActorID:  string(actor),
		Type:     ContentType(post),
		At:       post.UpdatedAt,
	})
}

func (p *NatsPublisher) PublishCommentAdded(ctx context.Context, post *schemas.Post, comment *schemas.Comment) error {
	return p.publish(ctx, SubjectCommentAdded, PostEvent{
		PostID:    post.ID.Hex(),
		AuthorID:  string(post.AuthorID),
		ActorID:   string(comment.AuthorID),
		Type:      ContentType(post),
		CommentID: comment.ID.Hex(),
		At:        comment.CreatedAt,
	})
}

func (p *NatsPublisher) publish(ctx context.Context, subject string, event PostEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	slog.Debug("Publishing event", "subject", subject, "post_id", event.PostID)
	return p.nc.PublishMsg(msg)
}

// ContentType classifies a post by its richest attachment.
func ContentType(post *schemas.Post) string {
	switch {
	case post.VideoMedia != "":
		return "video"
	case post.ImageMedia != "":
		return "image"
	default:
		return "text"
	}
}

// NoopPublisher is used when NATS_URL is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishPostCreated(context.Context, *schemas.Post) error { return nil }

func (NoopPublisher) PublishLikeToggled(context.Context, *schemas.Post, schemas.UserId, bool) error {
	return nil
}

func (NoopPublisher) PublishCommentAdded(context.Context, *schemas.Post, *schemas.Comment) error {
	return nil
}
