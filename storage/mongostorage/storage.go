package mongostorage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"postboard/plain"
	"postboard/schemas"
	"postboard/storage"
)

const (
	collName = "posts"

	toggleAttempts = 3
)

// server error codes for "document exceeds 16MB"
var documentTooLargeCodes = []int{10334, 17419, 17420}

type Storage struct {
	postsCollection *mongo.Collection
}

func NewStorage(ctx context.Context, db *mongo.Database) (*Storage, error) {
	postsCollection := db.Collection(collName)
	if err := ensureIndexes(ctx, postsCollection); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}
	return &Storage{postsCollection: postsCollection}, nil
}

func ensureIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

func (s *Storage) PutPost(ctx context.Context, post *schemas.Post) (*schemas.Post, error) {
	newPost := post.Copy()
	newPost.ID = schemas.NewPostId()
	newPost.Version = 0
	newPost.Likes = []schemas.Like{}
	newPost.Comments = []schemas.Comment{}
	newPost.CreatedAt = s.Now()
	newPost.UpdatedAt = newPost.CreatedAt

	if err := storage.CheckDocumentSize(newPost); err != nil {
		return nil, err
	}

	_, err := s.postsCollection.InsertOne(ctx, newPost)
	if err != nil {
		return nil, translate(err, "insertion failed")
	}
	return newPost, nil
}

func (s *Storage) GetPost(ctx context.Context, postId schemas.PostId) (*schemas.Post, error) {
	var post schemas.Post
	err := s.postsCollection.FindOne(ctx, bson.M{"_id": postId}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("post %s: %w", postId, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to extract post %s: %w", postId, err)
	}
	return &post, nil
}

func (s *Storage) GetPosts(ctx context.Context, page plain.PageRequest) ([]*schemas.Post, int64, error) {
	mongoFilter := bson.M{}
	if page.AuthorID != "" {
		mongoFilter["authorId"] = string(page.AuthorID)
	}

	total, err := s.postsCollection.CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("count failed: %w", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Size))
	cursor, err := s.postsCollection.Find(ctx, mongoFilter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("search failed: %w", err)
	}

	postList := make([]*schemas.Post, 0, page.Size)
	if err = cursor.All(ctx, &postList); err != nil {
		return nil, 0, fmt.Errorf("posts mapping failed: %w", err)
	}
	return postList, total, nil
}

// ToggleLike never rewrites the whole document: membership is flipped with a
// conditional $pull or $push, so concurrent toggles cannot lose updates.
func (s *Storage) ToggleLike(ctx context.Context, postId schemas.PostId, like schemas.Like) (*schemas.Post, bool, error) {
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		pulled, err := s.findOneAndUpdate(ctx,
			bson.D{{Key: "_id", Value: postId}, {Key: "likes.userId", Value: string(like.UserID)}},
			bson.D{{Key: "$pull", Value: bson.D{{Key: "likes", Value: bson.D{{Key: "userId", Value: string(like.UserID)}}}}}},
		)
		if err != nil {
			return nil, false, err
		}
		if pulled != nil {
			return pulled, false, nil
		}

		pushed, err := s.findOneAndUpdate(ctx,
			bson.D{{Key: "_id", Value: postId}, {Key: "likes.userId", Value: bson.D{{Key: "$ne", Value: string(like.UserID)}}}},
			bson.D{{Key: "$push", Value: bson.D{{Key: "likes", Value: like}}}},
		)
		if err != nil {
			return nil, false, err
		}
		if pushed != nil {
			return pushed, true, nil
		}

		// neither filter matched: the post is gone, or a concurrent toggle
		// from the same user flipped the state between our two updates
		if _, err := s.GetPost(ctx, postId); err != nil {
			return nil, false, err
		}
		slog.Debug("like toggle raced, retrying", "post_id", postId.Hex(), "user_id", like.UserID, "attempt", attempt)
	}
	return nil, false, fmt.Errorf("toggle like on %s: %w", postId, storage.ErrConflict)
}

func (s *Storage) AppendComment(ctx context.Context, postId schemas.PostId, comment schemas.Comment) (*schemas.Post, *schemas.Comment, error) {
	comment.ID = schemas.NewCommentId()
	comment.CreatedAt = s.Now()

	post, err := s.findOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: postId}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "comments", Value: comment}}}},
	)
	if err != nil {
		return nil, nil, err
	}
	if post == nil {
		return nil, nil, fmt.Errorf("post %s: %w", postId, storage.ErrNotFound)
	}
	return post, &comment, nil
}

// findOneAndUpdate applies change plus the bookkeeping fields and returns the
// updated post, or nil when selector matched nothing.
func (s *Storage) findOneAndUpdate(ctx context.Context, selector, change bson.D) (*schemas.Post, error) {
	mongoCommand := append(change,
		bson.E{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: s.Now()}}},
		bson.E{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
	)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	result := s.postsCollection.FindOneAndUpdate(ctx, selector, mongoCommand, opts)

	var updated schemas.Post
	if err := result.Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, translate(err, "update failed")
	}
	return &updated, nil
}

func (s *Storage) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func translate(err error, op string) error {
	if isDocumentTooLarge(err) {
		return fmt.Errorf("%s: %w", op, storage.ErrDocumentTooLarge)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isDocumentTooLarge(err error) bool {
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		for _, code := range documentTooLargeCodes {
			if serverErr.HasErrorCode(code) {
				return true
			}
		}
	}
	// client-side rejection happens before the server sees the document
	msg := err.Error()
	return strings.Contains(msg, "document is too large") || strings.Contains(msg, "maximum document size")
}
