package feed

import (
	"context"
	"errors"
	"fmt"

	"postboard/plain"
	"postboard/schemas"
	"postboard/storage"
)

// FeedManager is the read side: newest-first pages over all posts or one author's.
type FeedManager struct {
	postStorage storage.Storage
}

func NewFeedManager(postStorage storage.Storage) *FeedManager {
	return &FeedManager{postStorage: postStorage}
}

func (fm *FeedManager) GetFeed(ctx context.Context, page plain.PageRequest) (*plain.PostsPage, error) {
	posts, total, err := fm.postStorage.GetPosts(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}
	return &plain.PostsPage{
		Posts:      posts,
		Pagination: plain.NewPagination(page, total),
	}, nil
}

func (fm *FeedManager) GetPost(ctx context.Context, postId schemas.PostId) (*schemas.Post, error) {
	post, err := fm.postStorage.GetPost(ctx, postId)
	if err != nil {
		if errors.Is(err, schemas.ErrNotFound) {
			return nil, &schemas.NotFoundError{Entity: "Post"}
		}
		return nil, err
	}
	return post, nil
}
