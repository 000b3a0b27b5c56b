package schemas

import (
	"time"
)

type UserId string
type Text string

const (
	MaxPostTextLength    = 2000
	MaxCommentTextLength = 500
)

type Like struct {
	UserID   UserId `bson:"userId"`
	Username string `bson:"username"`
}

type Comment struct {
	ID             CommentId `bson:"_id"`
	AuthorID       UserId    `bson:"authorId"`
	AuthorUsername string    `bson:"authorUsername"`
	Content        Text      `bson:"text"`
	CreatedAt      time.Time `bson:"createdAt"`
}

// Post is the aggregate root. Likes and comments live inside the document
// and are only ever changed through the store's atomic array operators.
type Post struct {
	ID             PostId    `bson:"_id"`
	Version        int       `bson:"version"`
	AuthorID       UserId    `bson:"authorId"`
	AuthorUsername string    `bson:"authorUsername"`
	Content        Text      `bson:"text"`
	ImageMedia     string    `bson:"imageMedia"`
	VideoMedia     string    `bson:"videoMedia"`
	Likes          []Like    `bson:"likes"`
	Comments       []Comment `bson:"comments"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

type LikeData struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type CommentData struct {
	ID             string `json:"id"`
	AuthorID       string `json:"authorId"`
	AuthorUsername string `json:"authorUsername"`
	Content        Text   `json:"text"`
	CreatedAt      string `json:"createdAt"`
}

type PostData struct {
	ID             string        `json:"id"`
	AuthorID       string        `json:"authorId"`
	AuthorUsername string        `json:"authorUsername"`
	Content        Text          `json:"text"`
	ImageMedia     string        `json:"imageMedia"`
	VideoMedia     string        `json:"videoMedia"`
	Likes          []LikeData    `json:"likes"`
	Comments       []CommentData `json:"comments"`
	LikesCount     int           `json:"likesCount"`
	CommentsCount  int           `json:"commentsCount"`
	CreatedAt      string        `json:"createdAt"`
	UpdatedAt      string        `json:"updatedAt"`
}

func (p *Post) ToPostData() PostData {
	likes := make([]LikeData, 0, len(p.Likes))
	for _, l := range p.Likes {
		likes = append(likes, LikeData{UserID: string(l.UserID), Username: l.Username})
	}
	comments := make([]CommentData, 0, len(p.Comments))
	for i := range p.Comments {
		comments = append(comments, p.Comments[i].ToCommentData())
	}

	return PostData{
		ID:             p.ID.Hex(),
		AuthorID:       string(p.AuthorID),
		AuthorUsername: p.AuthorUsername,
		Content:        p.Content,
		ImageMedia:     p.ImageMedia,
		VideoMedia:     p.VideoMedia,
		Likes:          likes,
		Comments:       comments,
		LikesCount:     len(likes),
		CommentsCount:  len(comments),
		CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (c *Comment) ToCommentData() CommentData {
	return CommentData{
		ID:             c.ID.Hex(),
		AuthorID:       string(c.AuthorID),
		AuthorUsername: c.AuthorUsername,
		Content:        c.Content,
		CreatedAt:      c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// HasLike reports whether userId is among the likers.
func (p *Post) HasLike(userId UserId) bool {
	return p.likeIndex(userId) >= 0
}

func (p *Post) likeIndex(userId UserId) int {
	for i := range p.Likes {
		if p.Likes[i].UserID == userId {
			return i
		}
	}
	return -1
}

// ToggleLike flips membership of like.UserID in place and returns the new state.
func (p *Post) ToggleLike(like Like) bool {
	if i := p.likeIndex(like.UserID); i >= 0 {
		p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
		return false
	}
	p.Likes = append(p.Likes, like)
	return true
}

// Copy returns a deep copy, embedded slices included.
func (p Post) Copy() *Post {
	p.Likes = append([]Like{}, p.Likes...)
	p.Comments = append([]Comment{}, p.Comments...)
	return &p
}
