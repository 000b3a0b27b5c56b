package plain

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"postboard/schemas"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// keeps (Page-1)*Size from overflowing
	MaxPage = math.MaxInt / MaxPageSize
)

// PageRequest is a normalized feed query: Page and Size are always >= 1.
type PageRequest struct {
	Page     int
	Size     int
	AuthorID schemas.UserId
}

func (pr PageRequest) Skip() int64 {
	return int64(pr.Page-1) * int64(pr.Size)
}

// ParsePageRequest never fails: garbage falls back to the defaults.
func ParsePageRequest(rawPage, rawSize, rawAuthor string) PageRequest {
	return PageRequest{
		Page:     min(parsePositive(rawPage, DefaultPage), MaxPage),
		Size:     min(parsePositive(rawSize, DefaultPageSize), MaxPageSize),
		AuthorID: schemas.UserId(strings.TrimSpace(rawAuthor)),
	}
}

func parsePositive(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) && v > 0 {
		return v
	}
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalPages  int   `json:"totalPages"`
	TotalPosts  int64 `json:"totalPosts"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

func NewPagination(pr PageRequest, total int64) Pagination {
	size := int64(pr.Size)
	totalPages := int((total + size - 1) / size)
	return Pagination{
		CurrentPage: pr.Page,
		PageSize:    pr.Size,
		TotalPages:  totalPages,
		TotalPosts:  total,
		HasNextPage: pr.Page < totalPages,
		HasPrevPage: pr.Page > 1,
	}
}

type PostsPage struct {
	Posts      []*schemas.Post
	Pagination Pagination
}
