package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"postboard/auth"
	"postboard/feed"
	"postboard/media"
	"postboard/plain"
	"postboard/posts"
	"postboard/schemas"
	"postboard/users"
)

const (
	// parts above this spill to temp files
	multipartMemory = 8 << 20
	maxCommentBody  = 64 << 10
)

func NewHTTPHandler(
	postsManager *posts.PostsManager,
	feedManager *feed.FeedManager,
	usersManager *users.UsersManager,
	maxUploadBytes int64,
	uploadTimeout func(contentLength int64) time.Duration,
) *HTTPHandler {
	return &HTTPHandler{
		postsManager:   postsManager,
		feedManager:    feedManager,
		usersManager:   usersManager,
		maxUploadBytes: maxUploadBytes,
		uploadTimeout:  uploadTimeout,
	}
}

type HTTPHandler struct {
	postsManager *posts.PostsManager
	feedManager  *feed.FeedManager
	usersManager *users.UsersManager

	maxUploadBytes int64
	uploadTimeout  func(contentLength int64) time.Duration
}

type CreatePostRequestData struct {
	Text string `json:"text"`
}

type AddCommentRequestData struct {
	Text string `json:"text"`
}

type GetPostsResponse struct {
	Posts      []schemas.PostData `json:"posts"`
	Pagination plain.Pagination   `json:"pagination"`
}

type PostResponse struct {
	Message string           `json:"message,omitempty"`
	Post    schemas.PostData `json:"post"`
}

type ToggleLikeResponse struct {
	Message string           `json:"message"`
	Post    schemas.PostData `json:"post"`
	Liked   bool             `json:"liked"`
}

type AddCommentResponse struct {
	Message string              `json:"message"`
	Comment schemas.CommentData `json:"comment"`
	Post    schemas.PostData    `json:"post"`
}

type UserResponse struct {
	User schemas.UserData `json:"user"`
}

func (h *HTTPHandler) HandleGetPosts(rw http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()
	pageRequest := plain.ParsePageRequest(queryParams.Get("page"), queryParams.Get("limit"), queryParams.Get("userId"))

	page, err := h.feedManager.GetFeed(r.Context(), pageRequest)
	if err != nil {
		writeError(rw, r, err)
		return
	}

	response := GetPostsResponse{
		Posts:      make([]schemas.PostData, len(page.Posts)),
		Pagination: page.Pagination,
	}
	for i, post := range page.Posts {
		response.Posts[i] = post.ToPostData()
	}
	writeJSON(rw, http.StatusOK, response)
}

func (h *HTTPHandler) HandleGetPost(rw http.ResponseWriter, r *http.Request) {
	postId, ok := h.postIdFromPath(rw, r)
	if !ok {
		return
	}

	post, err := h.feedManager.GetPost(r.Context(), postId)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, PostResponse{Post: post.ToPostData()})
}

// HandleCreatePost accepts multipart (text, image, video) or a JSON {text} body.
// The whole request runs under a deadline proportional to its declared size.
func (h *HTTPHandler) HandleCreatePost(rw http.ResponseWriter, r *http.Request) {
	userId := auth.ForContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), h.uploadTimeout(r.ContentLength))
	defer cancel()

	// the body read shares the budget with the rest of the request
	deadline, _ := ctx.Deadline()
	if err := http.NewResponseController(rw).SetReadDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Debug("Failed to set upload read deadline", "error", err)
	}

	r.Body = http.MaxBytesReader(rw, r.Body, h.maxUploadBytes)
	input, err := parseCreatePost(r)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) || ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", schemas.ErrUploadTimeout, err)
		}
		writeError(rw, r, err)
		return
	}

	newPost, err := h.postsManager.CreatePost(ctx, userId, input)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusCreated, PostResponse{
		Message: "Post created successfully",
		Post:    newPost.ToPostData(),
	})
}

func (h *HTTPHandler) HandleToggleLike(rw http.ResponseWriter, r *http.Request) {
	postId, ok := h.postIdFromPath(rw, r)
	if !ok {
		return
	}

	post, liked, err := h.postsManager.ToggleLike(r.Context(), postId, auth.ForContext(r.Context()))
	if err != nil {
		writeError(rw, r, err)
		return
	}

	message := "Post unliked"
	if liked {
		message = "Post liked"
	}
	writeJSON(rw, http.StatusOK, ToggleLikeResponse{
		Message: message,
		Post:    post.ToPostData(),
		Liked:   liked,
	})
}

func (h *HTTPHandler) HandleAddComment(rw http.ResponseWriter, r *http.Request) {
	postId, ok := h.postIdFromPath(rw, r)
	if !ok {
		return
	}

	var data AddCommentRequestData
	r.Body = http.MaxBytesReader(rw, r.Body, maxCommentBody)
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		writeError(rw, r, badBody(err))
		return
	}

	comment, post, err := h.postsManager.AddComment(r.Context(), postId, auth.ForContext(r.Context()), data.Text)
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusCreated, AddCommentResponse{
		Message: "Comment added successfully",
		Comment: comment.ToCommentData(),
		Post:    post.ToPostData(),
	})
}

func (h *HTTPHandler) HandleGetCurrentUser(rw http.ResponseWriter, r *http.Request) {
	user, err := h.usersManager.GetUser(r.Context(), auth.ForContext(r.Context()))
	if err != nil {
		writeError(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, UserResponse{User: user.ToUserData()})
}

func (h *HTTPHandler) HandlePing(rw http.ResponseWriter, r *http.Request) {
	rw.WriteHeader(http.StatusOK)
}

// Ids that cannot exist are reported the same way as missing posts.
func (h *HTTPHandler) postIdFromPath(rw http.ResponseWriter, r *http.Request) (schemas.PostId, bool) {
	postId, err := schemas.IDFromText(mux.Vars(r)["postId"])
	if err != nil {
		writeError(rw, r, &schemas.NotFoundError{Entity: "Post"})
		return schemas.PostId{}, false
	}
	return postId, true
}

func parseCreatePost(r *http.Request) (posts.CreatePostInput, error) {
	var input posts.CreatePostInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return input, badBody(err)
		}
		defer r.MultipartForm.RemoveAll()

		input.Text = r.FormValue("text")
		var err error
		if input.Image, err = readUpload(r, "image", media.CategoryImage); err != nil {
			return input, err
		}
		if input.Video, err = readUpload(r, "video", media.CategoryVideo); err != nil {
			return input, err
		}
	case "application/json":
		var data CreatePostRequestData
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil && !errors.Is(err, io.EOF) {
			return input, badBody(err)
		}
		input.Text = data.Text
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return input, badBody(err)
		}
		input.Text = r.PostFormValue("text")
	default:
		verr := schemas.NewValidationError()
		verr.Add("body", "Content-Type must be multipart/form-data or application/json")
		return input, verr
	}
	return input, nil
}

// readUpload returns nil when the field is absent. The declared part size is
// checked before the file is read.
func readUpload(r *http.Request, field string, category media.Category) (*media.Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, badBody(err)
	}
	defer file.Close()

	if err := media.CheckSize(header.Size, category); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, badBody(err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &media.Upload{
		Data:     data,
		MIMEType: media.DetectMIME(data, header.Header.Get("Content-Type")),
	}, nil
}

// badBody keeps transport limits intact and turns any other decoding
// failure into a validation error.
func badBody(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) || errors.Is(err, os.ErrDeadlineExceeded) {
		return err
	}
	slog.Debug("Malformed request body", "error", err)
	verr := schemas.NewValidationError()
	verr.Add("body", "Malformed request body")
	return verr
}

func writeJSON(rw http.ResponseWriter, status int, payload any) {
	rawResponse, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if _, err := rw.Write(rawResponse); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}
