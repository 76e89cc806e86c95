package service

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/dto"
	"github.com/noah-isme/rollcall-api/internal/models"
	"github.com/noah-isme/rollcall-api/internal/observability"
	"github.com/noah-isme/rollcall-api/internal/repository"
)

var allowedDocumentTypes = map[string]struct{}{
	"application/pdf": {},
	"application/zip": {},
	"text/plain":      {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
}

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// PostService manages coursework posts.
type PostService interface {
	Create(ctx context.Context, principal auth.Principal, req dto.PostCreateRequest) (dto.PostMutationResponse, error)
	List(ctx context.Context, principal auth.Principal, req dto.PostListRequest) (dto.PostListResponse, error)
	ListForStudent(ctx context.Context, principal auth.Principal, req dto.PostListRequest) (dto.PostListResponse, error)
	Update(ctx context.Context, principal auth.Principal, req dto.PostUpdateRequest) (dto.PostMutationResponse, error)
	Delete(ctx context.Context, principal auth.Principal, postID uint) error
	AttachDocument(ctx context.Context, principal auth.Principal, postID uint, file *multipart.FileHeader) (dto.PostResponse, error)
}

type postService struct {
	posts     repository.PostRepository
	classes   repository.ClassRepository
	storage   FileStorage
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	maxSize   int64
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewPostService constructs the post service. storage may be nil, in which
// case document uploads are rejected.
func NewPostService(
	posts repository.PostRepository,
	classes repository.ClassRepository,
	storage FileStorage,
	activity ActivityRecorder,
	validate *validator.Validate,
	maxSizeMB int,
	logger zerolog.Logger,
) PostService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &postService{
		posts:     posts,
		classes:   classes,
		storage:   storage,
		activity:  activity,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		maxSize:   int64(maxSizeMB) * 1024 * 1024,
		logger:    logger.With().Str("component", "post_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/rollcall-api/internal/service/post"),
	}
}

// Create publishes a post. Classes the author does not own are dropped from
// the access list.
func (s *postService) Create(ctx context.Context, principal auth.Principal, req dto.PostCreateRequest) (dto.PostMutationResponse, error) {
	if err := auth.RequireFaculty(principal); err != nil {
		return dto.PostMutationResponse{}, err
	}

	req.Title = s.clean(req.Title)
	req.Description = s.cleanOptional(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return dto.PostMutationResponse{}, err
	}
	if req.AuthorID != principal.ID {
		return dto.PostMutationResponse{}, auth.ErrForbidden
	}

	owned, err := s.classes.FilterOwned(ctx, principal.ID, req.ClassIDs)
	if err != nil {
		return dto.PostMutationResponse{}, err
	}

	post := models.Post{Title: req.Title, Description: req.Description, AuthorID: principal.ID}
	if err := s.posts.Create(ctx, &post, owned); err != nil {
		return dto.PostMutationResponse{}, err
	}

	stored, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return dto.PostMutationResponse{}, err
	}
	return dto.NewPostMutationResponse(stored), nil
}

func (s *postService) List(ctx context.Context, principal auth.Principal, req dto.PostListRequest) (dto.PostListResponse, error) {
	if err := auth.RequireFaculty(principal); err != nil {
		return dto.PostListResponse{}, err
	}

	limit, offset := normalizePage(req)
	posts, total, err := s.posts.ListByAuthor(ctx, principal.ID, limit, offset)
	if err != nil {
		return dto.PostListResponse{}, err
	}
	return newPostListResponse(posts, total, limit, offset), nil
}

func (s *postService) ListForStudent(ctx context.Context, principal auth.Principal, req dto.PostListRequest) (dto.PostListResponse, error) {
	if !principal.Valid() {
		return dto.PostListResponse{}, auth.ErrUnauthorized
	}
	if !principal.IsStudent() {
		return dto.PostListResponse{}, auth.ErrForbidden
	}

	limit, offset := normalizePage(req)
	posts, total, err := s.posts.ListForStudent(ctx, principal.ID, limit, offset)
	if err != nil {
		return dto.PostListResponse{}, err
	}
	return newPostListResponse(posts, total, limit, offset), nil
}

func (s *postService) Update(ctx context.Context, principal auth.Principal, req dto.PostUpdateRequest) (dto.PostMutationResponse, error) {
	if err := auth.RequireFaculty(principal); err != nil {
		return dto.PostMutationResponse{}, err
	}

	if req.Title != nil {
		title := s.clean(*req.Title)
		req.Title = &title
	}
	req.Description = s.cleanOptional(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return dto.PostMutationResponse{}, err
	}

	if _, err := s.ownedPost(ctx, principal, req.PostID); err != nil {
		return dto.PostMutationResponse{}, err
	}

	update := repository.PostUpdate{Title: req.Title, Description: req.Description}
	if req.ClassIDs != nil {
		owned, err := s.classes.FilterOwned(ctx, principal.ID, *req.ClassIDs)
		if err != nil {
			return dto.PostMutationResponse{}, err
		}
		update.ClassIDs = &owned
	}

	updated, err := s.posts.Update(ctx, req.PostID, update)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.PostMutationResponse{}, ErrPostNotFound
		}
		return dto.PostMutationResponse{}, err
	}
	return dto.NewPostMutationResponse(updated), nil
}

func (s *postService) Delete(ctx context.Context, principal auth.Principal, postID uint) error {
	if err := auth.RequireFaculty(principal); err != nil {
		return err
	}
	if _, err := s.ownedPost(ctx, principal, postID); err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		if repository.IsNotFound(err) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

// AttachDocument validates the file, stores it and links it to the post.
func (s *postService) AttachDocument(ctx context.Context, principal auth.Principal, postID uint, file *multipart.FileHeader) (dto.PostResponse, error) {
	ctx, span := s.tracer.Start(ctx, "post.document.store", trace.WithAttributes(
		attribute.Int("post.id", int(postID)),
		attribute.Int64("upload.max_bytes", s.maxSize),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.DocumentUploadDuration().Observe(time.Since(start).Seconds())
	}()

	fail := func(err error, reason string) (dto.PostResponse, error) {
		if reason != "" {
			observability.DocumentRejected().WithLabelValues(reason).Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.PostResponse{}, err
	}

	if err := auth.RequireFaculty(principal); err != nil {
		return fail(err, "")
	}
	if _, err := s.ownedPost(ctx, principal, postID); err != nil {
		return fail(err, "")
	}
	if s.storage == nil {
		return fail(ErrStorageUnavailable, "storage")
	}
	if file == nil {
		return fail(newValidationError("file", "is required"), "missing")
	}
	if file.Size > s.maxSize {
		return fail(ErrDocumentTooLarge, "size")
	}

	handle, err := file.Open()
	if err != nil {
		return fail(err, "")
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return fail(err, "")
	}
	if int64(buf.Len()) > s.maxSize {
		return fail(ErrDocumentTooLarge, "size")
	}

	detected := documentType(mimetype.Detect(buf.Bytes()))
	span.SetAttributes(attribute.String("upload.detected_mime", detected))
	if !isAllowedDocument(detected) {
		return fail(ErrDocumentTypeNotAllowed, "type")
	}

	name := documentName(file.Filename)
	url, err := s.storage.Upload(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fail(fmt.Errorf("failed to store document: %w", err), "storage")
	}

	if err := s.posts.SetDocument(ctx, postID, url); err != nil {
		if repository.IsNotFound(err) {
			return fail(ErrPostNotFound, "")
		}
		return fail(err, "")
	}

	observability.DocumentUploads().WithLabelValues(detected).Inc()
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      principal,
		Action:     ActionPostDocument,
		EntityType: "post",
		EntityID:   uintPtr(postID),
		Metadata:   map[string]interface{}{"file": name, "type": detected, "size": buf.Len()},
	})
	span.SetStatus(codes.Ok, "stored")

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return dto.PostResponse{}, err
	}
	return dto.NewPostResponse(post), nil
}

func (s *postService) ownedPost(ctx context.Context, principal auth.Principal, postID uint) (models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.Post{}, ErrPostNotFound
		}
		return models.Post{}, err
	}
	if post.AuthorID != principal.ID {
		return models.Post{}, ErrPostNotFound
	}
	return post, nil
}

// clean strips markup and stores the remaining text unescaped; the API
// returns JSON, so entities would leak to clients verbatim.
func (s *postService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func (s *postService) cleanOptional(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := s.clean(*value)
	return &cleaned
}

func normalizePage(req dto.PostListRequest) (int, int) {
	limit := req.Limit
	if limit < 0 {
		limit = 0
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func newPostListResponse(posts []models.Post, total int64, limit, offset int) dto.PostListResponse {
	items := make([]dto.PostResponse, 0, len(posts))
	for _, post := range posts {
		items = append(items, dto.NewPostResponse(post))
	}
	return dto.PostListResponse{Items: items, Total: total, Limit: limit, Offset: offset}
}

func documentType(detected *mimetype.MIME) string {
	for m := detected; m != nil; m = m.Parent() {
		value := strings.ToLower(m.String())
		if idx := strings.Index(value, ";"); idx >= 0 {
			value = value[:idx]
		}
		if strings.HasPrefix(value, "image/") || isAllowedDocument(value) {
			return value
		}
	}
	return strings.ToLower(detected.String())
}

func isAllowedDocument(value string) bool {
	if strings.HasPrefix(value, "image/") {
		return true
	}
	_, ok := allowedDocumentTypes[value]
	return ok
}

func documentName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("document-%d", time.Now().Unix())
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}
