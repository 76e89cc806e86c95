package dto

import (
	"time"

	"github.com/noah-isme/rollcall-api/internal/models"
)

// PostCreateRequest publishes a post to the listed classes.
type PostCreateRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	AuthorID    uint    `json:"authorId" validate:"required"`
	ClassIDs    []uint  `json:"classId" validate:"omitempty,dive,required"`
}

// PostUpdateRequest edits a post. A non-nil class list replaces its access.
type PostUpdateRequest struct {
	PostID      uint    `json:"postId" validate:"required"`
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	ClassIDs    *[]uint `json:"classId" validate:"omitempty,dive,required"`
}

// PostListRequest pages through posts.
type PostListRequest struct {
	Limit  int
	Offset int
}

// PostClassResponse is a class a post is shared with.
type PostClassResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// PostResponse serializes a post.
type PostResponse struct {
	ID             uint                `json:"id"`
	Title          string              `json:"title"`
	Description    *string             `json:"description"`
	DocumentSource *string             `json:"documentSource"`
	AuthorID       uint                `json:"authorId"`
	Classes        []PostClassResponse `json:"classes"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// PostMutationResponse is returned after a post is created or updated.
type PostMutationResponse struct {
	Access []uint       `json:"access"`
	Post   PostResponse `json:"post"`
}

// PostListResponse wraps a page of posts.
type PostListResponse struct {
	Items  []PostResponse `json:"items"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// NewPostResponse converts a post model.
func NewPostResponse(post models.Post) PostResponse {
	classes := make([]PostClassResponse, 0, len(post.Access))
	for _, access := range post.Access {
		classes = append(classes, PostClassResponse{ID: access.ClassID, Name: access.Class.Name})
	}

	return PostResponse{
		ID:             post.ID,
		Title:          post.Title,
		Description:    post.Description,
		DocumentSource: post.DocumentSource,
		AuthorID:       post.AuthorID,
		Classes:        classes,
		CreatedAt:      post.CreatedAt,
		UpdatedAt:      post.UpdatedAt,
	}
}

// NewPostMutationResponse converts a post model with its access list.
func NewPostMutationResponse(post models.Post) PostMutationResponse {
	access := make([]uint, 0, len(post.Access))
	for _, grant := range post.Access {
		access = append(access, grant.ClassID)
	}
	return PostMutationResponse{Access: access, Post: NewPostResponse(post)}
}
