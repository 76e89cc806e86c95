package models

import "time"

// Post is coursework material published by a faculty member.
type Post struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	Title          string       `gorm:"size:255;not null" json:"title"`
	Description    *string      `gorm:"type:text" json:"description"`
	DocumentSource *string      `gorm:"size:512" json:"documentSource"`
	AuthorID       uint         `gorm:"not null;index" json:"authorId"`
	Access         []PostAccess `json:"PostAccess,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// PostAccess grants a class visibility of a post.
type PostAccess struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	PostID  uint  `gorm:"not null;uniqueIndex:idx_post_access" json:"postId"`
	ClassID uint  `gorm:"not null;uniqueIndex:idx_post_access;index" json:"classId"`
	Class   Class `json:"class"`
}
