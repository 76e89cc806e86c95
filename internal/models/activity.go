package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures auditable changes made to classes, rosters, attendance and marks.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actorId"`
	ActorRole  string            `gorm:"size:32;not null" json:"actorRole"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entityType"`
	EntityID   *uint             `json:"entityId"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// All returns every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Faculty{},
		&Student{},
		&Class{},
		&ClassMember{},
		&AttendanceMode{},
		&Attendance{},
		&Post{},
		&PostAccess{},
		&Mark{},
		&ActivityLog{},
	}
}
