package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pulanodus/tableserve-backend/pkg/enums"
)

// DiningSession scopes all cart, split, and payment data for one table
// occupation. A table has at most one open session at a time.
type DiningSession struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TableID        uuid.UUID           `gorm:"column:table_id;type:uuid;not null;index:idx_dining_sessions_table"`
	Status         enums.SessionStatus `gorm:"column:status;type:session_status;not null;default:'open'"`
	LastActivityAt time.Time           `gorm:"column:last_activity_at;not null"`
	ClosedAt       *time.Time          `gorm:"column:closed_at"`
	Diners         []SessionDiner      `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// SessionDiner registers one diner name within a session. The (session, name)
// pair is unique; split participants are validated against these rows.
type SessionDiner struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID uuid.UUID `gorm:"column:session_id;type:uuid;not null;uniqueIndex:uq_session_diners_name"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:uq_session_diners_name"`
	JoinedAt  time.Time `gorm:"column:joined_at;autoCreateTime"`
}
