package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/javuy-backend/internal/domain/user"
)

const (
	StatusLocked    = "locked"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

type Progress struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_chapter,priority:1" json:"userId"`
	User        *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	ChapterID   uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_progress_user_chapter,priority:2" json:"chapterId"`
	Chapter     *Chapter   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChapterID;references:ID" json:"-"`
	Status      string     `gorm:"column:status;not null;default:'locked'" json:"status"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Progress) TableName() string { return "progress" }

func (p *Progress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = StatusLocked
	}
	return nil
}

func ValidStatus(s string) bool {
	switch s {
	case StatusLocked, StatusActive, StatusCompleted:
		return true
	}
	return false
}
