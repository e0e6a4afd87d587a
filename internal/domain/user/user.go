package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultAvatar = "/default-avatar.png"
)

type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username        string     `gorm:"uniqueIndex;not null;column:username" json:"username"`
	Password        string     `gorm:"not null;column:password" json:"-"`
	Role            string     `gorm:"not null;default:'user';index;column:role" json:"role"`
	XP              int        `gorm:"not null;default:0;column:xp" json:"xp"`
	Streak          int        `gorm:"not null;default:0;column:streak" json:"streak"`
	Avatar          string     `gorm:"column:avatar" json:"avatar"`
	AvatarBucketKey string     `gorm:"column:avatar_bucket_key" json:"-"`
	LastActiveAt    *time.Time `gorm:"column:last_active_at" json:"lastActiveAt,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Avatar == "" {
		u.Avatar = DefaultAvatar
	}
	return nil
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
