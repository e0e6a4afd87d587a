package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultXPReward = 10

type Chapter struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	Order       int            `gorm:"column:order;not null;uniqueIndex:idx_chapter_order" json:"order"`
	Content     datatypes.JSON `gorm:"column:content" json:"content"`
	XPReward    int            `gorm:"column:xp_reward;not null;default:10" json:"xpReward"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Chapter) TableName() string { return "chapter" }

func (c *Chapter) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Blocks decodes the stored content. Legacy rows that hold a plain string come
// back as a single text block.
func (c *Chapter) Blocks() ([]ContentBlock, error) {
	if c == nil {
		return nil, nil
	}
	return DecodeBlocks(c.Content)
}
