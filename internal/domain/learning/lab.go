package learning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type LabFile struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	ReadOnly bool   `json:"readOnly"`
}

type Lab struct {
	ID          int                          `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Title       string                       `gorm:"column:title;not null" json:"title"`
	Description string                       `gorm:"column:description;type:text;not null" json:"description"`
	PDFURL      string                       `gorm:"column:pdf_url" json:"pdfUrl,omitempty"`
	Files       datatypes.JSONSlice[LabFile] `gorm:"column:files" json:"files"`
	CreatedAt   time.Time                    `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time                    `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Lab) TableName() string { return "lab" }

// ValidateLabFiles requires a plain, unique name per file. Content may be empty.
func ValidateLabFiles(files []LabFile) error {
	seen := make(map[string]struct{}, len(files))
	for i, f := range files {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return fmt.Errorf("file %d: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate file name %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (l *Lab) FileList() []LabFile {
	if l == nil || l.Files == nil {
		return []LabFile{}
	}
	return []LabFile(l.Files)
}

func (l Lab) MarshalJSON() ([]byte, error) {
	type alias Lab
	a := alias(l)
	if a.Files == nil {
		a.Files = datatypes.JSONSlice[LabFile]{}
	}
	return json.Marshal(a)
}
