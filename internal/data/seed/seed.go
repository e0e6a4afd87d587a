package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/domain/learning"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type Fixtures struct {
	Chapters []ChapterFixture `yaml:"chapters"`
	Labs     []LabFixture     `yaml:"labs"`
}

type ChapterFixture struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Order       int            `yaml:"order"`
	XPReward    int            `yaml:"xp_reward"`
	Markdown    string         `yaml:"markdown"`
	Blocks      []BlockFixture `yaml:"blocks"`
}

type BlockFixture struct {
	Type           string   `yaml:"type"`
	Value          string   `yaml:"value"`
	ExpectedOutput string   `yaml:"expected_output"`
	Question       string   `yaml:"question"`
	Options        []string `yaml:"options"`
	Answer         *int     `yaml:"answer"`
}

type LabFixture struct {
	ID          int           `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	PDFURL      string        `yaml:"pdf_url"`
	Files       []FileFixture `yaml:"files"`
}

type FileFixture struct {
	Name     string `yaml:"name"`
	Content  string `yaml:"content"`
	ReadOnly bool   `yaml:"read_only"`
}

// Load parses the embedded starter content.
func Load() (*Fixtures, error) {
	return Parse(fixturesYAML)
}

func Parse(raw []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// ChapterModels converts the fixtures into validated chapter rows.
func (f *Fixtures) ChapterModels() ([]*types.Chapter, error) {
	out := make([]*types.Chapter, 0, len(f.Chapters))
	seen := map[int]bool{}
	for _, c := range f.Chapters {
		if c.Order <= 0 {
			return nil, fmt.Errorf("chapter %q: order must be positive", c.Title)
		}
		if seen[c.Order] {
			return nil, fmt.Errorf("chapter %q: duplicate order %d", c.Title, c.Order)
		}
		seen[c.Order] = true

		blocks := make([]types.ContentBlock, 0, len(c.Blocks)+1)
		if c.Markdown != "" {
			blocks = append(blocks, types.ContentBlock{Type: types.BlockText, Value: c.Markdown})
		}
		for _, b := range c.Blocks {
			blocks = append(blocks, types.ContentBlock{
				Type:           b.Type,
				Value:          b.Value,
				ExpectedOutput: b.ExpectedOutput,
				Question:       b.Question,
				Options:        b.Options,
				Answer:         b.Answer,
			})
		}
		if err := learning.ValidateBlocks(blocks); err != nil {
			return nil, fmt.Errorf("chapter %q: %w", c.Title, err)
		}
		raw, err := json.Marshal(blocks)
		if err != nil {
			return nil, err
		}
		xp := c.XPReward
		if xp == 0 {
			xp = learning.DefaultXPReward
		}
		out = append(out, &types.Chapter{
			Title:       c.Title,
			Description: c.Description,
			Order:       c.Order,
			Content:     datatypes.JSON(raw),
			XPReward:    xp,
		})
	}
	return out, nil
}

func (f *Fixtures) LabModels() ([]*types.Lab, error) {
	out := make([]*types.Lab, 0, len(f.Labs))
	for _, l := range f.Labs {
		if l.ID <= 0 {
			return nil, fmt.Errorf("lab %q: id must be positive", l.Title)
		}
		files := make([]types.LabFile, 0, len(l.Files))
		for _, file := range l.Files {
			files = append(files, types.LabFile{Name: file.Name, Content: file.Content, ReadOnly: file.ReadOnly})
		}
		if err := learning.ValidateLabFiles(files); err != nil {
			return nil, fmt.Errorf("lab %d: %w", l.ID, err)
		}
		out = append(out, &types.Lab{
			ID:          l.ID,
			Title:       l.Title,
			Description: l.Description,
			PDFURL:      l.PDFURL,
			Files:       datatypes.JSONSlice[types.LabFile](files),
		})
	}
	return out, nil
}
