package learning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

const (
	BlockText = "text"
	BlockCode = "code"
	BlockQuiz = "quiz"
)

type ContentBlock struct {
	Type           string   `json:"type"`
	Value          string   `json:"value,omitempty"`
	ExpectedOutput string   `json:"expectedOutput,omitempty"`
	Question       string   `json:"question,omitempty"`
	Options        []string `json:"options,omitempty"`
	Answer         *int     `json:"answer,omitempty"`
}

// DecodeBlocks accepts either a JSON array of blocks or a JSON string, which is
// treated as one markdown text block. Empty input yields no blocks.
func DecodeBlocks(raw []byte) ([]ContentBlock, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []ContentBlock{}, nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("decode content string: %w", err)
		}
		if strings.TrimSpace(s) == "" {
			return []ContentBlock{}, nil
		}
		return []ContentBlock{{Type: BlockText, Value: s}}, nil
	case '[':
		var blocks []ContentBlock
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return nil, fmt.Errorf("decode content blocks: %w", err)
		}
		for i := range blocks {
			blocks[i].Type = strings.ToLower(strings.TrimSpace(blocks[i].Type))
		}
		return blocks, nil
	default:
		return nil, fmt.Errorf("content must be a string or an array of blocks")
	}
}

// NormalizeContent decodes, validates and re-encodes content for storage.
func NormalizeContent(raw []byte) (datatypes.JSON, []ContentBlock, error) {
	blocks, err := DecodeBlocks(raw)
	if err != nil {
		return nil, nil, err
	}
	if err := ValidateBlocks(blocks); err != nil {
		return nil, nil, err
	}
	b, err := json.Marshal(blocks)
	if err != nil {
		return nil, nil, err
	}
	return datatypes.JSON(b), blocks, nil
}

func ValidateBlocks(blocks []ContentBlock) error {
	for i, b := range blocks {
		switch b.Type {
		case BlockText, BlockCode:
		case BlockQuiz:
			if len(b.Options) < 2 {
				return fmt.Errorf("block %d: quiz needs at least two options", i)
			}
			if b.Answer == nil {
				return fmt.Errorf("block %d: quiz answer is required", i)
			}
			if *b.Answer < 0 || *b.Answer >= len(b.Options) {
				return fmt.Errorf("block %d: quiz answer %d out of range", i, *b.Answer)
			}
		case "":
			return fmt.Errorf("block %d: missing type", i)
		default:
			return fmt.Errorf("block %d: unknown type %q", i, b.Type)
		}
	}
	return nil
}
