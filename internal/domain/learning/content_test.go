package learning

import (
	"strings"
	"testing"
)

func TestDecodeBlocksLegacyString(t *testing.T) {
	blocks, err := DecodeBlocks([]byte(`"# Hello\nJava"`))
	if err != nil {
		t.Fatalf("DecodeBlocks: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Type != BlockText || blocks[0].Value != "# Hello\nJava" {
		t.Fatalf("unexpected blocks: %+v", blocks)
	}
}

func TestDecodeBlocksEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", `""`, "  "} {
		blocks, err := DecodeBlocks([]byte(raw))
		if err != nil {
			t.Fatalf("DecodeBlocks(%q): %v", raw, err)
		}
		if len(blocks) != 0 {
			t.Fatalf("DecodeBlocks(%q): expected no blocks, got %+v", raw, blocks)
		}
	}
}

func TestDecodeBlocksLowercasesType(t *testing.T) {
	blocks, err := DecodeBlocks([]byte(`[{"type":" Code ","value":"class Main {}","expectedOutput":"hi"}]`))
	if err != nil {
		t.Fatalf("DecodeBlocks: %v", err)
	}
	if blocks[0].Type != BlockCode || blocks[0].ExpectedOutput != "hi" {
		t.Fatalf("unexpected block: %+v", blocks[0])
	}
}

func TestDecodeBlocksRejectsObject(t *testing.T) {
	if _, err := DecodeBlocks([]byte(`{"type":"text"}`)); err == nil {
		t.Fatalf("expected error for object content")
	}
}

func TestValidateBlocks(t *testing.T) {
	two := 2
	zero := 0
	cases := []struct {
		name    string
		blocks  []ContentBlock
		wantErr string
	}{
		{"ok", []ContentBlock{{Type: BlockText, Value: "x"}, {Type: BlockQuiz, Options: []string{"a", "b"}, Answer: &zero}}, ""},
		{"unknown", []ContentBlock{{Type: "video"}}, "unknown type"},
		{"missing type", []ContentBlock{{Value: "x"}}, "missing type"},
		{"few options", []ContentBlock{{Type: BlockQuiz, Options: []string{"a"}, Answer: &zero}}, "at least two"},
		{"no answer", []ContentBlock{{Type: BlockQuiz, Options: []string{"a", "b"}}}, "answer is required"},
		{"out of range", []ContentBlock{{Type: BlockQuiz, Options: []string{"a", "b"}, Answer: &two}}, "out of range"},
	}
	for _, tc := range cases {
		err := ValidateBlocks(tc.blocks)
		if tc.wantErr == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tc.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Fatalf("%s: got err=%v want substring %q", tc.name, err, tc.wantErr)
		}
	}
}

func TestNormalizeContentRoundTrip(t *testing.T) {
	stored, blocks, err := NormalizeContent([]byte(`"plain"`))
	if err != nil {
		t.Fatalf("NormalizeContent: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected one block, got %d", len(blocks))
	}
	if string(stored) != `[{"type":"text","value":"plain"}]` {
		t.Fatalf("unexpected stored content: %s", stored)
	}
	ch := &Chapter{Content: stored}
	again, err := ch.Blocks()
	if err != nil || len(again) != 1 || again[0].Value != "plain" {
		t.Fatalf("Blocks: %+v err=%v", again, err)
	}
}

func TestValidateLabFiles(t *testing.T) {
	if err := ValidateLabFiles([]LabFile{{Name: "Main.java"}, {Name: "Util.java", Content: "x"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateLabFiles([]LabFile{{Name: " "}}); err == nil {
		t.Fatalf("expected missing name error")
	}
	if err := ValidateLabFiles([]LabFile{{Name: "A.java"}, {Name: "A.java"}}); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}
