package search

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFlattenRules_MarkdownAndTables(t *testing.T) {
	src := []byte(`# 生成规则

- 名称必须是名词
* Avoid brand names

| 输入 | 输出 |
|------|------|
| 水 火 | 蒸汽 |
`)
	got, err := FlattenRules(src)
	if err != nil {
		t.Fatalf("FlattenRules: %v", err)
	}
	want := "生成规则\n- 名称必须是名词\n- Avoid brand names\n- 输入 输出\n- 水 火 蒸汽"
	if got != want {
		t.Fatalf("FlattenRules =\n%q\nwant\n%q", got, want)
	}
}

func TestLoadPromptRules_MissingOrEmptyPath(t *testing.T) {
	if got, err := LoadPromptRules(""); err != nil || got != "" {
		t.Fatalf("empty path: %q %v", got, err)
	}
	if got, err := LoadPromptRules(filepath.Join(t.TempDir(), "nope.md")); err != nil || got != "" {
		t.Fatalf("missing file: %q %v", got, err)
	}
}

func TestLoadPromptRules_ReadsFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "rules.md")
	if err := os.WriteFile(p, []byte("Use one emoji.\n\n\n+ Keep it short\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := LoadPromptRules(p)
	if err != nil {
		t.Fatalf("LoadPromptRules: %v", err)
	}
	if got != "- Use one emoji.\n- Keep it short" {
		t.Fatalf("unexpected rules: %q", got)
	}
}

func TestLoadPromptRules_DirectoryIsError(t *testing.T) {
	if _, err := LoadPromptRules(t.TempDir()); err == nil {
		t.Fatalf("expected error reading a directory")
	}
}
