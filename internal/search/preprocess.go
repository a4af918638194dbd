package search

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// LoadPromptRules reads the markdown at path and flattens it into one rule
// per line, suitable for appending to a system prompt. Headings keep their
// text, list markers are normalized to "- ", and table rows become a single
// line with cells joined by spaces. A missing file yields "" and no error.
func LoadPromptRules(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return FlattenRules(b)
}

// FlattenRules is the in-memory form of LoadPromptRules.
func FlattenRules(src []byte) (string, error) {
	var rules []string
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		// table row: "| ... |"
		if strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") {
			cols := strings.Split(strings.Trim(line, "|"), "|")
			allSep := true
			cleaned := make([]string, 0, len(cols))
			for _, c := range cols {
				cell := strings.TrimSpace(c)
				if cell != "" {
					cleaned = append(cleaned, cell)
				}
				tmp := strings.ReplaceAll(cell, ":", "")
				tmp = strings.ReplaceAll(tmp, "-", "")
				if strings.TrimSpace(tmp) != "" {
					allSep = false
				}
			}
			if allSep || len(cleaned) == 0 {
				continue
			}
			rules = append(rules, "- "+strings.Join(cleaned, " "))
			continue
		}

		if strings.HasPrefix(line, "#") {
			if h := strings.TrimSpace(strings.TrimLeft(line, "#")); h != "" {
				rules = append(rules, h)
			}
			continue
		}

		for _, marker := range []string{"- ", "* ", "+ "} {
			if strings.HasPrefix(line, marker) {
				line = strings.TrimSpace(line[len(marker):])
				break
			}
		}
		if line != "" {
			rules = append(rules, "- "+line)
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return strings.Join(rules, "\n"), nil
}
