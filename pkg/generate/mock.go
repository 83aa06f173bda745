package generate

import (
	"context"
	"fmt"
	"hash/crc32"
	"regexp"
	"strconv"
	"strings"
)

var (
	exactCount = regexp.MustCompile(`EXACTLY (\d+) slides`)
	briefField = regexp.MustCompile(`(?m)^(Title|Company|Creator|Overview|Purpose): (.*)$`)
)

// Mock answers offline. Outline requests get a well-formed outline of the
// requested size built from the brief; anything else gets a one-sentence
// narration of the last user message.
type Mock struct{}

func (Mock) GenerateText(ctx context.Context, messages []Message, _ string, _ float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	system, rest := split(messages)
	var last string
	if len(rest) > 0 {
		last = rest[len(rest)-1].Content
	}

	m := exactCount.FindStringSubmatch(strings.Join(system, "\n"))
	if m == nil {
		slide := last
		if i := strings.Index(slide, "\n\n"); i >= 0 {
			slide = slide[i+2:]
		}
		return "On this slide: " + PlainText(slide) + ".", nil
	}

	n, _ := strconv.Atoi(m[1])
	fields := map[string]string{}
	for _, f := range briefField.FindAllStringSubmatch(last, -1) {
		fields[f[1]] = strings.TrimSpace(f[2])
	}
	return mockOutline(n, fields), nil
}

func mockOutline(n int, f map[string]string) string {
	blocks := []string{fmt.Sprintf("# %s\n## %s\n## %s", f["Title"], f["Company"], f["Creator"])}
	for i := 1; i < n; i++ {
		blocks = append(blocks, fmt.Sprintf("# Part %d\n- %s\n- %s", i, or(f["Overview"], "Overview"), or(f["Purpose"], "Purpose")))
	}
	return strings.Join(blocks, "\n\n")
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// MockImages returns stable placeholder image URLs derived from the prompt.
type MockImages struct {
	BaseURL string
}

func (m MockImages) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	base := m.BaseURL
	if base == "" {
		base = "https://picsum.photos/seed"
	}
	return fmt.Sprintf("%s/%08x/1024/1024", strings.TrimSuffix(base, "/"), crc32.ChecksumIEEE([]byte(prompt))), nil
}
