package generate

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Brief describes the presentation to outline.
type Brief struct {
	Title      string `json:"title"`
	Company    string `json:"company"`
	Creator    string `json:"creator"`
	Overview   string `json:"overview"`
	Purpose    string `json:"purpose"`
	SlideCount int    `json:"slideCount"`
}

// OutlineMessages builds the chat that asks for an outline of exactly
// b.SlideCount slides.
func OutlineMessages(b Brief) []Message {
	n := b.SlideCount
	system := fmt.Sprintf(`You are a professional presentation creator. Your task is to create a presentation outline with EXACTLY %[1]d slides, no more and no less. Follow these rules strictly:
1. Create EXACTLY %[1]d distinct slides
2. Each slide must be separated by TWO newlines
3. Use this format:
   - First slide MUST contain:
     # %[2]s
     ## %[3]s
     ## %[4]s
   - Other slides:
     # [Slide Title]
     [Content with bullet points using "-"]
4. Include bullet points with "-" where appropriate
5. Make each slide substantive and meaningful
6. Count your slides carefully and ensure it matches %[1]d
7. DO NOT include any extra slides
8. DO NOT include any transition text or notes between slides`, n, b.Title, b.Company, b.Creator)

	user := fmt.Sprintf("Create a presentation outline with exactly %d slides.\nTitle: %s\nCompany: %s\nCreator: %s\nOverview: %s\nPurpose: %s\n\nIMPORTANT: The presentation MUST have EXACTLY %d slides, no more and no less.",
		n, b.Title, b.Company, b.Creator, b.Overview, b.Purpose, n)

	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}

const narrationSystem = "You are a professional presenter. Generate concise, engaging narration based on the slide content. The narration should be clear, natural spoken language, about 1 to 3 sentences."

// NarrationMessages builds the chat that asks for a slide's narration.
func NarrationMessages(slide string) []Message {
	return []Message{
		{Role: RoleSystem, Content: narrationSystem},
		{Role: RoleUser, Content: "Generate narration for the following slide:\n\n" + slide},
	}
}

// PlainText renders slide source as text: images are dropped, heading and
// bullet markers removed, lines joined with spaces.
func PlainText(source string) string {
	src := []byte(source)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var b bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && b.Len() > 0 {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(n.Segment.Value(src))
			if n.SoftLineBreak() || n.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(n.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

// ImagePrompt is the illustration prompt for a slide.
func ImagePrompt(source string) string {
	return fmt.Sprintf("Create a professional presentation slide image that represents: %s. Make it abstract and subtle, suitable as a background or complementary image for a business presentation.", PlainText(source))
}

// ImageAlt describes a generated image for screen readers.
func ImageAlt(source string) string {
	t := []rune(PlainText(source))
	if len(t) > 50 {
		t = t[:50]
	}
	return "AI generated image for: " + string(t) + "..."
}
