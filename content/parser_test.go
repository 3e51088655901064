package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontmatter(t *testing.T) {
	raw := "---\ntitle: \"Sensors and Perception\"\nsidebar_position: 3\n---\n\n# Sensors\n\nBody text here.\n"

	parser := NewParser("https://example.com")
	parsed := parser.Parse(raw, "/site/docs/chapter-3/sensors.md")

	assert.Equal(t, "Sensors and Perception", parsed.Metadata.Title)
	assert.Equal(t, 3, parsed.Metadata.SidebarPosition)
	assert.Equal(t, "sensors", parsed.Metadata.ChapterID)
	assert.NotContains(t, parsed.Text, "---")
	assert.NotContains(t, parsed.Text, "sidebar_position")
}

func TestParseMissingFrontmatterUsesFilename(t *testing.T) {
	parser := NewParser("")
	parsed := parser.Parse("Just some prose.", "/site/docs/motion-planning.mdx")

	assert.Equal(t, "motion-planning", parsed.Metadata.ChapterID)
	assert.Equal(t, "Motion Planning", parsed.Metadata.Title)
	assert.Equal(t, 0, parsed.Metadata.SidebarPosition)
}

func TestParseInvalidFrontmatterFallsBack(t *testing.T) {
	raw := "---\ntitle: [unclosed\n---\n\nBody.\n"

	parser := NewParser("")
	parsed := parser.Parse(raw, "/site/docs/intro.md")

	assert.Equal(t, "Intro", parsed.Metadata.Title)
}

func TestPageURL(t *testing.T) {
	parser := NewParser("https://book.example.com/")
	parsed := parser.Parse("text", "/var/content/docs/chapter-1/intro.mdx")

	assert.Equal(t, "https://book.example.com/chapter-1/intro", parsed.Metadata.PageURL)
}

func TestExtractTextRemovesMDX(t *testing.T) {
	raw := `import Tabs from '@theme/Tabs';
export const x = 1;

Some prose.

<Tabs>
  <TabItem value="a">hidden</TabItem>
</Tabs>

<Highlight color="red" />

More prose.
`

	parser := NewParser("")
	parsed := parser.Parse(raw, "docs/page.mdx")

	assert.NotContains(t, parsed.Text, "import")
	assert.NotContains(t, parsed.Text, "export")
	assert.NotContains(t, parsed.Text, "Tabs")
	assert.NotContains(t, parsed.Text, "Highlight")
	assert.Contains(t, parsed.Text, "Some prose.")
	assert.Contains(t, parsed.Text, "More prose.")
}

func TestExtractTextCodeBlocks(t *testing.T) {
	raw := "Intro.\n\n```python\nprint(\"hello\")\n```\n\nOutro.\n"

	parser := NewParser("")
	parsed := parser.Parse(raw, "docs/page.md")

	assert.Contains(t, parsed.Text, `[Code example in python]: print("hello")`)
	assert.NotContains(t, parsed.Text, "```")
}

func TestExtractTextLongCodeBlockTruncated(t *testing.T) {
	code := make([]byte, 300)
	for i := range code {
		code[i] = 'x'
	}
	raw := "```go\n" + string(code) + "\n```\n"

	parser := NewParser("")
	parsed := parser.Parse(raw, "docs/page.md")

	assert.Contains(t, parsed.Text, "[Code example in go]: ")
	assert.Contains(t, parsed.Text, "...")
	assert.Less(t, len(parsed.Text), 260)
}

func TestExtractTextMermaid(t *testing.T) {
	raw := "Before.\n\n```mermaid\ngraph TD;\nA-->B;\n```\n\nAfter.\n"

	parser := NewParser("")
	parsed := parser.Parse(raw, "docs/page.md")

	assert.Contains(t, parsed.Text, "[Diagram]")
	assert.NotContains(t, parsed.Text, "graph TD")
}

func TestExtractTextAdmonitions(t *testing.T) {
	raw := ":::tip Pro Tip\nUse simulation first.\n:::\n\n:::note\nRemember this.\n:::\n"

	parser := NewParser("")
	parsed := parser.Parse(raw, "docs/page.md")

	assert.Contains(t, parsed.Text, "Pro Tip: Use simulation first.")
	assert.Contains(t, parsed.Text, "Note: Remember this.")
	assert.NotContains(t, parsed.Text, ":::")
}

func TestExtractTextImagesAndLinks(t *testing.T) {
	raw := "See ![robot arm](/img/arm.png) and the [kinematics chapter](/docs/kinematics).\n"

	parser := NewParser("")
	parsed := parser.Parse(raw, "docs/page.md")

	assert.Contains(t, parsed.Text, "[Image: robot arm]")
	assert.Contains(t, parsed.Text, "kinematics chapter")
	assert.NotContains(t, parsed.Text, "/img/arm.png")
	assert.NotContains(t, parsed.Text, "/docs/kinematics")
}

func TestSections(t *testing.T) {
	raw := `Opening words before any heading.

# Overview

Overview body.

## Details

Detail body line one.
Detail body line two.
`

	parser := NewParser("")
	parsed := parser.Parse(raw, "docs/page.md")

	require.Len(t, parsed.Sections, 3)
	assert.Equal(t, "Introduction", parsed.Sections[0].Heading)
	assert.Equal(t, "Opening words before any heading.", parsed.Sections[0].Body)
	assert.Equal(t, "Overview", parsed.Sections[1].Heading)
	assert.Equal(t, "Overview body.", parsed.Sections[1].Body)
	assert.Equal(t, "Details", parsed.Sections[2].Heading)
	assert.Contains(t, parsed.Sections[2].Body, "line one")
	assert.Contains(t, parsed.Sections[2].Body, "line two")
}

func TestSectionsNoLeadingIntro(t *testing.T) {
	raw := "# First\n\nBody.\n"

	parser := NewParser("")
	parsed := parser.Parse(raw, "docs/page.md")

	require.Len(t, parsed.Sections, 1)
	assert.Equal(t, "First", parsed.Sections[0].Heading)
}
