// Package content parses chaptered markdown/MDX documents and splits them
// into token-budgeted chunks for indexing.
package content

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata describes where a piece of content came from. It is derived from
// the file path and frontmatter and never changes after parsing.
// SidebarPosition is zero when the frontmatter does not carry one.
type Metadata struct {
	ChapterID       string
	Title           string
	SectionTitle    string
	PageURL         string
	SidebarPosition int
}

// Section is one heading-delimited span of a document. Text before the first
// heading is attributed to the "Introduction" section.
type Section struct {
	Heading string
	Body    string
}

// Parsed is the result of parsing a single document.
type Parsed struct {
	Raw      string
	Text     string
	Metadata Metadata
	Sections []Section
}

// docsRoot is the directory name that marks the start of the page URL path.
const docsRoot = "docs"

// defaultSection receives content that appears before the first heading.
const defaultSection = "Introduction"

var (
	frontmatterPattern = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n`)
	mdxImportPattern   = regexp.MustCompile(`(?m)^import\s+.*$`)
	mdxExportPattern   = regexp.MustCompile(`(?m)^export\s+.*$`)
	jsxComponentPat    = regexp.MustCompile(`(?s)<[A-Z][a-zA-Z]*[^>]*>.*?</[A-Z][a-zA-Z]*>`)
	jsxSelfClosingPat  = regexp.MustCompile(`<[A-Z][a-zA-Z]*[^>]*/\s*>`)
	mermaidPattern     = regexp.MustCompile("(?s)```mermaid\n.*?```")
	codeBlockPattern   = regexp.MustCompile("(?s)```[\\w]*\n.*?```")
	codeFencePattern   = regexp.MustCompile("```\\w*\n?")
	codeLangPattern    = regexp.MustCompile("^```(\\w+)")
	admonitionPattern  = regexp.MustCompile(`(?s):::(tip|note|caution|warning|info|danger)\s*(.*?)\n(.*?):::`)
	headingPattern     = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	imagePattern       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	linkPattern        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	multiNewlinePat    = regexp.MustCompile(`\n{3,}`)
	markdownExtPattern = regexp.MustCompile(`\.(mdx|md)$`)
)

// codeSummaryLimit caps the inline summary a fenced code block is reduced to,
// keeping code present but bounded for downstream context budgets.
const codeSummaryLimit = 200

// frontmatter is the typed view of the YAML block at the top of a document.
type frontmatter struct {
	Title           string `yaml:"title"`
	SidebarPosition int    `yaml:"sidebar_position"`
}

// Parser extracts cleaned text, metadata, and sections from markdown/MDX.
type Parser struct {
	baseURL string
}

func NewParser(baseURL string) *Parser {
	return &Parser{baseURL: strings.TrimRight(baseURL, "/")}
}

// ParseFile reads and parses a single document.
func (p *Parser) ParseFile(path string) (*Parsed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return p.Parse(string(data), path), nil
}

// Parse parses raw document text. The path supplies chapter_id and page_url;
// the file itself need not exist.
func (p *Parser) Parse(raw, path string) *Parsed {
	meta := p.extractMetadata(raw, path)

	body := frontmatterPattern.ReplaceAllString(raw, "")
	text := extractText(body)
	sections := extractSections(text)

	return &Parsed{
		Raw:      raw,
		Text:     text,
		Metadata: meta,
		Sections: sections,
	}
}

func (p *Parser) extractMetadata(raw, path string) Metadata {
	stem := markdownExtPattern.ReplaceAllString(filepath.Base(path), "")
	meta := Metadata{
		ChapterID: stem,
		Title:     titleFromStem(stem),
		PageURL:   p.pageURL(path),
	}

	if match := frontmatterPattern.FindStringSubmatch(raw); match != nil {
		var fm frontmatter
		if err := yaml.Unmarshal([]byte(match[1]), &fm); err == nil {
			if fm.Title != "" {
				meta.Title = fm.Title
			}
			meta.SidebarPosition = fm.SidebarPosition
		}
	}

	// The document-level section title defaults to the chapter title; the
	// chunker narrows it per section.
	meta.SectionTitle = meta.Title
	return meta
}

// pageURL locates the docs root in the path, takes everything after it,
// strips the markdown extension, and prefixes the configured base URL.
// Paths without a docs segment use the whole path.
func (p *Parser) pageURL(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, part := range parts {
		if part == docsRoot {
			parts = parts[i+1:]
			break
		}
	}

	urlPath := markdownExtPattern.ReplaceAllString(strings.Join(parts, "/"), "")
	return p.baseURL + "/" + urlPath
}

// extractText strips MDX-specific syntax and normalizes whitespace, keeping
// the prose (and bounded code summaries) that should be embedded.
func extractText(body string) string {
	text := body

	text = mdxImportPattern.ReplaceAllString(text, "")
	text = mdxExportPattern.ReplaceAllString(text, "")

	text = mermaidPattern.ReplaceAllString(text, "[Diagram]")
	text = codeBlockPattern.ReplaceAllStringFunc(text, summarizeCodeBlock)
	text = admonitionPattern.ReplaceAllStringFunc(text, collapseAdmonition)

	text = jsxComponentPat.ReplaceAllString(text, "")
	text = jsxSelfClosingPat.ReplaceAllString(text, "")

	text = imagePattern.ReplaceAllString(text, "[Image: $1]")
	text = linkPattern.ReplaceAllString(text, "$1")

	text = multiNewlinePat.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// summarizeCodeBlock replaces a fenced code block with a truncated inline
// summary tagged by language.
func summarizeCodeBlock(block string) string {
	lang := "code"
	if match := codeLangPattern.FindStringSubmatch(block); match != nil {
		lang = match[1]
	}

	code := strings.TrimSpace(codeFencePattern.ReplaceAllString(block, ""))
	if len(code) > codeSummaryLimit {
		return fmt.Sprintf("[Code example in %s]: %s...", lang, code[:codeSummaryLimit])
	}
	return fmt.Sprintf("[Code example in %s]: %s", lang, code)
}

// collapseAdmonition flattens a :::tip/:::note style block into a single
// "{Title}: {body}" line.
func collapseAdmonition(block string) string {
	match := admonitionPattern.FindStringSubmatch(block)
	if match == nil {
		return block
	}

	title := strings.TrimSpace(match[2])
	if title == "" {
		title = capitalize(match[1])
	}
	return fmt.Sprintf("%s: %s", title, strings.TrimSpace(match[3]))
}

// extractSections splits cleaned text into heading-delimited sections,
// preserving document order.
func extractSections(text string) []Section {
	var sections []Section
	heading := defaultSection
	var body []string

	for _, line := range strings.Split(text, "\n") {
		if match := headingPattern.FindStringSubmatch(line); match != nil {
			if len(body) > 0 {
				sections = append(sections, Section{
					Heading: heading,
					Body:    strings.TrimSpace(strings.Join(body, "\n")),
				})
			}
			heading = strings.TrimSpace(match[2])
			body = nil
			continue
		}
		body = append(body, line)
	}

	if len(body) > 0 {
		sections = append(sections, Section{
			Heading: heading,
			Body:    strings.TrimSpace(strings.Join(body, "\n")),
		})
	}

	return sections
}

// titleFromStem turns a filename stem like "physical-ai" into "Physical Ai".
func titleFromStem(stem string) string {
	words := strings.Fields(strings.ReplaceAll(stem, "-", " "))
	for i, word := range words {
		words[i] = capitalize(word)
	}
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}
