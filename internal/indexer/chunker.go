package indexer

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	minChunkSize = 50
	maxChunkSize = 700 // Max runes per chunk (targets ~450 tokens for a 512-token embedding model)
)

// Chunker splits documents into embedding-sized chunks. Markdown is chunked
// along its heading structure via goldmark AST parsing; plain text is chunked
// along paragraph boundaries.
type Chunker struct {
	parser goldmark.Markdown
}

// NewChunker creates a new chunker.
func NewChunker() *Chunker {
	return &Chunker{
		parser: goldmark.New(),
	}
}

// ChunkDocument splits content into chunks, dispatching on the filename
// extension. It returns the document title and the chunks.
func (c *Chunker) ChunkDocument(content []byte, filename string) (title string, chunks []Chunk, err error) {
	if strings.TrimSpace(string(content)) == "" {
		return titleFromFilename(filename), []Chunk{}, nil
	}

	if strings.EqualFold(filepath.Ext(filename), ".md") {
		return c.chunkMarkdown(content, filename)
	}
	return c.chunkPlainText(content, filename)
}

// chunkMarkdown walks the markdown AST. Each heading starts a new chunk, and
// the chunk's section records the heading hierarchy down to it.
func (c *Chunker) chunkMarkdown(content []byte, filename string) (string, []Chunk, error) {
	reader := text.NewReader(content)
	doc := c.parser.Parser().Parse(reader)

	title := extractTitle(doc, content, filename)

	var chunks []Chunk
	var current *Chunk
	var stack []headingInfo

	flush := func() {
		if current != nil && strings.TrimSpace(current.Text) != "" {
			current.Text = strings.TrimSpace(current.Text)
			chunks = append(chunks, *current)
		}
		current = nil
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			flush()
			for len(stack) > 0 && stack[len(stack)-1].level >= node.Level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, headingInfo{level: node.Level, text: nodeText(node, content)})
			current = &Chunk{Section: sectionPath(stack)}
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			if current == nil {
				// Content before the first heading belongs to the title section.
				current = &Chunk{Section: "# " + title}
			}
			current.Text += string(node.Segment.Value(content))

		case *ast.String:
			if current != nil {
				current.Text += string(node.Value)
			}

		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if current != nil {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					current.Text += string(seg.Value(content))
				}
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.List, *ast.ListItem:
			if current != nil && current.Text != "" && !strings.HasSuffix(current.Text, "\n") {
				current.Text += "\n"
			}
		}
		return ast.WalkContinue, nil
	})
	flush()

	if len(chunks) == 0 {
		chunks = append(chunks, Chunk{Section: "# " + title, Text: strings.TrimSpace(string(content))})
	}

	return title, reindex(applySizeConstraints(chunks)), nil
}

// chunkPlainText packs paragraphs greedily into chunks up to maxChunkSize.
func (c *Chunker) chunkPlainText(content []byte, filename string) (string, []Chunk, error) {
	title := titleFromFilename(filename)

	var chunks []Chunk
	var current strings.Builder

	flush := func() {
		if txt := strings.TrimSpace(current.String()); txt != "" {
			chunks = append(chunks, Chunk{Text: txt})
		}
		current.Reset()
	}

	for _, para := range strings.Split(string(content), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+utf8.RuneCountInString(para) > maxChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return title, reindex(applySizeConstraints(chunks)), nil
}

type headingInfo struct {
	level int
	text  string
}

// sectionPath renders the heading stack as "# A > ## B > ### C".
func sectionPath(stack []headingInfo) string {
	parts := make([]string, len(stack))
	for i, h := range stack {
		parts[i] = fmt.Sprintf("%s %s", strings.Repeat("#", h.level), h.text)
	}
	return strings.Join(parts, " > ")
}

// extractTitle picks the first level-1 heading, falling back to the filename.
func extractTitle(doc ast.Node, content []byte, filename string) string {
	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok && heading.Level == 1 {
			title = nodeText(heading, content)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if title != "" {
		return title
	}
	return titleFromFilename(filename)
}

// titleFromFilename strips the extension and capitalizes each word.
func titleFromFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// nodeText extracts the plain text of a node and its children.
func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// applySizeConstraints merges undersized chunks into their successor and
// splits oversized ones. Sizes are measured in runes, not bytes.
func applySizeConstraints(chunks []Chunk) []Chunk {
	var result []Chunk
	i := 0
	for i < len(chunks) {
		current := chunks[i]

		if utf8.RuneCountInString(current.Text) < minChunkSize && i+1 < len(chunks) {
			merged := Chunk{
				Section: current.Section,
				Text:    current.Text + "\n\n" + chunks[i+1].Text,
			}
			if utf8.RuneCountInString(merged.Text) <= maxChunkSize {
				current = merged
				i++
			}
		}

		if utf8.RuneCountInString(current.Text) > maxChunkSize {
			result = append(result, splitChunk(current)...)
		} else {
			result = append(result, current)
		}
		i++
	}
	return result
}

// splitChunk splits an oversized chunk, preferring paragraph, then line, then
// sentence boundaries before falling back to a hard split.
func splitChunk(chunk Chunk) []Chunk {
	runes := []rune(chunk.Text)
	var splits []Chunk
	start := 0

	for start < len(runes) {
		end := start + maxChunkSize
		if end >= len(runes) {
			splits = append(splits, Chunk{Section: chunk.Section, Text: string(runes[start:])})
			break
		}

		window := string(runes[start:end])
		split := end
		if idx := strings.LastIndex(window, "\n\n"); idx != -1 {
			split = start + utf8.RuneCountInString(window[:idx]) + 2
		} else if idx := strings.LastIndex(window, "\n"); idx != -1 {
			split = start + utf8.RuneCountInString(window[:idx]) + 1
		} else if idx := strings.LastIndex(window, ". "); idx != -1 {
			split = start + utf8.RuneCountInString(window[:idx]) + 2
		}

		splits = append(splits, Chunk{Section: chunk.Section, Text: string(runes[start:split])})
		start = split
	}
	return splits
}

// reindex assigns sequential chunk indexes.
func reindex(chunks []Chunk) []Chunk {
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}
