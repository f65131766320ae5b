package indexer

// Chunk represents a chunk of text from a source document.
type Chunk struct {
	Index   int    // Chunk index within document (starts at 0)
	Section string // Heading path for markdown ("# A > ## B"), empty for plain text
	Text    string // Chunk text content
}
