package storage

import "time"

// DocumentRecord represents an indexed knowledge-base document.
type DocumentRecord struct {
	ID        string // UUID
	Filename  string // Base filename, unique within the library
	Hash      string // SHA256 hex string of file content
	IndexedAt time.Time
}

// ChunkRecord represents a chunk of text from a document, indexed for
// vector search.
type ChunkRecord struct {
	ID         string // UUID (same as vector store point ID)
	DocumentID string // UUID (foreign key to documents.id)
	ChunkIndex int    // Index within document (starts at 0)
	Section    string // Heading path for markdown, empty for plain text
	Text       string // Chunk text content
}

// ConversationRecord represents one chat conversation.
type ConversationRecord struct {
	ID        string // UUID
	Title     string // First question, truncated
	CreatedAt time.Time
}

// MessageRecord represents one message in a conversation. Assistant messages
// carry the evidence trail of the answer: its source type and citations.
type MessageRecord struct {
	ID             string // UUID
	ConversationID string // UUID (foreign key to conversations.id)
	Role           string // "user" or "assistant"
	Content        string
	SourceType     string // Empty for user messages
	Sources        string // JSON array of citation labels, empty for user messages
	CreatedAt      time.Time
}
