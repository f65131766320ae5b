package indexer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"ragbot/internal/contextutil"
	"ragbot/internal/library"
	"ragbot/internal/storage"
	"ragbot/internal/vectorstore"
)

// Embedder maps texts to fixed-length vectors. Defined here consumer-first so
// the pipeline can be tested without a live embedding service.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline orchestrates the indexing of library documents into SQLite and
// the vector store.
type Pipeline struct {
	libraryManager *library.Manager
	docRepo        storage.DocumentStore
	chunkRepo      storage.ChunkStore
	embedder       Embedder
	vectorStore    vectorstore.VectorStore
	collection     string
	chunker        *Chunker
	logger         *slog.Logger
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	libraryManager *library.Manager,
	docRepo storage.DocumentStore,
	chunkRepo storage.ChunkStore,
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
) *Pipeline {
	return &Pipeline{
		libraryManager: libraryManager,
		docRepo:        docRepo,
		chunkRepo:      chunkRepo,
		embedder:       embedder,
		vectorStore:    vectorStore,
		collection:     collection,
		chunker:        NewChunker(),
		logger:         slog.Default(),
	}
}

// IndexFile indexes a single document file from the library.
// It checks if the file has changed (via hash), chunks it, generates
// embeddings, and stores chunks in both SQLite and the vector store.
func (p *Pipeline) IndexFile(ctx context.Context, file library.ScannedFile) error {
	logger := contextutil.LoggerFromContext(ctx)

	filename := file.Filename
	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", file.AbsPath, err)
	}

	hash := sha256.Sum256(content)
	hashHex := fmt.Sprintf("%x", hash)

	existing, err := p.docRepo.GetByFilename(ctx, filename)
	if err != nil && err != storage.ErrNotFound {
		return fmt.Errorf("failed to check existing document: %w", err)
	}

	// Skip re-indexing if hash matches
	if existing != nil && existing.Hash == hashHex {
		logger.DebugContext(ctx, "skipping unchanged file", "filename", filename, "hash", hashHex)
		return nil
	}

	title, chunks, err := p.chunker.ChunkDocument(content, filename)
	if err != nil {
		return fmt.Errorf("failed to chunk document: %w", err)
	}
	if len(chunks) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "filename", filename)
		return nil
	}

	var docID string
	if existing != nil {
		docID = existing.ID
	} else {
		docID = uuid.New().String()
	}

	doc := &storage.DocumentRecord{
		ID:       docID,
		Filename: filename,
		Hash:     hashHex,
	}
	if err := p.docRepo.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	// Changed document: purge its old chunks before inserting new ones.
	if existing != nil {
		if err := p.removeChunks(ctx, docID); err != nil {
			return err
		}
	}

	chunkTexts := make([]string, len(chunks))
	for i, chunk := range chunks {
		chunkTexts[i] = chunk.Text
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, chunkTexts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, chunk := range chunks {
		chunkID := uuid.New().String()

		record := &storage.ChunkRecord{
			ID:         chunkID,
			DocumentID: docID,
			ChunkIndex: chunk.Index,
			Section:    chunk.Section,
			Text:       chunk.Text,
		}
		if err := p.chunkRepo.Insert(ctx, record); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}

		points[i] = vectorstore.Point{
			ID:   chunkID,
			Vec:  embeddings[i],
			Text: chunk.Text,
			Meta: map[string]any{
				"source":      filename,
				"document_id": docID,
				"title":       title,
				"section":     chunk.Section,
				"chunk_index": chunk.Index,
				"tags":        strings.Join(ExtractTags(chunk.Text), ","),
			},
		}
	}

	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	logger.InfoContext(ctx, "indexed document", "filename", filename, "chunks", len(chunks), "title", title)
	return nil
}

// RemoveDocument removes a document and its chunks from the vector store and
// SQLite. The caller is responsible for removing the library file.
func (p *Pipeline) RemoveDocument(ctx context.Context, docID string) error {
	if err := p.removeChunks(ctx, docID); err != nil {
		return err
	}
	if err := p.docRepo.Delete(ctx, docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (p *Pipeline) removeChunks(ctx context.Context, docID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	chunkIDs, err := p.chunkRepo.ListIDsByDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to list chunk IDs: %w", err)
	}
	if len(chunkIDs) == 0 {
		return nil
	}

	if err := p.vectorStore.Delete(ctx, p.collection, chunkIDs); err != nil {
		// Continue anyway, the new upsert overwrites by ID.
		logger.WarnContext(ctx, "failed to delete old chunks from vector store", "error", err, "count", len(chunkIDs))
	}
	if err := p.chunkRepo.DeleteByDocument(ctx, docID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}
	return nil
}

// IndexAll scans the library and indexes every document.
// Errors for individual files are logged but don't stop the indexing process.
func (p *Pipeline) IndexAll(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := p.libraryManager.Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan library: %w", err)
	}

	logger.InfoContext(ctx, "starting indexing", "total_files", len(files))

	var successCount, errorCount int
	for _, file := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := p.IndexFile(ctx, file); err != nil {
			logger.ErrorContext(ctx, "failed to index file", "filename", file.Filename, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	logger.InfoContext(ctx, "indexing finished", "indexed", successCount, "failed", errorCount)
	if errorCount > 0 {
		return fmt.Errorf("indexing finished with %d failures out of %d files", errorCount, len(files))
	}
	return nil
}
