// Package vectorstore provides a small embedding-based retrieval layer for
// uploaded documents. Each document gets a JSON-persisted index of overlapping
// text chunks with their embeddings; queries run cosine similarity over the
// cached indexes.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/VRUSHIL1/shop-chatbot-v2/logging"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of characters shared by adjacent chunks.
	DefaultChunkOverlap = 200
)

// Embedder turns texts into embedding vectors. Implementations must return
// one vector per input text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Chunk is one indexed slice of a document.
type Chunk struct {
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
}

// Index is the persisted form of one document's chunks.
type Index struct {
	Source string  `json:"source"`
	Chunks []Chunk `json:"chunks"`
}

// SearchResult is one scored chunk.
type SearchResult struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// Options configure a Store.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	Logger       logging.Logger
}

// Store builds, caches and searches document indexes. Loaded indexes are kept
// in memory keyed by their file path until Refresh drops them.
type Store struct {
	embedder Embedder
	opts     Options

	mu    sync.RWMutex
	cache map[string]*Index
}

// New creates a Store over the given embedder.
func New(embedder Embedder, optFns ...func(o *Options)) *Store {
	opts := Options{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		embedder: embedder,
		opts:     opts,
		cache:    make(map[string]*Index),
	}
}

// SplitText cuts text into chunks of at most size characters where adjacent
// chunks share overlap characters. Whitespace-only chunks are dropped.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap >= size {
		overlap = size - 1
	}

	runes := []rune(text)
	step := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])
		if len([]rune(chunk)) > 0 && !isBlank(chunk) {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\n' && r != '\t' && r != '\r' {
			return false
		}
	}
	return true
}

// BuildIndex chunks and embeds text, writes the index JSON to path and primes
// the cache. Source labels the origin document in search results. Returns the
// number of chunks indexed.
func (s *Store) BuildIndex(ctx context.Context, source, text, path string) (int, error) {
	chunks := SplitText(text, s.opts.ChunkSize, s.opts.ChunkOverlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no indexable text in %s", source)
	}

	embeddings, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	index := &Index{Source: source, Chunks: make([]Chunk, len(chunks))}
	for i, chunk := range chunks {
		index.Chunks[i] = Chunk{Text: chunk, Embedding: embeddings[i]}
	}

	data, err := json.Marshal(index)
	if err != nil {
		return 0, fmt.Errorf("marshal index: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write index: %w", err)
	}

	s.mu.Lock()
	s.cache[path] = index
	s.mu.Unlock()

	s.opts.Logger.Info("document indexed", "source", source, "chunks", len(chunks), "path", path)
	return len(chunks), nil
}

// Refresh drops the cached index for path so the next search reloads it from
// disk. Call after the index file is deleted or rewritten externally.
func (s *Store) Refresh(path string) {
	s.mu.Lock()
	delete(s.cache, path)
	s.mu.Unlock()
}

func (s *Store) load(path string) (*Index, error) {
	s.mu.RLock()
	index, ok := s.cache[path]
	s.mu.RUnlock()
	if ok {
		return index, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	index = &Index{}
	if err := json.Unmarshal(data, index); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}

	s.mu.Lock()
	s.cache[path] = index
	s.mu.Unlock()
	return index, nil
}

// Search embeds the query and returns the topK most similar chunks across the
// given index paths. Unreadable indexes are logged and skipped.
func (s *Store) Search(ctx context.Context, query string, paths []string, topK int) ([]SearchResult, error) {
	if len(paths) == 0 || topK <= 0 {
		return []SearchResult{}, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}
	queryVec := vectors[0]

	var results []SearchResult
	for _, path := range paths {
		index, err := s.load(path)
		if err != nil {
			s.opts.Logger.Warn("skipping unreadable index", "path", path, "error", err)
			continue
		}
		for _, chunk := range index.Chunks {
			results = append(results, SearchResult{
				Text:   chunk.Text,
				Score:  CosineSimilarity(queryVec, chunk.Embedding),
				Source: index.Source,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
