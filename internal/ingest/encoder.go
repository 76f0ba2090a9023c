package ingest

import "context"

// Encoder is the embedding-transport external interface (spec §6): a
// batch-input embedding call whose response size must equal its input
// size.
type Encoder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrEmbeddingSizeMismatch is returned by EmbedSink.WriteBatch when an
// Encoder implementation violates its contract.
type ErrEmbeddingSizeMismatch struct{ Want, Got int }

func (e *ErrEmbeddingSizeMismatch) Error() string {
	return "encoder returned a different number of vectors than inputs"
}

// Chunker splits text into pieces no longer than capacity tokens, covering
// the entire input. Any tokenizer-aware implementation satisfies the spec;
// this package ships a simple word-boundary splitter that approximates
// token count by word count, sufficient where an exact tokenizer library is
// not available.
type Chunker interface {
	Chunk(text string, capacity int) []string
}

// WordChunker is a Chunker that approximates tokens with whitespace-
// separated words.
type WordChunker struct{}

// Chunk implements Chunker.
func (WordChunker) Chunk(text string, capacity int) []string {
	if capacity <= 0 {
		return []string{text}
	}
	words := splitWords(text)
	if len(words) == 0 {
		return nil
	}
	var chunks []string
	for i := 0; i < len(words); i += capacity {
		end := i + capacity
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, joinWords(words[i:end]))
	}
	return chunks
}

func splitWords(text string) []string {
	var words []string
	start := -1
	for i, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			if start >= 0 {
				words = append(words, text[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}

func joinWords(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}
