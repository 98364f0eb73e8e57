package core

import "context"

// ChatModel is the language-model collaborator contract.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Embedder converts text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Transcriber is the speech-to-text collaborator contract. Samples are
// mono PCM float32 at the given sample rate.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int, language string) (Transcript, error)
}

// Synthesizer is the text-to-speech collaborator contract. The returned
// buffer is raw 16-bit PCM at the rate reported by SampleRate.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	SampleRate() int
}

// SearchProvider is the internet-search collaborator contract.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// ReferenceStore persists embeddings of past content and serves
// nearest-neighbor queries.
type ReferenceStore interface {
	Add(ctx context.Context, text string, embedding []float32, meta map[string]string) (string, error)
	Query(ctx context.Context, embedding []float32, k int) ([]Reference, error)
	Flush() error
	Count() int
}
