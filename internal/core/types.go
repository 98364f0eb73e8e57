package core

import "time"

const (
	AppName    = "Teammate"
	AppVersion = "0.1.0"
)

// Chat roles used when talking to the model collaborator.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Utterance is one attributed, timestamped unit of transcribed speech.
// Immutable once created.
type Utterance struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Language  string    `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}

// Reference is a retrieved piece of long-term memory relevant to the
// current query.
type Reference struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Title      string    `json:"title,omitempty"`
	URL        string    `json:"url,omitempty"`
	Similarity float32   `json:"similarity"`
	Timestamp  time.Time `json:"timestamp"`
}

// ContextBundle combines short-term and long-term memory for one response
// cycle. Built fresh per cycle, never persisted.
type ContextBundle struct {
	Window     []Utterance
	References []Reference
	Language   string
}

// Persona is the configured identity shaping generated replies. Loaded once
// at startup, read-only afterwards.
type Persona struct {
	Name   string
	Role   string
	Traits []string
}

// Message is one turn in a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript is the result of one transcription call.
type Transcript struct {
	Text       string
	Confidence float64
	Language   string
}

// SearchResult is one entry returned by the search collaborator.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// VoiceParams carries the synthesis voice settings from the tts config
// section to the synthesizer.
type VoiceParams struct {
	VoiceID         string
	ModelID         string
	Stability       float64
	SimilarityBoost float64
	Speed           float64
}
