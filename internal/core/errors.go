package core

import (
	"errors"
	"fmt"
)

// Collaborator failure sentinels. All of them are recovered locally by
// falling back to a degraded path; none may abort an active session.
var (
	ErrRetrievalUnavailable = errors.New("reference store unavailable")
	ErrGenerationTimeout    = errors.New("model call exceeded deadline")
	ErrTranscription        = errors.New("transcription failed")
	ErrSynthesis            = errors.New("speech synthesis failed")
	ErrGeneration           = errors.New("response generation failed")
)

// ValidationError rejects malformed local input without mutating state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConfigError is fatal at startup.
type ConfigError struct {
	Section string
	Key     string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config section %q: %s", e.Section, e.Reason)
	}
	return fmt.Sprintf("config %s.%s: %s", e.Section, e.Key, e.Reason)
}
