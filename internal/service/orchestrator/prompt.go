package orchestrator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"

	"github.com/sandevgo/teammate/internal/core"
)

var (
	tkOnce sync.Once
	tk     *tiktoken.Tiktoken
)

// getTokenizer loads the encoding once. The first load may hit the network;
// when it fails the return is nil and token counts fall back to an
// estimate, so an offline start never takes down a live session.
func getTokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		var err error
		tk, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			tk = nil
			log.Warn().Err(err).Msg("tokenizer unavailable, using estimated token counts")
		}
	})
	return tk
}

func countTokens(text string) int {
	return tokenCount(getTokenizer(), text)
}

func tokenCount(tok *tiktoken.Tiktoken, text string) int {
	if text == "" {
		return 0
	}
	if tok != nil {
		return len(tok.Encode(text, nil, nil))
	}
	// Rough average of four characters per token.
	return len([]rune(text))/4 + 1
}

// promptBudget caps the assembled prompt. Oldest window entries are trimmed
// first; the system prompt and references always survive.
const promptBudget = 6000

// Prompter renders a context bundle into the message list sent to the model.
type Prompter struct {
	persona       core.Persona
	searchEnabled bool
}

func NewPrompter(persona core.Persona, searchEnabled bool) *Prompter {
	return &Prompter{
		persona:       persona,
		searchEnabled: searchEnabled,
	}
}

// Build assembles the full message list: persona system prompt, retrieved
// references, optional search findings, then the conversation window with
// the persona's own lines as assistant turns.
func (p *Prompter) Build(bundle core.ContextBundle, findings []core.SearchResult) []core.Message {
	messages := []core.Message{
		{Role: core.RoleSystem, Content: p.system(bundle.Language)},
	}

	if len(bundle.References) > 0 {
		messages = append(messages, core.Message{
			Role:    core.RoleSystem,
			Content: formatReferences(bundle.References),
		})
	}
	if len(findings) > 0 {
		messages = append(messages, core.Message{
			Role:    core.RoleSystem,
			Content: formatFindings(findings),
		})
	}

	window := trimWindow(bundle.Window, promptBudget-messagesTokens(messages))
	for _, u := range window {
		messages = append(messages, p.turn(u))
	}
	return messages
}

func (p *Prompter) system(language string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, a %s participating in a live meeting as a full team member.\n", p.persona.Name, p.persona.Role)
	if len(p.persona.Traits) > 0 {
		fmt.Fprintf(&sb, "Your personality is %s.\n", strings.Join(p.persona.Traits, ", "))
	}
	sb.WriteString("Speak naturally and concisely, as a colleague would. ")
	sb.WriteString("Refer to earlier points in the conversation when relevant.\n")
	if language != "" {
		fmt.Fprintf(&sb, "Respond in %s.\n", language)
	}
	if p.searchEnabled {
		sb.WriteString("If answering well requires current information from the internet, ")
		sb.WriteString("reply with exactly LOOKUP: followed by a search query, and nothing else.\n")
	}
	return sb.String()
}

// turn maps an utterance to a chat message. The persona's own past lines
// come back as assistant turns, everyone else is a named user turn.
func (p *Prompter) turn(u core.Utterance) core.Message {
	if u.Speaker == p.persona.Name {
		return core.Message{Role: core.RoleAssistant, Content: u.Text}
	}
	return core.Message{
		Role:    core.RoleUser,
		Content: fmt.Sprintf("%s: %s", u.Speaker, u.Text),
	}
}

func formatReferences(refs []core.Reference) string {
	var sb strings.Builder
	sb.WriteString("Relevant notes from earlier in this project:\n")
	for _, r := range refs {
		sb.WriteString("- " + r.Text + "\n")
	}
	return sb.String()
}

func formatFindings(findings []core.SearchResult) string {
	var sb strings.Builder
	sb.WriteString("Current information found online:\n")
	for _, f := range findings {
		fmt.Fprintf(&sb, "- %s: %s (%s)\n", f.Title, f.Snippet, f.URL)
	}
	return sb.String()
}

func messagesTokens(messages []core.Message) int {
	var n int
	for _, m := range messages {
		n += countTokens(m.Content)
	}
	return n
}

// trimWindow drops utterances from the front until the rest fits budget.
// The newest utterance is always kept.
func trimWindow(window []core.Utterance, budget int) []core.Utterance {
	if len(window) == 0 {
		return window
	}

	total := 0
	for _, u := range window {
		total += countTokens(u.Text)
	}

	start := 0
	for total > budget && start < len(window)-1 {
		total -= countTokens(window[start].Text)
		start++
	}
	return window[start:]
}
