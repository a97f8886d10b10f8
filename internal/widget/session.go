package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"sitechat-backend/internal/faq"
	"sitechat-backend/internal/models"
)

const (
	Greeting        = "Hi! I’m your virtual assistant. How can I help you today?"
	RephraseMessage = "I’m not sure yet. Could you rephrase?"
	SnagMessage     = "Hmm, I hit a snag talking to the brain. Please try again."
)

var ErrEmptyMessage = errors.New("empty message")

type Source string

const (
	SourceFAQ   Source = "faq"
	SourceModel Source = "model"
	SourceError Source = "error"
)

// Answer is what the widget shows for one submission.
type Answer struct {
	Text   string
	Source Source
	Cause  error // set when Source is SourceError
}

type asker interface {
	Ask(ctx context.Context, history []models.ChatMessage, message string) (string, error)
}

// Session is one open widget. History lives only in memory and grows by
// appending; it is never persisted.
type Session struct {
	relay asker
	kb    atomic.Pointer[faq.KnowledgeBase]

	// mu serialises Submit so at most one relay call is outstanding.
	mu      sync.Mutex
	history []models.ChatMessage

	// OnTyping, when set, is called with true before waiting on the relay
	// and false once the wait ends either way.
	OnTyping func(bool)
}

func NewSession(relay asker) *Session {
	s := &Session{relay: relay}
	s.kb.Store(faq.Empty())
	return s
}

// LoadKnowledgeBase fetches the FAQ in the background. Until it completes,
// and forever if it fails, every FAQ lookup misses. The returned channel is
// closed when the attempt is over.
func (s *Session) LoadKnowledgeBase(ctx context.Context, c *Client) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		kb, err := c.FetchFAQ(ctx)
		if err != nil {
			return
		}
		s.kb.Store(kb)
	}()
	return done
}

// SetKnowledgeBase replaces the FAQ copy, e.g. when loaded from disk.
func (s *Session) SetKnowledgeBase(kb *faq.KnowledgeBase) {
	if kb == nil {
		kb = faq.Empty()
	}
	s.kb.Store(kb)
}

// History returns a copy of the conversation so far.
func (s *Session) History() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.history...)
}

// Submit handles one user message. The user turn is recorded first; the FAQ
// is consulted before the relay; the assistant turn is recorded only when an
// answer was actually delivered.
func (s *Session) Submit(ctx context.Context, text string) (Answer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Answer{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prior := append([]models.ChatMessage(nil), s.history...)
	s.history = append(s.history, models.ChatMessage{Role: models.RoleUser, Content: text})

	if res := s.kb.Load().Match(text); res.Matched() && res.Answer != "" {
		s.history = append(s.history, models.ChatMessage{Role: models.RoleAssistant, Content: res.Answer})
		return Answer{Text: res.Answer, Source: SourceFAQ}, nil
	}

	s.typing(true)
	reply, err := s.relay.Ask(ctx, prior, text)
	s.typing(false)
	if err != nil {
		return Answer{Text: SnagMessage, Source: SourceError, Cause: err}, nil
	}

	if reply == "" {
		reply = RephraseMessage
	}
	s.history = append(s.history, models.ChatMessage{Role: models.RoleAssistant, Content: reply})
	return Answer{Text: reply, Source: SourceModel}, nil
}

func (s *Session) typing(on bool) {
	if s.OnTyping != nil {
		s.OnTyping(on)
	}
}
