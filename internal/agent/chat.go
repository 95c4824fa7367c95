// Package agent runs the console tutor conversation on the ADK runtime.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	adksession "google.golang.org/adk/session"
	adktool "google.golang.org/adk/tool"
	"google.golang.org/genai"

	"github.com/mwvaughn/reachy-mini-language-tutor/internal/session"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/utils"
)

const (
	chatAppName = "reachy_language_tutor"
	chatUserID  = "learner"
)

// ChatSession is the in-process stand-in for the realtime voice session: a
// text conversation driven by an ADK agent. Hot swaps rebuild the agent with
// the new instructions; the conversation restarts under the new tutor, which
// matches how the realtime session reseeds on a profile change.
type ChatSession struct {
	llm   model.LLM
	tools []adktool.Tool

	mu        sync.Mutex
	runner    *runner.Runner
	sessionID string
	voice     string
	counter   uint64
}

// NewChatSession creates an idle ChatSession. No agent exists until the
// first Update.
func NewChatSession(llm model.LLM, tools []adktool.Tool) *ChatSession {
	return &ChatSession{
		llm:   llm,
		tools: tools,
	}
}

// Update implements session.Session: it builds a fresh agent seeded with the
// new instructions and commits it only if construction succeeds, so a failed
// swap leaves the running conversation untouched.
func (s *ChatSession) Update(ctx context.Context, cfg session.Config) error {
	if strings.TrimSpace(cfg.Instructions) == "" {
		return fmt.Errorf("instructions must not be empty")
	}

	llmAgent, err := llmagent.New(llmagent.Config{
		Name:        "language_tutor",
		Description: "A friendly language tutor robot with persistent learner memory.",
		Model:       s.llm,
		Instruction: cfg.Instructions,
		Tools:       s.tools,
	})
	if err != nil {
		return fmt.Errorf("failed to create tutor agent: %w", err)
	}

	sessionService := adksession.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        chatAppName,
		Agent:          llmAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return fmt.Errorf("failed to create tutor runner: %w", err)
	}

	sessionID := fmt.Sprintf("tutor-%d", atomic.AddUint64(&s.counter, 1))
	if _, err := sessionService.Create(ctx, &adksession.CreateRequest{
		AppName:   chatAppName,
		UserID:    chatUserID,
		SessionID: sessionID,
	}); err != nil {
		return fmt.Errorf("failed to create tutor session: %w", err)
	}

	s.mu.Lock()
	s.runner = r
	s.sessionID = sessionID
	s.voice = cfg.Voice
	s.mu.Unlock()

	slog.Info("chat session reseeded", "session", sessionID, "voice", cfg.Voice)
	return nil
}

// Voice returns the voice of the current seed, for status display.
func (s *ChatSession) Voice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

// Send runs one conversation turn and returns the tutor's reply.
func (s *ChatSession) Send(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	r := s.runner
	sessionID := s.sessionID
	s.mu.Unlock()

	if r == nil {
		return "", fmt.Errorf("no tutor active, apply a profile first")
	}

	msg := genai.NewContentFromText(text, "user")
	events := r.Run(ctx, chatUserID, sessionID, msg, agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	})

	var last string
	for event, err := range events {
		if err != nil {
			return "", err
		}
		if event == nil || event.Content == nil || event.Author == "user" {
			continue
		}
		text := strings.TrimSpace(utils.ExtractContentText(event.Content))
		if text == "" {
			continue
		}
		last = text
		if event.IsFinalResponse() {
			break
		}
	}
	if last == "" {
		return "", fmt.Errorf("empty tutor response")
	}
	return last, nil
}
