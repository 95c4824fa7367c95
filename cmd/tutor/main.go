// Package main is the console entry point for the Reachy Mini language
// tutor.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mwvaughn/reachy-mini-language-tutor/internal/agent"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/config"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/memory"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/models"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/profile"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/repository"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/session"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/tool"
	"github.com/mwvaughn/reachy-mini-language-tutor/internal/types"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nshutting down...")
		cancel()
		// The REPL may be blocked on stdin; give it a moment, then exit.
		time.Sleep(500 * time.Millisecond)
		os.Exit(0)
	}()

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required for the console session")
	}

	settings, err := config.OpenSettings(cfg.InstanceDir)
	if err != nil {
		log.Fatalf("failed to open settings: %v", err)
	}

	store := profile.NewStore(cfg.ProfilesDir, cfg.PromptsDir)
	generator := profile.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.GenerationModel)
	cache := profile.NewCache(cfg.CacheDir, generator)

	gateway := openMemory(ctx, cfg)

	llm, err := models.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.ChatModel)
	if err != nil {
		log.Fatalf("failed to create chat model: %v", err)
	}

	var controller *session.Controller
	provider := func() *memory.Gateway { return controller.Gateway() }

	registry := tool.NewRegistry(
		tool.NewRecallTool(provider),
		tool.NewRememberTool(provider),
	)
	agentTools, err := registry.AgentTools()
	if err != nil {
		log.Fatalf("failed to build agent tools: %v", err)
	}
	agentTools = append(agentTools, tool.NewPreloadMemoryTool(provider))

	chat := agent.NewChatSession(llm, agentTools)
	controller = session.NewController(store, cache, gateway, chat, settings, cfg.MemoryLimit)

	// Restore the persisted tutor selection; fall back to the default
	// partner if it no longer resolves.
	status, err := controller.Apply(ctx, settings.Selection())
	if err != nil {
		slog.Warn("failed to restore tutor selection", "error", err.Error())
		if status, err = controller.Apply(ctx, types.Selector{}); err != nil {
			log.Fatalf("failed to start default tutor: %v", err)
		}
	}
	fmt.Println(status)

	repl(ctx, controller, chat, registry, store)
}

// openMemory connects the learner-memory backend when both the database and
// the embedding credential are configured. The tutor runs without memory
// otherwise.
func openMemory(ctx context.Context, cfg config.Config) *memory.Gateway {
	if cfg.DatabaseURL == "" || cfg.GoogleAPIKey == "" {
		slog.Warn("memory disabled", "have_database", cfg.DatabaseURL != "", "have_google_key", cfg.GoogleAPIKey != "")
		return nil
	}

	store, err := repository.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Warn("memory disabled, failed to connect to database", "error", err.Error())
		return nil
	}
	embedder, err := memory.NewEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel)
	if err != nil {
		slog.Warn("memory disabled, failed to create embedder", "error", err.Error())
		return nil
	}

	backend := memory.NewPostgresBackend(store.Memories, embedder, cfg.Threshold)
	slog.Info("learner memory enabled")
	return memory.NewGateway(backend, profile.DefaultPersona, cfg.TopK)
}

func repl(ctx context.Context, controller *session.Controller, chat *agent.ChatSession, registry *tool.Registry, store *profile.Store) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Commands: /tutors /tutor <id> /pair <source> <target> /default /status /recall <query> /remember <category> <fact> /quit")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			reply, err := chat.Send(ctx, line)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Println(reply)
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "/quit", "/exit":
			return
		case "/tutors":
			printTutors(controller, store)
		case "/tutor":
			if len(fields) != 2 {
				fmt.Println("usage: /tutor <id>")
				continue
			}
			printStatus(controller.Apply(ctx, types.Selector{Persona: fields[1]}))
		case "/pair":
			if len(fields) != 3 {
				fmt.Println("usage: /pair <source> <target>")
				continue
			}
			printStatus(controller.Apply(ctx, types.Selector{
				Pair: &types.LanguagePair{Source: fields[1], Target: fields[2]},
			}))
		case "/default":
			printStatus(controller.Apply(ctx, types.Selector{}))
		case "/status":
			printState(controller, chat)
		case "/recall":
			if len(fields) < 2 {
				fmt.Println("usage: /recall <query>")
				continue
			}
			printResult(registry.Invoke(ctx, "recall", map[string]any{
				"query": strings.Join(fields[1:], " "),
			}))
		case "/remember":
			if len(fields) < 3 {
				fmt.Println("usage: /remember <category> <fact>")
				continue
			}
			printResult(registry.Invoke(ctx, "remember", map[string]any{
				"category": fields[1],
				"fact":     strings.Join(fields[2:], " "),
			}))
		default:
			fmt.Printf("unknown command: %s\n", fields[0])
		}
	}
}

func printTutors(controller *session.Controller, store *profile.Store) {
	for _, id := range store.List() {
		meta := store.Metadata(id)
		fmt.Printf("  %-16s %s %s\n", id, meta.Name, meta.Flag)
	}
	fmt.Println("Languages:", strings.Join(profile.SupportedLanguages(), ", "))
	if state := controller.Current(); state != nil {
		fmt.Println("Active:", state.ProfileName())
	}
}

func printStatus(status string, err error) {
	if err != nil {
		fmt.Printf("✗ %s\n", status)
		return
	}
	fmt.Printf("✓ %s\n", status)
}

func printState(controller *session.Controller, chat *agent.ChatSession) {
	state := controller.Current()
	if state == nil {
		fmt.Println("no tutor active")
		return
	}
	fmt.Printf("profile=%s generation=%d owner=%s voice=%s\n",
		state.ProfileName(), state.Generation, state.Owner(), chat.Voice())
}

func printResult(result map[string]any) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
