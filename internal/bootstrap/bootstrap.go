// Package bootstrap wires the configured adapters into a ready
// conversation service. Both binaries use it.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/talentops/recruiter-agent/internal/adapters/audit"
	"github.com/talentops/recruiter-agent/internal/adapters/backend"
	"github.com/talentops/recruiter-agent/internal/adapters/llm"
	firestorestore "github.com/talentops/recruiter-agent/internal/adapters/storage/firestore"
	memstore "github.com/talentops/recruiter-agent/internal/adapters/storage/memory"
	"github.com/talentops/recruiter-agent/internal/app/agentloop"
	"github.com/talentops/recruiter-agent/internal/app/conversation"
	"github.com/talentops/recruiter-agent/internal/app/simulator"
	"github.com/talentops/recruiter-agent/internal/config"
	"github.com/talentops/recruiter-agent/internal/domain"
	"github.com/talentops/recruiter-agent/internal/observability"
	"github.com/talentops/recruiter-agent/internal/registry"
)

type App struct {
	Config  *config.Config
	Service *conversation.Service
	Store   *memstore.SessionStore
}

func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
}

// Build assembles the service from the config: model provider, function
// registry, backend (simulated or passthrough), session store and
// archive.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	log := observability.Logger()

	chatModel, textModel, err := buildModels(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reg, err := registry.NewATS()
	if err != nil {
		return nil, fmt.Errorf("build function registry: %w", err)
	}

	be, err := buildBackend(cfg, reg, textModel)
	if err != nil {
		return nil, err
	}

	store := memstore.NewSessionStore(
		memstore.WithIdleTTL(cfg.SessionIdleTTL),
		memstore.WithCapacity(cfg.SessionCapacity),
	)

	loop := agentloop.New(chatModel, be, store, reg, agentloop.Config{
		MaxRounds:   cfg.MaxRounds,
		CallTimeout: cfg.CallTimeout,
	})

	archive, err := buildArchive(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	log.Info("service assembled",
		"provider", string(cfg.Provider),
		"mock_backend", cfg.MockBackend,
		"functions", len(reg.Definitions()),
	)

	return &App{
		Config:  cfg,
		Service: conversation.NewService(loop, store, archive),
		Store:   store,
	}, nil
}

func buildModels(ctx context.Context, cfg *config.Config) (domain.ChatModel, domain.TextModel, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		chat, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			Project:  cfg.GCPProjectID,
			Location: cfg.GCPLocation,
			Model:    cfg.ChatModel,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init gemini client: %w", err)
		}
		if cfg.SimModel == cfg.ChatModel {
			return chat, chat, nil
		}
		sim, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			Project:  cfg.GCPProjectID,
			Location: cfg.GCPLocation,
			Model:    cfg.SimModel,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init gemini sim client: %w", err)
		}
		return chat, sim, nil

	case config.ProviderOpenAI:
		chat := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ChatModel)
		if cfg.SimModel == cfg.ChatModel {
			return chat, chat, nil
		}
		return chat, llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.SimModel), nil

	case config.ProviderMock:
		scripted := llm.NewScripted()
		return scripted, scripted, nil

	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func buildBackend(cfg *config.Config, reg *registry.Registry, textModel domain.TextModel) (domain.Backend, error) {
	if !cfg.MockBackend {
		var opts []backend.GraphQLOption
		if cfg.GraphQLAdminSecret != "" {
			opts = append(opts, backend.WithHeader("x-hasura-admin-secret", cfg.GraphQLAdminSecret))
		}
		return backend.NewGraphQL(cfg.GraphQLEndpoint, reg, opts...), nil
	}

	auditLog, err := buildAudit(cfg)
	if err != nil {
		return nil, err
	}

	var opts []simulator.Option
	if cfg.SimulateDelay {
		opts = append(opts, simulator.WithDelay())
	}
	return simulator.New(textModel, reg, auditLog, opts...), nil
}

func buildAudit(cfg *config.Config) (domain.AuditLog, error) {
	switch cfg.AuditBackend {
	case "", "slog":
		return audit.NewSlogLog(observability.Logger()), nil
	case "sqlite", "postgres":
		log, err := audit.NewGormLog(cfg.AuditBackend, cfg.AuditDSN)
		if err != nil {
			return nil, fmt.Errorf("init audit store: %w", err)
		}
		return log, nil
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.AuditBackend)
	}
}

func buildArchive(ctx context.Context, cfg *config.Config) (domain.TranscriptArchive, error) {
	switch cfg.ArchiveBackend {
	case "", "none":
		return nil, nil
	case "firestore":
		archive, err := firestorestore.NewArchive(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, fmt.Errorf("init firestore archive: %w", err)
		}
		return archive, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.ArchiveBackend)
	}
}
