package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/docent/internal/agent"
	"github.com/soyeahso/docent/internal/config"
	"github.com/soyeahso/docent/internal/doccache"
	"github.com/soyeahso/docent/internal/embed"
	"github.com/soyeahso/docent/internal/hooks"
	"github.com/soyeahso/docent/internal/httpx"
	"github.com/soyeahso/docent/internal/llm"
	"github.com/soyeahso/docent/internal/logging"
	"github.com/soyeahso/docent/internal/rerank"
	"github.com/soyeahso/docent/internal/search"
	"github.com/soyeahso/docent/internal/tools"
	"github.com/soyeahso/docent/internal/vectorindex"
)

// app holds every long-lived component built from configuration.
type app struct {
	cfg    config.Config
	log    *logging.Logger
	runner *agent.Runner
	docs   *doccache.Cache
	hooks  *hooks.Manager
	index  vectorindex.Index
}

// buildApp wires the agent, its tools and their backends.
func buildApp(ctx context.Context, cfg config.Config, p config.Paths, log *logging.Logger) (*app, error) {
	serviceHTTP := httpx.NewClient(httpx.Options{Timeout: 30 * time.Second, RetryMax: 2, Log: log})

	decision, err := modelClient(cfg.LLM, log.Sub("llm"))
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	textModel, err := modelClient(cfg.TextAgent, log.Sub("text-agent"))
	if err != nil {
		return nil, fmt.Errorf("textAgent: %w", err)
	}

	searchHTTP := httpx.NewClient(httpx.Options{
		Timeout:  time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
		RetryMax: 1,
		Log:      log,
	})
	searcher, err := search.New(ctx, cfg.Search, searchHTTP)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	embedder, err := embed.New(cfg.Embedding, serviceHTTP)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	reranker, err := rerank.New(cfg.Rerank, serviceHTTP)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	indexCfg := cfg.Index
	if indexCfg.Backend == "sqlite" && indexCfg.SQLitePath == "" {
		if err := p.EnsureDirs(); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		indexCfg.SQLitePath = p.IndexPath()
	}
	index, err := vectorindex.New(ctx, indexCfg, vectorindex.Options{HTTPClient: serviceHTTP, Log: log})
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}

	registry, err := tools.NewRegistry(tools.Deps{
		Search:          searcher,
		MaxResults:      cfg.Search.MaxResults,
		Index:           index,
		IndexName:       cfg.Index.Name,
		Embedder:        embedder,
		Reranker:        reranker,
		Splitter:        tools.NewSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap),
		TopK:            cfg.Rerank.TopK,
		TopN:            cfg.Rerank.TopN,
		TextModel:       textModel,
		TextMaxTokens:   cfg.TextAgent.MaxTokens,
		TextTemperature: cfg.TextAgent.Temperature,
	}, log)
	if err != nil {
		index.Close()
		return nil, err
	}

	hm := hooks.NewManager(log)
	hooks.RegisterConfigured(hm, cfg.Hooks)

	runner := agent.NewRunner(agent.RunnerConfig{
		MaxRounds:       cfg.Agent.MaxRounds,
		ToolConcurrency: cfg.Agent.ToolConcurrency,
		MaxTokens:       cfg.LLM.MaxTokens,
		Temperature:     cfg.LLM.Temperature,
	}, decision, registry, hm, log)

	log.Info().
		Str("llm", decision.Name()).
		Str("textAgent", textModel.Name()).
		Str("search", searcher.Name()).
		Str("embedding", embedder.Name()).
		Str("index", indexCfg.Backend).
		Str("rerank", reranker.Name()).
		Strs("tools", registry.Names()).
		Msg("agent ready")

	return &app{
		cfg:    cfg,
		log:    log,
		runner: runner,
		docs:   doccache.New(cfg.Cache.Capacity, time.Duration(cfg.Cache.TTLSeconds)*time.Second),
		hooks:  hm,
		index:  index,
	}, nil
}

// modelClient builds the failover client of one model section, each with its
// own retrying HTTP client.
func modelClient(m config.ModelConfig, log *logging.Logger) (llm.Client, error) {
	httpClient := httpx.NewClient(httpx.Options{
		Timeout:  time.Duration(m.TimeoutSeconds) * time.Second,
		RetryMax: m.Retries,
		Log:      log,
	})
	registry, order, err := llm.NewRegistryFromConfig(m, httpClient, log)
	if err != nil {
		return nil, err
	}
	return agent.NewFailoverClient(registry, order, log), nil
}

// Close waits for in-flight hooks and releases the index.
func (a *app) Close() error {
	a.hooks.Wait()
	return a.index.Close()
}

// ask runs one question over a document outside of the HTTP server. cb may
// be nil.
func (a *app) ask(ctx context.Context, userID, document, question string, cb agent.EventFunc) (*agent.RunResult, error) {
	return a.runner.RunStream(ctx, agent.Request{UserInput: question, DocumentText: document, UserID: userID}, cb)
}

// loadConfig reads and validates the config file named by the global flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	return cfg, nil
}

// openLogger replaces the bootstrap logger with one configured from cfg.
func openLogger(cfg config.Config) (func(), error) {
	l, closer, err := logging.Open(logging.Options{
		Level: cfg.Logging.Level,
		Style: cfg.Logging.ConsoleStyle,
		File:  cfg.Logging.File,
	})
	if err != nil {
		return nil, err
	}
	log = l
	return func() { closer.Close() }, nil
}

var errNoDocument = errors.New("document is empty")
