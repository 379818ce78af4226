package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/config"
	dbRedis "github.com/kailas-cloud/croptalk/internal/db/redis"
	"github.com/kailas-cloud/croptalk/internal/domain"
	logpkg "github.com/kailas-cloud/croptalk/internal/logger"
	"github.com/kailas-cloud/croptalk/internal/lookup"
	"github.com/kailas-cloud/croptalk/internal/metrics"
	"github.com/kailas-cloud/croptalk/internal/repository/embcache"
	"github.com/kailas-cloud/croptalk/internal/repository/passage"
	searchrepo "github.com/kailas-cloud/croptalk/internal/repository/search"
	"github.com/kailas-cloud/croptalk/internal/retry"
	openaiTransport "github.com/kailas-cloud/croptalk/internal/transport/openai"
	s3Transport "github.com/kailas-cloud/croptalk/internal/transport/s3"
	embeddinguc "github.com/kailas-cloud/croptalk/internal/usecase/embedding"
	retrievaluc "github.com/kailas-cloud/croptalk/internal/usecase/retrieval"
	"github.com/kailas-cloud/croptalk/internal/version"
)

// app is the composition root shared by the commands.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
	store  *dbRedis.Store
}

// loadConfig reads --config when given, config/<env>.yaml otherwise.
func loadConfig(opts *rootOptions) (string, config.Config, error) {
	env := opts.env
	if env == "" {
		env = config.GetEnv()
	}
	var (
		cfg config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return "", config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return env, cfg, nil
}

// newApp loads configuration, builds the logger and connects to the database.
func newApp(ctx context.Context, opts *rootOptions, command string) (*app, error) {
	env, cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logger = logger.With(zap.String("command", command))

	logger.Info("Starting croptalk",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("index", cfg.Retrieval.IndexName),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("create database store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()
	metrics.RegisterChatMetrics()

	return &app{env: env, cfg: cfg, logger: logger, store: store}, nil
}

func (a *app) close() {
	a.store.Close()
	_ = a.logger.Sync()
}

func (a *app) baseEmbedder() *openaiTransport.Embedder {
	ec := a.cfg.Embedding
	return openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Logger:     a.logger,
	})
}

// buildEmbedder assembles the decorator chain: OpenAI -> cache -> retry -> instruction.
func (a *app) buildEmbedder(base domain.Embedder, instruction string, policy retry.Policy) domain.Embedder {
	ec := a.cfg.Embedding

	embedder := base
	if ec.Cache.Enabled {
		embedder = embcache.New(base, a.store, embcache.Options{
			Prefix:  ec.Cache.KeyPrefix,
			Model:   ec.Model,
			TTL:     time.Duration(ec.Cache.TTLSec) * time.Second,
			Lookups: metrics.EmbeddingCacheTotal,
			Logger:  a.logger,
		})
	}

	embedder = embeddinguc.NewRetrying(embedder, ec.Provider, ec.Model, policy, a.logger)

	// Outermost, so the cache key includes the instruction.
	return domain.WithInstruction(embedder, instruction)
}

// documentEmbedder embeds passage content at ingestion time.
func (a *app) documentEmbedder() domain.Embedder {
	return a.buildEmbedder(a.baseEmbedder(), a.cfg.Embedding.DocumentInstruction, a.cfg.Retry.Policy())
}

func (a *app) passages() *passage.Repo {
	rc := a.cfg.Retrieval
	return passage.New(a.store, rc.IndexName, rc.KeyPrefix, a.cfg.Embedding.Dimensions).
		WithHNSW(passage.HNSWConfig{M: rc.HNSWM, EFConstruct: rc.HNSWEFConstruct})
}

// retrieval builds the retrieval service. The query embedder is returned
// undecorated too so health checks can reach the provider.
func (a *app) retrieval(ctx context.Context) (*retrievaluc.Service, *openaiTransport.Embedder, error) {
	rc := a.cfg.Retrieval

	dir, err := a.lookup()
	if err != nil {
		return nil, nil, err
	}
	builder, err := retrievaluc.NewFilterBuilder(dir, retrievaluc.Wildcards{
		State:     rc.Wildcards.State,
		County:    rc.Wildcards.County,
		Commodity: rc.Wildcards.Commodity,
	}, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("filter builder: %w", err)
	}

	sc := a.cfg.Storage.S3
	fetcher, err := s3Transport.New(ctx, &s3Transport.Config{
		Bucket:          sc.Bucket,
		Region:          sc.Region,
		Endpoint:        sc.Endpoint,
		AccessKeyID:     sc.AccessKeyID,
		SecretAccessKey: sc.SecretAccessKey,
		UsePathStyle:    sc.UsePathStyle,
		MaxObjectSize:   int64(sc.MaxObjectSizeMB) << 20,
	}, a.cfg.Retry.Policy(), a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("s3 fetcher: %w", err)
	}

	formatter := retrievaluc.NewFormatter(fetcher, rc.URLBase, rc.FullTextCategory)
	repo := searchrepo.New(a.store, rc.IndexName, rc.KeyPrefix)

	// The service retries the query embedding itself; a single attempt here
	// keeps the two policies from multiplying.
	base := a.baseEmbedder()
	query := a.buildEmbedder(base, a.cfg.Embedding.QueryInstruction, retry.Policy{MaxAttempts: 1})

	svc := retrievaluc.New(builder, repo, query, formatter, a.cfg.Retry.Policy(), a.logger)
	a.logger.Info("Retrieval service ready",
		zap.String("provider", a.cfg.Embedding.Provider),
		zap.String("model", a.cfg.Embedding.Model),
		zap.Int("dimensions", a.cfg.Embedding.Dimensions),
		zap.Int("top_k", rc.TopK),
	)
	return svc, base, nil
}

func (a *app) lookup() (*lookup.Directory, error) {
	if p := a.cfg.Lookups.Path; p != "" {
		dir, err := lookup.Load(p)
		if err != nil {
			return nil, fmt.Errorf("load lookups %s: %w", p, err)
		}
		return dir, nil
	}
	dir, err := lookup.Default()
	if err != nil {
		return nil, fmt.Errorf("load bundled lookups: %w", err)
	}
	return dir, nil
}

func (a *app) chatClient() *openaiTransport.ChatClient {
	cc := a.cfg.Chat
	return openaiTransport.NewChatClient(&openaiTransport.ChatConfig{
		APIKey:      cc.APIKey,
		BaseURL:     cc.BaseURL,
		Model:       cc.Model,
		Temperature: cc.Temperature,
		Logger:      a.logger,
	})
}
