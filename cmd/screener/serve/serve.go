// Package servecmder provides the serve command for running the screening API server.
package servecmder

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/probitylab/screener/api"
	"github.com/probitylab/screener/pkg/audit"
	auditkafka "github.com/probitylab/screener/pkg/audit/kafka"
	"github.com/probitylab/screener/pkg/config"
	embeddingutils "github.com/probitylab/screener/pkg/embeddings/utils"
	"github.com/probitylab/screener/pkg/logger"
	"github.com/probitylab/screener/pkg/screening"
	"github.com/probitylab/screener/pkg/storage/inmemory"
	"github.com/probitylab/screener/pkg/vector"
	"github.com/probitylab/screener/pkg/vector/flat"
	vectorutils "github.com/probitylab/screener/pkg/vector/utils"
)

type ServeCommander struct {
	listen    string
	configDir string
	debug     bool
	logger    *zap.Logger
}

const serveLongDesc string = `Run the screening API server.

The server loads the project corpus, accepts student submissions, and
exposes the supervisor review queue.

Examples:
  screener serve
  screener serve --listen :9090
  SCREENER_EMBEDDING_PROVIDER=ollama screener serve`

const serveShortDesc string = "Run the screening API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, err = cmd.Flags().GetString("config-dir")
			if err != nil {
				return fmt.Errorf("could not get config-dir flag: %v", err)
			}
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address for the API server to listen on")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	cfg := config.FromViper(v)

	if c.listen != "" {
		cfg.API.Listen = c.listen
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		APIKey:       os.Getenv("OPENAI_API_KEY"),
		Dimensions:   cfg.Embedding.Dimensions,
		MaxRetries:   cfg.Embedding.MaxRetries,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	index, err := c.createIndex(cfg)
	if err != nil {
		return err
	}
	defer index.Close()

	store := inmemory.NewDriver()
	defer store.Close()

	sink, err := c.createSink(cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	engine := cfg.Engine()
	if err := engine.Validate(); err != nil {
		return fmt.Errorf("decision config: %w", err)
	}

	service := screening.NewService(screening.Deps{
		Embedder: embedder,
		Index:    index,
		Engine:   engine,
		Store:    store,
		Sink:     sink,
		Logger:   c.logger,
	})

	apiServer := api.NewServer(api.Config{ListenAddr: cfg.API.Listen}, service, c.logger)

	c.logger.Info("starting api server",
		zap.String("api_addr", cfg.API.Listen),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("vector_provider", cfg.VectorStore.Provider),
		zap.Int("corpus_size", index.Size()),
	)

	errChan := make(chan error, 1)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}

// createIndex builds the corpus index. The flat provider tries to load a
// previously seeded snapshot first; a missing snapshot starts empty, a
// corrupt one is reported and the server starts with an empty corpus
// rather than refusing to boot.
func (c *ServeCommander) createIndex(cfg *config.Config) (vector.Index, error) {
	if cfg.VectorStore.Provider == "flat" || cfg.VectorStore.Provider == "" {
		cfger, err := config.NewConfiger(c.configDir)
		if err != nil {
			return nil, fmt.Errorf("resolving data dir: %w", err)
		}
		dataDir := cfger.DataDir(cfg)

		index, err := flat.Load(dataDir, c.logger)
		if err == nil {
			c.logger.Info("loaded corpus snapshot",
				zap.String("data_dir", dataDir),
				zap.Int("projects", index.Size()),
			)
			return index, nil
		}
		if errors.Is(err, vector.ErrCorruptIndex) {
			c.logger.Warn("corpus snapshot is corrupt, starting empty",
				zap.String("data_dir", dataDir),
				zap.Error(err),
			)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading corpus snapshot: %w", err)
		}
	}

	index, err := vectorutils.NewIndex(&vectorutils.NewIndexOpts{
		Provider:   cfg.VectorStore.Provider,
		Dimensions: cfg.Embedding.Dimensions,
		DBPath:     cfg.VectorStore.SQLitePath,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector index: %w", err)
	}

	return index, nil
}

func (c *ServeCommander) createSink(cfg *config.Config) (audit.Sink, error) {
	if len(cfg.Audit.Brokers) > 0 {
		sink, err := auditkafka.NewSink(auditkafka.Config{
			Brokers: cfg.Audit.Brokers,
			Topic:   cfg.Audit.Topic,
		}, c.logger)
		if err != nil {
			return nil, fmt.Errorf("creating kafka sink: %w", err)
		}
		c.logger.Info("publishing decisions to kafka",
			zap.Strings("brokers", cfg.Audit.Brokers),
			zap.String("topic", cfg.Audit.Topic),
		)
		return sink, nil
	}

	return audit.NewLogSink(c.logger), nil
}
