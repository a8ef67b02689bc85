// Package seedcmder provides the seed command that bootstraps the project
// corpus from a historical CSV.
package seedcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/probitylab/screener/pkg/config"
	"github.com/probitylab/screener/pkg/dataset"
	"github.com/probitylab/screener/pkg/embeddings"
	embeddingutils "github.com/probitylab/screener/pkg/embeddings/utils"
	"github.com/probitylab/screener/pkg/logger"
	"github.com/probitylab/screener/pkg/vector"
	"github.com/probitylab/screener/pkg/vector/flat"
	vectorutils "github.com/probitylab/screener/pkg/vector/utils"
)

const seedLongDesc string = `Seed the project corpus from a historical CSV.

The CSV needs a header row naming at least id, title, year, decision and
description. Each project is embedded with the configured provider and
written to the configured corpus index so that future serve runs start
with a populated corpus.

Examples:
  screener seed projects.csv
  screener seed projects.csv --data-dir ./corpus
  SCREENER_EMBEDDING_PROVIDER=ollama screener seed projects.csv`

const seedShortDesc string = "Seed the project corpus from CSV"

// embedBatchSize bounds how many projects go into a single Add call.
const embedBatchSize = 64

type seedCommander struct {
	dataDir   string
	configDir string
	debug     bool
	logger    *zap.Logger
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed <csv-file>",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, err = cmd.Flags().GetString("config-dir")
			if err != nil {
				return fmt.Errorf("could not get config-dir flag: %v", err)
			}
			return cmder.run(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVar(&cmder.dataDir, "data-dir", "", "Directory to write the corpus snapshot into")

	return cmd
}

func (c *seedCommander) run(ctx context.Context, csvPath string) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	cfg := config.FromViper(v)
	if c.dataDir != "" {
		cfg.VectorStore.DataDir = c.dataDir
	}

	entries, err := dataset.Load(csvPath)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("dataset %s contains no projects", csvPath)
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
		MaxRetries:   cfg.Embedding.MaxRetries,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	index, err := vectorutils.NewIndex(&vectorutils.NewIndexOpts{
		Provider:   cfg.VectorStore.Provider,
		Dimensions: cfg.Embedding.Dimensions,
		DBPath:     cfg.VectorStore.SQLitePath,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector index: %w", err)
	}
	defer index.Close()

	if err := c.embedAll(ctx, embedder, index, entries); err != nil {
		return err
	}

	if fi, ok := index.(*flat.Index); ok {
		cfger, err := config.NewConfiger(c.configDir)
		if err != nil {
			return fmt.Errorf("resolving data dir: %w", err)
		}
		dataDir := cfger.DataDir(cfg)
		if err := fi.Save(dataDir); err != nil {
			return fmt.Errorf("saving corpus snapshot: %w", err)
		}
		fmt.Printf("Seeded %d projects into %s\n", index.Size(), dataDir)
		return nil
	}

	fmt.Printf("Seeded %d projects into %s\n", index.Size(), cfg.VectorStore.SQLitePath)
	return nil
}

// embedAll embeds every entry and adds them to the index in stable CSV
// order, batching to keep memory bounded on large datasets.
func (c *seedCommander) embedAll(ctx context.Context, embedder embeddings.Embedder, index vector.Index, entries []dataset.Entry) error {
	for start := 0; start < len(entries); start += embedBatchSize {
		end := min(start+embedBatchSize, len(entries))
		batch := entries[start:end]

		vectors := make([][]float32, 0, len(batch))
		records := make([]vector.ProjectRecord, 0, len(batch))
		for _, e := range batch {
			text := embeddings.PrepareText(e.Title, e.Description)
			emb, err := embedder.Embed(ctx, text)
			if err != nil {
				return fmt.Errorf("embedding project %d: %w", e.ID, err)
			}
			vectors = append(vectors, emb)
			records = append(records, vector.ProjectRecord{
				ID:           e.ID,
				Title:        e.Title,
				Year:         e.Year,
				Decision:     e.Decision,
				OriginalText: text,
			})
		}

		if err := index.Add(ctx, vectors, records); err != nil {
			return fmt.Errorf("indexing projects: %w", err)
		}

		c.logger.Debug("indexed batch",
			zap.Int("from", batch[0].ID),
			zap.Int("count", len(batch)),
		)
	}
	return nil
}
