// Command triage classifies issue reports with a trained model bundle.
//
// Issues arrive as NDJSON on stdin ({"title":..., "body":..., "repo":...},
// one per line), or as a single issue via -title/-body/-repo flags.
// Predictions leave as NDJSON on stdout; logs go to stderr.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/crimson-sun/triage/internal/config"
	"github.com/crimson-sun/triage/internal/engine"
	"github.com/crimson-sun/triage/internal/engine/embedder"
	"github.com/crimson-sun/triage/internal/logging"
	"github.com/crimson-sun/triage/internal/model"
	"github.com/crimson-sun/triage/internal/output"
	"github.com/crimson-sun/triage/internal/output/stdout"
	"github.com/crimson-sun/triage/internal/store"
)

// batchSize bounds how many stdin issues go through one vectorized pass.
const batchSize = 64

func main() {
	title := flag.String("title", "", "issue title (single-issue mode)")
	body := flag.String("body", "", "issue body (single-issue mode)")
	repo := flag.String("repo", "", "originating repository (single-issue mode)")
	flag.Parse()

	cfg := config.Load()
	logging.Init(logging.ParseLevel(cfg.Log.Level))

	if cfg.Engine.ModelDir == "" {
		slog.Error("TRIAGE_MODEL_DIR is required")
		os.Exit(2)
	}

	art, err := store.Load(cfg.Engine.ModelDir)
	if err != nil {
		slog.Error("failed to load model artifact", "dir", cfg.Engine.ModelDir, "err", err)
		os.Exit(1)
	}
	slog.Info("model artifact loaded",
		"id", art.Manifest.ID,
		"labels", len(art.Manifest.Labels),
		"feature_dim", art.Manifest.Layout.Dim())

	emb, err := embedder.New(art.EncoderModelPath(), art.EncoderVocabPath(), art.EncoderLibPath())
	if err != nil {
		slog.Error("failed to create embedder", "err", err)
		os.Exit(1)
	}

	eng, err := engine.New(art, emb, engine.Options{
		SecondaryThreshold: &cfg.Engine.SecondaryThreshold,
		MaxSecondary:       &cfg.Engine.MaxSecondary,
		BandHigh:           &cfg.Engine.BandHigh,
		BandLow:            &cfg.Engine.BandLow,
	})
	if err != nil {
		slog.Error("failed to build engine", "err", err)
		os.Exit(1)
	}
	defer eng.Close()

	out := stdout.New(cfg.Output.Pretty)
	defer out.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *title != "" || *body != "" {
		issue := model.Issue{Title: *title, Body: *body, Repo: *repo}
		pred, err := eng.Predict(issue)
		if err != nil {
			slog.Error("prediction failed", "err", err)
			os.Exit(1)
		}
		if err := out.Write(ctx, output.Result{Issue: issue, Prediction: &pred}); err != nil {
			slog.Error("write failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, eng, out); err != nil && err != context.Canceled {
		slog.Error("triage failed", "err", err)
		os.Exit(1)
	}
}

// run streams NDJSON issues from stdin through the engine in batches.
func run(ctx context.Context, eng *engine.Engine, out output.Output) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	batch := make([]model.Issue, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		results, err := eng.PredictBatch(ctx, batch)
		if err != nil {
			return err
		}
		for i, res := range results {
			rec := output.Result{Issue: batch[i]}
			if res.Err != nil {
				rec.Err = res.Err.Error()
			} else {
				pred := res.Prediction
				rec.Prediction = &pred
			}
			if err := out.Write(ctx, rec); err != nil {
				return err
			}
		}
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var issue model.Issue
		if err := json.Unmarshal(line, &issue); err != nil {
			slog.Warn("skipping unparseable line", "err", err)
			continue
		}
		batch = append(batch, issue)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return flush()
}
