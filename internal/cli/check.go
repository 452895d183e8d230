package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/product-extractor/internal/ocr"
	"github.com/joseph-ayodele/product-extractor/internal/repository"
)

type checkOptions struct {
	dataDir   string
	model     string
	skipDB    bool
	skipTools bool
	skipModel bool
}

type checkResult struct {
	name   string
	err    error
	detail string
}

func newCheckCmd(a *app) *cobra.Command {
	var co checkOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the environment can run the pipeline",
		Long: `Creates the working directories, then checks database connectivity, the
pdftoppm/tesseract toolchain and that the entity model loads. Exits 1 if any
check fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.check(cmd, co)
		},
	}
	f := cmd.Flags()
	f.StringVar(&co.dataDir, "data-dir", "data", "working directory holding raw/ and processed/")
	f.StringVar(&co.model, "model", "", "entity model reference to load")
	f.BoolVar(&co.skipDB, "skip-db", false, "skip the database check")
	f.BoolVar(&co.skipTools, "skip-tools", false, "skip the pdftoppm/tesseract check")
	f.BoolVar(&co.skipModel, "skip-model", false, "skip the model check")
	return cmd
}

func (a *app) check(cmd *cobra.Command, co checkOptions) error {
	ctx := cmd.Context()
	cfg := a.env.Config
	logger := a.env.Logger

	var results []checkResult

	dirs := checkResult{name: "Directories"}
	for _, sub := range []string{"raw", "processed"} {
		if err := os.MkdirAll(filepath.Join(co.dataDir, sub), 0o755); err != nil {
			dirs.err = err
			break
		}
	}
	if dirs.err == nil {
		dirs.detail = filepath.Join(co.dataDir, "{raw,processed}")
	}
	results = append(results, dirs)

	if !co.skipDB {
		db := checkResult{name: "Database"}
		store, err := repository.Open(ctx, cfg.Database, logger)
		if err != nil {
			db.err = err
		} else {
			if err := store.HealthCheck(ctx, 2*time.Second); err != nil {
				db.err = err
			} else if counts, err := store.Counts(ctx); err != nil {
				db.err = err
			} else {
				db.detail = fmt.Sprintf("%s, %d documents, %d products", cfg.Database.Driver, counts.Documents, counts.Products)
			}
			store.Close()
		}
		results = append(results, db)
	}

	if !co.skipTools {
		results = append(results, checkResult{name: "PDF tools", err: ocr.CheckTools(ocr.ConfigFrom(cfg.OCR))})
	}

	if !co.skipModel {
		m := checkResult{name: "Model", err: newRecognizer(a.env).CheckModel(co.model)}
		if m.err == nil {
			m.detail = co.model
			if m.detail == "" {
				m.detail = "built-in rules"
			}
		}
		results = append(results, m)
	}

	out := cmd.OutOrStdout()
	passed := 0
	for _, r := range results {
		switch {
		case r.err != nil:
			fmt.Fprintf(out, "%s: FAIL (%v)\n", r.name, r.err)
		case r.detail != "":
			passed++
			fmt.Fprintf(out, "%s: PASS (%s)\n", r.name, r.detail)
		default:
			passed++
			fmt.Fprintf(out, "%s: PASS\n", r.name)
		}
	}
	fmt.Fprintf(out, "SUMMARY: %d/%d checks passed\n", passed, len(results))

	if passed != len(results) {
		return exitWith(ExitCheckFailed, fmt.Errorf("%d of %d checks failed", len(results)-passed, len(results)))
	}
	return nil
}
