package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cognicore/linkfinder/internal/loader"
	"github.com/cognicore/linkfinder/internal/logging"
	"github.com/cognicore/linkfinder/pkg/linkfinder"
	"github.com/cognicore/linkfinder/pkg/linkfinder/artifact"
	"github.com/cognicore/linkfinder/pkg/linkfinder/artifact/boltstore"
	"github.com/cognicore/linkfinder/pkg/linkfinder/artifact/filestore"
	"github.com/cognicore/linkfinder/pkg/linkfinder/config"
	"github.com/cognicore/linkfinder/pkg/linkfinder/dataset"
	"github.com/cognicore/linkfinder/pkg/linkfinder/store"
	"github.com/cognicore/linkfinder/pkg/linkfinder/store/memstore"
	"github.com/cognicore/linkfinder/pkg/linkfinder/store/sqlite"
)

// env is the resolved configuration shared by every command.
type env struct {
	cfg config.Config
	log *slog.Logger
}

// loadEnv reads the config file and applies command line overrides.
// A dataset or artifact flag replaces the whole section it belongs to.
func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	switch {
	case flags.Changed("sqlite"):
		cfg.Dataset = config.Dataset{SQLite: sqlitePath}
	case flags.Changed("csv"):
		cfg.Dataset = config.Dataset{CSV: csvPath}
	case flags.Changed("jsonl"):
		cfg.Dataset = config.Dataset{JSONL: jsonlPath}
	}
	switch {
	case flags.Changed("bolt"):
		cfg.Artifacts = config.Artifacts{Bolt: boltPath}
	case flags.Changed("artifacts"):
		cfg.Artifacts = config.Artifacts{Dir: artifactsDir}
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logging.New(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	slog.SetDefault(log)
	return &env{cfg: cfg, log: log}, nil
}

// dataset opens the first configured source as a store. File sources are
// loaded into memory.
func (e *env) dataset(ctx context.Context) (store.Store, error) {
	ds := e.cfg.Dataset
	var path string
	switch {
	case ds.SQLite != "":
		return sqlite.OpenSQLite(ctx, ds.SQLite)
	case ds.CSV != "":
		path = ds.CSV
	case ds.JSONL != "":
		path = ds.JSONL
	default:
		return nil, errors.New("no dataset configured")
	}

	records, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	st := memstore.New()
	if _, err := st.AddRecords(ctx, records); err != nil {
		return nil, err
	}
	return st, nil
}

// records returns every record of the configured dataset.
func (e *env) records(ctx context.Context) ([]dataset.Record, error) {
	st, err := e.dataset(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Records(ctx)
}

// artifacts opens the configured artifact store.
func (e *env) artifacts() (artifact.Store, error) {
	if e.cfg.Artifacts.Bolt != "" {
		st, err := boltstore.Open(e.cfg.Artifacts.Bolt)
		if err != nil {
			return nil, fmt.Errorf("open artifacts: %w", err)
		}
		return st, nil
	}
	return filestore.New(e.cfg.Artifacts.Dir), nil
}

// engine builds a resolution engine from the dataset and the latest artifacts.
func (e *env) engine(ctx context.Context) (*linkfinder.Engine, error) {
	records, err := e.records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	st, err := e.artifacts()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	bundle, err := artifact.Load(ctx, st)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return nil, fmt.Errorf("%w: run `linkfinder train` first", err)
		}
		return nil, err
	}

	eng, err := linkfinder.NewFromBundle(dataset.Build(records), bundle)
	if err != nil {
		return nil, err
	}
	e.log.Debug("engine ready", "run_id", eng.RunID(), "records", eng.Records())
	return eng, nil
}
