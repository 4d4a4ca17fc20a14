package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/agentic-research/proflow/api"
	"github.com/agentic-research/proflow/internal/ingest"
	"github.com/agentic-research/proflow/internal/pipeline"
	"github.com/agentic-research/proflow/internal/runner"
	"github.com/agentic-research/proflow/internal/steps"
)

// sources names the files a session reads. Empty fields are skipped.
type sources struct {
	Definition     string
	State          string
	Config         string
	Parameters     string
	External       string
	ExternalSelect string // JSONPath applied to External
	ExternalDB     string // SQLite results table, one row per record
	Debug          bool
}

// session is a compiled pipeline bound to a runner.
type session struct {
	spec      *api.PipelineSpec
	processes []api.Process
	runner    *runner.Runner
	initial   any
}

func hostFS() billy.Filesystem { return osfs.New("/") }

// hostPath makes path absolute for hostFS.
func hostPath(path string) (string, error) {
	return filepath.Abs(path)
}

func loadDoc(fsys billy.Filesystem, path string) (any, error) {
	if path == "" {
		return nil, nil
	}
	abs, err := hostPath(path)
	if err != nil {
		return nil, err
	}
	return ingest.LoadDocument(fsys, abs)
}

func openSession(fsys billy.Filesystem, src sources) (*session, error) {
	defPath, err := hostPath(src.Definition)
	if err != nil {
		return nil, err
	}
	spec, err := pipeline.Load(fsys, defPath)
	if err != nil {
		return nil, err
	}
	procs, err := pipeline.Compile(spec, steps.Builtins())
	if err != nil {
		return nil, err
	}
	opts, err := pipeline.Options(spec)
	if err != nil {
		return nil, err
	}

	docs := make(map[string]any, 4)
	for name, path := range map[string]string{
		api.SourceState:      src.State,
		api.SourceConfig:     src.Config,
		api.SourceParameters: src.Parameters,
		api.SourceExternal:   src.External,
	} {
		doc, err := loadDoc(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		docs[name] = doc
	}

	external := docs[api.SourceExternal]
	if src.ExternalSelect != "" {
		rows, err := ingest.SelectRows(external, src.ExternalSelect)
		if err != nil {
			return nil, fmt.Errorf("select external rows: %w", err)
		}
		external = rows
	}
	if src.ExternalDB != "" {
		rows, err := ingest.LoadSQLiteRows(src.ExternalDB)
		if err != nil {
			return nil, fmt.Errorf("load external rows: %w", err)
		}
		external = rows
	}

	opts = append(opts,
		runner.WithConfig(docs[api.SourceConfig]),
		runner.WithParameters(docs[api.SourceParameters]),
		runner.WithExternal(external),
		runner.WithLogger(slog.Default()),
	)
	if src.Debug {
		opts = append(opts, runner.WithDebug(true))
	}

	initial := docs[api.SourceState]
	if initial == nil {
		initial = map[string]any{}
	}
	return &session{
		spec:      spec,
		processes: procs,
		runner:    runner.New(opts...),
		initial:   initial,
	}, nil
}

// run applies the pipeline times times, each pass starting from the
// previous pass's state.
func (s *session) run(times int) (any, error) {
	if times < 1 {
		times = 1
	}
	state, err := s.runner.Run(s.processes, s.initial)
	if err != nil {
		return nil, err
	}
	for i := 1; i < times; i++ {
		if state, err = s.runner.Run(s.processes, nil); err != nil {
			return nil, err
		}
	}
	return state, nil
}
