package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/profile"
	"github.com/profithive/go-forecaster"
	"github.com/profithive/go-forecaster/confidence"
	"github.com/profithive/go-forecaster/config"
	"github.com/profithive/go-forecaster/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var ErrUnknownProfile = errors.New("unknown profile mode, expected cpu or mem")

type flags struct {
	configFile   string
	logLevel     string
	store        string
	modelDir     string
	profile      string
	profileDir   string
	changepoint  float64
	dataFile     string
	outFile      string
	addr         string
	printSummary bool
}

// app holds the state shared by the commands of one invocation
type app struct {
	flags flags

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time

	cfg       *config.Config
	logger    zerolog.Logger
	closers   []io.Closer
	profiling interface{ Stop() }
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
}

// run executes the command line and reports any failure as a failure payload on stdout
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := newApp(stdin, stdout, stderr)
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("service error")
		if perr := a.writeJSON(forecaster.NewFailure(err, a.now())); perr != nil {
			fmt.Fprintln(stderr, perr)
		}
	}
	a.close()
	return err
}

// setup loads the configuration, applies flag overrides and starts logging and profiling
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configFile)
	if err != nil {
		return err
	}

	pf := cmd.Flags()
	if pf.Changed("log-level") {
		cfg.Log.Level = a.flags.logLevel
	}
	if pf.Changed("store") {
		cfg.Store.Type = a.flags.store
	}
	if pf.Changed("model-dir") {
		cfg.Store.Dir = a.flags.modelDir
	}
	if pf.Changed("changepoint-prior") {
		cfg.Model.ChangepointPriorScale = a.flags.changepoint
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.logger = logger
	a.closers = append(a.closers, closer)

	switch a.flags.profile {
	case "":
	case "cpu":
		a.profiling = profile.Start(profile.CPUProfile, profile.ProfilePath(a.flags.profileDir), profile.Quiet)
	case "mem":
		a.profiling = profile.Start(profile.MemProfile, profile.ProfilePath(a.flags.profileDir), profile.Quiet)
	default:
		return fmt.Errorf("%q, %w", a.flags.profile, ErrUnknownProfile)
	}
	return nil
}

// forecaster connects the configured store and builds a forecaster on it
func (a *app) forecaster(ctx context.Context, fns ...forecaster.Option) (*forecaster.Forecaster, error) {
	backend, closer, err := a.cfg.Store.OpenBackend(ctx)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closer)

	scorerOpts := append(a.cfg.ScorerOptions(), confidence.WithLogger(a.logger))
	fns = append([]forecaster.Option{
		forecaster.WithLogger(a.logger),
		forecaster.WithScorer(confidence.New(scorerOpts...)),
		forecaster.WithClock(a.now),
	}, fns...)
	return forecaster.New(a.cfg.ForecasterOptions(), backend, fns...)
}

func (a *app) close() {
	if a.profiling != nil {
		a.profiling.Stop()
		a.profiling = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn().Err(err).Msg("unable to close resource")
		}
	}
	a.closers = nil
}

func (a *app) writeJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, string(b))
	return err
}

func readJSONFile(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read data file, %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unable to parse data file, %w", err)
	}
	return nil
}
