package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/profithive/go-forecaster"
	"github.com/profithive/go-forecaster/metrics"
	"github.com/profithive/go-forecaster/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var ErrMissingDataFile = errors.New("training data file required, use --data")

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecaster",
		Short: "Forecast retail sales per retailer",
		Long: `forecaster trains an additive trend, seasonality and regressor model per retailer,
persists it and produces multi-step sales forecasts with an uncertainty interval and
a confidence score.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.flags.configFile, "config", "c", "", "Path to YAML configuration file")
	pf.StringVar(&a.flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.store, "store", "file", "Model store (file, memory, redis, sqlite, s3)")
	pf.StringVar(&a.flags.modelDir, "model-dir", "models", "Directory of the file model store")
	pf.Float64Var(&a.flags.changepoint, "changepoint-prior", 0.05, "Changepoint prior scale")
	pf.StringVar(&a.flags.profile, "profile", "", "Write a cpu or mem profile")
	pf.StringVar(&a.flags.profileDir, "profile-dir", ".", "Directory profiles are written to")

	cmd.AddCommand(
		newPredictCmd(a),
		newTrainCmd(a),
		newServeCmd(a),
		newPlotCmd(a),
	)
	return cmd
}

func newPredictCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "predict",
		Short: "Read a forecast request from stdin and write the forecast to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := io.ReadAll(a.stdin)
			if err != nil {
				return fmt.Errorf("unable to read request, %w", err)
			}
			var req forecaster.PredictRequest
			if err := json.Unmarshal(b, &req); err != nil {
				return fmt.Errorf("unable to parse request, %w", err)
			}

			f, err := a.forecaster(cmd.Context())
			if err != nil {
				return err
			}
			res, err := f.Predict(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.writeJSON(res)
		},
	}
}

func newTrainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train and store the model of a retailer from a history file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.flags.dataFile == "" {
				return ErrMissingDataFile
			}
			var req forecaster.TrainRequest
			if err := readJSONFile(a.flags.dataFile, &req); err != nil {
				return err
			}

			f, err := a.forecaster(cmd.Context())
			if err != nil {
				return err
			}
			var id string
			if req.RetailerID != nil {
				id = *req.RetailerID
			}
			res, err := f.Train(cmd.Context(), req.History, id)
			if err != nil {
				return err
			}

			if a.flags.printSummary {
				if art, ok := f.Artifact(cmd.Context(), id); ok {
					if err := art.TablePrint(a.stderr); err != nil {
						return err
					}
				}
			}
			return a.writeJSON(res)
		},
	}
	cmd.Flags().StringVar(&a.flags.dataFile, "data", "", "Path to a JSON file of {history, retailer_id}")
	cmd.Flags().BoolVar(&a.flags.printSummary, "summary", false, "Print the trained model to stderr")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predict and train over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			rec := metrics.New(reg)

			f, err := a.forecaster(cmd.Context(), forecaster.WithMetrics(rec))
			if err != nil {
				return err
			}

			addr := a.cfg.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr = a.flags.addr
			}
			srv := server.New(f,
				server.WithConfig(server.Config{
					ReadTimeout:     a.cfg.Server.ReadTimeout,
					WriteTimeout:    a.cfg.Server.WriteTimeout,
					ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
					TrainRate:       a.cfg.Server.TrainRate,
					TrainBurst:      a.cfg.Server.TrainBurst,
					BodyLimit:       a.cfg.Server.BodyLimit,
				}),
				server.WithLogger(a.logger),
				server.WithMetrics(rec, reg),
				server.WithClock(a.now),
			)
			return srv.Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&a.flags.addr, "addr", ":8080", "Listen address")
	return cmd
}

func newPlotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Forecast a request file and render the history and forecast as html",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.flags.dataFile == "" {
				return ErrMissingDataFile
			}
			var req forecaster.PredictRequest
			if err := readJSONFile(a.flags.dataFile, &req); err != nil {
				return err
			}

			f, err := a.forecaster(cmd.Context())
			if err != nil {
				return err
			}
			history, err := f.Prepare(req.History)
			if err != nil {
				return err
			}
			res, err := f.Predict(cmd.Context(), req)
			if err != nil {
				return err
			}

			return writePlot(cmd.Context(), a.flags.outFile, func(w io.Writer) error {
				return forecaster.PlotForecast(w, history, res)
			})
		},
	}
	cmd.Flags().StringVar(&a.flags.dataFile, "data", "", "Path to a JSON forecast request file")
	cmd.Flags().StringVar(&a.flags.outFile, "out", "forecast.html", "Path of the html output")
	return cmd
}

func writePlot(ctx context.Context, path string, render func(w io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create plot file, %w", err)
	}
	if err := render(file); err != nil {
		file.Close()
		return fmt.Errorf("unable to render plot, %w", err)
	}
	return file.Close()
}
