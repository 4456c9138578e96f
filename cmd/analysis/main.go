// @title Forum Analytics API
// @version 1.0
// @description Correlates discussion forum engagement with student grades and ranks course-level drivers.
// @host localhost:8080
// @BasePath /api/v1
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"go-forum-analytics/internal/api"
	"go-forum-analytics/internal/api/handler"
	"go-forum-analytics/internal/config"
	"go-forum-analytics/internal/model"
	"go-forum-analytics/internal/pipeline"
	"go-forum-analytics/internal/report"
	"go-forum-analytics/internal/store"
	"go-forum-analytics/internal/warehouse"
	"go-forum-analytics/pkg/router"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "analysis",
		Short:         "Correlate forum engagement with grades and rank course drivers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file with ANALYTICS_* settings")

	root.AddCommand(newRunCmd(&envFile), newServeCmd(&envFile))
	return root
}

func newRunCmd(envFile *string) *cobra.Command {
	var (
		outDir string
		format string
		noDB   bool
	)

	cmd := &cobra.Command{
		Use:   "run <spec.json>",
		Short: "Run one analysis and print the ranked results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(*envFile)
			if err != nil {
				return err
			}

			spec, err := readSpec(args[0])
			if err != nil {
				return err
			}
			if spec.Export == nil {
				spec.Export = &model.Export{}
			}
			if outDir != "" {
				spec.Export.Dir = outDir
			} else if spec.Export.Dir == "" {
				spec.Export.Dir = conf.OutputDir
			}
			if format != "" {
				spec.Export.Format = format
			}

			ctx := cmd.Context()
			deps := pipeline.Deps{}

			if !noDB {
				st, err := store.Open(conf.StorePath)
				if err != nil {
					return err
				}
				defer st.Close()
				deps.Store = st
				spec.Export.DB = true
			}

			if conf.Warehouse.Enabled() {
				client, err := warehouse.Open(ctx, conf.Warehouse)
				if err != nil {
					return err
				}
				defer client.Close()
				deps.Fetcher = client
			}

			runID := uuid.New().String()
			if deps.Store != nil {
				if err := deps.Store.SaveRun(runID, spec.WithDefaults()); err != nil {
					return err
				}
			}

			rep, err := pipeline.Run(ctx, deps, runID, spec)
			if err != nil {
				return err
			}
			report.Render(cmd.OutOrStdout(), rep)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "export directory (defaults to ANALYTICS_OUTPUT_DIR)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "export format: csv or json")
	cmd.Flags().BoolVar(&noDB, "no-db", false, "do not record the run in the sqlite store")
	return cmd
}

func newServeCmd(envFile *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = conf.Addr
			}

			st, err := store.Open(conf.StorePath)
			if err != nil {
				return err
			}
			defer st.Close()

			var fetcher pipeline.Fetcher
			if conf.Warehouse.Enabled() {
				client, err := warehouse.Open(context.Background(), conf.Warehouse)
				if err != nil {
					return err
				}
				defer client.Close()
				fetcher = client
			} else {
				log.Printf("ℹ️ No warehouse configured; only csv/json sources are accepted")
			}

			h := handler.NewAnalysisHandler(st, fetcher, conf.OutputDir)
			r := router.New()
			api.RegisterRoutes(r, h)
			return r.Start(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to ANALYTICS_ADDR)")
	return cmd
}

func readSpec(path string) (model.AnalysisSpec, error) {
	var spec model.AnalysisSpec
	b, err := os.ReadFile(path)
	if err != nil {
		return spec, fmt.Errorf("read spec: %w", err)
	}
	if err := json.Unmarshal(b, &spec); err != nil {
		return spec, fmt.Errorf("decode spec %s: %w", path, err)
	}
	return spec, nil
}
