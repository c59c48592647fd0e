package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/laserowo/studio-manager/internal/actions"
	"github.com/laserowo/studio-manager/internal/audit"
	"github.com/laserowo/studio-manager/internal/config"
	dbpkg "github.com/laserowo/studio-manager/internal/db"
	infraRepo "github.com/laserowo/studio-manager/internal/infra/repository"
	"github.com/laserowo/studio-manager/internal/logging"
	"github.com/laserowo/studio-manager/internal/metrics"
	"github.com/laserowo/studio-manager/internal/routes"
	"github.com/laserowo/studio-manager/internal/spreadsheet"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "studio",
		Short:         "Laser studio client and appointment manager",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(actionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// ======================================================
// SERVE
// ======================================================

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logging.New(cfg.LogLevel)

			db, err := dbpkg.NewDB(cfg)
			if err != nil {
				return err
			}

			mapping, err := loadMapping(cfg)
			if err != nil {
				return err
			}

			dispatcher := audit.NewDispatcher(audit.New(db), log)
			defer dispatcher.Close()

			gin.SetMode(gin.ReleaseMode)
			r := gin.New()
			r.Use(gin.Recovery())

			routes.RegisterRoutes(r, db, cfg, routes.Infra{
				Audit:    dispatcher,
				Metrics:  metrics.NewStudioMetrics(prometheus.DefaultRegisterer),
				Gatherer: prometheus.DefaultGatherer,
				Mapping:  mapping,
				Log:      log,
			})

			srv := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr()).Str("db_driver", cfg.DBDriver).Msg("server running")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// ======================================================
// MIGRATE
// ======================================================

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logging.Console(cfg.LogLevel)

			// NewDB migrates on open
			if _, err := dbpkg.NewDB(cfg); err != nil {
				return err
			}
			log.Info().Str("db_driver", cfg.DBDriver).Msg("schema up to date")
			return nil
		},
	}
}

// ======================================================
// IMPORT
// ======================================================

func importCmd() *cobra.Command {
	var (
		loc         spreadsheet.Location
		mappingFile string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import clients and appointments from a workbook",
		Example: `  studio import --file studio.xlsx
  studio import --csv-dir ./export
  studio import --s3-bucket backups --s3-key studio/2025-03.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if mappingFile != "" {
				cfg.ImportMappingFile = mappingFile
			}
			log := logging.Console(cfg.LogLevel)

			env, err := openEnv(cfg, log)
			if err != nil {
				return err
			}
			defer env.close()

			src, err := spreadsheet.Open(cmd.Context(), loc, env.mapping, s3Config(cfg))
			if err != nil {
				return err
			}
			defer src.Close()

			report, err := env.actions.Import(cmd.Context(), nil, src)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s\n", report.RunID)
			fmt.Fprintf(out, "clients:      %d imported, %d failed\n", report.Clients.Imported, report.Clients.Failed)
			fmt.Fprintf(out, "appointments: %d imported, %d failed, %d placeholders, %d spacing warnings\n",
				report.Appointments.Imported, report.Appointments.Failed,
				report.Appointments.Placeholders, report.Appointments.SpacingWarnings)
			for _, e := range report.Errors {
				fmt.Fprintf(out, "  %s row %d (%s): %s\n", e.Section, e.Row, e.Identifier, e.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&loc.File, "file", "", "path to an .xlsx workbook")
	cmd.Flags().StringVar(&loc.CSVDir, "csv-dir", "", "directory holding one CSV file per sheet")
	cmd.Flags().StringVar(&loc.S3Bucket, "s3-bucket", "", "bucket of a workbook stored in S3")
	cmd.Flags().StringVar(&loc.S3Key, "s3-key", "", "object key of a workbook stored in S3")
	cmd.Flags().StringVar(&mappingFile, "mapping", "", "YAML column mapping (overrides IMPORT_MAPPING_FILE)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.MarkFlagsMutuallyExclusive("file", "csv-dir", "s3-bucket")
	cmd.MarkFlagsRequiredTogether("s3-bucket", "s3-key")

	return cmd
}

// ======================================================
// ACTION
// ======================================================

func actionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "action <name> [json-args]",
		Short: "Run one studio action and print its result as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logging.Console(cfg.LogLevel)

			env, err := openEnv(cfg, log)
			if err != nil {
				return err
			}
			defer env.close()

			var raw json.RawMessage
			if len(args) == 2 {
				raw = json.RawMessage(args[1])
			}

			out, err := env.actions.Dispatch(cmd.Context(), nil, args[0], raw)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

// ======================================================
// HELPERS
// ======================================================

type cliEnv struct {
	db      *gorm.DB
	audit   *audit.Dispatcher
	mapping *spreadsheet.Mapping
	actions *actions.Dispatcher
}

func openEnv(cfg *config.Config, log zerolog.Logger) (*cliEnv, error) {
	db, err := dbpkg.NewDB(cfg)
	if err != nil {
		return nil, err
	}

	mapping, err := loadMapping(cfg)
	if err != nil {
		return nil, err
	}

	dispatcher := audit.NewDispatcher(audit.New(db), log)

	return &cliEnv{
		db:      db,
		audit:   dispatcher,
		mapping: mapping,
		actions: actions.New(actions.Deps{
			Appointments:   infraRepo.NewAppointmentGormRepository(db),
			Clients:        infraRepo.NewClientGormRepository(db),
			References:     infraRepo.NewReferenceGormRepository(db),
			Audit:          dispatcher,
			Log:            log,
			Timezone:       cfg.Timezone,
			EnforceSpacing: cfg.EnforceSessionSpacing,
			Mapping:        mapping,
			S3:             s3Config(cfg),
		}),
	}, nil
}

// close drains pending audit events before the store goes away.
func (e *cliEnv) close() {
	e.audit.Close()
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func loadMapping(cfg *config.Config) (*spreadsheet.Mapping, error) {
	m := spreadsheet.DefaultMapping()
	if cfg.ImportMappingFile != "" {
		var err error
		if m, err = spreadsheet.LoadMapping(cfg.ImportMappingFile); err != nil {
			return nil, err
		}
	}
	return m.WithSheets(cfg.ImportClientsSheet, cfg.ImportAppointmentSheet), nil
}

func s3Config(cfg *config.Config) spreadsheet.S3Config {
	return spreadsheet.S3Config{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Endpoint:        cfg.AWSEndpointURL,
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
