package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sitegrep/internal/audit"
	"github.com/ziadkadry99/sitegrep/internal/server"
)

var (
	servePort      int
	serveNoJournal bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the search server",
	Long: `Starts an HTTP server that answers /search?keyword=... with a results page,
serves the documents and the highlight script, and exposes a JSON search API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.RequireRoot(); err != nil {
			return err
		}
		logger := newLogger(cfg, os.Stderr)

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		var journal *audit.Store
		if !serveNoJournal {
			store, closeJournal, err := openJournal(cfg)
			if err != nil {
				logger.Warn().Err(err).Msg("journal unavailable, searches will not be recorded")
			} else {
				defer closeJournal()
				journal = store
			}
		}

		srv := server.New(server.Config{
			Port:        port,
			Root:        cfg.Root,
			DataDir:     cfg.DataDir,
			ScriptURL:   cfg.ScriptURL,
			SearchRPS:   cfg.Server.SearchRPS,
			SearchBurst: cfg.Server.SearchBurst,
			AllowAll:    cfg.Server.AllowAllOrigins,
		}, searcherFromConfig(cfg, logger), journal, logger)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("shutdown")
			}
		}()

		fmt.Fprintf(os.Stderr, "sitegrep %s serving on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Root: %s\n", cfg.Root)
		fmt.Fprintf(os.Stderr, "  Search: http://localhost:%d/search\n", port)
		fmt.Fprintf(os.Stderr, "  Links: %s\n", cfg.BaseURL)

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveNoJournal, "no-journal", false, "do not record searches in the journal")
	rootCmd.AddCommand(serveCmd)
}
