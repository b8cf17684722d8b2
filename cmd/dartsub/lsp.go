package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MarkBennett/dart-sub004/internal/lsp"
	"github.com/MarkBennett/dart-sub004/internal/trace"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the language server over stdio",
	RunE:  runLSP,
}

func init() {
	lspCmd.Flags().Duration("debounce", 0, "delay before edits reach the analysis server (0 uses the default)")
	lspCmd.Flags().Int("cache-capacity", 0, "resolved libraries kept in memory (0 is unbounded)")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to get debounce flag: %w", err)
	}
	capacity, err := cmd.Flags().GetInt("cache-capacity")
	if err != nil {
		return fmt.Errorf("failed to get cache-capacity flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Debounce:       debounce,
		MaxDiagnostics: maxDiagnostics,
		CacheCapacity:  capacity,
		Tracer:         trace.FromContext(cmd.Context()),
		Log:            os.Stderr,
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
