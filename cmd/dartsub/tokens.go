package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MarkBennett/dart-sub004/internal/diag"
	"github.com/MarkBennett/dart-sub004/internal/lexer"
	"github.com/MarkBennett/dart-sub004/internal/report"
	"github.com/MarkBennett/dart-sub004/internal/source"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [flags] file.dart",
	Short: "Print the tokens of a Dart source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokens,
}

func init() {
	tokensCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runTokens(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	abs, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	src := source.New(abs)
	contents, err := source.Disk{}.Contents(cmd.Context(), src)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", diag.IOContentUnavailable.ID(), args[0], err)
	}

	bag := diag.NewBag(maxDiagnostics)
	ts := lexer.Scan(src, contents.Text, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})

	// Выводим диагностику в stderr, если есть
	if bag.Len() > 0 {
		color, err := useColor(cmd, os.Stderr)
		if err != nil {
			return err
		}
		text := func(source.Source) []byte { return contents.Text }
		if err := report.Pretty(cmd.ErrOrStderr(), bag.Items(), text, report.PrettyOpts{
			Color:    color,
			Context:  1,
			PathMode: report.PathModeAuto,
		}); err != nil {
			return err
		}
	}

	switch format {
	case "pretty":
		return report.FormatTokensPretty(cmd.OutOrStdout(), ts.Tokens(), contents.Text)
	case "json":
		return report.FormatTokensJSON(cmd.OutOrStdout(), ts.Tokens())
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
