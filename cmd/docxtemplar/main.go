// Command docxtemplar заполняет шаблоны Word значениями из Excel:
// как веб-сервис (serve) или разово из командной строки (fill).
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nikitaxru/docxtemplar"
	"github.com/nikitaxru/docxtemplar/internal/server"
)

var (
	logLevel  string
	logFormat string
	style     string

	addr        string
	maxUploadMB int64

	excelPath  string
	wordPath   string
	outputPath string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docxtemplar",
		Short: "Fill {{Sheet!Cell}} placeholders in Word documents from Excel workbooks",
		Long: `docxtemplar replaces {{Sheet!A1}} and {{Sheet!A1:C1}} placeholders found in
.docx paragraphs and table cells with values read from an .xlsx/.xlsm workbook.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&style, "style", "preserve", "Run formatting policy: preserve (bold removed) or minimal")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web application",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", server.DefaultConfig().Addr, "Listen address")
	serveCmd.Flags().Int64Var(&maxUploadMB, "max-upload-mb", server.DefaultConfig().MaxUploadBytes>>20, "Maximum size of both uploads together, in MiB")

	fillCmd := &cobra.Command{
		Use:   "fill",
		Short: "Generate one document from local files",
		Args:  cobra.NoArgs,
		RunE:  runFill,
	}
	fillCmd.Flags().StringVar(&excelPath, "excel", "", "Workbook path (.xlsx or .xlsm)")
	fillCmd.Flags().StringVar(&wordPath, "word", "", "Template path (.docx)")
	fillCmd.Flags().StringVarP(&outputPath, "output", "o", "", `Output path (default: "<template> (generado).docx" next to the template)`)
	_ = fillCmd.MarkFlagRequired("excel")
	_ = fillCmd.MarkFlagRequired("word")

	rootCmd.AddCommand(serveCmd, fillCmd)
	return rootCmd
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(logLevel, logFormat, os.Stderr)
	if err != nil {
		return err
	}
	policy, err := docxtemplar.ParseStylePolicy(style)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Addr:           addr,
		MaxUploadBytes: maxUploadMB << 20,
		Style:          policy,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}

func runFill(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(logLevel, logFormat, os.Stderr)
	if err != nil {
		return err
	}
	policy, err := docxtemplar.ParseStylePolicy(style)
	if err != nil {
		return err
	}

	dest := outputPath
	if dest == "" {
		dir, file := splitDir(wordPath)
		dest = dir + docxtemplar.GeneratedName(file)
	}

	if err := docxtemplar.GenerateFiles(excelPath, wordPath, dest, docxtemplar.Options{
		Style:  policy,
		Logger: logger,
	}); err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), dest)
	return nil
}

func splitDir(path string) (dir, file string) {
	i := strings.LastIndexAny(path, `/\`)
	return path[:i+1], path[i+1:]
}

// newLogger создаёт отдельный логгер, глобальный slog не трогаем.
func newLogger(levelStr, formatStr string, outW io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be debug, info, warn or error", levelStr)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(formatStr) {
	case "json":
		return slog.New(slog.NewJSONHandler(outW, handlerOpts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(outW, handlerOpts)), nil
	}
	return nil, fmt.Errorf("invalid log-format %q: must be text or json", formatStr)
}
