package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/business"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/config"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/metrics"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/output"
	"github.com/CodMac/go-treesitter-entrypoint-analyzer/processor"
	"github.com/spf13/cobra"

	// 导入 Java 实现，触发其 init() 注册 Language、Collector、SymbolResolver 与 NoiseFilter
	_ "github.com/CodMac/go-treesitter-entrypoint-analyzer/x/java"
)

var (
	propertiesPath  string
	businessMapPath string
	outDir          string
	format          string
	mermaid         bool
	metricsFile     string
	verbose         bool
)

var rootCmd = &cobra.Command{
	Use:           "epa",
	Short:         "Entry-point and dependency analyzer for legacy Java applications",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <root>",
	Short: "Map the entry points of every project under root and what they call",
	Long: `Scans root for projects (directories with pom.xml, build.gradle or build.gradle.kts),
finds the externally reachable entry points of each one and walks their call graphs,
classifying database calls, remote lookups and security rules.

Example:
  epa analyze ./legacy-app --out ./reports
  epa analyze ./legacy-app --business-map functions.csv --format yaml --mermaid`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&propertiesPath, "properties", "", "Override .properties file")
	analyzeCmd.Flags().StringVar(&businessMapPath, "business-map", "", "CSV file mapping business functions to verb and URL")
	analyzeCmd.Flags().StringVarP(&outDir, "out", "o", "./epa-reports", "Output directory for reports")
	analyzeCmd.Flags().StringVar(&format, "format", "", "Report format: json or yaml (overrides output.format)")
	analyzeCmd.Flags().BoolVar(&mermaid, "mermaid", false, "Also export a Mermaid call-graph page per project")
	analyzeCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write run counters in Prometheus textfile format")
	analyzeCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(propertiesPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("format") {
		cfg.OutputFormat = format
	}
	if mermaid {
		cfg.Mermaid = true
	}
	return cfg, cfg.Validate()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	root := args[0]
	logger := newLogger(verbose)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	reportFormat, err := output.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return err
	}

	// 业务映射是可选增强，读取失败不影响分析
	var businessMap *business.Map
	if businessMapPath != "" {
		if businessMap, err = business.LoadMap(businessMapPath); err != nil {
			logger.Warn("business map ignored", "file", businessMapPath, "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rec := metrics.NewRecorder()
	proc := processor.NewProcessor(cfg, logger, rec)
	logger.Info("analysis started", "root", root, "run_id", proc.RunID(), "max_depth", cfg.MaxDepth, "workers", cfg.Workers)

	outcomes, err := proc.Run(ctx, root)
	if err != nil {
		if errors.Is(err, processor.ErrRootUnreadable) {
			logger.Error("cannot read root", "root", root, "error", err)
		}
		return err
	}

	for i := range outcomes {
		writeOutputs(logger, &outcomes[i], cfg, reportFormat, businessMap)
	}

	if len(outcomes) > 0 {
		if _, err := output.ExportOutcomes(filepath.Join(outDir, "outcomes.jsonl"), outcomes); err != nil {
			logger.Warn("failed to write outcomes", "error", err)
		}
	}
	if metricsFile != "" {
		if err := rec.WriteTextfile(metricsFile); err != nil {
			logger.Warn("failed to write metrics", "file", metricsFile, "error", err)
		}
	}

	output.PrintSummary(cmd.OutOrStdout(), outcomes)
	return nil
}

// writeOutputs 对分析成功的项目做业务关联并写出报告，写出失败只记录在结果中
func writeOutputs(logger *slog.Logger, o *model.ProjectOutcome, cfg *config.Config, reportFormat output.Format, businessMap *business.Map) {
	if o.Report == nil {
		return
	}
	if businessMap != nil {
		matched := business.Correlate(o.Report, businessMap)
		logger.Info("business functions correlated", "project", o.Project, "matched", matched, "entry_points", len(o.Report.EntryPoints))
	}

	path, err := output.WriteReport(outDir, o.Report, reportFormat)
	if err != nil {
		logger.Warn("failed to write report", "project", o.Project, "error", err)
		o.Message = fmt.Sprintf("report not written: %v", err)
		return
	}
	o.ReportPath = path

	if cfg.Mermaid {
		page := filepath.Join(outDir, o.Project+"-callgraph.html")
		if err := output.ExportMermaidHTML(page, o.Report); err != nil {
			logger.Warn("failed to write mermaid page", "project", o.Project, "error", err)
		}
	}
}
