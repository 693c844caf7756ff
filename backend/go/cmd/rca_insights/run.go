package main

import (
	"RCA_Insights/backend/go/internal/config"
	"RCA_Insights/backend/go/internal/database/kafka"
	"RCA_Insights/backend/go/internal/database/minio"
	"RCA_Insights/backend/go/internal/insight"
	"RCA_Insights/backend/go/internal/llm"
	"RCA_Insights/backend/go/internal/loader"
	"RCA_Insights/backend/go/internal/report"
	"RCA_Insights/backend/go/pkg/logger"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type runOptions struct {
	configPath string
	envFile    string
	input      string
	output     string
	provider   string
	model      string
	variant    string
	logLevel   string
	workers    int
	xlsx       bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyse every RCA in the input directory and write the insight tables",
	Example: `  rca-insights run --input ./rcas --output ./out
  rca-insights run --config config/config.yaml --provider ollama --model llama3 --workers 4`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, &runOpts)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg, os.Stderr)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringVarP(&runOpts.configPath, "config", "c", "", "path to a YAML config file")
	f.StringVar(&runOpts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	f.StringVarP(&runOpts.input, "input", "i", "", "directory holding the RCA documents")
	f.StringVarP(&runOpts.output, "output", "o", "", "directory the tables are written to")
	f.StringVar(&runOpts.provider, "provider", "", "LLM provider: openai, ollama or gemini")
	f.StringVar(&runOpts.model, "model", "", "model id sent to the provider")
	f.StringVar(&runOpts.variant, "variant", "", "table layout: structured or single")
	f.StringVar(&runOpts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.IntVarP(&runOpts.workers, "workers", "w", 0, "documents analysed in parallel")
	f.BoolVar(&runOpts.xlsx, "xlsx", false, "also write insights.xlsx")
}

// loadConfig 依次叠加: 默认值 -> YAML 文件 -> 环境变量 (.env) -> 命令行参数。
func loadConfig(cmd *cobra.Command, opts *runOptions) (*config.AppConfig, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.envFile, err)
		}
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	applyFlags(cmd, opts, cfg)
	cfg.ApplyProviderDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags 只覆盖用户显式设置过的参数。
func applyFlags(cmd *cobra.Command, opts *runOptions, cfg *config.AppConfig) {
	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.Loader.InputDir = opts.input
	}
	if changed("output") {
		cfg.Report.OutputDir = opts.output
	}
	if changed("provider") {
		cfg.LLM.Provider = opts.provider
	}
	if changed("model") {
		cfg.LLM.Model = opts.model
	}
	if changed("variant") {
		cfg.Report.Variant = opts.variant
	}
	if changed("log-level") {
		cfg.Logger.Level = opts.logLevel
	}
	if changed("workers") {
		cfg.Report.Workers = opts.workers
	}
	if changed("xlsx") {
		cfg.Report.XLSX = opts.xlsx
	}
}

func run(ctx context.Context, cfg *config.AppConfig, logOut io.Writer) error {
	// 1. 初始化日志
	logger.Init(logger.ParseLevel(cfg.Logger.Level), cfg.Logger.Format, logOut)
	traceID := uuid.NewString()
	log := logger.New(cfg.App.Name, traceID)
	log.WithFields(map[string]interface{}{
		"version":  cfg.App.Version,
		"provider": cfg.LLM.Provider,
		"model":    cfg.LLM.Model,
	}).Info("starting run")

	// 2. 创建生成后端
	client, err := llm.NewLLM(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	if c, ok := client.(io.Closer); ok {
		defer c.Close()
	}

	// 3. 可选的产物存储与消息发布
	rc := report.ReporterConfig{
		CSV:     report.NewCSVWriter(cfg.Report.OutputDir, cfg.Report.Variant),
		TraceID: traceID,
	}
	if cfg.Report.XLSX {
		rc.XLSX = report.NewXLSXWriter(cfg.Report.OutputDir, cfg.Report.Variant)
	}
	if cfg.Storage.MinIO.Enabled {
		up, err := minio.NewUploader(ctx, &cfg.Storage.MinIO, log)
		if err != nil {
			log.WithError(err).Warn("MinIO unavailable, artifacts stay local")
		} else {
			rc.Uploader = up
		}
	}
	if cfg.Messaging.Kafka.Enabled {
		pub, err := kafka.NewPublisher(&cfg.Messaging.Kafka, log)
		if err != nil {
			log.WithError(err).Warn("Kafka unavailable, insights are not published")
		} else {
			defer pub.Close()
			rc.Publisher = pub
		}
	}

	// 4. 执行批处理
	res, err := runBatch(ctx, cfg, client, report.NewReporter(rc, log), log)
	if err != nil {
		return err
	}
	if res.Partial() {
		return fmt.Errorf("%w: %d of %d failed", errPartial, len(res.Failures), res.Total)
	}
	return nil
}

// runBatch 读取文档目录，逐个提取并写出报告。
func runBatch(ctx context.Context, cfg *config.AppConfig, client llm.LLM, rep *report.Reporter, log *logger.Logger) (*report.Result, error) {
	ld, err := loader.NewLoader(loader.Options{
		HiddenPrefix: cfg.Loader.HiddenPrefix,
		Include:      cfg.Loader.Include,
		MaxBytes:     cfg.Loader.MaxBytes,
	}, log)
	if err != nil {
		return nil, err
	}
	corpus, err := ld.Load(ctx, cfg.Loader.InputDir)
	if err != nil {
		return nil, err
	}

	extractor := insight.NewExtractor(client,
		insight.WithModel(cfg.LLM.Model),
		insight.WithSystemPrompt(cfg.LLM.SystemPrompt),
		insight.WithJSONResponse(cfg.LLM.JSONResponse),
		insight.WithCache(cfg.LLM.CacheSize),
		insight.WithLogger(log),
	)
	agg := report.NewAggregator(extractor,
		report.WithWorkers(cfg.Report.Workers),
		report.WithLogger(log),
	)
	res, err := agg.Run(ctx, corpus)
	if err != nil {
		return nil, err
	}

	for _, f := range res.Failures {
		log.WithFields(map[string]interface{}{
			"document_id": f.DocumentID,
			"reason":      f.Reason,
		}).WithError(f.Err).Error("document produced no insights")
	}

	if _, err := rep.Report(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return res, nil
}
