package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/fluency-coach/backend/internal/config"
	"github.com/zhouzirui/fluency-coach/backend/internal/logging"
	"github.com/zhouzirui/fluency-coach/backend/internal/metrics"
	"github.com/zhouzirui/fluency-coach/backend/internal/model/therapy"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/ai"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/detection"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/normalize"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/pipeline"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pipelinetester",
		Short:        "本地调试口吃练习流水线",
		SilenceUsage: true,
	}
	root.AddCommand(newProcessCmd())
	return root
}

type processOptions struct {
	audioPath string
	asJSON    bool
	timeout   time.Duration
}

func newProcessCmd() *cobra.Command {
	opts := &processOptions{}
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run one audio file through normalize, detect, prompt and generate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProcess(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.audioPath, "audio", "", "输入音频文件路径")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "以 JSON 输出完整响应")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 90*time.Second, "整体超时时间")
	_ = cmd.MarkFlagRequired("audio")
	return cmd
}

func runProcess(ctx context.Context, out io.Writer, opts *processOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] 无法加载 .env，改用系统环境变量: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("配置加载失败: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	generator, err := ai.NewGenerator(ctx, cfg.AI)
	if err != nil {
		return err
	}
	detector := detection.New(cfg.Detection)
	svc := pipeline.New(cfg.Audio, normalize.NewFFmpeg(cfg.Audio.FFmpegPath), detector, generator,
		metrics.New(prometheus.NewRegistry()), logger)

	f, err := os.Open(opts.audioPath)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	start := time.Now()
	resp, err := svc.Process(ctx, pipeline.Upload{
		RequestID: fmt.Sprintf("manual-%d", start.UnixNano()),
		Filename:  filepath.Base(opts.audioPath),
		Data:      f,
	})
	if err != nil {
		logger.Error("pipeline failed", zap.String("kind", string(pipeline.KindOf(err))), zap.Error(err))
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(out, resp, time.Since(start))
	return nil
}

func printResponse(out io.Writer, resp *therapy.Response, elapsed time.Duration) {
	fmt.Fprintf(out, "耗时: %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "检测到 %d 个事件:\n", len(resp.DetectedEvents))
	for _, e := range resp.DetectedEvents {
		conf := "n/a"
		if e.Confidence != nil {
			conf = fmt.Sprintf("%.2f", *e.Confidence)
		}
		fmt.Fprintf(out, "  - %s %.2fs-%.2fs confidence=%s\n", e.LabelOrUnknown(), e.Start, e.End, conf)
	}
	fmt.Fprintln(out, "\n练习建议:")
	fmt.Fprintln(out, resp.TherapyOutput)
}
