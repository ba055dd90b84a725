package obscheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/veyucu/fastits/internal/config"
	"github.com/veyucu/fastits/internal/observability"
	"github.com/veyucu/fastits/internal/tools/common"
)

type options struct {
	ci       bool
	timeout  time.Duration
	endpoint string
	insecure bool
	service  string
}

// NewRootCommand builds the telemetry smoke checker. It pushes one probe
// span and one probe metric through the real OTLP pipeline so a deploy
// can verify the collector wiring before traffic arrives.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "obscheck",
		Short: "Verify the OTLP telemetry pipeline end to end",
	}
	root.PersistentFlags().BoolVar(&opts.ci, "ci", false, "print a machine readable JSON result")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "probe timeout")
	root.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "http://localhost:4318", "OTLP http endpoint")
	root.PersistentFlags().BoolVar(&opts.insecure, "insecure", false, "allow plain http to the collector")
	root.PersistentFlags().StringVar(&opts.service, "service", "fastits-obscheck", "service name reported with the probe")

	root.AddCommand(newRunCommand(opts))
	return root
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Emit a probe span and metric and flush them",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := probe(opts)
			if opts.ci {
				common.PrintCIResult(err == nil, "obscheck/run", details, err)
			} else {
				common.PrintHumanResult(err == nil, "obscheck run", details, err)
			}
			return err
		},
	}
}

func probe(opts *options) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	cfg := &config.Config{
		Env:                      "obscheck",
		OTELTracingEnabled:       true,
		OTELMetricsEnabled:       true,
		OTELExporterOTLPEndpoint: opts.endpoint,
		OTELExporterOTLPInsecure: opts.insecure,
		OTELServiceName:          opts.service,
		OTELEnvironment:          "obscheck",
		OTELTraceSamplingRatio:   1.0,
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	runtime, err := observability.InitRuntime(ctx, cfg, quiet)
	if err != nil {
		return nil, fmt.Errorf("init telemetry runtime: %w", err)
	}

	tracer := otel.Tracer("obscheck")
	spanCtx, span := tracer.Start(ctx, "obscheck.probe")
	observability.RecordRepositoryOperation(spanCtx, "obscheck", "probe", "success")
	span.End()

	// Shutdown flushes both pipelines; an unreachable collector surfaces
	// here as an export error.
	if err := runtime.Shutdown(ctx); err != nil {
		return nil, fmt.Errorf("flush telemetry: %w", err)
	}
	return []string{
		"probe span emitted",
		"probe metric emitted",
		"flushed to " + opts.endpoint,
	}, nil
}
