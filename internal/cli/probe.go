package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/faultline/internal/core/config"
	"github.com/vietddude/faultline/internal/fault"
	"github.com/vietddude/faultline/internal/infra/rpc"
	"github.com/vietddude/faultline/internal/metrics"
)

var (
	probeTarget  string
	probeService string
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Health-check a gRPC target and report classified failures",
	Args:  cobra.NoArgs,
	RunE:  runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&probeTarget, "target", "", "gRPC target (overrides probe.target)")
	probeCmd.Flags().StringVar(&probeService, "service", "", "health service name (overrides probe.service)")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	pc := cfg.Probe
	if probeTarget != "" {
		pc.Target = probeTarget
	}
	if probeService != "" {
		pc.Service = probeService
	}

	if cfg.Metrics.Port > 0 {
		srv := metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
		}()
		slog.Info("Serving metrics", "port", cfg.Metrics.Port)
	}

	p, err := rpc.NewGRPCProvider("probe", pc.Target)
	if err != nil {
		return err
	}
	defer func() {
		_ = p.Close()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Probing", "target", pc.Target, "service", pc.Service, "attempts", pc.Attempts)
	return probe(ctx, cmd.OutOrStdout(), p, pc, cfg.Retry)
}

// probe runs pc.Attempts health checks. Between checks it waits for the
// longer of the probe interval and the retry advice for the last failure.
// It stops early on a failure that must not be retried.
func probe(ctx context.Context, out io.Writer, p *rpc.GRPCProvider, pc config.ProbeConfig, rc rpc.RetryConfig) error {
	var lastErr error
	for attempt := 0; attempt < pc.Attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, pc.Timeout)
		err := p.Check(callCtx, pc.Service)
		cancel()

		wait := pc.Interval
		if err == nil {
			lastErr = nil
			metrics.ProbesTotal.WithLabelValues(pc.Target, "serving").Inc()
			_, _ = fmt.Fprintf(out, "attempt %d: SERVING\n", attempt+1)
		} else {
			fe := fault.FromError(err)
			lastErr = fe
			metrics.ProbesTotal.WithLabelValues(pc.Target, fe.Kind.String()).Inc()

			action, advised := rpc.Decide(fe, attempt, rc)
			_, _ = fmt.Fprintf(out, "attempt %d: %s retryable=%t retry_delay_ms=%d action=%s: %s\n",
				attempt+1, fe.Kind, fe.Retryable, fe.RetryDelay, action, fe.Message)

			if fe.Kind == fault.KindCancelled || action == rpc.ActionFatal {
				return fe
			}
			if advised > wait {
				wait = advised
			}
		}

		if attempt == pc.Attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fault.FromCancellation(fault.ContextSignal{Ctx: ctx}, nil)
		case <-time.After(wait):
		}
	}
	return lastErr
}
