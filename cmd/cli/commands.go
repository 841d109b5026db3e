package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprobe/internal/check"
	"github.com/hamed0406/uptimeprobe/internal/domain"
	"github.com/hamed0406/uptimeprobe/internal/probe"
	"github.com/hamed0406/uptimeprobe/internal/repo/memory"
	"github.com/hamed0406/uptimeprobe/internal/streak"
)

var output string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "uptimeprobe",
		Short:        "Probe websites for availability",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format: text|json")
	root.AddCommand(newProbeCmd(), newCheckCmd())
	return root
}

// probe runs the full check pipeline locally against a domain.
func newProbeCmd() *cobra.Command {
	var (
		maxRetries int
		timeout    time.Duration
		strictTLS  bool
	)
	cmd := &cobra.Command{
		Use:   "probe <domain>",
		Short: "Check a domain from this machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := memory.New()
			store.AddSite(domain.Site{ID: "cli", Domain: args[0]})

			coord := check.NewCoordinator(check.Options{
				Sites: store,
				Runner: &probe.Retrier{
					Prober:   probe.NewHTTPProber(probe.HTTPProberOptions{StrictTLS: strictTLS}),
					Timeout:  timeout,
					Delay:    300 * time.Millisecond,
					MaxDelay: time.Second,
				},
				Streaks:    streak.NewTracker(store, zap.NewNop(), nil),
				RetryLimit: probe.MaxRetriesCap,
			})

			req := check.Request{WebsiteID: "cli"}
			if cmd.Flags().Changed("max-retries") {
				req.MaxRetries = &maxRetries
			}
			res, err := coord.Check(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), domain.Envelope{Success: true, Message: check.MsgComplete, Data: &res})
		},
	}
	cmd.Flags().IntVar(&maxRetries, "max-retries", probe.DefaultMaxRetries, "retries after a transport failure (0-10)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-attempt timeout")
	cmd.Flags().BoolVar(&strictTLS, "strict-tls", false, "fail the handshake on invalid certificates")
	return cmd
}

// check asks a running API to check a registered website.
func newCheckCmd() *cobra.Command {
	var (
		api        string
		maxRetries int
	)
	cmd := &cobra.Command{
		Use:   "check <website-id>",
		Short: "Trigger a check through the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 90*time.Second)
			defer cancel()

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(api, "/")+"/", nil)
			if err != nil {
				return err
			}
			req.Header.Set("x-website-id", args[0])
			if cmd.Flags().Changed("max-retries") {
				req.Header.Set("x-max-retries", strconv.Itoa(maxRetries))
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("contacting API: %w", err)
			}
			defer resp.Body.Close()

			var env domain.Envelope
			if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
				return fmt.Errorf("API returned %s with an unreadable body: %w", resp.Status, err)
			}
			if err := printResult(cmd.OutOrStdout(), env); err != nil {
				return err
			}
			if !env.Success {
				return fmt.Errorf("%s (%s)", env.Message, resp.Status)
			}
			return nil
		},
	}
	defaultAPI := os.Getenv("API_BASE")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:4000"
	}
	cmd.Flags().StringVar(&api, "api", defaultAPI, "API base URL")
	cmd.Flags().IntVar(&maxRetries, "max-retries", probe.DefaultMaxRetries, "retries after a transport failure")
	return cmd
}

func printResult(w io.Writer, env domain.Envelope) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(env)
	}
	if env.Data == nil {
		_, err := fmt.Fprintf(w, "✗ %s: %s\n", env.Message, env.Error)
		return err
	}
	r := env.Data
	mark := "✗"
	if r.Status == domain.StatusUp || r.Status == domain.StatusMaintenance {
		mark = "✓"
	}
	fmt.Fprintf(w, "%s %-11s %s\n", mark, r.Status, r.URL)
	fmt.Fprintf(w, "  http=%d ttfb=%.1fms total=%.1fms retries=%d streak=%d\n",
		r.HTTPCode, r.TTFBMs, r.TotalMs, r.Retries, r.FailureStreak)
	if r.SSLValid != nil {
		expiry := "unknown"
		if r.SSLExpiry != nil {
			expiry = r.SSLExpiry.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "  tls valid=%t expires=%s\n", *r.SSLValid, expiry)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", r.Error)
	}
	return nil
}
