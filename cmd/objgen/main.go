package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"object-designer-client/internal/adapters/secondary/objectdesigner"
	"object-designer-client/internal/config"
	"object-designer-client/internal/core/domain"
	"object-designer-client/internal/core/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("objgen: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "objgen",
		Short:         "Drive object generations on the object designer service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("base-url", "", "object designer API base URL")
	pf.Duration("request-timeout", 0, "per-request HTTP timeout (must exceed the long-poll duration)")
	pf.Int("long-poll-ms", 0, "how long the server may hold each status query open")
	pf.Duration("poll-interval", 0, "delay between status queries while the task is pending")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text, json)")

	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit a generation, wait for it, fetch the artifact and add it to rooms",
		Args:  cobra.NoArgs,
		RunE:  runGeneration,
	}

	cmd.Flags().String("name", "", "object name")
	cmd.Flags().String("description", "", "natural-language object description")
	cmd.Flags().String("model", "", "language model identifier, resolved by the server")
	cmd.Flags().String("out", "", "write the fetched artifact to this file")
	cmd.Flags().Bool("fetch-code", false, "also fetch the generated source code")
	cmd.Flags().Duration("timeout", 0, "abort the whole run after this long (0 waits indefinitely)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func runGeneration(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	initLogger(cfg)

	client, err := objectdesigner.NewObjectDesignerClient(&cfg.API)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	svc := services.NewGenerationService(client, domain.NewVersionGenerator(), services.PollSettings{
		LongPoll: cfg.Poll.LongPoll(),
		Interval: cfg.Poll.PollInterval,
	})

	flags := cmd.Flags()
	name, _ := flags.GetString("name")
	description, _ := flags.GetString("description")
	model, _ := flags.GetString("model")
	out, _ := flags.GetString("out")
	fetchCode, _ := flags.GetBool("fetch-code")
	timeout, _ := flags.GetDuration("timeout")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.WithField("base_url", cfg.API.BaseURL).Info("starting generation run")
	result, err := svc.Run(ctx, services.SubmitRequest{
		Name:        name,
		Description: description,
		Model:       model,
	}, services.RunOptions{FetchCode: fetchCode})
	if err != nil {
		return err
	}

	if out != "" {
		if err := os.WriteFile(out, result.Artifact.Data, 0o644); err != nil {
			return fmt.Errorf("write artifact: %w", err)
		}
		log.WithField("path", out).Info("artifact written")
	}

	w := cmd.OutOrStdout()
	contentType := result.Artifact.ContentType
	if contentType == "" {
		contentType = "(none)"
	}
	fmt.Fprintf(w, "task id:      %s\n", result.Task.ID)
	fmt.Fprintf(w, "version:      %s\n", result.Task.Version)
	fmt.Fprintf(w, "content-type: %s\n", contentType)
	fmt.Fprintf(w, "bytes:        %d\n", len(result.Artifact.Data))
	if fetchCode {
		fmt.Fprintf(w, "code:         %d chars\n", len(result.Code))
	}
	return nil
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
	}
}
