// Command console holds an interactive live session with the generative
// service: lines typed on stdin are sent as user turns, streamed content and
// audio notifications are printed as they arrive.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/genai"

	"github.com/chaodoze/multimodal-live-api-web-console/internal/config"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/events"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/files"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/logging"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/logstore"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/session"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/toolcall"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/wire"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		model      string
		docsDir    string
	)

	cmd := &cobra.Command{
		Use:           "console",
		Short:         "Interactive multimodal live session console",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if model != "" {
				cfg.Model = model
			}
			if docsDir != "" {
				cfg.DocsDir = docsDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model identifier override")
	cmd.Flags().StringVarP(&docsDir, "docs", "d", "", "serve tool lookups from a local document directory")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg.Log)

	var sink logging.Sink = logging.NewZerologSink(logger)
	if cfg.Mongo.URI != "" {
		store, cleanup, err := newLogStore(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer cleanup()
		sink = logging.MultiSink{sink, logstore.NewSink(store, logger)}
	}

	fetcher, err := newFetcher(ctx, cfg)
	if err != nil {
		return err
	}

	disp := events.New()
	client := session.NewClient(session.Options{
		Endpoint:   session.Endpoint(cfg.Host, cfg.APIKey),
		Dispatcher: disp,
		Sink:       sink,
		Convention: cfg.Convention(),
		Fetcher:    fetcher,
	})

	disp.SetupComplete.Subscribe(func(struct{}) {
		fmt.Println("[session ready]")
	})
	disp.Content.Subscribe(func(parts []wire.Part) {
		for _, p := range parts {
			if p.Text != "" {
				fmt.Println(p.Text)
			}
		}
	})
	disp.Audio.Subscribe(func(buf []byte) {
		fmt.Printf("[audio %d bytes]\n", len(buf))
	})
	disp.Interrupted.Subscribe(func(struct{}) {
		fmt.Println("[interrupted]")
	})
	disp.ToolCall.Subscribe(func(tc wire.ToolCall) {
		logger.Info().Int("calls", len(tc.FunctionCalls)).Msg("tool call requested")
	})
	disp.Close.Subscribe(func(ev events.CloseEvent) {
		logger.Info().Int("code", ev.Code).Str("reason", ev.Reason).Msg("session closed")
	})

	if err := client.Connect(ctx, cfg.SessionConfig()); err != nil {
		return err
	}
	defer client.Disconnect()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			break
		}
		if err := client.Send([]wire.Part{{Text: line}}, true); err != nil {
			logger.Error().Err(err).Msg("send failed")
			break
		}
	}
	return scanner.Err()
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if strings.ToLower(cfg.Format) == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func newFetcher(ctx context.Context, cfg *config.Config) (toolcall.Fetcher, error) {
	if cfg.DocsDir != "" {
		return files.NewDocStore(cfg.DocsDir), nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return files.NewService(client), nil
}

func newLogStore(ctx context.Context, cfg config.MongoConfig) (logstore.Store, func(), error) {
	mongoClient, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongodb connect: %w", err)
	}
	cleanup := func() {
		_ = mongoClient.Disconnect(context.Background())
	}

	store := logstore.NewMongoStore(mongoClient.Database(cfg.Database), cfg.Collection)
	return store, cleanup, nil
}
