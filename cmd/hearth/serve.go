package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hearthlabs/hearth/internal/adapters/discord"
	"github.com/hearthlabs/hearth/internal/adapters/memory"
	redisadapter "github.com/hearthlabs/hearth/internal/adapters/redis"
	"github.com/hearthlabs/hearth/internal/adapters/protocol"
	"github.com/hearthlabs/hearth/internal/bot"
	"github.com/hearthlabs/hearth/internal/config"
	"github.com/hearthlabs/hearth/internal/logging"
	"github.com/hearthlabs/hearth/internal/ops"
	"github.com/hearthlabs/hearth/internal/tasks"
	"github.com/hearthlabs/hearth/internal/threads"
	"github.com/hearthlabs/hearth/pkg/flow"
	"github.com/hearthlabs/hearth/pkg/ports"
	"github.com/hearthlabs/hearth/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to the gateway and run the bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logging.New(logLevel(cfg.LogLevel))

	store := redisadapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		redisadapter.WithTTL(cfg.Redis.TTL))
	defer store.Close()

	var profiles ports.ProfileStore
	if cfg.Profile.BaseURL != "" {
		profiles = protocol.New(cfg.Profile.BaseURL, cfg.Profile.APIKey, cfg.Profile.Timeout)
	} else {
		log.Warn("no profile backend configured, using in-memory store")
		profiles = memory.NewProfileStore()
	}

	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	messenger := discord.NewMessenger(dg)

	registry := flow.NewRegistry(flow.Deps{
		Store:     store,
		Messenger: messenger,
		Logger:    log,
	})
	registry.MustRegister(threads.Definitions(threads.Services{
		Profiles:      profiles,
		Messenger:     messenger,
		HomeGuildID:   cfg.Discord.HomeGuildID,
		ReportFormFmt: cfg.Profile.ReportFormFmt,
	})...)

	sessionOpts := []session.Option{session.WithLogger(log)}
	if cfg.Redis.DistributedLock {
		sessionOpts = append(sessionOpts,
			session.WithLocker(redisadapter.NewLocker(store.Client(), "hearth:")))
	}
	sessions := session.NewManager(sessionOpts...)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	metrics := ops.NewMetrics(promReg)

	dispatcher := bot.New(sessions, store, registry, profiles, messenger, metrics, log)

	gateway := discord.NewGateway(dg, dispatcher, log)
	if err := gateway.Open(ctx); err != nil {
		return err
	}
	defer gateway.Close()

	opsServer := ops.NewServer(cfg.Ops.Addr, store, promReg, log)
	go func() {
		if err := opsServer.ListenAndServe(); err != nil {
			log.Error("ops server", "err", err)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Tasks.WeeklyReport.Enabled {
		runner := tasks.NewRunner(redisadapter.NewMarkStore(store.Client()), log)
		report := tasks.NewWeeklyReport(profiles, messenger,
			cfg.Tasks.WeeklyReport.ChannelID, cfg.Tasks.WeeklyReport.GuildIDs, log)
		runner.Add(report.Task())
		go runner.Run(runCtx)
	}

	log.Info("hearth is running, press ctrl-c to exit")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return opsServer.Shutdown(shutdownCtx)
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
