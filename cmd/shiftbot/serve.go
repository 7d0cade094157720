package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/goodjobs/shiftbot/internal/admin"
	"github.com/goodjobs/shiftbot/internal/alert"
	alertdiscord "github.com/goodjobs/shiftbot/internal/alert/discord"
	alertslack "github.com/goodjobs/shiftbot/internal/alert/slack"
	"github.com/goodjobs/shiftbot/internal/bot"
	"github.com/goodjobs/shiftbot/internal/config"
	"github.com/goodjobs/shiftbot/internal/db"
	"github.com/goodjobs/shiftbot/internal/dialog"
	"github.com/goodjobs/shiftbot/internal/geo"
	"github.com/goodjobs/shiftbot/internal/line"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Long:  "Starts the LINE webhook endpoint and the management API, plus the dialog state sweeper.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "shiftbot.yaml", "path to config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	if err := db.SeedAdmin(gormDB, cfg.Admin); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database ready (%s)\n", cfg.DB.Driver)

	client, err := line.NewClient(line.ClientOpts{Config: cfg.Line})
	if err != nil {
		return err
	}

	reporter, err := buildReporter(cfg)
	if err != nil {
		return err
	}

	gateway := &bot.Gateway{
		Handler:       &bot.Handler{DB: gormDB},
		Replier:       client,
		ChannelSecret: cfg.Line.ChannelSecret,
		Alerts:        reporter,
	}
	api := &admin.API{
		DB:       gormDB,
		Secret:   cfg.Admin.JWTSecret,
		TokenTTL: time.Duration(cfg.Admin.TokenTTLMinute) * time.Minute,
		Geo:      geo.NewClient(geo.ClientOpts{}),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	gateway.Register(router)
	api.Register(router)

	// Sweep abandoned dialog states on the configured schedule.
	sweeper := cron.New()
	ttl := time.Duration(cfg.Dialog.StateTTLHours) * time.Hour
	_, err = sweeper.AddFunc(cfg.Dialog.CleanupSchedule, func() {
		n, err := dialog.CleanupExpired(gormDB, ttl)
		if err != nil {
			log.Printf("serve: dialog cleanup: %v", err)
			return
		}
		if n > 0 {
			log.Printf("serve: swept %d stale dialog states", n)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule dialog cleanup %q: %w", cfg.Dialog.CleanupSchedule, err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(out, "Webhook server listening on :%d\n", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	fmt.Fprintln(out, "Server stopped.")
	return nil
}

// buildReporter assembles the operator alert fan-out from whichever
// channels are configured.
func buildReporter(cfg *config.Config) (*alert.Reporter, error) {
	var adapters []alert.Adapter

	if cfg.Alerts.Slack.Token != "" {
		a, err := alertslack.New(alertslack.AdapterOpts{
			Token:     cfg.Alerts.Slack.Token,
			ChannelID: cfg.Alerts.Slack.Channel,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}

	if cfg.Alerts.Discord.Token != "" {
		a, err := alertdiscord.New(alertdiscord.AdapterOpts{
			BotToken:  cfg.Alerts.Discord.Token,
			ChannelID: cfg.Alerts.Discord.Channel,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}

	return alert.NewReporter(adapters...), nil
}
