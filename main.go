package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/cupogo/andvari/utils/zlog"

	"github.com/liut/typist/pkg/client"
	"github.com/liut/typist/pkg/services/llm"
	"github.com/liut/typist/pkg/services/relay"
	"github.com/liut/typist/pkg/services/stores"
	"github.com/liut/typist/pkg/settings"
	"github.com/liut/typist/pkg/tui"
	"github.com/liut/typist/pkg/web"
)

func main() {
	app := &cli.App{
		Name:           "typist",
		Usage:          "streaming chat relay with a typewriter terminal client",
		Version:        settings.Current.Version,
		DefaultCommand: "web",
		Commands: []*cli.Command{
			{
				Name:   "web",
				Usage:  "run the chat relay server",
				Action: runWeb,
			},
			{
				Name:  "chat",
				Usage: "open the terminal chat",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "server", Aliases: []string{"s"}, Value: settings.Current.ServerURL, Usage: "relay server url"},
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "user id, random when empty"},
					&cli.BoolFlag{Name: "no-stream", Usage: "ask for whole replies instead of an event stream"},
				},
				Action: runChat,
			},
			{
				Name:  "usage",
				Usage: "show environment settings",
				Action: func(*cli.Context) error {
					return settings.Usage()
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(outputs ...string) (*zap.SugaredLogger, error) {
	var zc zap.Config
	if settings.InDevelop() {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if len(outputs) > 0 {
		zc.OutputPaths = outputs
		zc.ErrorOutputPaths = outputs
	}
	zlogger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(zlogger)
	sugar := zlogger.Sugar()
	zlog.Set(sugar)
	return sugar, nil
}

func runWeb(cc *cli.Context) error {
	sugar, err := setupLogger()
	if err != nil {
		return err
	}
	defer func() { _ = sugar.Sync() }()

	cfg := settings.Current
	preset, err := stores.LoadPreset(cfg.PresetFile)
	if err != nil {
		return err
	}
	preamble := cfg.SystemPrompt
	if len(preset.SystemPrompt) > 0 {
		preamble = preset.SystemPrompt
	}
	var welcome string
	if preset.Welcome != nil {
		welcome = preset.Welcome.Content
	}

	ctx := context.Background()
	sto := stores.NewConversations()
	pvd := llm.NewFromSettings(cfg, preset)
	sugar.Infow("provider ready", "name", pvd.Name())

	lstore, err := stores.NewLimiterStore(ctx, cfg.LimiterRedisURI)
	if err != nil {
		sugar.Warnw("limiter store unavailable, chat is not limited", "err", err)
	}

	srv := web.New(web.Config{
		Addr:  cfg.HTTPListen,
		Debug: settings.InDevelop(),
		Relay: relay.New(relay.Config{
			Store:    sto,
			Provider: pvd,
			Preamble: preamble,
			Window:   cfg.ContextWindow,
			Cap:      cfg.HistoryCap,
		}),
		Store:        sto,
		Welcome:      welcome,
		LimiterStore: lstore,
		RateLimit:    cfg.RateLimit,
	})

	idleClosed := make(chan struct{})
	go func() {
		quit := make(chan os.Signal, 2)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		sugar.Info("shuting down server...")
		sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := srv.Stop(sctx); err != nil {
			sugar.Infow("server shutdown:", "err", err)
		}
		close(idleClosed)
	}()

	if err := srv.Serve(ctx); err != nil {
		sugar.Infow("serve fail", "err", err)
		return err
	}

	<-idleClosed
	return nil
}

func runChat(cc *cli.Context) error {
	// 日志写文件，终端留给界面
	sugar, err := setupLogger(settings.Current.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = sugar.Sync() }()

	c := client.New(cc.String("server"),
		client.WithUserID(cc.String("user")),
		client.WithStream(!cc.Bool("no-stream")),
	)
	sugar.Infow("chat start", "server", cc.String("server"), "uid", c.UserID())

	ctx, cancel := context.WithTimeout(cc.Context, 3*time.Second)
	welcome, err := c.Welcome(ctx)
	cancel()
	if err != nil {
		sugar.Infow("fetch welcome fail", "err", err)
	}

	p := tea.NewProgram(tui.New(c, tui.Options{
		Welcome: welcome,
		Cadence: settings.Current.TypingCadence,
	}), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
