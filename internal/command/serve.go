package command

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"account-explorer/internal/server"
	"account-explorer/internal/session"
)

func ServeCommandAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	if port := cmd.String("port"); port != "" {
		rt.cfg.Port = port
	}
	if !rt.cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	// Warm the cache so a bad source shows up at startup, not on first visit.
	if _, err := rt.loader.Load(ctx, rt.source); err != nil {
		rt.logger.Warn("initial dataset load failed, dashboard will report it", zap.Error(err))
	}

	srv := server.New(server.Options{
		Source:           rt.source,
		Loader:           rt.loader,
		Geocoder:         rt.geocoder(),
		Sessions:         session.NewStore(),
		SessionSecret:    rt.cfg.Session.Secret,
		SessionTTL:       rt.cfg.Session.TTL,
		DensityPrecision: rt.cfg.DensityPrecision,
		Logger:           rt.logger,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, rt.cfg.Addr())
}

func ServeCommandBuilder() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "start the web dashboard",
		UsageText: "explorer serve [--port 9595]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port (overrides config and PORT)"},
		},
		Action: ServeCommandAction,
	}
}
