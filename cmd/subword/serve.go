package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/subword/internal/api"
	"github.com/samcharles93/subword/internal/logger"
	"github.com/samcharles93/subword/internal/version"
)

func serveCmd() *cli.Command {
	var (
		modelPrefix string
		cacheSize   int64
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve encode and decode over HTTP",
		Flags: []cli.Flag{
			modelFlag(&modelPrefix),
			cacheSizeFlag(&cacheSize),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyModelConfig(cmd, cfg, &cacheSize)
			applyServeConfig(cmd, cfg, &addr)

			model, err := loadModel(ctx, cmd, modelPrefix, cacheSize)
			if err != nil {
				return err
			}

			server := api.NewServer(model, log.With("component", "api"))
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server",
				"address", addr,
				"version", version.String(),
				"merges", len(model.Merges()),
				"vocab", model.VocabSize(),
			)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
