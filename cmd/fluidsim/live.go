package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/san-kum/fluidsim/internal/stream"
	"github.com/san-kum/fluidsim/internal/viz"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	liveFPS    int
	serveFPS   int
	streamAddr string
)

func newLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := newEngine(cmd)
			if err != nil {
				return err
			}
			return viz.Run(eng, liveFPS)
		},
	}
	cmd.Flags().IntVar(&liveFPS, "fps", 30, "frame rate")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "stream positions to websocket renderers",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&streamAddr, "addr", "", "listen address (default from config)")
	cmd.Flags().IntVar(&serveFPS, "fps", 0, "frame rate (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, cfg, err := newEngine(cmd)
	if err != nil {
		return err
	}
	if streamAddr != "" {
		cfg.Stream.Addr = streamAddr
	}
	if serveFPS > 0 {
		cfg.Stream.FPS = serveFPS
	}

	srv := stream.NewServer(stream.NewHub(), slog.Default())

	ctx, cancel := signalContext()
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx, cfg.Stream.Addr) })
	g.Go(func() error { return stream.Run(ctx, eng, srv, cfg.Stream.FPS) })

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
