package serve

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apiv2 "github.com/hashicorp-forge/distributor/internal/api/v2"
	"github.com/hashicorp-forge/distributor/internal/cmd/base"
	"github.com/hashicorp-forge/distributor/internal/server"
	"github.com/hashicorp-forge/distributor/pkg/auth"
	"github.com/hashicorp-forge/distributor/pkg/subscriptions"
)

type Command struct {
	*base.Command

	flagConfig string
	flagAddr   string
}

func (c *Command) Synopsis() string {
	return "Run the receiving API server"
}

func (c *Command) Help() string {
	return `Usage: distributor serve [options]

  Serves the distributor protocol so other repositories can push items
  here, read items from here and keep subscribed copies up to date.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("serve", flag.ContinueOnError))

	f.StringVar(&c.flagConfig, "config", "", "Path to the config file.")
	f.StringVar(&c.flagAddr, "addr", "", "Listen address. Overrides server.addr.")
	return f
}

func (c *Command) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := c.Open(ctx, c.flagConfig)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	defer env.Close()

	cfg := env.Config
	srv := server.Server{
		Config:     cfg,
		DB:         env.DB,
		Repository: env.Repository,
		Preparer:   env.Preparer,
		Receiver:   subscriptions.NewReceiver(env.Repository, env.Preparer, env.Repository.Hooks(), c.Log),
		Verifier: &auth.Verifier{
			Tokens:    cfg.Server.Tokens,
			Users:     cfg.Server.Users,
			JWTSecret: []byte(cfg.Server.JWTSecret),
			Audience:  cfg.Server.JWTAudience,
		},
		Logger: c.Log.Named("api"),
	}
	if !srv.Verifier.Enabled() {
		c.Log.Warn("server has no credentials configured, requests are not authenticated")
	}

	addr := cfg.Server.Addr
	if c.flagAddr != "" {
		addr = c.flagAddr
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           apiv2.NewRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Log.Info("listening", "addr", addr, "base_path", apiv2.BasePath)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			c.UI.Error(fmt.Sprintf("error serving: %v", err))
			return 1
		}
	case <-ctx.Done():
		c.Log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		c.UI.Error(fmt.Sprintf("error shutting down: %v", err))
		return 1
	}
	return 0
}
