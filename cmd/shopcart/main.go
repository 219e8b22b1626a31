// shopcart is a terminal front-end for the cart and checkout engine.
//
// Usage:
//
//	shopcart show
//	shopcart add [-qty N] <product-id>
//	shopcart update <product-id> <quantity>
//	shopcart remove <product-id>
//	shopcart clear
//	shopcart login -token T -id ID -email E [-first F -last L]
//	shopcart logout
//	shopcart checkout [-address A] [-payment credit_card|debit_card|paypal] [-yes]
//	shopcart orders [-id ORDER]
//
// Configuration is read from .env and the environment, see internal/config.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/nikolayk812/shopcart/internal/app"
	"github.com/nikolayk812/shopcart/internal/config"
	"github.com/nikolayk812/shopcart/internal/logger"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage: shopcart <command> [flags]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "shopcart: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "commands: %s\n", strings.Join(commandNames(), ", "))
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("command[%s] is unknown: %w", args[0], errUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("logger.New: %w", err)
	}
	defer func() { _ = log.Sync() }()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("app.New: %w", err)
	}
	defer a.Close()

	if err := a.Bootstrap(ctx); err != nil {
		return err
	}

	log.Debug("running command", zap.String("command", args[0]), zap.String("backend", cfg.StorageBackend))

	c := &cli{app: a, out: out}
	return cmd(c, ctx, args[0], args[1:])
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
