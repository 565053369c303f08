package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirenchuang/pcli2-mcp/internal/executor"
	"github.com/shirenchuang/pcli2-mcp/internal/mcp"
	"github.com/shirenchuang/pcli2-mcp/internal/tools"
	"github.com/shirenchuang/pcli2-mcp/pkg/config"
	"github.com/shirenchuang/pcli2-mcp/pkg/logger"
	"github.com/spf13/pflag"
)

var version = "0.1.0"

func main() {
	flags := pflag.NewFlagSet("pcli2-mcp", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "config.yaml", "config file path")
	showVersion := flags.BoolP("version", "v", false, "print version and exit")
	printConfig := flags.Bool("print-config", false, "print an annotated example config and exit")
	check := flags.Bool("check", false, "verify that pcli2 can be started and exit")
	config.RegisterFlags(flags)
	flags.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("%s %s\n", mcp.ServerName, version)
		return
	}
	if *printConfig {
		os.Stdout.Write(config.Example())
		return
	}

	*configPath = config.FindFile(*configPath)
	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Infof("%s %s starting", mcp.ServerName, version)
	logger.Infof("config file: %s", *configPath)

	if *check {
		reported, err := checkProgram(context.Background(), cfg.GetResolvedProgram())
		if err != nil {
			logger.Errorf("pcli2 check failed: %v", err)
			os.Exit(1)
		}
		logger.Infof("pcli2 ok: %s", reported)
		return
	}

	config.Watch(func(next *config.Config, err error) {
		if err != nil {
			logger.Warnf("config reload rejected: %v", err)
			return
		}
		logger.SetLevel(next.Logging.Level)
		logger.Infof("config reloaded, log level: %s", next.Logging.Level)
	})

	registry, err := tools.NewRegistry(cfg.GetResolvedProgram(), tools.Catalog())
	if err != nil {
		logger.Errorf("failed to build tool registry: %v", err)
		os.Exit(1)
	}

	if _, err := exec.LookPath(registry.Program()); err != nil {
		logger.Warnf("%s is not runnable yet, every tool call will fail until it is: %v", registry.Program(), err)
	}

	pool := executor.NewPool(cfg.PCLI2.MaxConcurrent)
	defer pool.Close()

	runner := executor.New(executor.Limits{
		Timeout:        cfg.PCLI2.Timeout,
		MaxOutputBytes: cfg.PCLI2.MaxOutputBytes,
		WaitDelay:      cfg.PCLI2.WaitDelay,
	})

	mcpServer := mcp.NewServer(mcp.Options{
		Registry: registry,
		Runner:   runner,
		Pool:     pool,
		Shaper: mcp.NewShaper(mcp.ShaperOptions{
			InlineImages:   cfg.PCLI2.InlineImages,
			Timeout:        cfg.PCLI2.Timeout,
			MaxOutputBytes: cfg.PCLI2.MaxOutputBytes,
		}),
		Version:        version,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		AcquireTimeout: cfg.PCLI2.AcquireTimeout,
	})

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpServer)
	mux.Handle("/health", mcpServer.HealthHandler())

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: mux,

		// WriteTimeout has to outlast the slowest pcli2 call
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("MCP server listening on http://%s/mcp", cfg.Addr())

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("HTTP server failed: %v", err)
			os.Exit(1)
		}
	}()

	printUsageInfo(cfg, registry)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	// in-flight calls finish or hit their own timeout first
	ctx, cancel := context.WithTimeout(context.Background(), cfg.PCLI2.Timeout+10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("shutdown failed: %v", err)
	}

	logger.Info("server stopped")
}

// printUsageInfo prints the startup banner
func printUsageInfo(cfg *config.Config, registry *tools.Registry) {
	fmt.Println()
	fmt.Printf("🚀 %s %s is running\n", mcp.ServerName, version)
	fmt.Println()
	fmt.Printf("📡 MCP endpoint: http://%s/mcp\n", cfg.Addr())
	fmt.Printf("💓 Health:       http://%s/health\n", cfg.Addr())
	fmt.Println()
	fmt.Printf("⚙️  pcli2: %s (timeout %s, output cap %s, %d concurrent)\n",
		registry.Program(), cfg.PCLI2.Timeout, humanize.IBytes(uint64(cfg.PCLI2.MaxOutputBytes)), cfg.PCLI2.MaxConcurrent)
	fmt.Println()
	fmt.Println("📋 Setup:")
	fmt.Println("1. Make sure pcli2 is authenticated in this user's environment:")
	fmt.Printf("   %s tenant list\n", registry.Program())
	fmt.Println()
	fmt.Println("2. Add the server to your MCP client:")
	fmt.Println("   ./pcli2-mcp-client-config --format json")
	fmt.Printf("   claude mcp add --transport http %s http://%s/mcp\n", mcp.ServerName, cfg.Addr())
	fmt.Println()
	fmt.Printf("3. Available tools (%d):\n", registry.Len())
	for _, t := range registry.List() {
		fmt.Printf("   - %s: %s\n", t.Name, t.Title)
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()
}
