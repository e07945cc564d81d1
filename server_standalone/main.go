package main

// myftp-server serves one directory over the myftp protocol.

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/myftp/myftp"
	"github.com/myftp/myftp/internal/config"
	"github.com/myftp/myftp/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()

	var cfgFile string

	cmd := &cobra.Command{
		Use:   "myftp-server <ip> <port>",
		Short: "Serve a directory over the myftp protocol",
		Long: `myftp-server exposes a directory to myftp clients.

Every setting can also be given as an environment variable,
MYFTP_<KEY> with dots replaced by underscores, or in a config file:

  MYFTP_LOG_LEVEL=DEBUG myftp-server 127.0.0.1 2121`,
		Args:          validateArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
			}
			return run(cmd.Context(), v, net.JoinHostPort(args[0], args[1]))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.String("root", ".", "directory to serve")
	flags.String("tools", config.ToolsNative, "listing and checksum tools: native or exec")
	flags.String("checksum", myftp.AlgorithmSHA256, "native checksum algorithm: sha256, sha3-256 or blake2b-256")
	flags.Bool("long", false, "list files in long format")
	flags.Int("dscp", 0, "DSCP code point to mark connections with (0 disables)")
	flags.String("metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")
	flags.String("log-level", "INFO", "log level: DEBUG, INFO, WARN or ERROR")
	flags.String("log-format", "text", "log format: text or json")
	flags.String("log-output", "stderr", "log output: stdout, stderr or a file path")

	for key, flag := range map[string]string{
		config.KeyRoot:        "root",
		config.KeyTools:       "tools",
		config.KeyChecksum:    "checksum",
		config.KeyLong:        "long",
		config.KeyDSCP:        "dscp",
		config.KeyMetricsAddr: "metrics-addr",
		config.KeyLogLevel:    "log-level",
		config.KeyLogFormat:   "log-format",
		config.KeyLogOutput:   "log-output",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	return cmd
}

// validateArgs requires an IP literal and a decimal port.
func validateArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(2)(cmd, args); err != nil {
		return errors.Errorf("%v\nUsage: %s", err, cmd.UseLine())
	}

	if net.ParseIP(args[0]) == nil {
		return errors.Errorf("invalid IP address %q\nUsage: %s", args[0], cmd.UseLine())
	}

	port := args[1]
	if port == "" || strings.TrimLeft(port, "0123456789") != "" {
		return errors.Errorf("invalid port %q\nUsage: %s", port, cmd.UseLine())
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return errors.Errorf("port out of range %q\nUsage: %s", port, cmd.UseLine())
	}

	return nil
}

func run(ctx context.Context, v *viper.Viper, addr string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv, err := myftp.NewServer(
		myftp.WithRootDir(cfg.Root),
		myftp.WithLogger(log),
		myftp.WithLister(cfg.Lister()),
		myftp.WithChecksummer(cfg.Checksummer()),
		myftp.WithDSCP(cfg.DSCP),
		myftp.WithRegisterer(reg),
	)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

		go func() {
			log.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		srv.Close()
	}()

	err = srv.ListenAndServe(addr)
	if err == myftp.ErrServerClosed {
		return nil
	}
	return err
}
