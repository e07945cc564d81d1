package main

// myftp is the interactive myftp client.

import (
	"fmt"
	"os"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/myftp/myftp"
	"github.com/myftp/myftp/internal/config"
	"github.com/myftp/myftp/internal/logger"
	"github.com/myftp/myftp/internal/shell"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()

	var (
		cfgFile string
		history string
	)

	cmd := &cobra.Command{
		Use:   "myftp",
		Short: "Interactive myftp client",
		Long: `myftp connects to a myftp server, and transfers files to and from it.

Commands:
  open <ip> <port>   connect to a server
  ls                 list the server directory
  get <file>         download a file
  put <file>         upload a file
  sha256 <file>      show the server checksum of a file
  quit               close the connection, or leave the client`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
			}
			return run(cmd, v, history)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.StringVar(&history, "history", "", "file to keep command history in")
	flags.String("local-dir", ".", "directory to upload from and download to")
	flags.Int("dscp", 0, "DSCP code point to mark connections with (0 disables)")
	flags.String("log-level", "WARN", "log level: DEBUG, INFO, WARN or ERROR")
	flags.String("log-format", "text", "log format: text or json")
	flags.String("log-output", "stderr", "log output: stdout, stderr or a file path")

	for key, flag := range map[string]string{
		config.KeyLocalDir:  "local-dir",
		config.KeyDSCP:      "dscp",
		config.KeyLogLevel:  "log-level",
		config.KeyLogFormat: "log-format",
		config.KeyLogOutput: "log-output",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	return cmd
}

func run(cmd *cobra.Command, v *viper.Viper, history string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}

	cl, err := myftp.NewClient(
		myftp.WithLocalDir(cfg.LocalDir),
		myftp.WithClientLogger(log),
		myftp.WithClientDSCP(cfg.DSCP),
	)
	if err != nil {
		return err
	}
	defer cl.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "client(none) > ",
		HistoryFile:     history,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	return shell.New(cl, rl.Stdout(), log).Run(cmd.Context(), rl)
}
