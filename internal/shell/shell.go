// Package shell implements the interactive myftp client loop.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/chzyer/readline"

	"github.com/myftp/myftp"
	"github.com/myftp/myftp/internal/command"
)

// LineReader is the source of command lines, such as a *readline.Instance.
type LineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
}

// Shell runs client commands, and renders their outcome for a terminal.
type Shell struct {
	client *myftp.Client
	out    io.Writer
	logger *slog.Logger

	// As typed by the user, for the prompt.
	ip, port string
}

// New returns a Shell driving cl, and writing to out.
// A nil logger discards all log output.
func New(cl *myftp.Client, out io.Writer, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Shell{
		client: cl,
		out:    out,
		logger: logger,
	}
}

// Prompt returns the prompt for the current session state.
func (sh *Shell) Prompt() string {
	if !sh.client.Connected() {
		return "client(none) > "
	}
	return fmt.Sprintf("client(%s:%s) > ", sh.ip, sh.port)
}

// Run reads and executes lines from in until the user quits the client, or in is exhausted.
// At end of input, an open session is quit first.
func (sh *Shell) Run(ctx context.Context, in LineReader) error {
	for {
		in.SetPrompt(sh.Prompt())

		line, err := in.Readline()
		switch {
		case err == readline.ErrInterrupt:
			continue
		case err == io.EOF:
			if sh.client.Connected() {
				sh.Execute(ctx, "quit")
			}
			return nil
		case err != nil:
			return err
		}

		if sh.Execute(ctx, line) {
			return nil
		}
	}
}

// Execute runs a single command line.
// It reports whether the user asked to leave the client.
func (sh *Shell) Execute(ctx context.Context, line string) (exit bool) {
	cmd := command.Parse(line)

	if !sh.client.Connected() {
		switch cmd.Kind {
		case command.Open:
			sh.open(ctx, cmd)
		case command.Quit:
			sh.println("Quit myftp client.")
			return true
		default:
			sh.println("Invalid command.")
		}
		return false
	}

	switch cmd.Kind {
	case command.List:
		sh.list()
	case command.Get:
		sh.get(cmd.Name)
	case command.Put:
		sh.put(cmd.Name)
	case command.Sha:
		sh.sha256(cmd.Name)
	case command.Quit:
		sh.quit()
	default:
		sh.println("Invalid command.")
	}

	return false
}

func (sh *Shell) println(a ...any) {
	fmt.Fprintln(sh.out, a...)
}

func (sh *Shell) printf(format string, a ...any) {
	fmt.Fprintf(sh.out, format, a...)
}

func (sh *Shell) open(ctx context.Context, cmd command.Command) {
	if err := sh.client.Open(ctx, cmd.IP, cmd.Port); err != nil {
		sh.logger.Debug("open failed", "ip", cmd.IP, "port", cmd.Port, "error", err)
		sh.printf("Connect to server: %s:%s error.\n", cmd.IP, cmd.Port)
		return
	}

	sh.ip, sh.port = cmd.IP, cmd.Port
}

// report prints the message for an outcome that left the session open,
// and reports whether there was one.
func (sh *Shell) report(name string, err error) bool {
	switch {
	case errors.Is(err, myftp.ErrRemoteNotExist):
		sh.printf("Remote file `%s' does not exist.\n", name)
	case errors.Is(err, myftp.ErrLocalNotExist):
		sh.printf("Local file `%s' does not exist.\n", name)
	case errors.Is(err, myftp.ErrRemoteRefused):
		sh.printf("Remote refused file `%s'.\n", name)
	case errors.Is(err, myftp.ErrFileTooLarge):
		sh.printf("Local file `%s' is too large.\n", name)
	case errors.Is(err, myftp.ErrInvalidName):
		sh.printf("Invalid file name `%s'.\n", name)
	default:
		return false
	}
	return true
}

func (sh *Shell) list() {
	listing, err := sh.client.List()
	if err != nil {
		sh.logger.Debug("list failed", "error", err)
		sh.println("List file error.")
		return
	}

	sh.println("------List of files------")
	sh.out.Write(listing)
	sh.println("----List of files end----")
}

func (sh *Shell) get(name string) {
	n, err := sh.client.Get(name)
	if err != nil {
		if sh.report(name, err) {
			return
		}
		sh.logger.Debug("get failed", "name", name, "error", err)
		sh.println("Download file error.")
		return
	}

	sh.logger.Info("downloaded", "name", name, "bytes", n)
}

func (sh *Shell) put(name string) {
	n, err := sh.client.Put(name)
	if err != nil {
		if sh.report(name, err) {
			return
		}
		sh.logger.Debug("put failed", "name", name, "error", err)
		sh.println("Upload file error.")
		return
	}

	sh.logger.Info("uploaded", "name", name, "bytes", n)
}

func (sh *Shell) sha256(name string) {
	sum, err := sh.client.Sha256(name)
	if err != nil {
		if sh.report(name, err) {
			return
		}
		sh.logger.Debug("sha256 failed", "name", name, "error", err)
		sh.println("Sha256sum file error.")
		return
	}

	sh.println("------Sha256 result------")
	sh.out.Write(sum)
	sh.println("----Sha256 result end----")
}

func (sh *Shell) quit() {
	if err := sh.client.Quit(); err != nil {
		sh.logger.Debug("quit failed", "error", err)
		sh.println("Quit connection error.")
		return
	}

	sh.println("Quit successfully.")
}
