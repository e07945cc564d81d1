package myftp

import (
	"context"
	"os/exec"

	"github.com/pkg/errors"
)

// Lister produces the directory listing text sent in reply to a list request.
// The server treats the output as opaque bytes.
type Lister interface {
	List(ctx context.Context, dir string) ([]byte, error)
}

// Checksummer produces the digest text sent in reply to a sha request,
// for the regular file name inside dir.
// The server treats the output as opaque bytes.
type Checksummer interface {
	Checksum(ctx context.Context, dir, name string) ([]byte, error)
}

// ExecLister runs an external listing command inside the directory, and returns its standard output.
type ExecLister struct {
	// Command defaults to "ls".
	Command string
	Args    []string
}

// List implements Lister.
func (l ExecLister) List(ctx context.Context, dir string) ([]byte, error) {
	name := l.Command
	if name == "" {
		name = "ls"
	}

	return runTool(ctx, dir, name, l.Args...)
}

// ExecChecksummer runs an external digest command on the file, and returns its standard output.
type ExecChecksummer struct {
	// Command defaults to "sha256sum".
	Command string
	Args    []string
}

// Checksum implements Checksummer.
func (c ExecChecksummer) Checksum(ctx context.Context, dir, name string) ([]byte, error) {
	cmd := c.Command
	if cmd == "" {
		cmd = "sha256sum"
	}

	// "--" keeps names starting with a dash from being read as flags.
	args := append(append([]string(nil), c.Args...), "--", name)
	return runTool(ctx, dir, cmd, args...)
}

func runTool(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	out, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", name)
	}

	return out, nil
}

// ListerFunc adapts an ordinary function to the Lister interface.
type ListerFunc func(ctx context.Context, dir string) ([]byte, error)

// List calls f(ctx, dir).
func (f ListerFunc) List(ctx context.Context, dir string) ([]byte, error) {
	return f(ctx, dir)
}

// ChecksummerFunc adapts an ordinary function to the Checksummer interface.
type ChecksummerFunc func(ctx context.Context, dir, name string) ([]byte, error)

// Checksum calls f(ctx, dir, name).
func (f ChecksummerFunc) Checksum(ctx context.Context, dir, name string) ([]byte, error) {
	return f(ctx, dir, name)
}
