package myftp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kr/fs"
	"github.com/pkg/errors"
)

// NativeLister lists the entries of a directory without running an external command.
// Entries are listed one per line, in lexical order, the way `ls` prints to a pipe.
type NativeLister struct {
	// Long renders each entry in `ls -l` style.
	Long bool

	// ShowHidden includes entries starting with a dot.
	ShowHidden bool
}

// List implements Lister.
func (l NativeLister) List(ctx context.Context, dir string) ([]byte, error) {
	var out bytes.Buffer

	w := fs.Walk(dir)
	for w.Step() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := w.Err(); err != nil {
			if w.Path() == dir {
				return nil, errors.Wrap(err, "list")
			}
			continue
		}

		if w.Path() == dir {
			continue
		}

		fi := w.Stat()
		if fi.IsDir() {
			// Only the top level is listed.
			w.SkipDir()
		}

		if !l.ShowHidden && strings.HasPrefix(fi.Name(), ".") {
			continue
		}

		if l.Long {
			out.WriteString(formatLongname(fi))
		} else {
			out.WriteString(fi.Name())
		}
		out.WriteByte('\n')
	}

	return out.Bytes(), nil
}

// formatLongname formats the FileInfo as per `ls -l` style.
func formatLongname(fi os.FileInfo) string {
	// format:
	// {directory / char device / etc}{rwxrwxrwx}  {number of links} owner group size month day [time (this year) | year (otherwise)] name

	numLinks, uid, gid := lsLinksUIDGID(fi)

	mtime := fi.ModTime()
	month := mtime.Format("Jan")
	day := mtime.Format("2")

	var yearOrTime string
	if mtime.Before(time.Now().AddDate(0, -6, 0)) {
		yearOrTime = mtime.Format("2006")
	} else {
		yearOrTime = mtime.Format("15:04")
	}

	return fmt.Sprintf("%s %4s %-8s %-8s %8d %s %2s %5s %s", fi.Mode(), numLinks, uid, gid, fi.Size(), month, day, yearOrTime, fi.Name())
}
