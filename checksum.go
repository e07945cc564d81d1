package myftp

import (
	"context"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Digest algorithms understood by NativeChecksummer.
const (
	AlgorithmSHA256     = "sha256"
	AlgorithmSHA3_256   = "sha3-256"
	AlgorithmBLAKE2b256 = "blake2b-256"
)

// NativeChecksummer hashes a file in-process,
// and formats the result the way sha256sum does: "<hex digest>  <name>\n".
type NativeChecksummer struct {
	// Algorithm defaults to AlgorithmSHA256.
	Algorithm string
}

func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "", AlgorithmSHA256:
		return sha256.New(), nil
	case AlgorithmSHA3_256:
		return sha3.New256(), nil
	case AlgorithmBLAKE2b256:
		return blake2b.New256(nil)
	default:
		return nil, errors.Errorf("unknown checksum algorithm %q", algorithm)
	}
}

// ValidAlgorithm reports whether NativeChecksummer supports the named algorithm.
func ValidAlgorithm(algorithm string) bool {
	_, err := newHash(algorithm)
	return err == nil
}

// Checksum implements Checksummer.
func (c NativeChecksummer) Checksum(ctx context.Context, dir, name string) ([]byte, error) {
	h, err := newHash(c.Algorithm)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := io.Copy(h, &ctxReader{ctx: ctx, r: f}); err != nil {
		return nil, errors.Wrapf(err, "checksum %s", name)
	}

	return fmt.Appendf(nil, "%x  %s\n", h.Sum(nil), name), nil
}

// ctxReader stops reading once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
