package myftp

import (
	"context"
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

func TestNativeChecksummer(t *testing.T) {
	dir := t.TempDir()
	data := randomBytes(t, 2*BufferSize+5)
	writeFile(t, dir, "data.bin", data)

	tests := []struct {
		algorithm string
		sum       []byte
	}{
		{"", sha256Sum(data)},
		{AlgorithmSHA256, sha256Sum(data)},
		{AlgorithmSHA3_256, sha3Sum(data)},
		{AlgorithmBLAKE2b256, blake2bSum(data)},
	}

	for _, tt := range tests {
		out, err := NativeChecksummer{Algorithm: tt.algorithm}.Checksum(context.Background(), dir, "data.bin")
		require.NoError(t, err, tt.algorithm)
		assert.Equal(t, fmt.Sprintf("%x  data.bin\n", tt.sum), string(out), tt.algorithm)
	}
}

func sha256Sum(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

func sha3Sum(b []byte) []byte {
	sum := sha3.Sum256(b)
	return sum[:]
}

func blake2bSum(b []byte) []byte {
	sum := blake2b.Sum256(b)
	return sum[:]
}

func TestNativeChecksummerErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f", []byte("x"))

	_, err := NativeChecksummer{Algorithm: "md5"}.Checksum(context.Background(), dir, "f")
	assert.Error(t, err)

	_, err = NativeChecksummer{}.Checksum(context.Background(), dir, "missing")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NativeChecksummer{}.Checksum(ctx, dir, "f")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidAlgorithm(t *testing.T) {
	for _, algorithm := range []string{AlgorithmSHA256, AlgorithmSHA3_256, AlgorithmBLAKE2b256} {
		assert.True(t, ValidAlgorithm(algorithm), algorithm)
	}

	assert.False(t, ValidAlgorithm("md5"))
}
