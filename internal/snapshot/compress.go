package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	apperrors "github.com/nmxmxh/atomview/pkg/errors"
)

const (
	// GzipHeader prefixes every compressed payload.
	GzipHeader = "gzip:"

	// MinCompressSize is the smallest payload worth compressing.
	MinCompressSize = 1024
	// MaxCompressedSize bounds the compressed payload accepted or produced.
	MaxCompressedSize = 50 * 1024 * 1024
	// MaxDecompressedSize bounds the payload before compression and after
	// decompression.
	MaxDecompressedSize = 200 * 1024 * 1024
)

type limits struct {
	min, compressed, decompressed int
}

var defaultLimits = limits{
	min:          MinCompressSize,
	compressed:   MaxCompressedSize,
	decompressed: MaxDecompressedSize,
}

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// IsCompressed reports whether data carries the gzip header.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, []byte(GzipHeader))
}

// Compress gzips data behind GzipHeader. Payloads under MinCompressSize, and
// payloads that would not fit MaxCompressedSize once compressed, are returned
// unchanged.
func Compress(data []byte) ([]byte, error) {
	return defaultLimits.compress(data)
}

// Decompress reverses Compress. Data without the header is returned as is.
func Decompress(data []byte) ([]byte, error) {
	return defaultLimits.decompress(data)
}

func (l limits) compress(data []byte) ([]byte, error) {
	if len(data) > l.decompressed {
		return nil, fmt.Errorf("%d bytes exceeds %d: %w", len(data), l.decompressed, apperrors.ErrSnapshotTooLarge)
	}
	if len(data) < l.min {
		return data, nil
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()
	buf.WriteString(GzipHeader)

	gz, err := gzip.NewWriterLevel(buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}

	if buf.Len()-len(GzipHeader) > l.compressed {
		return data, nil
	}
	return bytes.Clone(buf.Bytes()), nil
}

func (l limits) decompress(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}
	body := data[len(GzipHeader):]
	if len(body) > l.compressed {
		return nil, fmt.Errorf("compressed payload of %d bytes exceeds %d: %w", len(body), l.compressed, apperrors.ErrSnapshotTooLarge)
	}

	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gzip header: %w", err)
	}
	defer gz.Close()

	out, err := io.ReadAll(io.LimitReader(gz, int64(l.decompressed)+1))
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	if len(out) > l.decompressed {
		return nil, fmt.Errorf("decompressed payload exceeds %d bytes: %w", l.decompressed, apperrors.ErrSnapshotTooLarge)
	}
	return out, nil
}
