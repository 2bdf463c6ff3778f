package persistence

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the backup stream compressor. Backups are
// self-describing: the compression id is recorded in the backup header, so
// ReadBackup never needs to be told which one was used.
type Compression byte

const (
	// CompressionGzip compresses backups with gzip (klauspost/compress).
	CompressionGzip Compression = 1
	// CompressionLZ4 compresses backups with the LZ4 frame format.
	CompressionLZ4 Compression = 2
)

// CompressionByName maps a stable name to a Compression id.
func CompressionByName(name string) (Compression, bool) {
	switch name {
	case "gzip":
		return CompressionGzip, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", byte(c))
	}
}

func (c Compression) valid() bool {
	return c == CompressionGzip || c == CompressionLZ4
}

func compressingWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("persistence: unknown compression %d", byte(c))
	}
}

func decompressingReader(r io.Reader, c Compression) (io.Reader, error) {
	switch c {
	case CompressionGzip:
		return gzip.NewReader(r)
	case CompressionLZ4:
		return lz4.NewReader(r), nil
	default:
		return nil, fmt.Errorf("persistence: unknown compression %d", byte(c))
	}
}
