package output

import (
	"fmt"
	"io"
	"strings"
)

const (
	None = "none"
	GZIP = "gzip"
	ZIP  = "zip"
	ZSTD = "zstd"
	LZ4  = "lz4"
)

// Stdout is the output path that streams to standard output.
const Stdout = "-"

// OutputConfig holds configuration for output file creation.
type OutputConfig struct {
	Path        string
	Compression string
	Format      string
}

// Compressions lists the supported compression names.
func Compressions() []string {
	return []string{None, GZIP, ZIP, ZSTD, LZ4}
}

// CreateWriter creates a new writer based on the output configuration.
// Supports various compression formats: none, gzip, zip, zstd, lz4.
// Returns an error if the compression type is unsupported or file creation fails.
// Close is idempotent on the returned writer.
func CreateWriter(cfg OutputConfig) (io.WriteCloser, error) {
	path := ResolvePath(cfg)
	var (
		w   io.WriteCloser
		err error
	)
	switch normalize(cfg.Compression) {
	case None:
		w, err = newFileWriter(path)
	case GZIP:
		w, err = newGzipWriter(path)
	case ZIP:
		w, err = newZipWriter(path, cfg.Path, cfg.Format)
	case ZSTD:
		w, err = newZstdWriter(path)
	case LZ4:
		w, err = newLz4Writer(path)
	default:
		return nil, fmt.Errorf("unsupported compression type %q", cfg.Compression)
	}
	if err != nil {
		return nil, err
	}
	return &onceCloser{WriteCloser: w}, nil
}

// ResolvePath returns the path CreateWriter writes to, including the
// extension added for the chosen compression.
func ResolvePath(cfg OutputConfig) string {
	if cfg.Path == Stdout {
		return Stdout
	}
	switch normalize(cfg.Compression) {
	case GZIP:
		return ensureSuffix(cfg.Path, ".gz")
	case ZSTD:
		return ensureSuffix(cfg.Path, ".zst")
	case LZ4:
		return ensureSuffix(cfg.Path, ".lz4")
	case ZIP:
		return fixExtension(cfg.Path, ".zip")
	}
	return cfg.Path
}

func normalize(compression string) string {
	c := strings.ToLower(strings.TrimSpace(compression))
	if c == "" {
		return None
	}
	return c
}

func ensureSuffix(path, suffix string) string {
	if strings.HasSuffix(strings.ToLower(path), suffix) {
		return path
	}
	return path + suffix
}
