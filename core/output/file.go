package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/fbz-tec/dbport/internal/logger"
)

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openTarget opens path for writing, or standard output for "-".
func openTarget(path string) (io.WriteCloser, error) {
	if path == Stdout {
		logger.Debug("Writing output to stdout")
		return nopCloser{stdout}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error creating file: %w", err)
	}
	return file, nil
}

func newFileWriter(path string) (io.WriteCloser, error) {
	logger.Debug("Creating uncompressed output file: %s", path)
	target, err := openTarget(path)
	if err != nil {
		return nil, err
	}
	// Using 256KB buffer provides optimal throughput for large exports
	return newBufferedWriteCloser(target, 256*1024), nil
}

func newGzipWriter(path string) (io.WriteCloser, error) {
	return newStreamWriter(path, "gzip", func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriter(w), nil
	})
}

func newZstdWriter(path string) (io.WriteCloser, error) {
	return newStreamWriter(path, "zstd", func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w)
	})
}

func newLz4Writer(path string) (io.WriteCloser, error) {
	return newStreamWriter(path, "lz4", func(w io.Writer) (io.WriteCloser, error) {
		return lz4.NewWriter(w), nil
	})
}

// newStreamWriter layers a compressing writer over the target; closing it
// finalizes the stream and then closes the target.
func newStreamWriter(path, name string, wrap func(io.Writer) (io.WriteCloser, error)) (io.WriteCloser, error) {
	start := time.Now()
	logger.Debug("Creating %s-compressed output: %s", name, path)
	target, err := openTarget(path)
	if err != nil {
		return nil, err
	}
	cw, err := wrap(target)
	if err != nil {
		target.Close()
		return nil, fmt.Errorf("error creating %s writer: %w", name, err)
	}
	return &compositeWriteCloser{
		Writer: cw,
		closeFunc: func() error {
			logger.Debug("Finalizing %s compression for: %s", name, path)
			var err error
			if cerr := cw.Close(); cerr != nil {
				err = cerr
			}
			if ferr := target.Close(); ferr != nil && err == nil {
				err = ferr
			}
			logger.Debug("%s output closed in %v", name, time.Since(start))
			return err
		},
	}, nil
}
