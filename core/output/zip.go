package output

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fbz-tec/dbport/internal/logger"
)

func newZipWriter(path, entryPath, format string) (io.WriteCloser, error) {
	start := time.Now()
	logger.Debug("Creating zip-compressed output: %s", path)
	target, err := openTarget(path)
	if err != nil {
		return nil, err
	}
	zipWriter := zip.NewWriter(target)
	entryName := determineZipEntryName(entryPath, format)
	logger.Debug("Creating zip entry: %s", entryName)
	entryWriter, err := zipWriter.Create(entryName)
	if err != nil {
		zipWriter.Close()
		target.Close()
		return nil, fmt.Errorf("error creating zip entry: %w", err)
	}
	return &compositeWriteCloser{
		Writer: entryWriter,
		closeFunc: func() error {
			logger.Debug("Finalizing zip archive: %s", path)
			var err error
			if cerr := zipWriter.Close(); cerr != nil {
				err = cerr
			}
			if ferr := target.Close(); ferr != nil && err == nil {
				err = ferr
			}
			logger.Debug("ZIP output closed in %v", time.Since(start))
			return err
		},
	}, nil
}

func determineZipEntryName(outputPath, format string) string {
	name := ""
	if outputPath != Stdout {
		name = strings.TrimSuffix(strings.ToLower(filepath.Base(outputPath)), ".zip")
	}

	if name == "" || name == "." {
		name = "export"
	}

	if format != "" && format != "template" && !strings.HasSuffix(name, "."+format) {
		name = fmt.Sprintf("%s.%s", name, format)
	}

	return name
}

func fixExtension(path, extension string) string {
	ext := filepath.Ext(path)

	if strings.ToLower(ext) != extension {
		path = path[:len(path)-len(ext)] + extension
	}
	return path
}
