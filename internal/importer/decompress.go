package importer

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadPlanFile returns the contents of a plan export, transparently
// decompressing files whose name ends in .gz.
func ReadPlanFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".gz") {
		return io.ReadAll(f)
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}
	return data, nil
}
