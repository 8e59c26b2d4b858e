package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbinet/npyio"
)

// ExportNPY writes each dimension's support and PMF as NumPy arrays
// <name>_x.npy and <name>_pdf.npy into dir, for plotting outside Go.
// It returns the written paths in dimension order.
func ExportNPY(dir string, snapshot *Snapshot) ([]string, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot cannot be nil")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var paths []string
	for i, d := range snapshot.Dimensions {
		base := fileStem(d.Name, i)
		for _, a := range []struct {
			suffix string
			data   []float64
		}{{"_x", d.X}, {"_pdf", d.PDF}} {
			path := filepath.Join(dir, base+a.suffix+".npy")
			if err := writeNPY(path, a.data); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
	}

	slog.Debug("Exported snapshot arrays", "run_id", snapshot.RunID, "dir", dir, "files", len(paths))
	return paths, nil
}

func writeNPY(path string, data []float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := npyio.Write(f, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadNPY reads a one-dimensional float64 array written by ExportNPY.
func ReadNPY(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read npy header: %w", err)
	}

	var data []float64
	if err := r.Read(&data); err != nil {
		return nil, fmt.Errorf("failed to read npy data: %w", err)
	}
	return data, nil
}

// fileStem makes a dimension name safe for use in a file name.
func fileStem(name string, index int) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		return fmt.Sprintf("dim%d", index)
	}
	return name
}
