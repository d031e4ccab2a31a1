package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Export writes a zstd-compressed tar snapshot of the archive root to w.
// Paths inside the tarball are relative to the archive root, so the
// snapshot restores under any directory.
func (s *Store) Export(w io.Writer) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	tw := tar.NewWriter(enc)

	walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if walkErr != nil {
		tw.Close()
		enc.Close()
		return fmt.Errorf("failed to snapshot archive: %w", walkErr)
	}

	if err := tw.Close(); err != nil {
		enc.Close()
		return fmt.Errorf("failed to finalize tar: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize zstd stream: %w", err)
	}
	return nil
}

// ExportToFile writes the snapshot to a file path
func (s *Store) ExportToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := s.Export(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
