package batch

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

// Format is the archive container of a team download.
type Format string

const (
	FormatZip   Format = "zip"
	FormatTarXZ Format = "tar.xz"
)

func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatZip:
		return FormatZip, nil
	case FormatTarXZ, "txz":
		return FormatTarXZ, nil
	default:
		return "", fmt.Errorf("unsupported archive format %q", raw)
	}
}

func (f Format) ContentType() string {
	if f == FormatTarXZ {
		return "application/x-xz"
	}
	return "application/zip"
}

func (f Format) Extension() string {
	if f == FormatTarXZ {
		return ".tar.xz"
	}
	return ".zip"
}

type archiveFile struct {
	name string
	body []byte
}

func writeArchive(format Format, files []archiveFile, modified time.Time) ([]byte, error) {
	if format == FormatTarXZ {
		return writeTarXZ(files, modified)
	}
	return writeZip(files, modified)
}

func writeZip(files []archiveFile, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", f.name, err)
		}
		if _, err := w.Write(f.body); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish zip: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTarXZ(files []archiveFile, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("start xz stream: %w", err)
	}
	tw := tar.NewWriter(xw)
	for _, f := range files {
		hdr := &tar.Header{
			Name:    f.name,
			Mode:    0o644,
			Size:    int64(len(f.body)),
			ModTime: modified,
			Format:  tar.FormatPAX,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("add %s: %w", f.name, err)
		}
		if _, err := tw.Write(f.body); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("finish tar: %w", err)
	}
	if err := xw.Close(); err != nil {
		return nil, fmt.Errorf("finish xz stream: %w", err)
	}
	return buf.Bytes(), nil
}
