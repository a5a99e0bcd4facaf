// Package archive reads mods out of zip archives held in memory.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tie/modlauncher/modlauncher"
)

var ErrNoEntry = errors.New("no such archive entry")

func open(data []byte) (*zip.Reader, error) {
	z, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, modlauncher.Archive(err)
	}
	return z, nil
}

// Entries returns the names of all file entries in archive order.
func Entries(data []byte) ([]string, error) {
	z, err := open(data)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(z.File))
	for _, f := range z.File {
		// If last char in file name is slash,
		// then the entry represents a directory.
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		names = append(names, f.Name)
	}
	return names, nil
}

// Extract returns the contents of the entry called name.
func Extract(data []byte, name string) ([]byte, error) {
	z, err := open(data)
	if err != nil {
		return nil, err
	}
	for _, f := range z.File {
		if f.Name != name {
			continue
		}
		return readFile(f)
	}
	return nil, modlauncher.Archive(fmt.Errorf("%w: %q", ErrNoEntry, name))
}

func readFile(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, modlauncher.Archive(err)
	}
	defer r.Close()
	var buf bytes.Buffer
	buf.Grow(int(f.UncompressedSize64))
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, modlauncher.Archive(err)
	}
	return buf.Bytes(), nil
}

// FirstJar extracts the first entry whose name ends in ".jar".
func FirstJar(data []byte) (name string, jar []byte, err error) {
	names, err := Entries(data)
	if err != nil {
		return "", nil, err
	}
	for _, name := range names {
		if !strings.HasSuffix(name, ".jar") {
			continue
		}
		jar, err := Extract(data, name)
		return name, jar, err
	}
	return "", nil, modlauncher.InvalidDescriptor("no JAR in archive")
}
