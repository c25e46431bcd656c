// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package confx opens and saves configuration structs in
// TOML or YAML format, chosen by the file extension.
package confx

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for file extensions
// other than .toml, .yaml and .yml.
var ErrUnknownFormat = errors.New("confx: unknown config file format")

// Format is a supported config file format.
type Format int32

const (
	// TOML is the default format.
	TOML Format = iota
	YAML
)

// FormatFromFilename returns the format for the extension
// of the given file name.
func FormatFromFilename(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return TOML, fmt.Errorf("%w: %q", ErrUnknownFormat, filename)
}

// Open reads the given object from the given filename.
func Open(v any, filename string) error {
	f, err := FormatFromFilename(filename)
	if err != nil {
		return err
	}
	fp, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	return Read(v, bufio.NewReader(fp), f)
}

// Read reads the given object from the given reader in the given format.
func Read(v any, reader io.Reader, f Format) error {
	switch f {
	case YAML:
		err := yaml.NewDecoder(reader).Decode(v)
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	default:
		return toml.NewDecoder(reader).Decode(v)
	}
}

// Save writes the given object to the given filename.
func Save(v any, filename string) error {
	f, err := FormatFromFilename(filename)
	if err != nil {
		return err
	}
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	bw := bufio.NewWriter(fp)
	if err := Write(v, bw, f); err != nil {
		return err
	}
	return bw.Flush()
}

// Write writes the given object to the given writer in the given format.
func Write(v any, writer io.Writer, f Format) error {
	switch f {
	case YAML:
		enc := yaml.NewEncoder(writer)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return toml.NewEncoder(writer).Encode(v)
	}
}

// Merge copies the non-zero fields of src onto dst, so that a
// partially specified file leaves the defaults in dst untouched.
// Both must be pointers to the same struct type.
func Merge(dst, src any) error {
	return copier.CopyWithOption(dst, src, copier.Option{IgnoreEmpty: true, DeepCopy: true})
}

// OpenMerged opens the given file into a zero value of the same type
// as defaults and merges it onto defaults. A missing file is not an error.
func OpenMerged[T any](defaults *T, filename string) error {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	var file T
	if err := Open(&file, filename); err != nil {
		return err
	}
	return Merge(defaults, &file)
}
