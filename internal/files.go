// elReaper: a high-performance tool for QTL mapping.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elreaper/blob/master/LICENSE.txt>.

package internal

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// FullPathname returns an absolute version of the given filename.
func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (f gzipFile) Close() error {
	err := f.Reader.Close()
	if nerr := f.file.Close(); err == nil {
		err = nerr
	}
	return err
}

type plainFile struct {
	*bufio.Reader
	file *os.File
}

func (f plainFile) Close() error {
	return f.file.Close()
}

// IsGzip checks whether the given reader produces gzip data by
// looking at the two magic bytes, without consuming them.
func IsGzip(r *bufio.Reader) (bool, error) {
	magic, err := r.Peek(2)
	if len(magic) < 2 {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	return magic[0] == 0x1f && magic[1] == 0x8b, nil
}

// Open opens the named file for reading. Gzip and bgzf compressed
// files are detected by their magic bytes and decompressed
// transparently.
func Open(filename string) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewReader(file)
	ok, err := IsGzip(buf)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if !ok {
		return plainFile{buf, file}, nil
	}
	r, err := gzip.NewReader(buf)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return gzipFile{r, file}, nil
}
