/*
 * TeenyJVM - A minimal Java bytecode interpreter
 */

package classloader

import (
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// LoadFile opens and memory-maps the class file at path, then parses
// it. The mapping is read-only, matching saferwall-pe/file.go's
// mmap.Map(f, mmap.RDONLY, 0) -- a class file is read once and never
// written, so there's no reason to copy it into a heap-allocated
// []byte up front. The returned ClassFile's Code attributes alias the
// mapping directly; call Close when the class image is no longer
// needed (normally: never, until process exit).
type LoadedClass struct {
	*ClassFile
	mapping mmap.MMap
	file    *os.File
}

// Close unmaps the file and closes its descriptor.
func (lc *LoadedClass) Close() error {
	if lc.mapping != nil {
		if err := lc.mapping.Unmap(); err != nil {
			return err
		}
	}
	if lc.file != nil {
		return lc.file.Close()
	}
	return nil
}

// LoadFile reads, maps, and parses a .class file from disk.
func LoadFile(path string) (*LoadedClass, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("statting %s: %w", path, err)
	}
	if fi.Size() == 0 {
		// mmap-go rejects zero-length mappings; treat an empty file as
		// a plain read so the decoder still gets a chance to report
		// ErrMalformedClass instead of an mmap-specific error.
		f.Close()
		cf, err := Parse(nil)
		return &LoadedClass{ClassFile: cf}, err
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}

	cf, err := Parse(data)
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}

	return &LoadedClass{ClassFile: cf, mapping: data, file: f}, nil
}
