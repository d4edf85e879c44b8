// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import (
	"os"
	"path/filepath"
	"sync"

	mmap "github.com/edsrzf/mmap-go"
)

// DirClasspathElement is a ClasspathElement rooted at a directory tree,
// mirroring the teacher's mmap-backed file opening (pe.New) but applied
// per-resource rather than to one whole binary.
type DirClasspathElement struct {
	root string

	mu         sync.Mutex
	moduleName string
}

// NewDirClasspathElement returns a classpath element rooted at root. The
// directory is not walked eagerly; resources are resolved lazily by
// relative path.
func NewDirClasspathElement(root string) *DirClasspathElement {
	return &DirClasspathElement{root: root}
}

// GetResource returns (nil, nil) on a miss, per spec.md §4.6's lookup
// contract, rather than treating "file does not exist" as an error.
func (d *DirClasspathElement) GetResource(relativePath string) (Resource, error) {
	full := filepath.Join(d.root, filepath.FromSlash(relativePath))
	if !isWithin(d.root, full) {
		return nil, nil
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return &dirResource{path: full, relativePath: relativePath, element: d}, nil
}

func (d *DirClasspathElement) ModuleName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.moduleName
}

func (d *DirClasspathElement) SetModuleName(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.moduleName = name
}

func (d *DirClasspathElement) Describe() string {
	return d.root
}

// isWithin reports whether target resolves inside root, guarding against
// a relativePath containing "../" escapes.
func isWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if filepath.IsAbs(rel) {
		return false
	}
	return rel == "." || (rel != ".." && rel[:min(3, len(rel))] != "../")
}

// dirResource memory-maps one classfile on Open, the way pe.New maps a
// whole PE image, and unmaps it on Close.
type dirResource struct {
	path         string
	relativePath string
	element      *DirClasspathElement

	f    *os.File
	data mmap.MMap
}

func (r *dirResource) Open() (ByteReader, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		// mmap-go rejects zero-length mappings; fall back to an empty
		// buffer rather than failing the resource outright.
		f.Close()
		return NewBufferedReader(nil), nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.f = f
	r.data = data
	return NewBufferedReader(data), nil
}

func (r *dirResource) Close() error {
	var mapErr, fileErr error
	if r.data != nil {
		mapErr = r.data.Unmap()
		r.data = nil
	}
	if r.f != nil {
		fileErr = r.f.Close()
		r.f = nil
	}
	if mapErr != nil {
		return mapErr
	}
	return fileErr
}

func (r *dirResource) ModuleRef() ModuleRef {
	return nil
}

func (r *dirResource) RelativePath() string {
	return r.relativePath
}
