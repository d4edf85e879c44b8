// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import (
	"archive/zip"
	"bytes"
	"io"
	"sync"
)

// JarClasspathElement is a ClasspathElement backed by a jar/zip archive.
// Unlike DirClasspathElement it cannot mmap individual entries (zip
// entries are not separately addressable on disk), so resources are read
// fully into memory on Open, the way the teacher buffers a certificate
// table read wholesale from the image.
type JarClasspathElement struct {
	path string
	zr   *zip.ReadCloser

	mu         sync.Mutex
	moduleName string
	byName     map[string]*zip.File
	signer     *JarSignatureVerifier
}

// OpenJarClasspathElement opens path as a zip archive and indexes its
// entries by name for GetResource lookups.
func OpenJarClasspathElement(path string) (*JarClasspathElement, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		byName[f.Name] = f
	}

	verifier, err := NewJarSignatureVerifier(zr)
	if err != nil {
		zr.Close()
		return nil, err
	}

	return &JarClasspathElement{path: path, zr: zr, byName: byName, signer: verifier}, nil
}

// WithSignatureVerifier attaches a JarSignatureVerifier used to validate
// entries against the archive's embedded PKCS#7 signature block before
// they are handed to the parser.
func (j *JarClasspathElement) WithSignatureVerifier(v *JarSignatureVerifier) *JarClasspathElement {
	j.signer = v
	return j
}

func (j *JarClasspathElement) GetResource(relativePath string) (Resource, error) {
	f, ok := j.byName[relativePath]
	if !ok {
		return nil, nil
	}
	return &jarResource{entry: f, relativePath: relativePath, element: j}, nil
}

func (j *JarClasspathElement) ModuleName() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.moduleName
}

func (j *JarClasspathElement) SetModuleName(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.moduleName = name
}

func (j *JarClasspathElement) Describe() string {
	return j.path
}

// Close releases the underlying zip.ReadCloser.
func (j *JarClasspathElement) Close() error {
	return j.zr.Close()
}

type jarResource struct {
	entry        *zip.File
	relativePath string
	element      *JarClasspathElement
}

func (r *jarResource) Open() (ByteReader, error) {
	rc, err := r.entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := new(bytes.Buffer)
	buf.Grow(int(r.entry.UncompressedSize64))
	if _, err := io.Copy(buf, rc); err != nil {
		return nil, err
	}

	if r.element.signer != nil {
		if err := r.element.signer.Verify(r.relativePath, buf.Bytes()); err != nil {
			return nil, err
		}
	}
	return NewBufferedReader(buf.Bytes()), nil
}

func (r *jarResource) Close() error {
	return nil
}

func (r *jarResource) ModuleRef() ModuleRef {
	return nil
}

func (r *jarResource) RelativePath() string {
	return r.relativePath
}
