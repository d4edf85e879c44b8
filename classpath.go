// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

// ModuleRef is the opaque module reference a Resource may carry, per
// spec.md §6. The core only needs its identity for wiring into the
// Linker's module-info case; its internal shape belongs to the host's
// module-descriptor reader.
type ModuleRef interface {
	// Name returns the module's declared name.
	Name() string
}

// Resource is a single classfile's byte source, consumed per spec.md §6.
// openOrRead/close bracket the lifetime described in spec.md §5's resource
// scoping rule: acquired at the start of a parse, released unconditionally
// at the end.
type Resource interface {
	// Open returns a ByteReader over the resource's full contents.
	Open() (ByteReader, error)
	// Close releases any handle the resource holds open.
	Close() error
	// ModuleRef returns the resource's module reference, if any.
	ModuleRef() ModuleRef
	// RelativePath is the resource's path relative to its owning
	// ClasspathElement, e.g. "com/acme/Foo.class".
	RelativePath() string
}

// ClasspathElement is a source of classfiles: a directory, archive, or
// module, consumed per spec.md §6.
type ClasspathElement interface {
	// GetResource looks up relativePath within this element, returning
	// (nil, nil) on a miss.
	GetResource(relativePath string) (Resource, error)
	// ModuleName returns the module name last recorded by a Module
	// attribute seen while scanning this element, or "" if none.
	ModuleName() string
	// SetModuleName records the module name seen in a Module attribute.
	SetModuleName(name string)
	// Describe returns a short human-readable identifier for logging.
	Describe() string
}
