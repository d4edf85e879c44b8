// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package classgraph decodes JVM classfiles and links the decoded records
// into a graph of classes, packages and modules.
//
// A single classfile is turned into a ParsedClass by a ClassfileParser.
// ParsedClass records are produced concurrently (one ClassfileParser per
// worker) and fed to a Linker, which must run single-threaded and owns the
// shared ClassInfo/PackageInfo/ModuleInfo maps.
package classgraph
