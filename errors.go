// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by ClassfileFormatError. These mirror the named
// Err... variables the teacher keeps in helper.go, one per distinct failure
// mode, so callers can errors.Is against a specific cause.
var (
	ErrBadMagic            = errors.New("bad magic number, not a classfile")
	ErrMalformedUTF8        = errors.New("malformed modified utf-8")
	ErrUnexpectedEOF        = errors.New("unexpected end of classfile")
	ErrUnknownConstantTag   = errors.New("unknown constant pool tag")
	ErrBadIndirection       = errors.New("invalid constant pool indirection")
	ErrUnknownElementTag    = errors.New("unknown annotation element_value tag")
	ErrBadSubField          = errors.New("invalid constant pool sub-field request")
	ErrDescriptorMismatch   = errors.New("field descriptor is inconsistent with its attribute")
	ErrEmptyClassName       = errors.New("class name is empty")
)

// ClassfileFormatError reports that a classfile violates the binary format
// and cannot be parsed further. It is non-retryable for the offending
// classfile; see SkipError for the non-fatal "don't include this class"
// signal. No stack trace is captured — the message is the diagnostic, the
// same trade the teacher makes for its Err... sentinels.
type ClassfileFormatError struct {
	RelativePath string
	Message      string
	Cause        error
}

func (e *ClassfileFormatError) Error() string {
	if e.RelativePath == "" {
		return fmt.Sprintf("classfile format error: %s", e.Message)
	}
	return fmt.Sprintf("classfile format error in %s: %s", e.RelativePath, e.Message)
}

func (e *ClassfileFormatError) Unwrap() error { return e.Cause }

func formatErrorf(relativePath string, cause error, format string, args ...any) *ClassfileFormatError {
	return &ClassfileFormatError{
		RelativePath: relativePath,
		Message:      fmt.Sprintf(format, args...),
		Cause:        cause,
	}
}

// SkipReason identifies why a classfile was excluded from the scan without
// being a format error.
type SkipReason int

const (
	// SkipJavaLangObject is raised for java.lang.Object, whose null
	// superclass would otherwise break linking assumptions.
	SkipJavaLangObject SkipReason = iota
	// SkipNotVisible is raised for a non-public class when visibility
	// enforcement is enabled and the class is neither a module nor a
	// package descriptor.
	SkipNotVisible
	// SkipPathMismatch is raised when the resource's relative path does not
	// match name.replace('.', '/') + ".class".
	SkipPathMismatch
)

func (r SkipReason) String() string {
	switch r {
	case SkipJavaLangObject:
		return "java.lang.Object"
	case SkipNotVisible:
		return "not visible"
	case SkipPathMismatch:
		return "path does not match class name"
	default:
		return "unknown"
	}
}

// SkipError is the non-fatal "do not include this classfile" signal. It is
// a first-class outcome (see Outcome) rather than a thrown value, per the
// exceptions-as-control-flow redesign note.
type SkipError struct {
	RelativePath string
	Reason       SkipReason
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipping %s: %s", e.RelativePath, e.Reason)
}
