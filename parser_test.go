// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import (
	"errors"
	"testing"
)

// bytesResource is a minimal in-memory Resource for parser tests, since
// no binary fixtures are bundled.
type bytesResource struct {
	data         []byte
	relativePath string
}

func (r *bytesResource) Open() (ByteReader, error) { return NewBufferedReader(r.data), nil }
func (r *bytesResource) Close() error               { return nil }
func (r *bytesResource) ModuleRef() ModuleRef       { return nil }
func (r *bytesResource) RelativePath() string       { return r.relativePath }

func TestParseMinimalPublicClass(t *testing.T) {
	data := buildMinimalClassfile("Foo")
	p := NewClassfileParser(&Options{})
	record, outcome, err := p.Parse(&bytesResource{data: data, relativePath: "Foo.class"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if outcome != OutcomeParsed {
		t.Fatalf("Parse() outcome = %v, want OutcomeParsed", outcome)
	}
	if record.ClassName != "Foo" {
		t.Fatalf("ClassName = %q, want %q", record.ClassName, "Foo")
	}
	if record.SuperclassName != "java.lang.Object" {
		t.Fatalf("SuperclassName = %q, want java.lang.Object", record.SuperclassName)
	}
	if len(record.Fields) != 0 || len(record.Methods) != 0 {
		t.Fatalf("expected no fields/methods, got %d/%d", len(record.Fields), len(record.Methods))
	}
}

func TestParseJavaLangObjectIsSkipped(t *testing.T) {
	data := buildMinimalClassfile("java/lang/Object")
	p := NewClassfileParser(&Options{})
	_, outcome, err := p.Parse(&bytesResource{data: data, relativePath: "java/lang/Object.class"})
	if outcome != OutcomeSkipped {
		t.Fatalf("Parse() outcome = %v, want OutcomeSkipped", outcome)
	}
	var skipErr *SkipError
	if !errors.As(err, &skipErr) || skipErr.Reason != SkipJavaLangObject {
		t.Fatalf("Parse() error = %v, want SkipError{SkipJavaLangObject}", err)
	}
}

func TestParseNonPublicClassSkippedWhenVisibilityEnforced(t *testing.T) {
	b := newClassfileBuilder()
	thisIdx := b.addClass("pkg/Hidden")
	superIdx := b.addClass("java/lang/Object")
	data := b.finish(0 /* no ACC_PUBLIC */, thisIdx, superIdx, nil, nil, nil)

	p := NewClassfileParser(&Options{})
	_, outcome, err := p.Parse(&bytesResource{data: data, relativePath: "pkg/Hidden.class"})
	if outcome != OutcomeSkipped {
		t.Fatalf("Parse() outcome = %v, want OutcomeSkipped", outcome)
	}
	var skipErr *SkipError
	if !errors.As(err, &skipErr) || skipErr.Reason != SkipNotVisible {
		t.Fatalf("Parse() error = %v, want SkipError{SkipNotVisible}", err)
	}
}

func TestParseNonPublicClassAllowedWhenIgnoringVisibility(t *testing.T) {
	b := newClassfileBuilder()
	thisIdx := b.addClass("pkg/Hidden")
	superIdx := b.addClass("java/lang/Object")
	data := b.finish(0, thisIdx, superIdx, nil, nil, nil)

	p := NewClassfileParser(&Options{IgnoreClassVisibility: true})
	record, outcome, err := p.Parse(&bytesResource{data: data, relativePath: "pkg/Hidden.class"})
	if err != nil || outcome != OutcomeParsed {
		t.Fatalf("Parse() = %v, %v, want OutcomeParsed", outcome, err)
	}
	if record.ClassName != "pkg.Hidden" {
		t.Fatalf("ClassName = %q, want pkg.Hidden", record.ClassName)
	}
}

func TestParseEmptyClassNameIsFormatError(t *testing.T) {
	b := newClassfileBuilder()
	thisIdx := b.addClass("")
	superIdx := b.addClass("java/lang/Object")
	data := b.finish(AccPublic, thisIdx, superIdx, nil, nil, nil)

	p := NewClassfileParser(&Options{})
	_, outcome, err := p.Parse(&bytesResource{data: data, relativePath: "Empty.class"})
	if outcome != OutcomeError {
		t.Fatalf("Parse() outcome = %v, want OutcomeError", outcome)
	}
	var fmtErr *ClassfileFormatError
	if !errors.As(err, &fmtErr) {
		t.Fatalf("Parse() error = %v (%T), want *ClassfileFormatError", err, err)
	}
}

func TestParseBadMagicIsFormatError(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0, 0, 1}
	p := NewClassfileParser(&Options{})
	_, outcome, err := p.Parse(&bytesResource{data: data, relativePath: "Bad.class"})
	if outcome != OutcomeError {
		t.Fatalf("Parse() outcome = %v, want OutcomeError", outcome)
	}
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("Parse() error = %v, want ErrBadMagic", err)
	}
}

func TestParseInnerClassesContainmentPair(t *testing.T) {
	b := newClassfileBuilder()
	thisIdx := b.addClass("Outer$Inner")
	superIdx := b.addClass("java/lang/Object")
	innerIdx := b.addClass("Outer$Inner")
	outerIdx := b.addClass("Outer")
	innerNameIdx := b.addUTF8("Inner")
	attrNameIdx := b.addUTF8(attrInnerClasses)

	var innerClassesBody []byte
	innerClassesBody = u16(innerClassesBody, 1) // number_of_classes
	innerClassesBody = u16(innerClassesBody, innerIdx)
	innerClassesBody = u16(innerClassesBody, outerIdx)
	innerClassesBody = u16(innerClassesBody, innerNameIdx)
	innerClassesBody = u16(innerClassesBody, 0) // inner_class_access_flags

	var classAttrs []byte
	classAttrs = u16(classAttrs, 1) // attributes_count
	classAttrs = attribute(classAttrs, attrNameIdx, innerClassesBody)

	data := b.finish(AccPublic, thisIdx, superIdx, nil, nil, classAttrs)

	p := NewClassfileParser(&Options{})
	record, outcome, err := p.Parse(&bytesResource{data: data, relativePath: "Outer$Inner.class"})
	if err != nil || outcome != OutcomeParsed {
		t.Fatalf("Parse() = %v, %v", outcome, err)
	}
	if len(record.InnerClasses) != 1 {
		t.Fatalf("InnerClasses = %v, want 1 entry", record.InnerClasses)
	}
	got := record.InnerClasses[0]
	if got.Inner != "Outer$Inner" || got.Outer != "Outer" {
		t.Fatalf("InnerClasses[0] = %+v, want Inner=Outer$Inner Outer=Outer", got)
	}
}

func TestParseModuleInfoRecordsModuleName(t *testing.T) {
	b := newClassfileBuilder()
	thisIdx := b.addClass("module-info")
	moduleNameIdx := b.addClass("com.acme.mymodule")
	attrNameIdx := b.addUTF8(attrModule)

	var moduleBody []byte
	moduleBody = u16(moduleBody, moduleNameIdx)

	var classAttrs []byte
	classAttrs = u16(classAttrs, 1)
	classAttrs = attribute(classAttrs, attrNameIdx, moduleBody)

	data := b.finish(AccModule, thisIdx, 0, nil, nil, classAttrs)

	p := NewClassfileParser(&Options{})
	record, outcome, err := p.Parse(&bytesResource{data: data, relativePath: "module-info.class"})
	if err != nil || outcome != OutcomeParsed {
		t.Fatalf("Parse() = %v, %v", outcome, err)
	}
	if record.ModuleName != "com.acme.mymodule" {
		t.Fatalf("ModuleName = %q, want com.acme.mymodule", record.ModuleName)
	}
}
