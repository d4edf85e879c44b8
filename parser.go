// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import (
	"strings"

	"github.com/go-kratos/kratos/v2/log"
)

const classMagic = 0xCAFEBABE

// ClassfileParser is the orchestrator of spec.md §4.4. One instance is
// owned per worker and reused across successive classfiles: its
// ConstantPool's backing arrays are grown, never reallocated from scratch,
// the way spec.md §5 and §9 require.
type ClassfileParser struct {
	opts   *Options
	logger *log.Helper
	cp     ConstantPool
	ahead  []byte // unused; bufferByteReader allocates a fresh buffer per resource
}

// NewClassfileParser constructs a parser for opts, which may be nil for an
// all-defaults, maximally conservative configuration.
func NewClassfileParser(opts *Options) *ClassfileParser {
	if opts == nil {
		opts = &Options{}
	}
	return &ClassfileParser{opts: opts, logger: opts.helper()}
}

// Parse parses one classfile resource. It acquires the resource at entry
// and releases it unconditionally on every return path, per spec.md §5's
// resource-scoping rule.
func (p *ClassfileParser) Parse(res Resource) (*ParsedClass, Outcome, error) {
	br, err := res.Open()
	if err != nil {
		return nil, OutcomeError, formatErrorf(res.RelativePath(), err, "opening resource: %v", err)
	}
	defer res.Close()

	reader, ok := br.(*BufferedReader)
	if !ok {
		// Host supplied a different ByteReader; buffer it the same way a
		// stream-backed Resource would be buffered.
		buffered, err := bufferByteReader(br)
		if err != nil {
			return nil, OutcomeError, formatErrorf(res.RelativePath(), err, "buffering resource: %v", err)
		}
		reader = buffered
	}

	record, outcome, err := p.parseFrom(reader, res.RelativePath())
	if err != nil {
		switch e := err.(type) {
		case *SkipError:
			p.logger.Warnw("msg", "skipping classfile", "path", res.RelativePath(), "reason", e.Reason.String())
		case *ClassfileFormatError:
			p.logger.Errorw("msg", "classfile format error", "path", res.RelativePath(), "error", e.Error())
		}
		return nil, outcome, err
	}
	return record, outcome, nil
}

// parseFrom drives the fixed section order spec.md §4.4 requires: magic,
// version, constant pool, basic info, interfaces, fields, methods, class
// attributes. No reordering is permitted by the format.
func (p *ClassfileParser) parseFrom(r *BufferedReader, relativePath string) (*ParsedClass, Outcome, error) {
	magic, err := r.ReadU4()
	if err != nil {
		return nil, OutcomeError, formatErrorf(relativePath, err, "reading magic: %v", err)
	}
	if magic != classMagic {
		return nil, OutcomeError, formatErrorf(relativePath, ErrBadMagic, "magic 0x%08x", magic)
	}

	if _, err := r.ReadU2(); err != nil { // minor version, discarded
		return nil, OutcomeError, formatErrorf(relativePath, err, "reading minor_version: %v", err)
	}
	if _, err := r.ReadU2(); err != nil { // major version, discarded
		return nil, OutcomeError, formatErrorf(relativePath, err, "reading major_version: %v", err)
	}

	if err := p.cp.parse(r, relativePath); err != nil {
		return nil, OutcomeError, err
	}

	record, outcome, err := p.parseBasicInfo(r, relativePath)
	if err != nil || outcome != OutcomeParsed {
		return nil, outcome, err
	}

	if err := p.parseInterfaces(r, record, relativePath); err != nil {
		return nil, OutcomeError, err
	}
	if err := p.parseFields(r, record, relativePath); err != nil {
		return nil, OutcomeError, err
	}
	if err := p.parseMethods(r, record, relativePath); err != nil {
		return nil, OutcomeError, err
	}
	if err := p.parseClassAttributes(r, record, relativePath); err != nil {
		return nil, OutcomeError, err
	}

	if p.opts.EnableInterClassDependencies {
		refs, err := collectReferencedClassNames(&p.cp, record.ClassName, relativePath)
		if err != nil {
			return nil, OutcomeError, err
		}
		record.ReferencedClassNames = mergeRefSets(record.ReferencedClassNames, refs)
	}
	addStructuralReferences(record)

	return record, OutcomeParsed, nil
}

// parseBasicInfo implements spec.md §4.4 item 4: modifiers, class name
// (with the java.lang.Object and visibility skip rules), path-match check,
// and superclass.
func (p *ClassfileParser) parseBasicInfo(r *BufferedReader, relativePath string) (*ParsedClass, Outcome, error) {
	modifiers, err := r.ReadU2()
	if err != nil {
		return nil, OutcomeError, formatErrorf(relativePath, err, "reading access_flags: %v", err)
	}
	nameIdx, err := r.ReadU2()
	if err != nil {
		return nil, OutcomeError, formatErrorf(relativePath, err, "reading this_class: %v", err)
	}
	className, err := p.cp.GetClassName(nameIdx)
	if err != nil {
		return nil, OutcomeError, formatErrorf(relativePath, err, "resolving this_class: %v", err)
	}
	if className == "" {
		return nil, OutcomeError, formatErrorf(relativePath, ErrEmptyClassName, "this_class resolves to an empty name")
	}

	if className == "java.lang.Object" {
		return nil, OutcomeSkipped, &SkipError{RelativePath: relativePath, Reason: SkipJavaLangObject}
	}

	isModule := modifiers&AccModule != 0
	isPackageInfo := strings.HasSuffix(className, ".package-info") || className == "package-info"
	if !p.opts.IgnoreClassVisibility && modifiers&AccPublic == 0 && !isModule && !isPackageInfo {
		return nil, OutcomeSkipped, &SkipError{RelativePath: relativePath, Reason: SkipNotVisible}
	}

	expectedPath := strings.ReplaceAll(className, ".", "/") + ".class"
	if expectedPath != relativePath {
		return nil, OutcomeSkipped, &SkipError{RelativePath: relativePath, Reason: SkipPathMismatch}
	}

	superIdx, err := r.ReadU2()
	if err != nil {
		return nil, OutcomeError, formatErrorf(relativePath, err, "reading super_class: %v", err)
	}
	superName := ""
	if superIdx != 0 {
		superName, err = p.cp.GetClassName(superIdx)
		if err != nil {
			return nil, OutcomeError, formatErrorf(relativePath, err, "resolving super_class: %v", err)
		}
	}

	record := &ParsedClass{
		ClassName:      className,
		Modifiers:      modifiers,
		IsInterface:    modifiers&AccInterface != 0,
		IsAnnotation:   modifiers&AccAnnotation != 0,
		SuperclassName: superName,
	}
	return record, OutcomeParsed, nil
}

// parseInterfaces implements spec.md §4.4 item 5.
func (p *ClassfileParser) parseInterfaces(r *BufferedReader, record *ParsedClass, relativePath string) error {
	count, err := r.ReadU2()
	if err != nil {
		return formatErrorf(relativePath, err, "reading interfaces_count: %v", err)
	}
	if count == 0 {
		return nil
	}
	record.Interfaces = make([]string, 0, count)
	for i := uint16(0); i < count; i++ {
		idx, err := r.ReadU2()
		if err != nil {
			return formatErrorf(relativePath, err, "reading interfaces[%d]: %v", i, err)
		}
		name, err := p.cp.GetClassName(idx)
		if err != nil {
			return formatErrorf(relativePath, err, "resolving interfaces[%d]: %v", i, err)
		}
		record.Interfaces = append(record.Interfaces, name)
	}
	return nil
}

// mergeRefSets merges b into a (allocating a if nil) and returns the
// result.
func mergeRefSets(a, b map[string]struct{}) map[string]struct{} {
	if a == nil {
		a = make(map[string]struct{}, len(b))
	}
	for k := range b {
		a[k] = struct{}{}
	}
	return a
}

// addStructuralReferences folds the superclass, interfaces, and all
// gathered annotations' type descriptors into the referenced-class-name
// set, per the testable invariant in spec.md §8 ("contains every class
// named by the superclass, each interface, each annotation, and each
// field/method type descriptor").
func addStructuralReferences(record *ParsedClass) {
	if record.SuperclassName != "" {
		record.addReferencedClassName(record.SuperclassName)
	}
	for _, iface := range record.Interfaces {
		record.addReferencedClassName(iface)
	}
	walkAnnotations(record.ClassAnnotations, record.addReferencedClassName)
	for _, f := range record.Fields {
		walkAnnotations(f.Annotations, record.addReferencedClassName)
	}
	for _, m := range record.Methods {
		walkAnnotations(m.Annotations, record.addReferencedClassName)
		for _, paramAnns := range m.ParameterAnnotations {
			walkAnnotations(paramAnns, record.addReferencedClassName)
		}
	}
}

// walkAnnotations visits every annotation type descriptor (including
// nested annotations reachable through array/annotation element values)
// and calls add for each.
func walkAnnotations(anns []*Annotation, add func(string)) {
	for _, a := range anns {
		add(a.TypeDescriptor)
		for _, e := range a.Elements {
			walkAnnotationValue(e.Value, add)
		}
	}
}

func walkAnnotationValue(v AnnotationValue, add func(string)) {
	switch v.Kind {
	case AVAnnotation:
		if v.Nested != nil {
			walkAnnotations([]*Annotation{v.Nested}, add)
		}
	case AVArray:
		for _, elem := range v.Array {
			walkAnnotationValue(elem, add)
		}
	}
}

// bufferByteReader drains an arbitrary ByteReader into a fresh
// BufferedReader by reading it sequentially from its current cursor to
// Len(). Used only when a host supplies its own ByteReader implementation.
func bufferByteReader(br ByteReader) (*BufferedReader, error) {
	total := br.Len()
	buf := make([]byte, total)
	for i := uint32(0); i < total; i++ {
		b, err := br.ReadU1()
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return NewBufferedReader(buf), nil
}
