// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package typesig parses JVM type descriptors and generic signatures
// (JVM Spec 4.3 and 4.7.9.1) far enough to recover the internal class
// names they mention. It is the leaf dependency spec.md §6 names as
// "TypeSignature" / "MethodTypeSignature", implemented here rather than
// assumed, grounded on the sort/descriptor constants in raskyer-asm's
// asm/typed package.
package typesig

import (
	"fmt"
	"strings"
)

// Sort values, named after raskyer-asm's typed.* constants.
const (
	Void = iota
	Boolean
	Char
	Byte
	Short
	Int
	Float
	Long
	Double
	Array
	Object
	Method
)

var primitiveDescriptors = map[byte]int{
	'V': Void, 'Z': Boolean, 'C': Char, 'B': Byte, 'S': Short,
	'I': Int, 'F': Float, 'J': Long, 'D': Double,
}

// ParseException reports malformed descriptor/signature input, matching the
// ParseException spec.md §6 says TypeSignature.parse may throw.
type ParseException struct {
	Input string
	Msg   string
}

func (e *ParseException) Error() string {
	return fmt.Sprintf("malformed type signature %q: %s", e.Input, e.Msg)
}

// ClassNameCollector accumulates internal (slash-separated) class names
// converted to dotted form as they're discovered.
type ClassNameCollector = map[string]struct{}

// TypeSignature is a parsed field descriptor or field generic signature.
type TypeSignature struct {
	sort       int
	classNames []string // dotted names referenced anywhere in this type
}

// FindReferencedClassNames adds every class name this signature mentions
// into out.
func (t *TypeSignature) FindReferencedClassNames(out ClassNameCollector) {
	for _, n := range t.classNames {
		out[n] = struct{}{}
	}
}

// MethodTypeSignature is a parsed method descriptor or method generic
// signature.
type MethodTypeSignature struct {
	classNames []string
}

// FindReferencedClassNames adds every class name this signature mentions
// into out.
func (m *MethodTypeSignature) FindReferencedClassNames(out ClassNameCollector) {
	for _, n := range m.classNames {
		out[n] = struct{}{}
	}
}

// Parse parses internalName, a field descriptor (e.g. "[Ljava/lang/String;")
// or a field generic signature (e.g. "Ljava/util/List<Ljava/lang/String;>;"),
// relative to definingClass (used only in error messages).
func Parse(internalName, definingClass string) (*TypeSignature, error) {
	p := &parser{input: internalName, definingClass: definingClass}
	names := make(map[string]struct{})
	if err := p.parseFieldType(names); err != nil {
		return nil, err
	}
	if p.pos != len(p.input) {
		return nil, &ParseException{Input: internalName, Msg: "trailing characters after type"}
	}
	return &TypeSignature{classNames: setToSlice(names)}, nil
}

// ParseMethod parses descriptor, a method descriptor (e.g. "(I)V") or method
// generic signature, relative to definingClassName (used only in error
// messages).
func ParseMethod(descriptor, definingClassName string) (*MethodTypeSignature, error) {
	p := &parser{input: descriptor, definingClass: definingClassName}
	names := make(map[string]struct{})

	if p.peek() == '<' {
		if err := p.skipFormalTypeParameters(names); err != nil {
			return nil, err
		}
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	for p.peek() != ')' && p.pos < len(p.input) {
		if err := p.parseFieldType(names); err != nil {
			return nil, err
		}
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	if p.peek() == 'V' {
		p.pos++
	} else if p.pos < len(p.input) {
		if err := p.parseFieldType(names); err != nil {
			return nil, err
		}
	}
	// Generic signatures may continue with "^Exception" throws clauses;
	// each mentions a class type we also want to collect.
	for p.pos < len(p.input) && p.input[p.pos] == '^' {
		p.pos++
		if err := p.parseFieldType(names); err != nil {
			return nil, err
		}
	}
	return &MethodTypeSignature{classNames: setToSlice(names)}, nil
}

type parser struct {
	input         string
	pos           int
	definingClass string
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) expect(c byte) error {
	if p.peek() != c {
		return &ParseException{Input: p.input, Msg: fmt.Sprintf("expected %q at position %d (defined in %s)", c, p.pos, p.definingClass)}
	}
	p.pos++
	return nil
}

// parseFieldType parses one field type: a primitive, an array, a plain
// object type, a type variable reference, or a generic class type with
// type arguments and/or a dotted inner-class suffix.
func (p *parser) parseFieldType(names ClassNameCollector) error {
	if p.pos >= len(p.input) {
		return &ParseException{Input: p.input, Msg: "unexpected end of input"}
	}
	c := p.input[p.pos]
	switch {
	case c == '[':
		p.pos++
		return p.parseFieldType(names)
	case c == 'L':
		return p.parseClassType(names)
	case c == 'T':
		// Type variable reference: T<ident>;
		p.pos++
		start := p.pos
		for p.pos < len(p.input) && p.input[p.pos] != ';' {
			p.pos++
		}
		_ = p.input[start:p.pos]
		return p.expect(';')
	default:
		if _, ok := primitiveDescriptors[c]; ok {
			p.pos++
			return nil
		}
		return &ParseException{Input: p.input, Msg: fmt.Sprintf("unrecognized type character %q", c)}
	}
}

// parseClassType parses "L" internalName typeArguments? ("." ident typeArguments?)* ";".
func (p *parser) parseClassType(names ClassNameCollector) error {
	if err := p.expect('L'); err != nil {
		return err
	}
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == ';' || c == '<' || c == '.' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return &ParseException{Input: p.input, Msg: "empty internal class name"}
	}
	internal := p.input[start:p.pos]
	names[strings.ReplaceAll(internal, "/", ".")] = struct{}{}

	if p.peek() == '<' {
		if err := p.parseTypeArguments(names); err != nil {
			return err
		}
	}
	for p.peek() == '.' {
		p.pos++
		innerStart := p.pos
		for p.pos < len(p.input) {
			c := p.input[p.pos]
			if c == ';' || c == '<' || c == '.' {
				break
			}
			p.pos++
		}
		inner := p.input[innerStart:p.pos]
		names[strings.ReplaceAll(internal, "/", ".")+"$"+inner] = struct{}{}
		if p.peek() == '<' {
			if err := p.parseTypeArguments(names); err != nil {
				return err
			}
		}
	}
	return p.expect(';')
}

func (p *parser) parseTypeArguments(names ClassNameCollector) error {
	if err := p.expect('<'); err != nil {
		return err
	}
	for p.peek() != '>' {
		switch p.peek() {
		case '*':
			p.pos++
		case '+', '-':
			p.pos++
			if err := p.parseFieldType(names); err != nil {
				return err
			}
		default:
			if err := p.parseFieldType(names); err != nil {
				return err
			}
		}
		if p.pos >= len(p.input) {
			return &ParseException{Input: p.input, Msg: "unterminated type arguments"}
		}
	}
	return p.expect('>')
}

// skipFormalTypeParameters consumes a class/method generic signature's
// leading "<T:Lbound;...>" block, collecting bound class names.
func (p *parser) skipFormalTypeParameters(names ClassNameCollector) error {
	if err := p.expect('<'); err != nil {
		return err
	}
	for p.peek() != '>' {
		for p.peek() != ':' {
			p.pos++
			if p.pos >= len(p.input) {
				return &ParseException{Input: p.input, Msg: "unterminated formal type parameter"}
			}
		}
		p.pos++ // consume ':'
		for p.peek() == ':' {
			p.pos++ // multiple interface bounds
		}
		if p.peek() != ':' && p.peek() != '>' {
			if err := p.parseFieldType(names); err != nil {
				return err
			}
		}
		for p.peek() == ':' {
			p.pos++
			if err := p.parseFieldType(names); err != nil {
				return err
			}
		}
	}
	return p.expect('>')
}

func setToSlice(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
