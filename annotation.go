// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import "math"

// element_value tags (JVM Spec 4.7.16.1).
const (
	evByte    = 'B'
	evChar    = 'C'
	evShort   = 'S'
	evInt     = 'I'
	evBoolean = 'Z'
	evLong    = 'J'
	evFloat   = 'F'
	evDouble  = 'D'
	evString  = 's'
	evEnum    = 'e'
	evClass   = 'c'
	evAnno    = '@'
	evArray   = '['
)

// AnnotationValueKind discriminates the tagged union AnnotationValue
// represents, mirroring spec.md §3's enumeration.
type AnnotationValueKind int

const (
	AVByte AnnotationValueKind = iota
	AVChar
	AVShort
	AVInt
	AVLong
	AVFloat
	AVDouble
	AVBoolean
	AVString
	AVEnum
	AVClass
	AVAnnotation
	AVArray
)

// AnnotationValue is one decoded element_value. Exactly one field is
// meaningful, selected by Kind.
type AnnotationValue struct {
	Kind AnnotationValueKind

	Byte    int8
	Char    uint16
	Short   int16
	Int     int32
	Long    int64
	Float   float32
	Double  float64
	Bool    bool
	Str     string
	EnumDesc string
	EnumConst string
	ClassDesc string
	Nested  *Annotation
	Array   []AnnotationValue
}

// NamedValue pairs an annotation element name with its decoded value,
// preserving declaration order the way RuntimeVisibleAnnotations appears on
// the wire.
type NamedValue struct {
	Name  string
	Value AnnotationValue
}

// Annotation is one decoded `annotation` structure: a type descriptor and
// its element/value pairs.
type Annotation struct {
	TypeDescriptor string
	Elements       []NamedValue
}

// Value looks up an element by name, returning ok=false if absent.
func (a *Annotation) Value(name string) (AnnotationValue, bool) {
	for _, e := range a.Elements {
		if e.Name == name {
			return e.Value, true
		}
	}
	return AnnotationValue{}, false
}

// annotationDecoder decodes `annotation` and `element_value` structures
// against a constant pool, recursively for nested annotations and arrays.
type annotationDecoder struct {
	cp           *ConstantPool
	r            *BufferedReader
	relativePath string
}

// decodeAnnotation reads one `annotation` structure per spec.md §4.3: a u2
// type-descriptor cp-index (L...;-stripped, slash-to-dot), a u2 pair count,
// then that many (name cp-index, element_value) pairs.
func (d *annotationDecoder) decodeAnnotation() (*Annotation, error) {
	typeIdx, err := d.r.ReadU2()
	if err != nil {
		return nil, formatErrorf(d.relativePath, err, "reading annotation type_index: %v", err)
	}
	typeDesc, err := d.cp.GetUTF8(typeIdx, true, true)
	if err != nil {
		return nil, formatErrorf(d.relativePath, err, "resolving annotation type_index %d: %v", typeIdx, err)
	}
	pairCount, err := d.r.ReadU2()
	if err != nil {
		return nil, formatErrorf(d.relativePath, err, "reading num_element_value_pairs: %v", err)
	}
	ann := &Annotation{TypeDescriptor: typeDesc, Elements: make([]NamedValue, 0, pairCount)}
	for i := uint16(0); i < pairCount; i++ {
		nameIdx, err := d.r.ReadU2()
		if err != nil {
			return nil, formatErrorf(d.relativePath, err, "reading element_name_index: %v", err)
		}
		name, err := d.cp.GetUTF8(nameIdx, false, false)
		if err != nil {
			return nil, formatErrorf(d.relativePath, err, "resolving element_name_index %d: %v", nameIdx, err)
		}
		val, err := d.decodeElementValue()
		if err != nil {
			return nil, err
		}
		ann.Elements = append(ann.Elements, NamedValue{Name: name, Value: val})
	}
	return ann, nil
}

// decodeElementValue reads one `element_value`, dispatching on its tag per
// the table in spec.md §4.3.
func (d *annotationDecoder) decodeElementValue() (AnnotationValue, error) {
	tag, err := d.r.ReadU1()
	if err != nil {
		return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading element_value tag: %v", err)
	}

	switch tag {
	case evByte, evChar, evShort, evInt, evBoolean:
		idx, err := d.r.ReadU2()
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading const_value_index: %v", err)
		}
		offset, err := d.cp.resolveIntOffset(idx)
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "resolving const_value_index %d: %v", idx, err)
		}
		raw, err := d.r.ReadInt(offset)
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading int constant: %v", err)
		}
		switch tag {
		case evByte:
			return AnnotationValue{Kind: AVByte, Byte: int8(raw)}, nil
		case evChar:
			return AnnotationValue{Kind: AVChar, Char: uint16(raw)}, nil
		case evShort:
			return AnnotationValue{Kind: AVShort, Short: int16(raw)}, nil
		case evBoolean:
			return AnnotationValue{Kind: AVBoolean, Bool: raw != 0}, nil
		default:
			return AnnotationValue{Kind: AVInt, Int: raw}, nil
		}
	case evLong:
		idx, err := d.r.ReadU2()
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading const_value_index: %v", err)
		}
		offset, err := d.cp.resolveIntOffset(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		v, err := d.r.ReadLong(offset)
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading long constant: %v", err)
		}
		return AnnotationValue{Kind: AVLong, Long: v}, nil
	case evFloat:
		idx, err := d.r.ReadU2()
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading const_value_index: %v", err)
		}
		offset, err := d.cp.resolveIntOffset(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		bits, err := d.r.ReadInt(offset)
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading float constant: %v", err)
		}
		return AnnotationValue{Kind: AVFloat, Float: math.Float32frombits(uint32(bits))}, nil
	case evDouble:
		idx, err := d.r.ReadU2()
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading const_value_index: %v", err)
		}
		offset, err := d.cp.resolveIntOffset(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		bits, err := d.r.ReadLong(offset)
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading double constant: %v", err)
		}
		return AnnotationValue{Kind: AVDouble, Double: math.Float64frombits(uint64(bits))}, nil
	case evString:
		idx, err := d.r.ReadU2()
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading const_value_index: %v", err)
		}
		s, err := d.cp.GetUTF8(idx, false, false)
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "resolving string const_value_index %d: %v", idx, err)
		}
		return AnnotationValue{Kind: AVString, Str: s}, nil
	case evEnum:
		typeIdx, err := d.r.ReadU2()
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading enum type_name_index: %v", err)
		}
		constIdx, err := d.r.ReadU2()
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading enum const_name_index: %v", err)
		}
		typeDesc, err := d.cp.GetUTF8(typeIdx, true, true)
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "resolving enum type_name_index %d: %v", typeIdx, err)
		}
		constName, err := d.cp.GetUTF8(constIdx, false, false)
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "resolving enum const_name_index %d: %v", constIdx, err)
		}
		return AnnotationValue{Kind: AVEnum, EnumDesc: typeDesc, EnumConst: constName}, nil
	case evClass:
		idx, err := d.r.ReadU2()
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading class_info_index: %v", err)
		}
		desc, err := d.cp.GetUTF8(idx, true, true)
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "resolving class_info_index %d: %v", idx, err)
		}
		return AnnotationValue{Kind: AVClass, ClassDesc: desc}, nil
	case evAnno:
		nested, err := d.decodeAnnotation()
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: AVAnnotation, Nested: nested}, nil
	case evArray:
		count, err := d.r.ReadU2()
		if err != nil {
			return AnnotationValue{}, formatErrorf(d.relativePath, err, "reading array num_values: %v", err)
		}
		values := make([]AnnotationValue, 0, count)
		for i := uint16(0); i < count; i++ {
			v, err := d.decodeElementValue()
			if err != nil {
				return AnnotationValue{}, err
			}
			values = append(values, v)
		}
		return AnnotationValue{Kind: AVArray, Array: values}, nil
	default:
		return AnnotationValue{}, formatErrorf(d.relativePath, ErrUnknownElementTag, "tag 0x%x (%q)", tag, string(rune(tag)))
	}
}

// resolveIntOffset resolves a CONSTANT_Integer/Float/Long/Double slot to its
// byte offset, validating the tag is one of the numeric constant kinds.
func (cp *ConstantPool) resolveIntOffset(i uint16) (uint32, error) {
	if i == 0 || i >= cp.count {
		return 0, ErrBadIndirection
	}
	switch cp.tag[i] {
	case TagInteger, TagFloat, TagLong, TagDouble:
		return cp.offset[i], nil
	default:
		return 0, ErrBadIndirection
	}
}
