// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import "math"

// parseFields implements spec.md §4.4 item 6.
func (p *ClassfileParser) parseFields(r *BufferedReader, record *ParsedClass, relativePath string) error {
	count, err := r.ReadU2()
	if err != nil {
		return formatErrorf(relativePath, err, "reading fields_count: %v", err)
	}

	for i := uint16(0); i < count; i++ {
		access, err := r.ReadU2()
		if err != nil {
			return formatErrorf(relativePath, err, "reading field[%d].access_flags: %v", i, err)
		}
		nameIdx, err := r.ReadU2()
		if err != nil {
			return formatErrorf(relativePath, err, "reading field[%d].name_index: %v", i, err)
		}
		descIdx, err := r.ReadU2()
		if err != nil {
			return formatErrorf(relativePath, err, "reading field[%d].descriptor_index: %v", i, err)
		}
		attrCount, err := r.ReadU2()
		if err != nil {
			return formatErrorf(relativePath, err, "reading field[%d].attributes_count: %v", i, err)
		}

		visible := access&AccPublic != 0 || p.opts.IgnoreFieldVisibility
		isStaticFinal := access&AccStatic != 0 && access&AccFinal != 0

		name, err := p.cp.GetUTF8(nameIdx, false, false)
		if err != nil {
			return formatErrorf(relativePath, err, "resolving field[%d].name_index: %v", i, err)
		}
		descriptor, err := p.cp.GetUTF8(descIdx, true, false)
		if err != nil {
			return formatErrorf(relativePath, err, "resolving field[%d].descriptor_index: %v", i, err)
		}

		var signature string
		var constantValue any
		var annotations []*Annotation

		for a := uint16(0); a < attrCount; a++ {
			attrNameIdx, err := r.ReadU2()
			if err != nil {
				return formatErrorf(relativePath, err, "reading field[%d] attribute name: %v", i, err)
			}
			length, err := r.ReadU4()
			if err != nil {
				return formatErrorf(relativePath, err, "reading field[%d] attribute length: %v", i, err)
			}
			end := r.Curr() + length

			switch {
			case p.cp.equalsLiteral(attrNameIdx, attrConstantValue) && isStaticFinal &&
				p.opts.EnableStaticFinalFieldConstantInitializerValues:
				idx, err := r.ReadU2()
				if err != nil {
					return formatErrorf(relativePath, err, "reading ConstantValue index: %v", err)
				}
				constantValue, err = p.resolveConstantValue(idx, descriptor, relativePath)
				if err != nil {
					return err
				}
				if err := skipRemainder(r, end, relativePath, attrConstantValue); err != nil {
					return err
				}
			case p.cp.equalsLiteral(attrNameIdx, attrSignature):
				idx, err := r.ReadU2()
				if err != nil {
					return formatErrorf(relativePath, err, "reading Signature index: %v", err)
				}
				signature, err = p.cp.GetUTF8(idx, true, false)
				if err != nil {
					return formatErrorf(relativePath, err, "resolving Signature index: %v", err)
				}
				if err := skipRemainder(r, end, relativePath, attrSignature); err != nil {
					return err
				}
			case p.cp.equalsLiteral(attrNameIdx, attrRuntimeVisibleAnnotations) && p.annotationInfoEnabled(false):
				annotations, err = p.decodeAnnotationList(r, relativePath)
				if err != nil {
					return err
				}
				if err := skipRemainder(r, end, relativePath, attrRuntimeVisibleAnnotations); err != nil {
					return err
				}
			case p.cp.equalsLiteral(attrNameIdx, attrRuntimeInvisibleAnnotations) && p.annotationInfoEnabled(true):
				invisible, err := p.decodeAnnotationList(r, relativePath)
				if err != nil {
					return err
				}
				annotations = append(annotations, invisible...)
				if err := skipRemainder(r, end, relativePath, attrRuntimeInvisibleAnnotations); err != nil {
					return err
				}
			default:
				if err := r.Skip(length); err != nil {
					return formatErrorf(relativePath, err, "skipping field[%d] attribute: %v", i, err)
				}
			}
		}

		emit := visible && (p.opts.EnableFieldInfo ||
			(p.opts.EnableStaticFinalFieldConstantInitializerValues && isStaticFinal && constantValue != nil))
		if !emit {
			continue
		}

		field := &FieldInfo{
			Name:          name,
			Modifiers:     access,
			Descriptor:    descriptor,
			Signature:     signature,
			ConstantValue: constantValue,
		}
		if p.opts.EnableFieldInfo {
			field.Annotations = annotations
		}
		record.Fields = append(record.Fields, field)
	}
	return nil
}

// resolveConstantValue reads the ConstantValue attribute's single cp-index
// and interprets it per the field descriptor's first character, per
// spec.md §4.4 item 6.
func (p *ClassfileParser) resolveConstantValue(idx uint16, descriptor, relativePath string) (any, error) {
	if descriptor == "" {
		return nil, formatErrorf(relativePath, ErrDescriptorMismatch, "empty field descriptor for ConstantValue")
	}
	switch descriptor[0] {
	case 'I', 'S', 'C', 'B', 'Z':
		offset, err := p.cp.resolveIntOffset(idx)
		if err != nil {
			return nil, formatErrorf(relativePath, err, "resolving ConstantValue index %d: %v", idx, err)
		}
		v, err := p.cp.reader.ReadInt(offset)
		if err != nil {
			return nil, formatErrorf(relativePath, err, "reading ConstantValue int: %v", err)
		}
		switch descriptor[0] {
		case 'Z':
			return v != 0, nil
		case 'C':
			return uint16(v), nil
		case 'S':
			return int16(v), nil
		case 'B':
			return int8(v), nil
		default:
			return v, nil
		}
	case 'J':
		offset, err := p.cp.resolveIntOffset(idx)
		if err != nil {
			return nil, formatErrorf(relativePath, err, "resolving ConstantValue index %d: %v", idx, err)
		}
		v, err := p.cp.reader.ReadLong(offset)
		if err != nil {
			return nil, formatErrorf(relativePath, err, "reading ConstantValue long: %v", err)
		}
		return v, nil
	case 'F':
		offset, err := p.cp.resolveIntOffset(idx)
		if err != nil {
			return nil, formatErrorf(relativePath, err, "resolving ConstantValue index %d: %v", idx, err)
		}
		bits, err := p.cp.reader.ReadInt(offset)
		if err != nil {
			return nil, formatErrorf(relativePath, err, "reading ConstantValue float: %v", err)
		}
		return math.Float32frombits(uint32(bits)), nil
	case 'D':
		offset, err := p.cp.resolveIntOffset(idx)
		if err != nil {
			return nil, formatErrorf(relativePath, err, "resolving ConstantValue index %d: %v", idx, err)
		}
		bits, err := p.cp.reader.ReadLong(offset)
		if err != nil {
			return nil, formatErrorf(relativePath, err, "reading ConstantValue double: %v", err)
		}
		return math.Float64frombits(uint64(bits)), nil
	default:
		return p.cp.GetUTF8(idx, false, false)
	}
}
