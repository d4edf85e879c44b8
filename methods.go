// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

// parseMethods implements spec.md §4.4 item 7.
func (p *ClassfileParser) parseMethods(r *BufferedReader, record *ParsedClass, relativePath string) error {
	count, err := r.ReadU2()
	if err != nil {
		return formatErrorf(relativePath, err, "reading methods_count: %v", err)
	}

	for i := uint16(0); i < count; i++ {
		access, err := r.ReadU2()
		if err != nil {
			return formatErrorf(relativePath, err, "reading method[%d].access_flags: %v", i, err)
		}
		nameIdx, err := r.ReadU2()
		if err != nil {
			return formatErrorf(relativePath, err, "reading method[%d].name_index: %v", i, err)
		}
		descIdx, err := r.ReadU2()
		if err != nil {
			return formatErrorf(relativePath, err, "reading method[%d].descriptor_index: %v", i, err)
		}
		attrCount, err := r.ReadU2()
		if err != nil {
			return formatErrorf(relativePath, err, "reading method[%d].attributes_count: %v", i, err)
		}

		name, err := p.cp.GetUTF8(nameIdx, false, false)
		if err != nil {
			return formatErrorf(relativePath, err, "resolving method[%d].name_index: %v", i, err)
		}
		descriptor, err := p.cp.GetUTF8(descIdx, true, false)
		if err != nil {
			return formatErrorf(relativePath, err, "resolving method[%d].descriptor_index: %v", i, err)
		}

		visible := access&AccPublic != 0 || p.opts.IgnoreMethodVisibility || record.IsAnnotation

		var signature string
		var paramNames []*string
		var paramMods []uint16
		var paramAnns [][]*Annotation
		var annotations []*Annotation
		var hasBody bool
		var defaultValue *AnnotationValue

		for a := uint16(0); a < attrCount; a++ {
			attrNameIdx, err := r.ReadU2()
			if err != nil {
				return formatErrorf(relativePath, err, "reading method[%d] attribute name: %v", i, err)
			}
			length, err := r.ReadU4()
			if err != nil {
				return formatErrorf(relativePath, err, "reading method[%d] attribute length: %v", i, err)
			}
			end := r.Curr() + length

			switch {
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
			case p.cp.equalsLiteral(attrNameIdx, attrRuntimeVisibleParameterAnnotations) && p.annotationInfoEnabled(false):
				paramAnns, err = p.decodeParameterAnnotations(r, relativePath)
				if err != nil {
					return err
				}
				if err := skipRemainder(r, end, relativePath, attrRuntimeVisibleParameterAnnotations); err != nil {
					return err
				}
			case p.cp.equalsLiteral(attrNameIdx, attrRuntimeInvisibleParameterAnnotations) && p.annotationInfoEnabled(true):
				invisible, err := p.decodeParameterAnnotations(r, relativePath)
				if err != nil {
					return err
				}
				paramAnns = mergeParamAnnotations(paramAnns, invisible)
				if err := skipRemainder(r, end, relativePath, attrRuntimeInvisibleParameterAnnotations); err != nil {
					return err
				}
			case p.cp.equalsLiteral(attrNameIdx, attrMethodParameters):
				paramNames, paramMods, err = p.decodeMethodParameters(r, relativePath)
				if err != nil {
					return err
				}
				if err := skipRemainder(r, end, relativePath, attrMethodParameters); err != nil {
					return err
				}
			case p.cp.equalsLiteral(attrNameIdx, attrAnnotationDefault):
				dec := &annotationDecoder{cp: &p.cp, r: r, relativePath: relativePath}
				val, err := dec.decodeElementValue()
				if err != nil {
					return err
				}
				defaultValue = &val
				if err := skipRemainder(r, end, relativePath, attrAnnotationDefault); err != nil {
					return err
				}
			case p.cp.equalsLiteral(attrNameIdx, attrCode):
				hasBody = true
				if err := r.Skip(length); err != nil {
					return formatErrorf(relativePath, err, "skipping Code attribute: %v", err)
				}
			default:
				if err := r.Skip(length); err != nil {
					return formatErrorf(relativePath, err, "skipping method[%d] attribute: %v", i, err)
				}
			}
		}

		if defaultValue != nil {
			if record.AnnotationDefaults == nil {
				record.AnnotationDefaults = make(map[string]AnnotationValue)
			}
			record.AnnotationDefaults[name] = *defaultValue
		}

		// Annotation-class methods are always retained, to capture default
		// values, regardless of the visibility filter (spec.md §4.4 item 7).
		emit := record.IsAnnotation || (visible && p.opts.EnableMethodInfo)
		if !emit {
			continue
		}

		method := &MethodInfo{
			Name:       name,
			Modifiers:  access,
			Descriptor: descriptor,
			Signature:  signature,
			HasBody:    hasBody,
		}
		if p.opts.EnableMethodInfo {
			method.ParameterNames = paramNames
			method.ParameterModifiers = paramMods
			method.ParameterAnnotations = paramAnns
			method.Annotations = annotations
		}
		record.Methods = append(record.Methods, method)
	}
	return nil
}

// decodeParameterAnnotations reads a RuntimeVisible/InvisibleParameterAnnotations
// body: u1 num_parameters, then per parameter a u2 annotation count and that
// many annotations (an empty per-parameter list is permitted).
func (p *ClassfileParser) decodeParameterAnnotations(r *BufferedReader, relativePath string) ([][]*Annotation, error) {
	paramCount, err := r.ReadU1()
	if err != nil {
		return nil, formatErrorf(relativePath, err, "reading num_parameters: %v", err)
	}
	result := make([][]*Annotation, paramCount)
	for i := uint8(0); i < paramCount; i++ {
		list, err := p.decodeAnnotationList(r, relativePath)
		if err != nil {
			return nil, err
		}
		result[i] = list
	}
	return result, nil
}

// mergeParamAnnotations merges per-parameter invisible annotation lists
// into visible, growing visible if the invisible attribute carries more
// parameters (which should not happen in a well-formed classfile, but the
// parser tolerates it rather than failing the whole class).
func mergeParamAnnotations(visible, invisible [][]*Annotation) [][]*Annotation {
	if visible == nil {
		return invisible
	}
	for len(visible) < len(invisible) {
		visible = append(visible, nil)
	}
	for i, anns := range invisible {
		visible[i] = append(visible[i], anns...)
	}
	return visible
}

// decodeMethodParameters reads a MethodParameters body: u1 parameters_count,
// then per parameter a u2 name_index (0 = unnamed) and u2 access_flags.
func (p *ClassfileParser) decodeMethodParameters(r *BufferedReader, relativePath string) ([]*string, []uint16, error) {
	count, err := r.ReadU1()
	if err != nil {
		return nil, nil, formatErrorf(relativePath, err, "reading parameters_count: %v", err)
	}
	names := make([]*string, count)
	mods := make([]uint16, count)
	for i := uint8(0); i < count; i++ {
		nameIdx, err := r.ReadU2()
		if err != nil {
			return nil, nil, formatErrorf(relativePath, err, "reading parameter[%d].name_index: %v", i, err)
		}
		access, err := r.ReadU2()
		if err != nil {
			return nil, nil, formatErrorf(relativePath, err, "reading parameter[%d].access_flags: %v", i, err)
		}
		mods[i] = access
		if nameIdx == 0 {
			names[i] = nil
			continue
		}
		name, err := p.cp.GetUTF8(nameIdx, false, false)
		if err != nil {
			return nil, nil, formatErrorf(relativePath, err, "resolving parameter[%d].name_index: %v", i, err)
		}
		names[i] = &name
	}
	return names, mods, nil
}
