// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

// parseClassAttributes implements spec.md §4.4 item 8.
func (p *ClassfileParser) parseClassAttributes(r *BufferedReader, record *ParsedClass, relativePath string) error {
	count, err := r.ReadU2()
	if err != nil {
		return formatErrorf(relativePath, err, "reading attributes_count: %v", err)
	}

	for a := uint16(0); a < count; a++ {
		attrNameIdx, err := r.ReadU2()
		if err != nil {
			return formatErrorf(relativePath, err, "reading class attribute name: %v", err)
		}
		length, err := r.ReadU4()
		if err != nil {
			return formatErrorf(relativePath, err, "reading class attribute length: %v", err)
		}
		end := r.Curr() + length

		switch {
		case p.cp.equalsLiteral(attrNameIdx, attrRuntimeVisibleAnnotations) && p.annotationInfoEnabled(false):
			list, err := p.decodeAnnotationList(r, relativePath)
			if err != nil {
				return err
			}
			record.ClassAnnotations = append(record.ClassAnnotations, list...)
			if err := skipRemainder(r, end, relativePath, attrRuntimeVisibleAnnotations); err != nil {
				return err
			}
		case p.cp.equalsLiteral(attrNameIdx, attrRuntimeInvisibleAnnotations) && p.annotationInfoEnabled(true):
			list, err := p.decodeAnnotationList(r, relativePath)
			if err != nil {
				return err
			}
			record.ClassAnnotations = append(record.ClassAnnotations, list...)
			if err := skipRemainder(r, end, relativePath, attrRuntimeInvisibleAnnotations); err != nil {
				return err
			}
		case p.cp.equalsLiteral(attrNameIdx, attrInnerClasses):
			if err := p.parseInnerClasses(r, record, relativePath); err != nil {
				return err
			}
			if err := skipRemainder(r, end, relativePath, attrInnerClasses); err != nil {
				return err
			}
		case p.cp.equalsLiteral(attrNameIdx, attrSignature):
			idx, err := r.ReadU2()
			if err != nil {
				return formatErrorf(relativePath, err, "reading class Signature index: %v", err)
			}
			record.ClassSignature, err = p.cp.GetUTF8(idx, true, false)
			if err != nil {
				return formatErrorf(relativePath, err, "resolving class Signature index: %v", err)
			}
			if err := skipRemainder(r, end, relativePath, attrSignature); err != nil {
				return err
			}
		case p.cp.equalsLiteral(attrNameIdx, attrEnclosingMethod):
			if err := p.parseEnclosingMethod(r, record, relativePath); err != nil {
				return err
			}
			if err := skipRemainder(r, end, relativePath, attrEnclosingMethod); err != nil {
				return err
			}
		case p.cp.equalsLiteral(attrNameIdx, attrModule):
			nameIdx, err := r.ReadU2()
			if err != nil {
				return formatErrorf(relativePath, err, "reading Module.module_name_index: %v", err)
			}
			record.ModuleName, err = p.cp.GetClassName(nameIdx)
			if err != nil {
				return formatErrorf(relativePath, err, "resolving Module.module_name_index: %v", err)
			}
			if err := skipRemainder(r, end, relativePath, attrModule); err != nil {
				return err
			}
		default:
			if err := r.Skip(length); err != nil {
				return formatErrorf(relativePath, err, "skipping class attribute: %v", err)
			}
		}
	}
	return nil
}

// parseInnerClasses implements the InnerClasses recognition rule of
// spec.md §4.4 item 8: a containment pair is recorded only when both the
// inner and outer cp-indices are nonzero.
func (p *ClassfileParser) parseInnerClasses(r *BufferedReader, record *ParsedClass, relativePath string) error {
	count, err := r.ReadU2()
	if err != nil {
		return formatErrorf(relativePath, err, "reading number_of_classes: %v", err)
	}
	for i := uint16(0); i < count; i++ {
		innerIdx, err := r.ReadU2()
		if err != nil {
			return formatErrorf(relativePath, err, "reading inner_class_info_index: %v", err)
		}
		outerIdx, err := r.ReadU2()
		if err != nil {
			return formatErrorf(relativePath, err, "reading outer_class_info_index: %v", err)
		}
		if _, err := r.ReadU2(); err != nil { // inner_name_index, unused
			return formatErrorf(relativePath, err, "reading inner_name_index: %v", err)
		}
		if _, err := r.ReadU2(); err != nil { // inner_class_access_flags, unused
			return formatErrorf(relativePath, err, "reading inner_class_access_flags: %v", err)
		}
		if innerIdx == 0 || outerIdx == 0 {
			continue
		}
		inner, err := p.cp.GetClassName(innerIdx)
		if err != nil {
			return formatErrorf(relativePath, err, "resolving inner_class_info_index: %v", err)
		}
		outer, err := p.cp.GetClassName(outerIdx)
		if err != nil {
			return formatErrorf(relativePath, err, "resolving outer_class_info_index: %v", err)
		}
		record.InnerClasses = append(record.InnerClasses, InnerClassPair{Inner: inner, Outer: outer})
	}
	return nil
}

// parseEnclosingMethod implements spec.md §4.4 item 8: a u2 enclosing-class
// cp-index and a u2 method cp-index, where 0 means "<clinit>" and any other
// value is a NameAndType whose name field is used. Emits a containment
// entry (inner=className, outer=enclosingClass) and records the dotted
// "Enclosing.method" name.
func (p *ClassfileParser) parseEnclosingMethod(r *BufferedReader, record *ParsedClass, relativePath string) error {
	classIdx, err := r.ReadU2()
	if err != nil {
		return formatErrorf(relativePath, err, "reading EnclosingMethod.class_index: %v", err)
	}
	methodIdx, err := r.ReadU2()
	if err != nil {
		return formatErrorf(relativePath, err, "reading EnclosingMethod.method_index: %v", err)
	}
	enclosing, err := p.cp.GetClassName(classIdx)
	if err != nil {
		return formatErrorf(relativePath, err, "resolving EnclosingMethod.class_index: %v", err)
	}

	methodName := "<clinit>"
	if methodIdx != 0 {
		methodName, err = p.cp.GetNameAndTypeField(methodIdx, subFieldName)
		if err != nil {
			return formatErrorf(relativePath, err, "resolving EnclosingMethod.method_index: %v", err)
		}
	}

	record.EnclosingMethodName = enclosing + "." + methodName
	if enclosing != "" {
		record.InnerClasses = append(record.InnerClasses, InnerClassPair{Inner: record.ClassName, Outer: enclosing})
	}
	return nil
}
