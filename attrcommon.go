// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

// Attribute names recognized anywhere in a classfile (JVM Spec 4.7).
const (
	attrConstantValue                       = "ConstantValue"
	attrSignature                           = "Signature"
	attrRuntimeVisibleAnnotations            = "RuntimeVisibleAnnotations"
	attrRuntimeInvisibleAnnotations          = "RuntimeInvisibleAnnotations"
	attrRuntimeVisibleParameterAnnotations   = "RuntimeVisibleParameterAnnotations"
	attrRuntimeInvisibleParameterAnnotations = "RuntimeInvisibleParameterAnnotations"
	attrMethodParameters                     = "MethodParameters"
	attrAnnotationDefault                    = "AnnotationDefault"
	attrCode                                 = "Code"
	attrInnerClasses                         = "InnerClasses"
	attrEnclosingMethod                      = "EnclosingMethod"
	attrModule                               = "Module"
)

// decodeAnnotationList reads a RuntimeVisible/InvisibleAnnotations body:
// u2 num_annotations followed by that many `annotation` structures.
func (p *ClassfileParser) decodeAnnotationList(r *BufferedReader, relativePath string) ([]*Annotation, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, formatErrorf(relativePath, err, "reading num_annotations: %v", err)
	}
	list := make([]*Annotation, 0, count)
	dec := &annotationDecoder{cp: &p.cp, r: r, relativePath: relativePath}
	for i := uint16(0); i < count; i++ {
		a, err := dec.decodeAnnotation()
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, nil
}

// annotationInfoEnabled reports whether annotations of the given
// RuntimeVisible/RuntimeInvisible attribute name should be decoded under
// opts.
func (p *ClassfileParser) annotationInfoEnabled(invisible bool) bool {
	if !p.opts.EnableAnnotationInfo {
		return false
	}
	return !invisible || !p.opts.DisableRuntimeInvisibleAnnotations
}

// skipRemainder advances r to end, or returns an error if the recognized
// attribute body's structural read already overran its declared length.
// This is what guarantees the round-trip invariant of spec.md §8: the
// cursor always ends exactly at start+attribute_length.
func skipRemainder(r *BufferedReader, end uint32, relativePath, attrName string) error {
	curr := r.Curr()
	if curr > end {
		return formatErrorf(relativePath, nil, "%s attribute body overran its declared length", attrName)
	}
	if curr < end {
		return r.Skip(end - curr)
	}
	return nil
}
