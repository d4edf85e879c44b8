// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import (
	"strings"

	"github.com/classgraph-go/classgraph/internal/typesig"
)

// collectReferencedClassNames implements spec.md §4.5: every CONSTANT_Class
// entry and the type-signature half of every CONSTANT_NameAndType entry is
// resolved and, when non-trivial, delegated to the typesig leaf parser.
// Tag 19 (Module) is deliberately excluded from contributing to the
// reference set, resolving the open question in spec.md §9 by matching
// only CONSTANT_Class (tag 7).
func collectReferencedClassNames(cp *ConstantPool, definingClass, relativePath string) (map[string]struct{}, error) {
	out := make(map[string]struct{})

	for i := uint16(1); i < cp.count; i++ {
		switch cp.tag[i] {
		case TagClass:
			internal, err := cp.GetUTF8(i, false, false)
			if err != nil {
				return nil, formatErrorf(relativePath, err, "resolving class cp[%d]: %v", i, err)
			}
			if err := addClassRef(out, internal, definingClass, relativePath); err != nil {
				return nil, err
			}
		case TagNameAndType:
			desc, err := cp.GetNameAndTypeField(i, subFieldType)
			if err != nil {
				return nil, formatErrorf(relativePath, err, "resolving name_and_type cp[%d]: %v", i, err)
			}
			if err := addDescriptorRefs(out, desc, definingClass, relativePath); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// addClassRef adds the class named by one CONSTANT_Class entry's raw
// (slash-separated) internal name to out. Array descriptors like
// "[Ljava/lang/String;" are parsed via typesig to pull out the element
// type; anything else is a plain internal name.
func addClassRef(out map[string]struct{}, internal, definingClass, relativePath string) error {
	if internal == "" {
		return nil
	}
	if internal[0] == '[' {
		sig, err := typesig.Parse(internal, definingClass)
		if err != nil {
			return formatErrorf(relativePath, err, "parsing array class reference %q: %v", internal, err)
		}
		sig.FindReferencedClassNames(out)
		return nil
	}
	out[strings.ReplaceAll(internal, "/", ".")] = struct{}{}
	return nil
}

// addDescriptorRefs classifies desc as a method or field type signature and
// delegates to typesig accordingly, per spec.md §4.5.
func addDescriptorRefs(out map[string]struct{}, desc, definingClass, relativePath string) error {
	if desc == "" {
		return nil
	}
	if strings.Contains(desc, "(") {
		sig, err := typesig.ParseMethod(desc, definingClass)
		if err != nil {
			return formatErrorf(relativePath, err, "parsing method signature %q: %v", desc, err)
		}
		sig.FindReferencedClassNames(out)
		return nil
	}
	sig, err := typesig.Parse(desc, definingClass)
	if err != nil {
		return formatErrorf(relativePath, err, "parsing field signature %q: %v", desc, err)
	}
	sig.FindReferencedClassNames(out)
	return nil
}
