// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import "encoding/binary"

// classfileBuilder assembles a valid classfile byte stream in memory for
// tests, since no binary fixtures are bundled (spec.md §8's synthetic
// construction note). Constant pool entries are appended in declaration
// order and addressed by their 1-based index as they're added.
type classfileBuilder struct {
	buf      []byte
	cpCount  uint16 // next free slot, starting at 1
	cpBytes  []byte
}

func newClassfileBuilder() *classfileBuilder {
	return &classfileBuilder{cpCount: 1}
}

func (b *classfileBuilder) u1(v uint8)  { b.cpBytes = append(b.cpBytes, v) }
func (b *classfileBuilder) u2(v uint16) { b.cpBytes = binary.BigEndian.AppendUint16(b.cpBytes, v) }
func (b *classfileBuilder) u4(v uint32) { b.cpBytes = binary.BigEndian.AppendUint32(b.cpBytes, v) }

// addUTF8 appends a CONSTANT_Utf8 entry and returns its index.
func (b *classfileBuilder) addUTF8(s string) uint16 {
	idx := b.cpCount
	b.u1(TagUtf8)
	b.u2(uint16(len(s)))
	b.cpBytes = append(b.cpBytes, []byte(s)...)
	b.cpCount++
	return idx
}

// addClass appends a CONSTANT_Utf8 entry holding internalName (internal
// slash-form, e.g. "com/acme/Foo") and a CONSTANT_Class entry naming it,
// and returns the Class entry's index.
func (b *classfileBuilder) addClass(internalName string) uint16 {
	nameIdx := b.addUTF8(internalName)
	idx := b.cpCount
	b.u1(TagClass)
	b.u2(nameIdx)
	b.cpCount++
	return idx
}

// addNameAndType appends a CONSTANT_NameAndType entry.
func (b *classfileBuilder) addNameAndType(name, descriptor string) uint16 {
	nameIdx := b.addUTF8(name)
	descIdx := b.addUTF8(descriptor)
	idx := b.cpCount
	b.u1(TagNameAndType)
	b.u2(nameIdx)
	b.u2(descIdx)
	b.cpCount++
	return idx
}

// addInteger appends a CONSTANT_Integer entry holding v.
func (b *classfileBuilder) addInteger(v int32) uint16 {
	idx := b.cpCount
	b.u1(TagInteger)
	b.u4(uint32(v))
	b.cpCount++
	return idx
}

// addLong appends a CONSTANT_Long entry, occupying two slots.
func (b *classfileBuilder) addLong(v int64) uint16 {
	idx := b.cpCount
	b.u1(TagLong)
	b.cpBytes = binary.BigEndian.AppendUint64(b.cpBytes, uint64(v))
	b.cpCount += 2
	return idx
}

// attribute appends one attribute_info entry (name index + raw body) to
// dst, computing its length prefix automatically.
func attribute(dst []byte, nameIdx uint16, body []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, nameIdx)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(body)))
	return append(dst, body...)
}

// finish assembles the full classfile: magic, version, constant pool,
// access_flags/this_class/super_class, the interfaces table built from
// interfaces, fieldsAndMethods as the fields and methods tables (nil for
// empty tables), and classAttrs as the class_attributes section (caller
// must supply correctly-counted prefixes within fieldsAndMethods and
// classAttrs, or pass nil for zero entries).
func (b *classfileBuilder) finish(accessFlags uint16, thisClassIdx, superClassIdx uint16, interfaces []uint16, fieldsAndMethods, classAttrs []byte) []byte {
	var out []byte
	out = binary.BigEndian.AppendUint32(out, classMagic)
	out = binary.BigEndian.AppendUint16(out, 0) // minor
	out = binary.BigEndian.AppendUint16(out, 52) // major (Java 8)

	out = binary.BigEndian.AppendUint16(out, b.cpCount)
	out = append(out, b.cpBytes...)

	out = binary.BigEndian.AppendUint16(out, accessFlags)
	out = binary.BigEndian.AppendUint16(out, thisClassIdx)
	out = binary.BigEndian.AppendUint16(out, superClassIdx)

	out = binary.BigEndian.AppendUint16(out, uint16(len(interfaces)))
	for _, i := range interfaces {
		out = binary.BigEndian.AppendUint16(out, i)
	}

	if fieldsAndMethods == nil {
		out = binary.BigEndian.AppendUint16(out, 0) // fields_count
		out = binary.BigEndian.AppendUint16(out, 0) // methods_count
	} else {
		out = append(out, fieldsAndMethods...)
	}

	if classAttrs == nil {
		out = binary.BigEndian.AppendUint16(out, 0) // attributes_count
	} else {
		out = append(out, classAttrs...)
	}

	return out
}

// buildMinimalClassfile returns a minimal valid public class named name
// (dotted form in the classMagic sense is not used; pass the internal
// slash-separated name, e.g. "Foo" or "com/acme/Foo") extending
// java/lang/Object, with no fields, methods, or attributes.
func buildMinimalClassfile(internalName string) []byte {
	b := newClassfileBuilder()
	thisIdx := b.addClass(internalName)
	superIdx := b.addClass("java/lang/Object")
	return b.finish(AccPublic, thisIdx, superIdx, nil, nil, nil)
}

const t_classFoo = "Foo"
