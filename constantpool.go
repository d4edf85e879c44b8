// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

// Constant pool tags recognized by this parser (JVM Spec 4.4). Tag 17
// (CONSTANT_Dynamic, condy) is deliberately absent from the known set: the
// parser treats it as fatal, matching the observed behavior of the
// reference implementation this module was distilled from rather than
// extending support to it.
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// subField selectors for resolveStringOffset against a CONSTANT_NameAndType
// entry.
const (
	subFieldName = 0
	subFieldType = 1
)

// ConstantPool holds the parallel, 1-indexed arrays described in
// spec.md §4.2: a tag and a byte offset per slot, plus an indirection value
// for the tags that point elsewhere in the pool. Slot 0 is reserved. The
// backing slices are grown, never shrunk, so a ConstantPool can be reused
// across classfiles parsed by the same worker without reallocating for
// files whose constant-pool size does not exceed a prior high-water mark.
type ConstantPool struct {
	tag      []uint8
	offset   []uint32
	indirect []uint32
	count    uint16
	reader   *BufferedReader
}

// reset grows the backing arrays to at least count slots and clears the
// portion that will be used this parse. Per the buffer-reuse design note,
// only the first count entries of indirect need clearing; tag and offset
// are always written before being read.
func (cp *ConstantPool) reset(count uint16, r *BufferedReader) {
	if cap(cp.tag) < int(count) {
		cp.tag = make([]uint8, count)
		cp.offset = make([]uint32, count)
		cp.indirect = make([]uint32, count)
	} else {
		cp.tag = cp.tag[:count]
		cp.offset = cp.offset[:count]
		cp.indirect = cp.indirect[:count]
		for i := range cp.indirect {
			cp.indirect[i] = 0
		}
	}
	cp.count = count
	cp.reader = r
}

// parse reads cpCount from r and populates the pool's slot arrays, per
// spec.md §4.2. cpCount includes the reserved slot 0, so cpCount-1 entries
// follow.
func (cp *ConstantPool) parse(r *BufferedReader, relativePath string) error {
	cpCount, err := r.ReadU2()
	if err != nil {
		return formatErrorf(relativePath, err, "reading constant_pool_count: %v", err)
	}
	cp.reset(cpCount, r)

	for i := uint16(1); i < cpCount; i++ {
		tagByte, err := r.ReadU1()
		if err != nil {
			return formatErrorf(relativePath, err, "reading tag at cp[%d]: %v", i, err)
		}
		cp.tag[i] = tagByte
		cp.offset[i] = r.Curr()

		switch tagByte {
		case TagUtf8:
			length, err := r.ReadU2()
			if err != nil {
				return formatErrorf(relativePath, err, "reading utf8 length at cp[%d]: %v", i, err)
			}
			if err := r.Skip(uint32(length)); err != nil {
				return formatErrorf(relativePath, err, "skipping utf8 body at cp[%d]: %v", i, err)
			}
		case TagInteger, TagFloat:
			if err := r.Skip(4); err != nil {
				return formatErrorf(relativePath, err, "reading 4-byte constant at cp[%d]: %v", i, err)
			}
		case TagLong, TagDouble:
			if err := r.Skip(8); err != nil {
				return formatErrorf(relativePath, err, "reading 8-byte constant at cp[%d]: %v", i, err)
			}
			// Occupies two slots; slot i+1 is never dereferenced.
			if i+1 < cpCount {
				cp.tag[i+1] = 0
			}
			i++
		case TagClass, TagString, TagModule, TagPackage:
			idx, err := r.ReadU2()
			if err != nil {
				return formatErrorf(relativePath, err, "reading indirect index at cp[%d]: %v", i, err)
			}
			cp.indirect[i] = uint32(idx)
		case TagNameAndType:
			nameIdx, err := r.ReadU2()
			if err != nil {
				return formatErrorf(relativePath, err, "reading name_index at cp[%d]: %v", i, err)
			}
			typeIdx, err := r.ReadU2()
			if err != nil {
				return formatErrorf(relativePath, err, "reading descriptor_index at cp[%d]: %v", i, err)
			}
			cp.indirect[i] = uint32(nameIdx)<<16 | uint32(typeIdx)
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			// Not retained; skip class_index + name_and_type_index.
			if err := r.Skip(4); err != nil {
				return formatErrorf(relativePath, err, "skipping ref at cp[%d]: %v", i, err)
			}
		case TagMethodHandle:
			if err := r.Skip(3); err != nil {
				return formatErrorf(relativePath, err, "skipping method handle at cp[%d]: %v", i, err)
			}
		case TagMethodType:
			if err := r.Skip(2); err != nil {
				return formatErrorf(relativePath, err, "skipping method type at cp[%d]: %v", i, err)
			}
		case TagInvokeDynamic:
			if err := r.Skip(4); err != nil {
				return formatErrorf(relativePath, err, "skipping invokedynamic at cp[%d]: %v", i, err)
			}
		default:
			return formatErrorf(relativePath, ErrUnknownConstantTag, "tag %d at cp[%d]", tagByte, i)
		}
	}
	return nil
}

// resolveStringOffset implements spec.md §4.2's resolveStringOffset: it
// validates subField (must be 0 except for NameAndType, which accepts 0 for
// name or 1 for type), chases indirection through ClassRef/StringRef/
// Module/NameAndType to a UTF8 slot, and returns that slot's byte offset, or
// the sentinel 0 for a null (index-0) reference.
func (cp *ConstantPool) resolveStringOffset(i uint16, subField int) (uint32, error) {
	if i == 0 {
		return 0, nil
	}
	if i >= cp.count {
		return 0, ErrBadIndirection
	}
	tag := cp.tag[i]
	if subField != 0 && tag != TagNameAndType {
		return 0, ErrBadSubField
	}
	switch tag {
	case TagUtf8:
		return cp.offset[i], nil
	case TagClass, TagString, TagModule, TagPackage:
		target := uint16(cp.indirect[i])
		if target == 0 {
			return 0, nil
		}
		return cp.resolveStringOffset(target, subFieldName)
	case TagNameAndType:
		var target uint16
		if subField == subFieldName {
			target = uint16(cp.indirect[i] >> 16)
		} else {
			target = uint16(cp.indirect[i] & 0xFFFF)
		}
		return cp.resolveStringOffset(target, subFieldName)
	default:
		return 0, ErrBadIndirection
	}
}

// GetUTF8 resolves slot i (which must chase, directly or indirectly, to a
// UTF8 entry) to its decoded string, with the given transforms applied.
func (cp *ConstantPool) GetUTF8(i uint16, replaceSlashWithDot, stripLSemicolon bool) (string, error) {
	offset, err := cp.resolveStringOffset(i, subFieldName)
	if err != nil {
		return "", err
	}
	if offset == 0 && i == 0 {
		return "", nil
	}
	return cp.reader.ReadString(offset, replaceSlashWithDot, stripLSemicolon)
}

// GetNameAndTypeField resolves the name (subField=0) or descriptor
// (subField=1) half of a CONSTANT_NameAndType slot.
func (cp *ConstantPool) GetNameAndTypeField(i uint16, subField int) (string, error) {
	offset, err := cp.resolveStringOffset(i, subField)
	if err != nil {
		return "", err
	}
	return cp.reader.ReadString(offset, false, false)
}

// GetClassName resolves a CONSTANT_Class (or Module/Package, which share the
// same single-indirection shape) slot to its dotted name.
func (cp *ConstantPool) GetClassName(i uint16) (string, error) {
	if i == 0 {
		return "", nil
	}
	return cp.GetUTF8(i, true, false)
}

// Tag returns the tag byte of slot i.
func (cp *ConstantPool) Tag(i uint16) uint8 {
	if i == 0 || i >= cp.count {
		return 0
	}
	return cp.tag[i]
}

// Count returns the constant_pool_count (slots 0..Count()-1 are valid
// indices, slot 0 unused).
func (cp *ConstantPool) Count() uint16 { return cp.count }

// equalsLiteral compares the UTF8 at slot i against literal without
// allocating, per spec.md §4.2. literal is interpreted as US-ASCII, which
// is always the case for attribute names.
func (cp *ConstantPool) equalsLiteral(i uint16, literal string) bool {
	if i == 0 || i >= cp.count || cp.tag[i] != TagUtf8 {
		return false
	}
	length, err := cp.reader.ReadUnsignedShort(cp.offset[i])
	if err != nil || int(length) != len(literal) {
		return false
	}
	start := cp.offset[i] + 2
	for j := 0; j < len(literal); j++ {
		b, err := cp.reader.ByteAt(start + uint32(j))
		if err != nil || b != literal[j] {
			return false
		}
	}
	return true
}
