// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import "testing"

// FuzzParseFrom replaces the teacher's go-fuzz Fuzz(data []byte) int entry
// point with Go's native testing.F corpus fuzzing: the parser must never
// panic on arbitrary input, only return a SkipError, a
// ClassfileFormatError, or a successful record.
func FuzzParseFrom(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0xCA, 0xFE, 0xBA, 0xBE})
	f.Add(buildMinimalClassfile(t_classFoo))

	f.Fuzz(func(t *testing.T, data []byte) {
		p := NewClassfileParser(nil)
		_, _, _ = p.parseFrom(NewBufferedReader(data), "fuzz/Input.class")
	})
}
