// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package typesig

import "testing"

func TestParseArrayOfObject(t *testing.T) {
	sig, err := Parse("[Ljava/lang/String;", "Foo")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out := make(ClassNameCollector)
	sig.FindReferencedClassNames(out)
	if _, ok := out["java.lang.String"]; !ok {
		t.Fatalf("FindReferencedClassNames() = %v, want java.lang.String", out)
	}
}

func TestParsePrimitive(t *testing.T) {
	sig, err := Parse("I", "Foo")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out := make(ClassNameCollector)
	sig.FindReferencedClassNames(out)
	if len(out) != 0 {
		t.Fatalf("FindReferencedClassNames() = %v, want empty", out)
	}
}

func TestParseGenericSignatureWithTypeArguments(t *testing.T) {
	sig, err := Parse("Ljava/util/List<Ljava/lang/Integer;>;", "Foo")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out := make(ClassNameCollector)
	sig.FindReferencedClassNames(out)
	for _, want := range []string{"java.util.List", "java.lang.Integer"} {
		if _, ok := out[want]; !ok {
			t.Fatalf("FindReferencedClassNames() = %v, missing %q", out, want)
		}
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	sig, err := ParseMethod("(Ljava/lang/String;I)Ljava/util/List;", "Foo")
	if err != nil {
		t.Fatalf("ParseMethod() error = %v", err)
	}
	out := make(ClassNameCollector)
	sig.FindReferencedClassNames(out)
	for _, want := range []string{"java.lang.String", "java.util.List"} {
		if _, ok := out[want]; !ok {
			t.Fatalf("FindReferencedClassNames() = %v, missing %q", out, want)
		}
	}
}

func TestParseMethodVoidNoArgs(t *testing.T) {
	sig, err := ParseMethod("()V", "Foo")
	if err != nil {
		t.Fatalf("ParseMethod() error = %v", err)
	}
	out := make(ClassNameCollector)
	sig.FindReferencedClassNames(out)
	if len(out) != 0 {
		t.Fatalf("FindReferencedClassNames() = %v, want empty", out)
	}
}

func TestParseInnerClassDottedSuffix(t *testing.T) {
	sig, err := Parse("Lcom/acme/Outer.Inner;", "Foo")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out := make(ClassNameCollector)
	sig.FindReferencedClassNames(out)
	if _, ok := out["com.acme.Outer$Inner"]; !ok {
		t.Fatalf("FindReferencedClassNames() = %v, want com.acme.Outer$Inner", out)
	}
}

func TestParseMalformedInputReturnsParseException(t *testing.T) {
	_, err := Parse("Ljava/lang/String", "Foo") // missing trailing ';'
	if err == nil {
		t.Fatal("Parse() error = nil, want ParseException")
	}
	var pe *ParseException
	if !asParseException(err, &pe) {
		t.Fatalf("Parse() error = %v (%T), want *ParseException", err, err)
	}
}

func asParseException(err error, target **ParseException) bool {
	pe, ok := err.(*ParseException)
	if ok {
		*target = pe
	}
	return ok
}
