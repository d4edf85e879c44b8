// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import "testing"

func TestLinkerRegularClassCreatesPlaceholderSuperclass(t *testing.T) {
	l := NewLinker()
	record := &ParsedClass{
		ClassName:      "Foo",
		SuperclassName: "java.lang.Object",
	}
	l.Link(record, false, "")

	foo, ok := l.Classes["Foo"]
	if !ok || foo.IsExternal {
		t.Fatalf("Classes[Foo] = %+v, ok=%v, want isExternal=false", foo, ok)
	}
	obj, ok := l.Classes["java.lang.Object"]
	if !ok || !obj.IsExternal {
		t.Fatalf("Classes[java.lang.Object] = %+v, ok=%v, want isExternal=true placeholder", obj, ok)
	}
	if foo.Superclass != obj {
		t.Fatal("Foo.Superclass does not point at the placeholder java.lang.Object ClassInfo")
	}
}

func TestLinkerExternalDemotionIsMonotonic(t *testing.T) {
	l := NewLinker()
	l.Link(&ParsedClass{ClassName: "Bar"}, true, "")
	if !l.Classes["Bar"].IsExternal {
		t.Fatal("Bar should start external")
	}
	l.Link(&ParsedClass{ClassName: "Bar"}, false, "")
	if l.Classes["Bar"].IsExternal {
		t.Fatal("Bar should be demoted to non-external on real scan arrival")
	}
	// A later external sighting must not re-promote it.
	l.Link(&ParsedClass{ClassName: "Bar"}, true, "")
	if l.Classes["Bar"].IsExternal {
		t.Fatal("isExternal demotion must be monotonic")
	}
}

func TestLinkerPackageInfoAttachesAnnotations(t *testing.T) {
	l := NewLinker()
	ann := &Annotation{TypeDescriptor: "com.acme.Documented"}
	l.Link(&ParsedClass{ClassName: "com.acme.package-info", ClassAnnotations: []*Annotation{ann}}, false, "")

	pkg, ok := l.Packages["com.acme"]
	if !ok {
		t.Fatal("Packages[com.acme] not created")
	}
	if len(pkg.Annotations) != 1 || pkg.Annotations[0] != ann {
		t.Fatalf("Packages[com.acme].Annotations = %v, want [ann]", pkg.Annotations)
	}
}

func TestLinkerModuleInfoAttachesAnnotations(t *testing.T) {
	l := NewLinker()
	ann := &Annotation{TypeDescriptor: "com.acme.Documented"}
	record := &ParsedClass{ClassName: "module-info", ModuleName: "m", ClassAnnotations: []*Annotation{ann}}
	l.Link(record, false, "")

	mod, ok := l.Modules["m"]
	if !ok {
		t.Fatal("Modules[m] not created")
	}
	if len(mod.Annotations) != 1 || mod.Annotations[0] != ann {
		t.Fatalf("Modules[m].Annotations = %v, want [ann]", mod.Annotations)
	}
}

func TestLinkerModuleInfoUsesModuleRefNameOverRecord(t *testing.T) {
	l := NewLinker()
	record := &ParsedClass{ClassName: "module-info", ModuleName: "recorded"}
	l.Link(record, false, "fromModuleRef")

	if _, ok := l.Modules["fromModuleRef"]; !ok {
		t.Fatal("expected module keyed by moduleRefName to take priority over record.ModuleName")
	}
	if _, ok := l.Modules["recorded"]; ok {
		t.Fatal("record.ModuleName should not be used when moduleRefName is non-empty")
	}
}

func TestLinkerRegularClassRegistersIntoPackageAndModule(t *testing.T) {
	l := NewLinker()
	record := &ParsedClass{ClassName: "com.acme.Foo", ModuleName: "com.acme.mymodule"}
	l.Link(record, false, "")

	pkg, ok := l.Packages["com.acme"]
	if !ok || pkg.Classes["com.acme.Foo"] == nil {
		t.Fatal("Foo not registered into its package")
	}
	mod, ok := l.Modules["com.acme.mymodule"]
	if !ok || mod.Classes["com.acme.Foo"] == nil {
		t.Fatal("Foo not registered into its module")
	}
}

func TestLinkerRegularClassUsesModuleRefNameOverRecord(t *testing.T) {
	// A regular class's own classfile never carries a Module attribute, so
	// record.ModuleName is normally empty; its module comes from the
	// classpath element's ModuleRef (moduleRefName here), mirroring the
	// priority module-info already applies.
	l := NewLinker()
	record := &ParsedClass{ClassName: "com.acme.Foo"}
	l.Link(record, false, "com.acme.fromref")

	mod, ok := l.Modules["com.acme.fromref"]
	if !ok || mod.Classes["com.acme.Foo"] == nil {
		t.Fatal("Foo not registered into the module named by moduleRefName")
	}
	pkg, ok := l.Packages["com.acme"]
	if !ok || pkg.Module != mod {
		t.Fatal("com.acme package not linked to the moduleRefName module")
	}
}
