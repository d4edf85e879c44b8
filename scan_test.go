// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// buildModuleInfoClassfile builds a minimal module-info.class declaring
// moduleName, the way parser_test.go's TestParseModuleInfoRecordsModuleName
// constructs one.
func buildModuleInfoClassfile(moduleName string) []byte {
	b := newClassfileBuilder()
	thisIdx := b.addClass("module-info")
	moduleNameIdx := b.addClass(moduleName)
	attrNameIdx := b.addUTF8(attrModule)

	var moduleBody []byte
	moduleBody = u16(moduleBody, moduleNameIdx)

	var classAttrs []byte
	classAttrs = u16(classAttrs, 1)
	classAttrs = attribute(classAttrs, attrNameIdx, moduleBody)

	return b.finish(AccModule, thisIdx, 0, nil, nil, classAttrs)
}

func writeClassfile(t *testing.T, dir, relativePath string, data []byte) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(relativePath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestScanRegistersRegularClassIntoModule exercises the full
// Scanner.Scan pipeline end to end: a module-info.class and a regular
// class living on the same DirClasspathElement, scanned with a single
// worker so module-info is guaranteed to be linked before the regular
// class. It is the end-to-end companion to linker_test.go's unit tests,
// confirming module-info's name actually reaches the linker's
// moduleRefName for an ordinary class rather than only in an
// artificially constructed ParsedClass.
func TestScanRegistersRegularClassIntoModule(t *testing.T) {
	dir := t.TempDir()
	writeClassfile(t, dir, "module-info.class", buildModuleInfoClassfile("com.acme.mymodule"))
	writeClassfile(t, dir, "com/acme/App.class", buildMinimalClassfile("com/acme/App"))

	elem := NewDirClasspathElement(dir)
	scanner := NewScanner([]ClasspathElement{elem}, &Options{}, 1)

	roots := []WorkUnit{
		{Element: elem, Resource: mustGetResource(t, elem, "module-info.class")},
		{Element: elem, Resource: mustGetResource(t, elem, "com/acme/App.class")},
	}

	result, err := scanner.Scan(context.Background(), roots)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	mod, ok := result.Modules["com.acme.mymodule"]
	if !ok {
		t.Fatalf("Modules = %v, want com.acme.mymodule present", result.Modules)
	}
	if mod.Classes["com.acme.App"] == nil {
		t.Fatal("com.acme.App not registered into com.acme.mymodule")
	}
	pkg, ok := result.Packages["com.acme"]
	if !ok || pkg.Module != mod {
		t.Fatal("com.acme package not linked to com.acme.mymodule")
	}
}

// TestScanDiscoversExternalClassWithoutPanicking exercises the
// cross-element discovery path (ExtendScanningUpwardsToExternalClasses)
// that drives workers to call AddWorkUnits from inside a unit they are
// still processing. Before WorkQueue.CloseWhenDrained existed, Scan
// closed the queue's channel right after seeding the initial roots,
// racing against exactly this dynamically-produced AddWorkUnits call and
// risking a "send on closed channel" panic; this test's job is to run
// that path for real rather than only exercising the discoverer in
// isolation the way discoverer_test.go does.
func TestScanDiscoversExternalClassWithoutPanicking(t *testing.T) {
	appDir := t.TempDir()
	libDir := t.TempDir()

	b := newClassfileBuilder()
	thisIdx := b.addClass("com/acme/App")
	superIdx := b.addClass("pkg/Lib")
	appData := b.finish(AccPublic, thisIdx, superIdx, nil, nil, nil)
	writeClassfile(t, appDir, "com/acme/App.class", appData)
	writeClassfile(t, libDir, "pkg/Lib.class", buildMinimalClassfile("pkg/Lib"))

	appElem := NewDirClasspathElement(appDir)
	libElem := NewDirClasspathElement(libDir)
	classpath := []ClasspathElement{appElem, libElem}

	scanner := NewScanner(classpath, &Options{ExtendScanningUpwardsToExternalClasses: true}, 4)
	roots := []WorkUnit{
		{Element: appElem, Resource: mustGetResource(t, appElem, "com/acme/App.class")},
	}

	result, err := scanner.Scan(context.Background(), roots)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	app, ok := result.Classes["com.acme.App"]
	if !ok {
		t.Fatalf("Classes = %v, want com.acme.App present", result.Classes)
	}
	lib, ok := result.Classes["pkg.Lib"]
	if !ok || lib.IsExternal != true {
		t.Fatalf("Classes[pkg.Lib] = %+v, ok=%v, want isExternal=true discovered class", lib, ok)
	}
	if app.Superclass != lib {
		t.Fatal("App.Superclass does not point at the discovered pkg.Lib ClassInfo")
	}
}

func mustGetResource(t *testing.T, elem ClasspathElement, relativePath string) Resource {
	t.Helper()
	res, err := elem.GetResource(relativePath)
	if err != nil || res == nil {
		t.Fatalf("GetResource(%q) = %v, %v, want a resource", relativePath, res, err)
	}
	return res
}
