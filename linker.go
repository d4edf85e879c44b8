// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import "strings"

// ClassInfo is one node of the linked class graph, per spec.md §4.7.
// Placeholder ClassInfos (referenced by name but not yet scanned) are
// created with IsExternal=true and demoted on first real scan arrival.
type ClassInfo struct {
	Name         string `json:"name"`
	Modifiers    uint16 `json:"modifiers"`
	IsInterface  bool   `json:"is_interface"`
	IsAnnotation bool   `json:"is_annotation"`
	IsExternal   bool   `json:"is_external"`

	Superclass *ClassInfo   `json:"-"`
	Interfaces []*ClassInfo `json:"-"`

	Annotations        []*Annotation              `json:"annotations,omitempty"`
	ClassSignature     string                     `json:"class_signature,omitempty"`
	AnnotationDefaults map[string]AnnotationValue `json:"annotation_defaults,omitempty"`
	EnclosingMethod    string                     `json:"enclosing_method_name,omitempty"`
	InnerClasses       []InnerClassPair           `json:"inner_classes,omitempty"`

	Fields  []*FieldInfo  `json:"fields,omitempty"`
	Methods []*MethodInfo `json:"methods,omitempty"`

	ReferencedClassNames map[string]struct{} `json:"-"`

	Package *PackageInfo `json:"-"`
	Module  *ModuleInfo  `json:"-"`
}

// PackageInfo is the linked node for one Java package, including any
// class annotations attached to its package-info classfile.
type PackageInfo struct {
	Name        string                `json:"name"`
	Annotations []*Annotation         `json:"annotations,omitempty"`
	Classes     map[string]*ClassInfo `json:"-"`
	Module      *ModuleInfo           `json:"-"`
}

// ModuleInfo is the linked node for one JPMS module, including any class
// annotations attached to its module-info classfile.
type ModuleInfo struct {
	Name        string                  `json:"name"`
	Annotations []*Annotation           `json:"annotations,omitempty"`
	Packages    map[string]*PackageInfo `json:"-"`
	Classes     map[string]*ClassInfo   `json:"-"`
}

// Linker implements spec.md §4.7: a single-threaded phase that folds
// ParsedClass records into shared class/package/module maps. It is not
// reentrant; the three maps are mutated only while Link runs, matching
// the single-writer invariant spec.md §5 requires.
type Linker struct {
	Classes  map[string]*ClassInfo
	Packages map[string]*PackageInfo
	Modules  map[string]*ModuleInfo
}

// NewLinker returns an empty linker ready to accept Link calls.
func NewLinker() *Linker {
	return &Linker{
		Classes:  make(map[string]*ClassInfo),
		Packages: make(map[string]*PackageInfo),
		Modules:  make(map[string]*ModuleInfo),
	}
}

func (l *Linker) getOrCreateClass(name string) *ClassInfo {
	ci, ok := l.Classes[name]
	if !ok {
		ci = &ClassInfo{Name: name, IsExternal: true}
		l.Classes[name] = ci
	}
	return ci
}

func (l *Linker) getOrCreatePackage(name string) *PackageInfo {
	pi, ok := l.Packages[name]
	if !ok {
		pi = &PackageInfo{Name: name, Classes: make(map[string]*ClassInfo)}
		l.Packages[name] = pi
	}
	return pi
}

func (l *Linker) getOrCreateModule(name string) *ModuleInfo {
	mi, ok := l.Modules[name]
	if !ok {
		mi = &ModuleInfo{Name: name, Packages: make(map[string]*PackageInfo), Classes: make(map[string]*ClassInfo)}
		l.Modules[name] = mi
	}
	return mi
}

// isModuleInfoClassName reports whether className names a module-info
// classfile, either at a classpath root ("module-info") or nested under a
// package-like prefix some classpath layouts use ("com.acme.module-info").
func isModuleInfoClassName(className string) bool {
	return className == "module-info" || strings.HasSuffix(className, ".module-info")
}

func packageOf(className string) string {
	if idx := strings.LastIndex(className, "."); idx >= 0 {
		return className[:idx]
	}
	return ""
}

// Link folds one parsed record into the graph, dispatching on the three
// cases of spec.md §4.7: module-info, package-info, regular class.
// moduleRefName is the module name recorded by the classpath element's
// ModuleRef, if any, used (ahead of record.ModuleName) for module-info
// classfiles per spec.md's priority order.
func (l *Linker) Link(record *ParsedClass, isExternal bool, moduleRefName string) {
	switch {
	case isModuleInfoClassName(record.ClassName):
		l.linkModuleInfo(record, moduleRefName)
	case record.ClassName == "package-info" || strings.HasSuffix(record.ClassName, ".package-info"):
		l.linkPackageInfo(record)
	default:
		l.linkClass(record, isExternal, moduleRefName)
	}
}

func (l *Linker) linkModuleInfo(record *ParsedClass, moduleRefName string) {
	name := moduleRefName
	if name == "" {
		name = record.ModuleName
	}
	if name == "" {
		return
	}
	mi := l.getOrCreateModule(name)
	mi.Annotations = append(mi.Annotations, record.ClassAnnotations...)
}

func (l *Linker) linkPackageInfo(record *ParsedClass) {
	parent := packageOf(record.ClassName)
	pi := l.getOrCreatePackage(parent)
	pi.Annotations = append(pi.Annotations, record.ClassAnnotations...)
}

// linkClass implements the regular-class case: register or update the
// ClassInfo (demoting isExternal monotonically), wire superclass and
// interface edges (creating placeholder ClassInfos as needed), and
// register the class into its package and module. moduleRefName takes
// priority over record.ModuleName, mirroring linkModuleInfo: a regular
// class's own classfile never carries a Module attribute, so its module
// membership can only come from the classpath element it was found on.
func (l *Linker) linkClass(record *ParsedClass, isExternal bool, moduleRefName string) {
	ci := l.getOrCreateClass(record.ClassName)

	if !isExternal {
		ci.IsExternal = false
	}
	ci.Modifiers = record.Modifiers
	ci.IsInterface = record.IsInterface
	ci.IsAnnotation = record.IsAnnotation
	ci.Annotations = record.ClassAnnotations
	ci.ClassSignature = record.ClassSignature
	ci.AnnotationDefaults = record.AnnotationDefaults
	ci.EnclosingMethod = record.EnclosingMethodName
	ci.InnerClasses = record.InnerClasses
	ci.Fields = record.Fields
	ci.Methods = record.Methods
	ci.ReferencedClassNames = record.ReferencedClassNames

	if record.SuperclassName != "" {
		ci.Superclass = l.getOrCreateClass(record.SuperclassName)
	}
	if len(record.Interfaces) > 0 {
		ci.Interfaces = make([]*ClassInfo, 0, len(record.Interfaces))
		for _, iface := range record.Interfaces {
			ci.Interfaces = append(ci.Interfaces, l.getOrCreateClass(iface))
		}
	}

	pkgName := packageOf(record.ClassName)
	pkg := l.getOrCreatePackage(pkgName)
	pkg.Classes[record.ClassName] = ci
	ci.Package = pkg

	moduleName := moduleRefName
	if moduleName == "" {
		moduleName = record.ModuleName
	}
	if moduleName != "" {
		mi := l.getOrCreateModule(moduleName)
		mi.Classes[record.ClassName] = ci
		mi.Packages[pkgName] = pkg
		ci.Module = mi
		pkg.Module = mi
	}
}
