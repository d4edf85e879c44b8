// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/classgraph-go/classgraph"
)

// prettyPrint re-indents a JSON-marshaled value for terminal display,
// the same two-line helper the teacher's dump.go and pedumper.go each
// carry independently.
func prettyPrint(v interface{}) string {
	buf, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<marshal error: %v>", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf, "", "\t"); err != nil {
		return string(buf)
	}
	return pretty.String()
}

func newScanCmd() *cobra.Command {
	var (
		ignoreVisibility bool
		enableFields     bool
		enableMethods    bool
		enableAnnotations bool
		enableConstants  bool
		enableDeps       bool
		extendExternal   bool
		workers          int
		printClasses     bool
		printPackages    bool
		printModules     bool
		printFailed      bool
	)

	cmd := &cobra.Command{
		Use:   "scan [classpath-dirs...]",
		Short: "Scan one or more directories of .class files and print the linked graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &classgraph.Options{
				IgnoreClassVisibility:                           ignoreVisibility,
				IgnoreFieldVisibility:                            ignoreVisibility,
				IgnoreMethodVisibility:                           ignoreVisibility,
				EnableFieldInfo:                                  enableFields,
				EnableMethodInfo:                                 enableMethods,
				EnableAnnotationInfo:                             enableAnnotations,
				EnableStaticFinalFieldConstantInitializerValues:  enableConstants,
				EnableInterClassDependencies:                     enableDeps,
				ExtendScanningUpwardsToExternalClasses:           extendExternal,
			}

			elements := make([]classgraph.ClasspathElement, 0, len(args))
			for _, root := range args {
				elements = append(elements, classgraph.NewDirClasspathElement(root))
			}

			var roots []classgraph.WorkUnit
			for i, root := range args {
				units, err := discoverRoots(elements[i], root)
				if err != nil {
					return fmt.Errorf("walking %s: %w", root, err)
				}
				roots = append(roots, units...)
			}

			scanner := classgraph.NewScanner(elements, opts, workers)
			result, err := scanner.Scan(context.Background(), roots)
			if err != nil {
				return err
			}

			if printClasses {
				fmt.Println(prettyPrint(result.Classes))
			}
			if printPackages {
				fmt.Println(prettyPrint(result.Packages))
			}
			if printModules {
				fmt.Println(prettyPrint(result.Modules))
			}
			if printFailed {
				fmt.Println(prettyPrint(result.Failed))
			}
			fmt.Fprintf(os.Stderr, "scanned: %d classes, %d packages, %d modules, %d failed\n",
				len(result.Classes), len(result.Packages), len(result.Modules), len(result.Failed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&ignoreVisibility, "ignore-visibility", false, "ignore public/visibility filtering for classes, fields, and methods")
	cmd.Flags().BoolVar(&enableFields, "fields", false, "retain field info")
	cmd.Flags().BoolVar(&enableMethods, "methods", false, "retain method info")
	cmd.Flags().BoolVar(&enableAnnotations, "annotations", true, "retain annotation info")
	cmd.Flags().BoolVar(&enableConstants, "constants", false, "retain static final constant initializer values")
	cmd.Flags().BoolVar(&enableDeps, "deps", false, "compute inter-class referenced-name sets")
	cmd.Flags().BoolVar(&extendExternal, "external", false, "follow references to classes outside the given roots")
	cmd.Flags().IntVar(&workers, "workers", 0, "parser worker count (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&printClasses, "print-classes", true, "print the linked class map")
	cmd.Flags().BoolVar(&printPackages, "print-packages", false, "print the linked package map")
	cmd.Flags().BoolVar(&printModules, "print-modules", false, "print the linked module map")
	cmd.Flags().BoolVar(&printFailed, "print-failed", false, "print classfiles that failed to parse")

	return cmd
}

// discoverRoots walks root on disk for .class files and turns each into a
// WorkUnit, the CLI's analogue of the teacher's LoopDirsFiles/loopFilesWorker
// directory walk in dump.go.
func discoverRoots(element classgraph.ClasspathElement, root string) ([]classgraph.WorkUnit, error) {
	var units []classgraph.WorkUnit
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".class") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		res, err := element.GetResource(rel)
		if err != nil {
			return err
		}
		if res != nil {
			units = append(units, classgraph.WorkUnit{Element: element, Resource: res, IsExternal: false})
		}
		return nil
	})
	return units, err
}
