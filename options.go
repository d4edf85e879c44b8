// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import (
	"os"

	"github.com/go-kratos/kratos/v2/log"
)

// Options is the per-scan policy configuration of spec.md §6. The zero
// value is a legal, maximally conservative default, the way the teacher's
// pe.Options zero value ("not Fast, no SectionEntropy") is legal;
// NewClassfileParser and NewScanner fill in the logger.
type Options struct {
	IgnoreClassVisibility  bool
	IgnoreFieldVisibility  bool
	IgnoreMethodVisibility bool

	EnableFieldInfo                                 bool
	EnableMethodInfo                                bool
	EnableAnnotationInfo                            bool
	DisableRuntimeInvisibleAnnotations              bool
	EnableStaticFinalFieldConstantInitializerValues bool
	EnableInterClassDependencies                    bool
	ExtendScanningUpwardsToExternalClasses          bool

	// Logger is used for skip/format-error diagnostics and discovery
	// misses. A nil Logger gets a stderr-backed default filtered to Warn
	// and above, mirroring pe.New's default logger setup.
	Logger log.Logger
}

// helper returns a *log.Helper for o.Logger, creating the default logger on
// first use.
func (o *Options) helper() *log.Helper {
	if o.Logger == nil {
		o.Logger = log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(log.LevelWarn))
	}
	return log.NewHelper(o.Logger)
}
