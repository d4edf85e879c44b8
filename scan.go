// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import (
	"context"
	"runtime"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
)

// FailedClass records one classfile that produced a ClassfileFormatError
// during a scan, for the CLI's end-of-run summary.
type FailedClass struct {
	RelativePath string `json:"relative_path"`
	Element      string `json:"element"`
	Error        string `json:"error"`
}

// ScanResult is the aggregate scan output: the three linked graph maps
// plus every classfile that failed outright. Skipped classfiles are not
// recorded here; they are logged at the point of skip and otherwise
// silently omitted, per spec.md §7.
type ScanResult struct {
	Classes  map[string]*ClassInfo
	Packages map[string]*PackageInfo
	Modules  map[string]*ModuleInfo
	Failed   []FailedClass
}

// Scanner drives the full pipeline of spec.md §2: a bounded pool of
// ClassfileParser workers draining a WorkQueue, an ExternalClassDiscoverer
// feeding new work back onto that queue, and a single-threaded Linker
// consuming completed records.
type Scanner struct {
	classpath  []ClasspathElement
	opts       *Options
	numWorkers int
	logger     *log.Helper
}

// NewScanner returns a scanner over classpath using opts (nil for
// defaults). numWorkers <= 0 defaults to runtime.GOMAXPROCS(0), matching
// the teacher's loopFilesWorker pool-sizing idiom generalized to an
// explicit knob.
func NewScanner(classpath []ClasspathElement, opts *Options, numWorkers int) *Scanner {
	if opts == nil {
		opts = &Options{}
	}
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &Scanner{classpath: classpath, opts: opts, numWorkers: numWorkers, logger: opts.helper()}
}

// scanJob is one linker-bound completion: either a parsed record or a
// failure to report, tagged with whether it came from an external lookup.
type scanJob struct {
	record     *ParsedClass
	isExternal bool
	moduleName string
	failed     *FailedClass
}

// Scan enumerates every resource reachable from the initial roots
// (typically one Resource per classfile already on each classpath
// element), parses them concurrently, discovers and schedules external
// classes as they're referenced, and links everything into a ScanResult.
// It blocks until the queue drains or ctx is cancelled.
func (s *Scanner) Scan(ctx context.Context, roots []WorkUnit) (*ScanResult, error) {
	scheduled := newScheduledSet()
	for _, u := range roots {
		name := strings.TrimSuffix(u.Resource.RelativePath(), ".class")
		scheduled.insertIfAbsent(strings.ReplaceAll(name, "/", "."))
	}
	discoverer := NewExternalClassDiscoverer(s.classpath, scheduled, s.logger)

	queue := NewWorkQueue(ctx, s.numWorkers*4)
	jobs := make(chan scanJob, s.numWorkers*4)

	for i := 0; i < s.numWorkers; i++ {
		queue.Go(func(unit WorkUnit) error {
			parser := NewClassfileParser(s.opts)
			return s.parseOne(parser, discoverer, queue, jobs, unit)
		})
	}
	// Signal jobs is complete once every worker has drained the queue.
	go func() {
		_ = queue.Wait()
		close(jobs)
	}()

	queue.AddWorkUnits(roots)
	// Only close once every dynamically discovered unit has also been
	// processed, not just the initial roots - a worker may still be
	// adding newly discovered units to the queue at this point.
	queue.CloseWhenDrained()

	linker := NewLinker()
	var failed []FailedClass
	for job := range jobs {
		if job.failed != nil {
			failed = append(failed, *job.failed)
			continue
		}
		linker.Link(job.record, job.isExternal, job.moduleName)
	}

	return &ScanResult{
		Classes:  linker.Classes,
		Packages: linker.Packages,
		Modules:  linker.Modules,
		Failed:   failed,
	}, nil
}

// parseOne parses a single work unit, runs discovery over its record when
// successful, enqueues newly discovered units, and reports the outcome on
// jobs.
func (s *Scanner) parseOne(parser *ClassfileParser, discoverer *ExternalClassDiscoverer, queue *WorkQueue, jobs chan<- scanJob, unit WorkUnit) error {
	record, outcome, err := parser.Parse(unit.Resource)
	switch outcome {
	case OutcomeSkipped:
		return nil
	case OutcomeError:
		jobs <- scanJob{failed: &FailedClass{
			RelativePath: unit.Resource.RelativePath(),
			Element:      unit.Element.Describe(),
			Error:        err.Error(),
		}}
		return nil
	}

	if s.opts.ExtendScanningUpwardsToExternalClasses {
		newUnits := discoverer.Discover(record, unit.Element)
		if len(newUnits) > 0 {
			queue.AddWorkUnits(newUnits)
		}
	}

	// A module-info classfile is the only place a Module attribute can
	// appear; record its name onto the owning element so every other
	// class found on this element picks it up via ModuleName() below,
	// per spec.md §4.7's module-membership rule.
	if isModuleInfoClassName(record.ClassName) && record.ModuleName != "" {
		unit.Element.SetModuleName(record.ModuleName)
	}

	moduleName := ""
	if ref := unit.Resource.ModuleRef(); ref != nil {
		moduleName = ref.Name()
	} else {
		moduleName = unit.Element.ModuleName()
	}

	jobs <- scanJob{record: record, isExternal: unit.IsExternal, moduleName: moduleName}
	return nil
}
