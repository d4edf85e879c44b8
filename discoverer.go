// Copyright 2024 The classgraph-go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package classgraph

import (
	"hash/fnv"
	"strings"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
)

const scheduledShardCount = 16

// scheduledSet is the concurrent, insert-only set of spec.md §9: "a
// sharded hash table... is acceptable." Each shard is an independent
// sync.Map so unrelated class names never contend on the same lock.
type scheduledSet struct {
	shards [scheduledShardCount]sync.Map
}

func newScheduledSet() *scheduledSet {
	return &scheduledSet{}
}

func (s *scheduledSet) shardFor(name string) *sync.Map {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return &s.shards[h.Sum32()%scheduledShardCount]
}

// insertIfAbsent returns true the first time name is inserted, and false
// on every subsequent call for the same name — the compare-and-insert
// semantics spec.md §4.6 requires to guarantee at-most-once enqueue.
func (s *scheduledSet) insertIfAbsent(name string) bool {
	_, loaded := s.shardFor(name).LoadOrStore(name, struct{}{})
	return !loaded
}

// ExternalClassDiscoverer implements spec.md §4.6: it walks a freshly
// parsed record's referenced-name surface and schedules classfile lookups
// for names not yet seen.
type ExternalClassDiscoverer struct {
	classpath []ClasspathElement
	scheduled *scheduledSet
	logger    *log.Helper
}

// NewExternalClassDiscoverer builds a discoverer over the ordered
// classpath and its shared scheduled set. The classpath order is
// immutable for the duration of a scan, per spec.md §5.
func NewExternalClassDiscoverer(classpath []ClasspathElement, scheduled *scheduledSet, logger *log.Helper) *ExternalClassDiscoverer {
	return &ExternalClassDiscoverer{classpath: classpath, scheduled: scheduled, logger: logger}
}

// Discover walks record's superclass, interfaces, and every class/method/
// parameter/field annotation type name, scheduling a lookup for each one
// not already scheduled. It returns the work units found; the caller
// enqueues them onto the shared WorkQueue.
func (d *ExternalClassDiscoverer) Discover(record *ParsedClass, current ClasspathElement) []WorkUnit {
	var units []WorkUnit
	candidates := d.candidateNames(record)
	for _, name := range candidates {
		if name == "" || !d.scheduled.insertIfAbsent(name) {
			continue
		}
		if unit, ok := d.lookup(name, current); ok {
			units = append(units, unit)
		} else if name != "java.lang.Object" {
			d.logger.Warnw("msg", "external class not found on classpath", "class", name)
		}
	}
	return units
}

func (d *ExternalClassDiscoverer) candidateNames(record *ParsedClass) []string {
	names := make([]string, 0, len(record.Interfaces)+4)
	if record.SuperclassName != "" {
		names = append(names, record.SuperclassName)
	}
	names = append(names, record.Interfaces...)

	collect := func(anns []*Annotation) {
		walkAnnotations(anns, func(n string) { names = append(names, n) })
	}
	collect(record.ClassAnnotations)
	for _, f := range record.Fields {
		collect(f.Annotations)
	}
	for _, m := range record.Methods {
		collect(m.Annotations)
		for _, paramAnns := range m.ParameterAnnotations {
			collect(paramAnns)
		}
	}
	return names
}

// lookup translates name to a classfile path and searches current first,
// then the rest of the classpath in order, per spec.md §4.6.
func (d *ExternalClassDiscoverer) lookup(name string, current ClasspathElement) (WorkUnit, bool) {
	path := strings.ReplaceAll(name, ".", "/") + ".class"

	if current != nil {
		if res, err := current.GetResource(path); err == nil && res != nil {
			return WorkUnit{Element: current, Resource: res, IsExternal: true}, true
		}
	}
	for _, elem := range d.classpath {
		if elem == current {
			continue
		}
		res, err := elem.GetResource(path)
		if err != nil {
			d.logger.Warnw("msg", "error probing classpath element", "element", elem.Describe(), "class", name, "error", err)
			continue
		}
		if res != nil {
			return WorkUnit{Element: elem, Resource: res, IsExternal: true}, true
		}
	}
	return WorkUnit{}, false
}
