package domain

import (
	"github.com/lsst-dm/cm-service-sub002/pkg/utils/cmp"
)

// ScriptTemplate declares one script a SpecBlock instantiates
// alongside its element.
type ScriptTemplate struct {
	Name    string   `yaml:"name"`
	Handler string   `yaml:"handler"`
	Data    Document `yaml:"data"`

	// Prereqs names sibling scripts (by template name) this script
	// depends on.
	Prereqs []string `yaml:"prereqs"`
}

func (s ScriptTemplate) Equal(o ScriptTemplate) bool {
	return s.Name == o.Name &&
		s.Handler == o.Handler &&
		s.Data.Equal(o.Data) &&
		cmp.SliceEq(s.Prereqs, o.Prereqs)
}

// SpecBlock is a named, reusable configuration template. New elements
// reference one by name at creation time; the block's documents seed
// the element's configuration.
//
// A block is immutable once an element was created from it: updating
// the template never changes existing elements, which carry their own
// copies of the documents.
type SpecBlock struct {
	SpecID  int64    `yaml:"-"`
	Name    string   `yaml:"name"`
	Handler string   `yaml:"handler"`
	Data    Document `yaml:"data"`

	Collections Document `yaml:"collections"`
	ChildConfig Document `yaml:"child_config"`
	SpecAliases Document `yaml:"spec_aliases"`

	Scripts []ScriptTemplate `yaml:"scripts"`
}

func (b SpecBlock) Equal(o SpecBlock) bool {
	return b.SpecID == o.SpecID &&
		b.Name == o.Name &&
		b.Handler == o.Handler &&
		b.Data.Equal(o.Data) &&
		b.Collections.Equal(o.Collections) &&
		b.ChildConfig.Equal(o.ChildConfig) &&
		b.SpecAliases.Equal(o.SpecAliases) &&
		cmp.SliceEqWith(b.Scripts, o.Scripts, ScriptTemplate.Equal)
}

// Specification groups SpecBlocks under one name. Blocks are keyed by
// (spec id, block name).
type Specification struct {
	ID   int64  `yaml:"-"`
	Name string `yaml:"name"`
}
