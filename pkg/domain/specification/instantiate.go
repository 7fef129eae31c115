package specification

import (
	"context"
	"errors"
	"fmt"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	elemdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db"
	kdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/specification/db"
)

// MetaSpecID keys the specification id carried in element metadata.
// It is stamped at campaign creation and inherited by every
// descendant, so templates resolve against the right specification.
const MetaSpecID = "spec_id"

// SpecIDOf extracts the specification id of an element. Elements
// created before any specification was registered resolve to 0.
func SpecIDOf(el domain.Element) int64 {
	switch n := el.Metadata[MetaSpecID].(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// FromBlock seeds a new element from a template. The documents are
// copied: later template updates never touch the element.
func FromBlock(
	block domain.SpecBlock,
	parent domain.ElementRef, level domain.Level, name string,
	specId int64, override domain.Document,
) domain.Element {
	return domain.Element{
		ElementBody: domain.ElementBody{
			ElementRef:  domain.ElementRef{Level: level},
			Name:        name,
			Parent:      parent,
			Handler:     block.Handler,
			SpecBlock:   block.Name,
			Data:        block.Data.Merge(override),
			ChildConfig: block.ChildConfig.Clone(),
			Collections: block.Collections.Clone(),
			SpecAliases: block.SpecAliases.Clone(),
			Metadata:    domain.Document{MetaSpecID: specId},
		},
	}
}

// Instantiator creates elements from registered templates.
type Instantiator struct {
	elements elemdb.Interface
	specs    kdb.Interface
}

func NewInstantiator(elements elemdb.Interface, specs kdb.Interface) *Instantiator {
	return &Instantiator{elements: elements, specs: specs}
}

// childDecl is one entry of a parent's child_config "children" list.
type childDecl struct {
	Name      string
	SpecBlock string
	Override  domain.Document
}

func childDecls(childConfig domain.Document) ([]childDecl, error) {
	raw, ok := childConfig["children"].([]any)
	if !ok {
		return nil, nil
	}

	decls := make([]childDecl, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("malformed child declaration: %v", r)
		}
		d := childDecl{}
		if d.Name, ok = m["name"].(string); !ok || d.Name == "" {
			return nil, fmt.Errorf("child declaration without name: %v", r)
		}
		if d.SpecBlock, ok = m["spec_block"].(string); !ok || d.SpecBlock == "" {
			return nil, fmt.Errorf("child declaration without spec_block: %v", r)
		}
		if o, ok := m["data"].(map[string]any); ok {
			d.Override = domain.Document(o)
		}
		decls = append(decls, d)
	}
	return decls, nil
}

// ensure creates el unless a live sibling with the same name exists,
// and returns the live record's reference either way.
func (ins *Instantiator) ensure(ctx context.Context, el domain.Element) (domain.ElementRef, error) {
	ref, err := ins.elements.Create(ctx, el)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, domain.ErrNameCollision) {
		return domain.ElementRef{}, err
	}

	// someone else made it; find the live record
	siblings, err := ins.elements.ChildrenOf(ctx, el.Parent)
	if err != nil {
		return domain.ElementRef{}, err
	}
	for _, s := range siblings {
		if s.Name == el.Name {
			return s.ElementRef, nil
		}
	}
	return domain.ElementRef{}, fmt.Errorf(
		"%w: %s collided but has no live record", domain.ErrMissing, el.Name,
	)
}

// EnsureChildren instantiates the children an element declares, and
// returns their references (created or pre-existing).
//
// Composite elements declare children in child_config; elements whose
// template carries scripts get those as script children, wired with
// the declared prerequisite edges. EnsureChildren is idempotent, so a
// crash between sibling creations heals on the next cycle.
func (ins *Instantiator) EnsureChildren(ctx context.Context, parent domain.Element) ([]domain.ElementRef, error) {
	childLevel, ok := parent.Level.ChildLevel()
	if !ok {
		return nil, nil
	}
	specId := SpecIDOf(parent)

	refs := []domain.ElementRef{}

	decls, err := childDecls(parent.ChildConfig)
	if err != nil {
		return nil, err
	}
	for _, d := range decls {
		block, err := ins.specs.GetBlock(ctx, specId, d.SpecBlock)
		if err != nil {
			return nil, err
		}
		ref, err := ins.ensure(ctx, FromBlock(
			block, parent.ElementRef, childLevel, d.Name, specId, d.Override,
		))
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	if parent.SpecBlock == "" || childLevel != domain.Script {
		return refs, nil
	}

	// jobs with script templates
	block, err := ins.specs.GetBlock(ctx, specId, parent.SpecBlock)
	if err != nil {
		return nil, err
	}
	byName := map[string]domain.ElementRef{}
	for _, tmpl := range block.Scripts {
		ref, err := ins.ensure(ctx, domain.Element{
			ElementBody: domain.ElementBody{
				ElementRef: domain.ElementRef{Level: domain.Script},
				Name:       tmpl.Name,
				Parent:     parent.ElementRef,
				Handler:    tmpl.Handler,
				SpecBlock:  block.Name,
				Data:       tmpl.Data.Clone(),
				Metadata:   domain.Document{MetaSpecID: specId},
			},
		})
		if err != nil {
			return nil, err
		}
		byName[tmpl.Name] = ref
		refs = append(refs, ref)
	}
	for _, tmpl := range block.Scripts {
		for _, prereq := range tmpl.Prereqs {
			pre, ok := byName[prereq]
			if !ok {
				return nil, fmt.Errorf(
					"script %s requires unknown sibling %s", tmpl.Name, prereq,
				)
			}
			err := ins.elements.AddDependency(ctx, domain.Dependency{
				Prereq: pre, Depend: byName[tmpl.Name],
			})
			if err != nil && !errors.Is(err, domain.ErrDuplicateDependency) {
				return nil, err
			}
		}
	}

	return refs, nil
}
