package handlers

import (
	"fmt"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/wms"
)

// Handler is a named strategy bound to elements at creation time, via
// the handler field of their template.
type Handler interface {
	Name() string
}

// CompositeHandler governs elements whose status folds over children.
type CompositeHandler interface {
	Handler

	// Policy tells whether the element needs a manual sign-off.
	Policy() domain.ReviewPolicy
}

// ScriptHandler turns a ready leaf into a workload submission.
type ScriptHandler interface {
	Handler

	// BuildSubmission renders the submission from the element's
	// effective configuration (ancestors merged under the element).
	BuildSubmission(el domain.Element, config domain.Document) (wms.Submission, error)
}

// Registry resolves handler names.
type Registry struct {
	byName map[string]Handler
}

func New() *Registry {
	return &Registry{byName: map[string]Handler{}}
}

func (r *Registry) Register(h Handler) error {
	if _, ok := r.byName[h.Name()]; ok {
		return fmt.Errorf("handler %s is already registered", h.Name())
	}
	r.byName[h.Name()] = h
	return nil
}

// Composite resolves a composite handler by name.
func (r *Registry) Composite(name string) (CompositeHandler, bool) {
	h, ok := r.byName[name].(CompositeHandler)
	return h, ok
}

// Script resolves a script handler by name.
func (r *Registry) Script(name string) (ScriptHandler, bool) {
	h, ok := r.byName[name].(ScriptHandler)
	return h, ok
}

type composite struct {
	name   string
	policy domain.ReviewPolicy
}

func (c composite) Name() string                { return c.name }
func (c composite) Policy() domain.ReviewPolicy { return c.policy }

// NewComposite makes a composite handler with the given review policy.
func NewComposite(name string, policy domain.ReviewPolicy) CompositeHandler {
	return composite{name: name, policy: policy}
}

type script struct {
	name string
}

func (s script) Name() string { return s.name }

// BuildSubmission reads the workload shape from the effective
// configuration:
//
//	image: the container image to run
//	command: [string] to execute
//	env: {NAME: value}
func (s script) BuildSubmission(el domain.Element, config domain.Document) (wms.Submission, error) {
	sub := wms.Submission{Fullname: el.Fullname}

	image, ok := config["image"].(string)
	if !ok || image == "" {
		return wms.Submission{}, fmt.Errorf("%s: no image configured", el.Fullname)
	}
	sub.Image = image

	if cmd, ok := config["command"].([]any); ok {
		for _, c := range cmd {
			s, ok := c.(string)
			if !ok {
				return wms.Submission{}, fmt.Errorf("%s: malformed command", el.Fullname)
			}
			sub.Command = append(sub.Command, s)
		}
	}

	if env, ok := config["env"].(map[string]any); ok {
		sub.Env = map[string]string{}
		for k, v := range env {
			s, ok := v.(string)
			if !ok {
				return wms.Submission{}, fmt.Errorf("%s: malformed env %s", el.Fullname, k)
			}
			sub.Env[k] = s
		}
	}

	return sub, nil
}

// NewScript makes a script handler.
func NewScript(name string) ScriptHandler {
	return script{name: name}
}

// Defaults is the standard handler set: one composite handler per
// level (auto-accepting and reviewed variants) and the workload
// script handler.
// The set is static, so a name collision is a programming error.
func Defaults() *Registry {
	r := New()
	register := func(h Handler) {
		if err := r.Register(h); err != nil {
			panic(err)
		}
	}
	for _, name := range []string{"campaign", "step", "group", "job"} {
		register(NewComposite(name, domain.ReviewPolicy{}))
		register(NewComposite("reviewed-"+name, domain.ReviewPolicy{RequireReview: true}))
	}
	register(NewScript("workload"))
	return r
}
