package handlers_test

import (
	"testing"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/handlers"
	"github.com/lsst-dm/cm-service-sub002/pkg/utils/cmp"
)

func TestRegistry(t *testing.T) {
	t.Run("it should resolve handlers by name and kind", func(t *testing.T) {
		testee := handlers.New()
		if err := testee.Register(handlers.NewComposite("group", domain.ReviewPolicy{})); err != nil {
			t.Fatal(err)
		}
		if err := testee.Register(handlers.NewScript("bps")); err != nil {
			t.Fatal(err)
		}

		if _, ok := testee.Composite("group"); !ok {
			t.Error("composite handler not found")
		}
		if _, ok := testee.Script("bps"); !ok {
			t.Error("script handler not found")
		}
		if _, ok := testee.Script("group"); ok {
			t.Error("a composite handler should not resolve as a script")
		}
		if _, ok := testee.Composite("no_such"); ok {
			t.Error("an unknown name should not resolve")
		}
	})

	t.Run("when a name is registered twice, it should fail", func(t *testing.T) {
		testee := handlers.New()
		if err := testee.Register(handlers.NewScript("bps")); err != nil {
			t.Fatal(err)
		}
		if err := testee.Register(handlers.NewScript("bps")); err == nil {
			t.Error("expected an error for a duplicate name")
		}
	})
}

func TestDefaults(t *testing.T) {
	testee := handlers.Defaults()

	for _, name := range []string{"campaign", "step", "group", "job"} {
		h, ok := testee.Composite(name)
		if !ok {
			t.Errorf("composite %s not registered", name)
			continue
		}
		if h.Policy().RequireReview {
			t.Errorf("%s should auto-accept", name)
		}

		reviewed, ok := testee.Composite("reviewed-" + name)
		if !ok {
			t.Errorf("composite reviewed-%s not registered", name)
			continue
		}
		if !reviewed.Policy().RequireReview {
			t.Errorf("reviewed-%s should require a sign-off", name)
		}
	}

	if _, ok := testee.Script("workload"); !ok {
		t.Error("script handler workload not registered")
	}
}

func TestBuildSubmission(t *testing.T) {
	script := handlers.NewScript("workload")
	el := domain.Element{ElementBody: domain.ElementBody{
		ElementRef: domain.ElementRef{Level: domain.Script, ID: 5},
		Name:       "bps_submit", Fullname: "c1/s1/g1/j1/bps_submit",
	}}

	t.Run("it should render the workload from the configuration", func(t *testing.T) {
		sub, err := script.BuildSubmission(el, domain.Document{
			"image":   "ghcr.io/lsst/bps:w_2026_30",
			"command": []any{"bps", "submit", "drp.yaml"},
			"env":     map[string]any{"BUTLER_REPO": "/repo/main"},
		})
		if err != nil {
			t.Fatal(err)
		}

		if sub.Fullname != el.Fullname {
			t.Errorf("unexpected fullname: %s", sub.Fullname)
		}
		if sub.Image != "ghcr.io/lsst/bps:w_2026_30" {
			t.Errorf("unexpected image: %s", sub.Image)
		}
		if !cmp.SliceEq(sub.Command, []string{"bps", "submit", "drp.yaml"}) {
			t.Errorf("unexpected command: %v", sub.Command)
		}
		if !cmp.MapEq(sub.Env, map[string]string{"BUTLER_REPO": "/repo/main"}) {
			t.Errorf("unexpected env: %v", sub.Env)
		}
	})

	t.Run("command and env are optional", func(t *testing.T) {
		sub, err := script.BuildSubmission(el, domain.Document{"image": "busybox"})
		if err != nil {
			t.Fatal(err)
		}
		if len(sub.Command) != 0 || len(sub.Env) != 0 {
			t.Errorf("unexpected submission: %+v", sub)
		}
	})

	theoryBroken := func(config domain.Document) func(*testing.T) {
		return func(t *testing.T) {
			if _, err := script.BuildSubmission(el, config); err == nil {
				t.Errorf("expected an error for %v", config)
			}
		}
	}
	t.Run("when no image is configured, it should fail", theoryBroken(
		domain.Document{"command": []any{"bps"}},
	))
	t.Run("when the image is not a string, it should fail", theoryBroken(
		domain.Document{"image": 42},
	))
	t.Run("when the command mixes in non-strings, it should fail", theoryBroken(
		domain.Document{"image": "busybox", "command": []any{"bps", 1}},
	))
	t.Run("when an env value is not a string, it should fail", theoryBroken(
		domain.Document{"image": "busybox", "env": map[string]any{"N": 1}},
	))
}
