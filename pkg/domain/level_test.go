package domain_test

import (
	"testing"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
)

func TestAsLevel(t *testing.T) {
	for _, l := range domain.Levels() {
		t.Run("it parses "+l.String(), func(t *testing.T) {
			actual, err := domain.AsLevel(l.String())
			if err != nil {
				t.Fatal(err)
			}
			if actual != l {
				t.Errorf("unmatch: (actual, expected) = (%s, %s)", actual, l)
			}
		})
	}

	t.Run("it rejects unknown words", func(t *testing.T) {
		if _, err := domain.AsLevel("workflow"); err == nil {
			t.Error("no error for unknown level")
		}
	})
}

func TestLevel_tree(t *testing.T) {
	t.Run("depth increases root to leaf", func(t *testing.T) {
		levels := domain.Levels()
		for i, l := range levels {
			if l.Depth() != i {
				t.Errorf("%s.Depth() = %d, expected %d", l, l.Depth(), i)
			}
		}
	})

	t.Run("each level's child is the next one down", func(t *testing.T) {
		levels := domain.Levels()
		for i := 0; i < len(levels)-1; i++ {
			child, ok := levels[i].ChildLevel()
			if !ok || child != levels[i+1] {
				t.Errorf("%s.ChildLevel() = (%s, %v), expected (%s, true)", levels[i], child, ok, levels[i+1])
			}
			if !levels[i].ParentOf(levels[i+1]) {
				t.Errorf("%s should be parent of %s", levels[i], levels[i+1])
			}
			if levels[i].ParentOf(levels[i]) {
				t.Errorf("%s should not be parent of itself", levels[i])
			}
		}
	})

	t.Run("script is the only leaf", func(t *testing.T) {
		for _, l := range domain.Levels() {
			if l.Leaf() != (l == domain.Script) {
				t.Errorf("%s.Leaf() = %v", l, l.Leaf())
			}
		}
		if _, ok := domain.Script.ChildLevel(); ok {
			t.Error("script should not have a child level")
		}
	})
}
