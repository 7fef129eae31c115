package domain

import "fmt"

// Level tells which kind of node an element is in the campaign hierarchy.
type Level string

const (
	Campaign Level = "campaign"
	Step     Level = "step"
	Group    Level = "group"
	Job      Level = "job"
	Script   Level = "script"
)

func (l Level) String() string {
	return string(l)
}

func AsLevel(s string) (Level, error) {
	switch s {
	case string(Campaign):
		return Campaign, nil
	case string(Step):
		return Step, nil
	case string(Group):
		return Group, nil
	case string(Job):
		return Job, nil
	case string(Script):
		return Script, nil
	default:
		return "", fmt.Errorf("'%s' is not Level", s)
	}
}

// Depth of each level in the tree. Campaign is the root at 0.
func (l Level) Depth() int {
	switch l {
	case Campaign:
		return 0
	case Step:
		return 1
	case Group:
		return 2
	case Job:
		return 3
	case Script:
		return 4
	default:
		return -1
	}
}

// ChildLevel returns the level expected one step down the tree.
//
// Script has no child level; the second return value is false then.
func (l Level) ChildLevel() (Level, bool) {
	switch l {
	case Campaign:
		return Step, true
	case Step:
		return Group, true
	case Group:
		return Job, true
	case Job:
		return Script, true
	default:
		return "", false
	}
}

// ParentOf returns true when l is the expected parent level of child.
func (l Level) ParentOf(child Level) bool {
	c, ok := l.ChildLevel()
	return ok && c == child
}

// Leaf levels are driven by WMS outcomes, not by child aggregation.
func (l Level) Leaf() bool {
	return l == Script
}

func Levels() []Level {
	return []Level{Campaign, Step, Group, Job, Script}
}
