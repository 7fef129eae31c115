package dberrors

import (
	"fmt"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
)

// requested record is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s", m.Identity, m.Table)
}

func (m Missing) Unwrap() error {
	return domain.ErrMissing
}

// requested record is found too much.
type TooMuch struct {
	Table    string
	Identity string
}

var _ error = TooMuch{}

func (t TooMuch) Error() string {
	return fmt.Sprintf("%s is found in %s more than once", t.Identity, t.Table)
}

func (t TooMuch) Unwrap() error {
	return domain.ErrTooMuch
}
