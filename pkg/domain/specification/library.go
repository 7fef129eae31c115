package specification

import (
	"context"
	"io"
	"os"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	kdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/specification/db"
	"gopkg.in/yaml.v3"
)

// Library is the YAML shape of a specification file: a named set of
// configuration templates.
//
//	name: hsc_prod
//	blocks:
//	  - name: campaign
//	    handler: campaign
//	    child_config:
//	      children:
//	        - name: step1
//	          spec_block: step
//	  - name: step
//	    ...
type Library struct {
	Name   string             `yaml:"name"`
	Blocks []domain.SpecBlock `yaml:"blocks"`
}

// Load parses a specification file.
func Load(r io.Reader) (Library, error) {
	lib := Library{}
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&lib); err != nil {
		return Library{}, err
	}
	return lib, nil
}

// LoadFile parses the specification file at path.
func LoadFile(path string) (Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return Library{}, err
	}
	defer f.Close()
	return Load(f)
}

// Register stores every block of the library under specId.
func Register(ctx context.Context, specs kdb.Interface, specId int64, lib Library) error {
	for _, block := range lib.Blocks {
		block.SpecID = specId
		if err := specs.PutBlock(ctx, block); err != nil {
			return err
		}
	}
	return nil
}
