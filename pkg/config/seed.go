package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/docflow/pkg/groups"
)

// seedFile is the YAML shape of a group seed file:
//
//	groups:
//	  - id: management
//	    deletable: false
//	    members:
//	      - email: boss@example.com
//	        name: The Boss
type seedFile struct {
	Groups []*groups.UserGroup `yaml:"groups"`
}

// LoadGroupSeed reads the group seed file. A missing path returns no groups.
func LoadGroupSeed(path string) ([]*groups.UserGroup, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read group seed: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse group seed: %w", err)
	}
	for _, g := range f.Groups {
		if g.ID == "" {
			return nil, fmt.Errorf("group seed contains a group without an id")
		}
	}
	return f.Groups, nil
}
