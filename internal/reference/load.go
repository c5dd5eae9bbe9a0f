package reference

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML override file and returns validated tables. Sections left
// empty in the file fall back to the built-in defaults, so a deployment can
// override just the rate table without restating the crop list.
func Load(path string) (*Tables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reference: read %s", path)
	}

	var overrides Tables
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, eris.Wrapf(err, "reference: parse %s", path)
	}

	t := Default()
	if len(overrides.Crops) > 0 {
		t.Crops = overrides.Crops
	}
	if len(overrides.Soils) > 0 {
		t.Soils = overrides.Soils
	}
	if len(overrides.Compatibility) > 0 {
		t.Compatibility = overrides.Compatibility
	}
	if len(overrides.Rates) > 0 {
		t.Rates = overrides.Rates
	}

	if err := t.Validate(); err != nil {
		return nil, eris.Wrapf(err, "reference: validate %s", path)
	}
	return t, nil
}
