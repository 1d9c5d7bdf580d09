package env

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile decodes the YAML file at path onto out. Fields absent from the
// file keep their values.
func LoadFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config %s: %v", path, err)
	}
	return nil
}
