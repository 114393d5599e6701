package config

import "gopkg.in/yaml.v3"

// marshalConfigYAML serializes the raw mapping deterministically.
func marshalConfigYAML(raw map[string]any) ([]byte, error) {
	return yaml.Marshal(raw)
}
