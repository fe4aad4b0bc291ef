package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"aigate/internal/domain"
)

// registryDocument is the on-disk shape of the registry file.
type registryDocument struct {
	Servers []domain.Registration `json:"servers" yaml:"servers" toml:"servers"`
}

type documentCodec interface {
	name() string
	marshal(doc registryDocument) ([]byte, error)
	unmarshal(data []byte, doc *registryDocument) error
}

func codecForPath(path string) (documentCodec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlCodec{}, nil
	case ".toml":
		return tomlCodec{}, nil
	case ".json":
		return jsonCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported registry file extension %q (want .yaml, .yml, .toml or .json)", filepath.Ext(path))
	}
}

type yamlCodec struct{}

func (yamlCodec) name() string { return "yaml" }

func (yamlCodec) marshal(doc registryDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (yamlCodec) unmarshal(data []byte, doc *registryDocument) error {
	return yaml.Unmarshal(data, doc)
}

type tomlCodec struct{}

func (tomlCodec) name() string { return "toml" }

func (tomlCodec) marshal(doc registryDocument) ([]byte, error) {
	return toml.Marshal(doc)
}

func (tomlCodec) unmarshal(data []byte, doc *registryDocument) error {
	return toml.Unmarshal(data, doc)
}

type jsonCodec struct{}

func (jsonCodec) name() string { return "json" }

func (jsonCodec) marshal(doc registryDocument) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (jsonCodec) unmarshal(data []byte, doc *registryDocument) error {
	return json.Unmarshal(data, doc)
}
