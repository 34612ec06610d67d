package schema

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlSchema mirrors the YAML document shape. Properties and relations are
// kept as raw nodes so mapping order survives decoding: declaration order
// drives column ordering in the generated DDL.
type yamlSchema struct {
	Table       string      `yaml:"table"`
	Properties  yaml.Node   `yaml:"properties"`
	Required    []string    `yaml:"required"`
	FullText    []string    `yaml:"fullText"`
	Indices     []yamlIndex `yaml:"indices"`
	Relations   yaml.Node   `yaml:"relations"`
	Constraints []yaml.Node `yaml:"constraints"`
}

type yamlColumn struct {
	Type        Type      `yaml:"type"`
	MaxLength   int       `yaml:"maxLength"`
	Minimum     *float64  `yaml:"minimum"`
	Maximum     *float64  `yaml:"maximum"`
	PrimaryKey  bool      `yaml:"primaryKey"`
	Unique      bool      `yaml:"unique"`
	Default     any       `yaml:"default"`
	DateOn      string    `yaml:"dateOn"`
	As          yaml.Node `yaml:"as"`
	Constraint  string    `yaml:"constraint"`
	Index       []string  `yaml:"index"`
	Description string    `yaml:"description"`
}

type yamlIndex struct {
	Properties []string `yaml:"properties"`
	Array      *int     `yaml:"array"`
	Unique     bool     `yaml:"unique"`
}

type yamlRelation struct {
	Join     string `yaml:"join"`
	Target   string `yaml:"target"`
	Type     string `yaml:"type"`
	OnDelete string `yaml:"onDelete"`
	OnUpdate string `yaml:"onUpdate"`
}

type yamlConstraint struct {
	Name     string `yaml:"name"`
	Check    string `yaml:"check"`
	Enforced *bool  `yaml:"enforced"`
	Provider string `yaml:"provider"`
}

// Parse decodes a YAML schema definition.
func Parse(data []byte) (*Schema, error) {
	var ys yamlSchema
	if err := yaml.Unmarshal(data, &ys); err != nil {
		return nil, fmt.Errorf("dbx: parsing schema: %w", err)
	}
	s := &Schema{
		Table:    ys.Table,
		Required: ys.Required,
		FullText: ys.FullText,
	}
	if err := eachPair(&ys.Properties, func(name string, node *yaml.Node) error {
		var yc yamlColumn
		if err := node.Decode(&yc); err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
		c := &Column{
			Name:        name,
			Type:        yc.Type,
			MaxLength:   yc.MaxLength,
			Minimum:     yc.Minimum,
			Maximum:     yc.Maximum,
			PrimaryKey:  yc.PrimaryKey,
			Unique:      yc.Unique,
			Default:     yc.Default,
			DateOn:      yc.DateOn,
			Constraint:  yc.Constraint,
			Index:       yc.Index,
			Description: yc.Description,
		}
		switch yc.As.Kind {
		case 0: // absent
		case yaml.ScalarNode:
			c.As = GeneratedAs{"": yc.As.Value}
		case yaml.MappingNode:
			var m map[string]string
			if err := yc.As.Decode(&m); err != nil {
				return fmt.Errorf("column %q: as: %w", name, err)
			}
			c.As = m
		default:
			return fmt.Errorf("column %q: as must be a string or a dialect map", name)
		}
		s.Properties = append(s.Properties, c)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("dbx: parsing schema: %w", err)
	}
	for _, yi := range ys.Indices {
		s.Indices = append(s.Indices, &Index{
			Properties: yi.Properties,
			Array:      yi.Array,
			Unique:     yi.Unique,
		})
	}
	if err := eachPair(&ys.Relations, func(name string, node *yaml.Node) error {
		var yr yamlRelation
		if err := node.Decode(&yr); err != nil {
			return fmt.Errorf("relation %q: %w", name, err)
		}
		s.Relations = append(s.Relations, &Relation{
			Name:     name,
			Join:     yr.Join,
			Target:   yr.Target,
			Type:     yr.Type,
			OnDelete: yr.OnDelete,
			OnUpdate: yr.OnUpdate,
		})
		return nil
	}); err != nil {
		return nil, fmt.Errorf("dbx: parsing schema: %w", err)
	}
	for i, node := range ys.Constraints {
		// A constraint is either a bare expression or a named object.
		if node.Kind == yaml.ScalarNode {
			s.Constraints = append(s.Constraints, &Constraint{Check: node.Value})
			continue
		}
		var yc yamlConstraint
		if err := node.Decode(&yc); err != nil {
			return nil, fmt.Errorf("dbx: parsing schema: constraint %d: %w", i, err)
		}
		s.Constraints = append(s.Constraints, &Constraint{
			Name:     yc.Name,
			Check:    yc.Check,
			Enforced: yc.Enforced,
			Provider: yc.Provider,
		})
	}
	return s, nil
}

// Load reads and decodes a YAML schema file, validates it, and stamps the
// schema with its source identifier and content tag so freshness checks can
// track the file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := s.Stamp(path, time.Now()); err != nil {
		return nil, err
	}
	return s, nil
}

// eachPair iterates a YAML mapping node in document order.
func eachPair(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node.Kind == 0 {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping, got %v", node.Tag)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}
