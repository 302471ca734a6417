package catalog

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a metadata catalog. YAML and JSON use the
// same field names.
type File struct {
	Version    int            `yaml:"version,omitempty" json:"version,omitempty"`
	Assemblies []AssemblyDesc `yaml:"assemblies" json:"assemblies"`
}

// AssemblyDesc describes one assembly.
type AssemblyDesc struct {
	Name             string          `yaml:"name" json:"name"`
	Version          string          `yaml:"version,omitempty" json:"version,omitempty"`
	Attributes       []AttributeDesc `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	ModuleAttributes []AttributeDesc `yaml:"moduleAttributes,omitempty" json:"moduleAttributes,omitempty"`
	Forwarders       []string        `yaml:"forwarders,omitempty" json:"forwarders,omitempty"`
	Types            []TypeDesc      `yaml:"types,omitempty" json:"types,omitempty"`
}

// TypeDesc describes a type definition. Nested types are listed with their
// full Outer+Inner name like any other type.
type TypeDesc struct {
	Name       string          `yaml:"name" json:"name"`
	Kind       string          `yaml:"kind,omitempty" json:"kind,omitempty"`
	Visibility string          `yaml:"visibility,omitempty" json:"visibility,omitempty"`
	Sealed     bool            `yaml:"sealed,omitempty" json:"sealed,omitempty"`
	Abstract   bool            `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Generic    []GenericDesc   `yaml:"generic,omitempty" json:"generic,omitempty"`
	Base       string          `yaml:"base,omitempty" json:"base,omitempty"`
	Interfaces []string        `yaml:"interfaces,omitempty" json:"interfaces,omitempty"`
	Attributes []AttributeDesc `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Security   []AttributeDesc `yaml:"security,omitempty" json:"security,omitempty"`
	Members    []MemberDesc    `yaml:"members,omitempty" json:"members,omitempty"`
}

// GenericDesc is a generic parameter with optional constraints.
type GenericDesc struct {
	Name        string   `yaml:"name" json:"name"`
	Constraints []string `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// MemberDesc describes a method, field, property or event.
type MemberDesc struct {
	Kind        string          `yaml:"kind,omitempty" json:"kind,omitempty"`
	Name        string          `yaml:"name" json:"name"`
	Visibility  string          `yaml:"visibility,omitempty" json:"visibility,omitempty"`
	Static      bool            `yaml:"static,omitempty" json:"static,omitempty"`
	Virtual     bool            `yaml:"virtual,omitempty" json:"virtual,omitempty"`
	Abstract    bool            `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Final       bool            `yaml:"final,omitempty" json:"final,omitempty"`
	SpecialName bool            `yaml:"specialName,omitempty" json:"specialName,omitempty"`
	Literal     bool            `yaml:"literal,omitempty" json:"literal,omitempty"`
	Generic     []GenericDesc   `yaml:"generic,omitempty" json:"generic,omitempty"`
	Params      []string        `yaml:"params,omitempty" json:"params,omitempty"`
	Type        string          `yaml:"type,omitempty" json:"type,omitempty"`
	Getter      string          `yaml:"getter,omitempty" json:"getter,omitempty"`
	Setter      string          `yaml:"setter,omitempty" json:"setter,omitempty"`
	Adder       string          `yaml:"adder,omitempty" json:"adder,omitempty"`
	Remover     string          `yaml:"remover,omitempty" json:"remover,omitempty"`
	Overrides   []string        `yaml:"overrides,omitempty" json:"overrides,omitempty"`
	Attributes  []AttributeDesc `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Body        *BodyDesc       `yaml:"body,omitempty" json:"body,omitempty"`
}

// BodyDesc lists the metadata operands of a method body. Calls is shorthand
// for operands with op "call".
type BodyDesc struct {
	Calls    []string      `yaml:"calls,omitempty" json:"calls,omitempty"`
	Operands []OperandDesc `yaml:"operands,omitempty" json:"operands,omitempty"`
	Handlers []HandlerDesc `yaml:"handlers,omitempty" json:"handlers,omitempty"`
}

// OperandDesc is one instruction operand; exactly one of Type and Member is set.
type OperandDesc struct {
	Op     string `yaml:"op" json:"op"`
	Type   string `yaml:"type,omitempty" json:"type,omitempty"`
	Member string `yaml:"member,omitempty" json:"member,omitempty"`
}

// HandlerDesc is an exception handler; Type is empty for finally and fault.
type HandlerDesc struct {
	Kind string `yaml:"kind" json:"kind"`
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

// AttributeDesc is a custom attribute: its constructor and typeof arguments.
type AttributeDesc struct {
	Ctor  string   `yaml:"ctor" json:"ctor"`
	Types []string `yaml:"types,omitempty" json:"types,omitempty"`
}

// GenericDesc and AttributeDesc may be written as a bare string, naming
// the parameter or the attribute constructor.

func (g *GenericDesc) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		g.Name = value.Value
		return nil
	}
	type plain GenericDesc
	return value.Decode((*plain)(g))
}

func (g *GenericDesc) UnmarshalJSON(data []byte) error {
	var name string
	if json.Unmarshal(data, &name) == nil {
		g.Name = name
		return nil
	}
	type plain GenericDesc
	return json.Unmarshal(data, (*plain)(g))
}

func (a *AttributeDesc) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		a.Ctor = value.Value
		return nil
	}
	type plain AttributeDesc
	return value.Decode((*plain)(a))
}

func (a *AttributeDesc) UnmarshalJSON(data []byte) error {
	var ctor string
	if json.Unmarshal(data, &ctor) == nil {
		a.Ctor = ctor
		return nil
	}
	type plain AttributeDesc
	return json.Unmarshal(data, (*plain)(a))
}
