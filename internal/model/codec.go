package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"thinner/internal/errors"
	"thinner/internal/metadata"
)

// Format is a model file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the encoding from the file extension; TOML is the
// default.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	return FormatTOML
}

type modelDoc struct {
	Assemblies []assemblyDoc `toml:"assembly" yaml:"assemblies" json:"assemblies"`
}

// AttrsDoc is the on-disk form of Attributes, shared by every element.
type AttrsDoc struct {
	Status       string `toml:"status,omitempty" yaml:"status,omitempty" json:"status,omitempty"`
	Visibility   string `toml:"visibility,omitempty" yaml:"visibility,omitempty" json:"visibility,omitempty"`
	Security     string `toml:"security,omitempty" yaml:"security,omitempty" json:"security,omitempty"`
	Platform     string `toml:"platform,omitempty" yaml:"platform,omitempty" json:"platform,omitempty"`
	Architecture string `toml:"architecture,omitempty" yaml:"architecture,omitempty" json:"architecture,omitempty"`
	Flavor       string `toml:"flavor,omitempty" yaml:"flavor,omitempty" json:"flavor,omitempty"`
	Condition    string `toml:"condition,omitempty" yaml:"condition,omitempty" json:"condition,omitempty"`
}

type assemblyDoc struct {
	Name       string `toml:"name" yaml:"name" json:"name"`
	AttrsDoc   `yaml:",inline"`
	Types      []typeDoc      `toml:"type,omitempty" yaml:"types,omitempty" json:"types,omitempty"`
	Forwarders []forwarderDoc `toml:"forwarder,omitempty" yaml:"forwarders,omitempty" json:"forwarders,omitempty"`
}

type typeDoc struct {
	Name     string `toml:"name" yaml:"name" json:"name"`
	AttrsDoc `yaml:",inline"`
	Members  []memberDoc `toml:"member,omitempty" yaml:"members,omitempty" json:"members,omitempty"`
}

// memberDoc names a member by signature; Kind is omitted for methods.
type memberDoc struct {
	Name     string `toml:"name" yaml:"name" json:"name"`
	Kind     string `toml:"kind,omitempty" yaml:"kind,omitempty" json:"kind,omitempty"`
	AttrsDoc `yaml:",inline"`
}

type forwarderDoc struct {
	Assembly string `toml:"assembly" yaml:"assembly" json:"assembly"`
	Name     string `toml:"name" yaml:"name" json:"name"`
	AttrsDoc `yaml:",inline"`
}

// Read loads a model file, picking the encoding from its extension.
func Read(path string, opts ReadOptions) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ModelInvalid, fmt.Sprintf("failed to read model %s", path), err)
	}
	m, err := Decode(data, FormatFromPath(path), opts)
	if err != nil {
		return nil, errors.New(errors.CodeOf(err), path, err)
	}
	return m, nil
}

// Decode parses model content, applies the read filters, resolves status
// inheritance and validates the result.
func Decode(data []byte, format Format, opts ReadOptions) (*Model, error) {
	var doc modelDoc
	var err error
	switch format {
	case FormatTOML, "":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(&doc); err == io.EOF {
			err = nil
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	default:
		return nil, errors.Newf(errors.ModelInvalid, "unknown model format %q", format)
	}
	if err != nil {
		return nil, errors.New(errors.ModelInvalid, "failed to decode model", err)
	}

	m, err := fromDocument(&doc, opts)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *AttrsDoc) parse(opts ReadOptions) (Attributes, Condition, error) {
	var a Attributes
	var err error
	if a.Status, err = ParseStatus(d.Status); err != nil {
		return a, Condition{}, err
	}
	if opts.TreatFxInternalAsPublic && a.Status == StatusApiFxInternal {
		a.Status = StatusApiRoot
	}
	if a.Visibility, err = ParseVisibilityOverride(d.Visibility); err != nil {
		return a, Condition{}, err
	}
	if a.Security, err = ParseSecurityTransparency(d.Security); err != nil {
		return a, Condition{}, err
	}
	cond, err := ParseCondition(d.Condition)
	if err != nil {
		return a, Condition{}, err
	}
	a.Platform, a.Architecture, a.Flavor, a.Condition = d.Platform, d.Architecture, d.Flavor, d.Condition
	return a, cond, nil
}

func inherit(a *Attributes, parent Status) {
	if a.Status == StatusInherit {
		a.Status = parent
	}
}

func fromDocument(doc *modelDoc, opts ReadOptions) (*Model, error) {
	m := New()
	f := newFilter(opts)
	invalid := func(where string, err error) error {
		return errors.New(errors.ModelInvalid, where, err)
	}

	for _, ad := range doc.Assemblies {
		attrs, cond, err := ad.parse(opts)
		if err != nil {
			return nil, invalid(ad.Name, err)
		}
		if !f.include(&attrs, cond) {
			continue
		}
		if ad.Name == "" {
			return nil, errors.Newf(errors.ModelInvalid, "assembly without a name")
		}
		if m.Assembly(ad.Name) != nil {
			return nil, errors.Newf(errors.ModelInvalid, "assembly %s listed twice", ad.Name)
		}
		a := m.AddAssembly(ad.Name, attrs.Status)
		a.Attributes = attrs

		for _, td := range ad.Types {
			where := ad.Name + " " + td.Name
			tattrs, cond, err := td.parse(opts)
			if err != nil {
				return nil, invalid(where, err)
			}
			if !f.include(&tattrs, cond) {
				continue
			}
			if td.Name == "" {
				return nil, errors.Newf(errors.ModelInvalid, "type without a name in %s", ad.Name)
			}
			if a.Type(td.Name) != nil {
				return nil, errors.Newf(errors.ModelInvalid, "type %s listed twice", where)
			}
			inherit(&tattrs, a.Status)
			t := a.AddType(td.Name, tattrs.Status)
			t.Attributes = tattrs

			for _, md := range td.Members {
				mattrs, cond, err := md.parse(opts)
				if err != nil {
					return nil, invalid(where+" "+md.Name, err)
				}
				if !f.include(&mattrs, cond) {
					continue
				}
				kind, ok := metadata.ParseMemberKind(md.Kind)
				if !ok || md.Name == "" {
					return nil, errors.Newf(errors.ModelInvalid, "member %q of kind %q in %s is malformed", md.Name, md.Kind, where)
				}
				key := metadata.MemberKey(kind, md.Name, "")
				if t.Member(key) != nil {
					return nil, errors.Newf(errors.ModelInvalid, "member %s listed twice in %s", key, where)
				}
				inherit(&mattrs, t.Status)
				mem := t.AddMember(key, mattrs.Status)
				mem.Attributes = mattrs
			}
		}

		for _, fd := range ad.Forwarders {
			fattrs, cond, err := fd.parse(opts)
			if err != nil {
				return nil, invalid(ad.Name+" forwarder "+fd.Name, err)
			}
			if !f.include(&fattrs, cond) {
				continue
			}
			if fd.Assembly == "" || fd.Name == "" {
				return nil, errors.Newf(errors.ModelInvalid, "forwarder in %s needs assembly and name", ad.Name)
			}
			if a.Forwarder(metadata.ForwarderKey(fd.Assembly, fd.Name)) != nil {
				return nil, errors.Newf(errors.ModelInvalid, "forwarder %s listed twice in %s", fd.Name, ad.Name)
			}
			inherit(&fattrs, a.Status)
			fw := a.AddForwarder(fd.Assembly, fd.Name, fattrs.Status)
			fw.Attributes = fattrs
		}
	}
	return m, nil
}

// Validate checks that every element has a status and that no API element
// sits under an implementation-only parent.
func (m *Model) Validate() error {
	for _, a := range m.Assemblies() {
		if a.Status == StatusInherit {
			return errors.Newf(errors.ModelInvalid, "assembly %s has no status", a.Name)
		}
		for _, t := range a.Types() {
			if t.Status == StatusInherit {
				return errors.Newf(errors.ModelInvalid, "type %s has no status", t.Name)
			}
			if t.Status.IsApi() && a.Status.IsImpl() {
				return errors.Newf(errors.InconsistentStatus, "type %s is %s in %s assembly %s", t.Name, t.Status, a.Status, a.Name)
			}
			for _, mem := range t.Members() {
				if mem.Status == StatusInherit {
					return errors.Newf(errors.ModelInvalid, "member %s of %s has no status", mem.Key, t.Name)
				}
				if mem.Status.IsApi() && t.Status.IsImpl() {
					return errors.Newf(errors.InconsistentStatus, "member %s is %s in %s type %s", mem.Key, mem.Status, t.Status, t.Name)
				}
			}
		}
		for _, f := range a.Forwarders() {
			if f.Status == StatusInherit {
				return errors.Newf(errors.ModelInvalid, "forwarder %s in %s has no status", f.Key(), a.Name)
			}
		}
	}
	return nil
}

// Write encodes the model to path, picking the encoding from its extension.
func (m *Model) Write(path string) error {
	var buf bytes.Buffer
	if err := m.Encode(&buf, FormatFromPath(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.New(errors.ModelInvalid, fmt.Sprintf("failed to write model %s", path), err)
	}
	return nil
}

// Encode validates the model and writes it: API elements before the rest,
// each group sorted by key, statuses omitted where inherited.
func (m *Model) Encode(w io.Writer, format Format) error {
	if err := m.Validate(); err != nil {
		return err
	}
	doc := m.document()

	var err error
	switch format {
	case FormatTOML, "":
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		err = enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	default:
		return errors.Newf(errors.ModelInvalid, "unknown model format %q", format)
	}
	if err != nil {
		return errors.New(errors.ModelInvalid, "failed to encode model", err)
	}
	return nil
}

func encodeAttrs(a Attributes, parent Status) AttrsDoc {
	d := AttrsDoc{
		Platform:     a.Platform,
		Architecture: a.Architecture,
		Flavor:       a.Flavor,
		Condition:    a.Condition,
	}
	if a.Status != StatusInherit && a.Status != parent {
		d.Status = a.Status.String()
	}
	if a.Visibility != VisibilityNone {
		d.Visibility = strings.ToLower(a.Visibility.String())
	}
	if a.Security != SecurityTransparent && a.Security != SecurityUndefined {
		d.Security = a.Security.String()
	}
	return d
}

// apiFirst orders elements API-first, then by key.
func apiFirst(status func(int) Status, key func(int) string) func(i, j int) bool {
	return func(i, j int) bool {
		ai, aj := status(i).IsApi(), status(j).IsApi()
		if ai != aj {
			return ai
		}
		return key(i) < key(j)
	}
}

func (m *Model) document() *modelDoc {
	doc := &modelDoc{}
	asms := m.Assemblies()
	sort.SliceStable(asms, apiFirst(func(i int) Status { return asms[i].Status }, func(i int) string { return asms[i].Name }))

	for _, a := range asms {
		ad := assemblyDoc{Name: a.Name, AttrsDoc: encodeAttrs(a.Attributes, StatusInherit)}

		types := a.Types()
		sort.SliceStable(types, apiFirst(func(i int) Status { return types[i].Status }, func(i int) string { return types[i].Name }))
		for _, t := range types {
			td := typeDoc{Name: t.Name, AttrsDoc: encodeAttrs(t.Attributes, a.Status)}

			members := t.Members()
			sort.SliceStable(members, apiFirst(func(i int) Status { return members[i].Status }, func(i int) string { return members[i].Key }))
			for _, mem := range members {
				md := memberDoc{Name: mem.Key, AttrsDoc: encodeAttrs(mem.Attributes, t.Status)}
				if kind, sig, ret, ok := metadata.SplitMemberKey(mem.Key); ok {
					md.Name = sig
					if ret != "" {
						md.Name += " : " + ret
					}
					if kind != metadata.MemberMethod {
						md.Kind = kind.String()
					}
				}
				td.Members = append(td.Members, md)
			}
			ad.Types = append(ad.Types, td)
		}

		fws := a.Forwarders()
		sort.SliceStable(fws, apiFirst(func(i int) Status { return fws[i].Status }, func(i int) string { return fws[i].Key() }))
		for _, f := range fws {
			ad.Forwarders = append(ad.Forwarders, forwarderDoc{
				Assembly: f.TargetAssembly,
				Name:     f.TypeName,
				AttrsDoc: encodeAttrs(f.Attributes, a.Status),
			})
		}
		doc.Assemblies = append(doc.Assemblies, ad)
	}
	return doc
}
