package catalog

import (
	"fmt"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"thinner/internal/errors"
	"thinner/internal/metadata"
)

// moduleTypeName holds free functions and variables of a namespace, which
// SCIP indexes of languages without classes produce.
const moduleTypeName = "<Module>"

// scipSymbol is a parsed SCIP symbol:
//
//	<scheme> <manager> <package> <version> <descriptors>
type scipSymbol struct {
	scheme      string
	pkg         string
	version     string
	descriptors []scipDescriptor
}

type scipDescriptor struct {
	name   string
	suffix byte // '/' namespace, '#' type, '.' term, '(' method, '[' type parameter, ')' parameter, ':' meta, '!' macro
}

func parseSCIPSymbol(id string) (*scipSymbol, error) {
	if strings.HasPrefix(id, "local ") {
		return nil, fmt.Errorf("local symbol %s", id)
	}
	parts := strings.SplitN(id, " ", 5)
	if len(parts) < 5 {
		return nil, fmt.Errorf("invalid SCIP symbol %q", id)
	}
	sym := &scipSymbol{scheme: parts[0], pkg: parts[2], version: parts[3]}
	if sym.pkg == "." || sym.pkg == "" {
		sym.pkg = sym.scheme
	}
	descs, err := parseDescriptors(parts[4])
	if err != nil {
		return nil, fmt.Errorf("symbol %q: %w", id, err)
	}
	sym.descriptors = descs
	return sym, nil
}

func parseDescriptors(s string) ([]scipDescriptor, error) {
	var out []scipDescriptor
	for pos := 0; pos < len(s); {
		switch s[pos] {
		case '[', '(':
			closer, suffix := byte(']'), byte('[')
			if s[pos] == '(' {
				closer, suffix = ')', ')'
			}
			name, next, err := scipName(s, pos+1)
			if err != nil {
				return nil, err
			}
			if next >= len(s) || s[next] != closer {
				return nil, fmt.Errorf("expected %q at offset %d", closer, next)
			}
			out = append(out, scipDescriptor{name: name, suffix: suffix})
			pos = next + 1
			continue
		}

		name, next, err := scipName(s, pos)
		if err != nil {
			return nil, err
		}
		if next >= len(s) {
			return nil, fmt.Errorf("descriptor %q has no suffix", name)
		}
		switch c := s[next]; c {
		case '/', '#', '.', ':', '!':
			out = append(out, scipDescriptor{name: name, suffix: c})
			pos = next + 1
		case '(':
			end := strings.IndexByte(s[next:], ')')
			if end < 0 || next+end+1 >= len(s) || s[next+end+1] != '.' {
				return nil, fmt.Errorf("malformed method descriptor %q", name)
			}
			out = append(out, scipDescriptor{name: name, suffix: '('})
			pos = next + end + 2
		default:
			return nil, fmt.Errorf("unexpected %q after %q", c, name)
		}
	}
	return out, nil
}

// scipName reads a simple or backtick-escaped name starting at pos.
func scipName(s string, pos int) (string, int, error) {
	if pos < len(s) && s[pos] == '`' {
		var sb strings.Builder
		for i := pos + 1; i < len(s); i++ {
			if s[i] != '`' {
				sb.WriteByte(s[i])
				continue
			}
			if i+1 < len(s) && s[i+1] == '`' {
				sb.WriteByte('`')
				i++
				continue
			}
			return sb.String(), i + 1, nil
		}
		return "", 0, fmt.Errorf("unterminated escaped name")
	}
	start := pos
	for pos < len(s) && isSCIPIdentChar(s[pos]) {
		pos++
	}
	if start == pos {
		return "", 0, fmt.Errorf("empty name at offset %d", start)
	}
	return s[start:pos], pos, nil
}

func isSCIPIdentChar(c byte) bool {
	return c == '_' || c == '+' || c == '-' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// scipImporter builds a skeleton program from SCIP symbol information:
// types and members by descriptor, inheritance from implementation
// relationships, everything public.
type scipImporter struct {
	assemblies []*metadata.Assembly
	asmByName  map[string]*metadata.Assembly
	types      map[string]*metadata.Type
	typeAsm    map[*metadata.Type]string
	memberKeys map[*metadata.Type]map[string]bool
	bySymbol   map[string]*metadata.Type
	members    map[string]*metadata.Member
	skipped    int
}

// importSCIP decodes a SCIP index. It returns the assemblies and the number
// of symbols that could not be represented (locals, parameters, overloads
// SCIP does not distinguish by signature).
func importSCIP(data []byte) ([]*metadata.Assembly, int, error) {
	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, 0, errors.New(errors.CatalogInvalid, "failed to parse SCIP index", err)
	}

	imp := &scipImporter{
		asmByName:  make(map[string]*metadata.Assembly),
		types:      make(map[string]*metadata.Type),
		typeAsm:    make(map[*metadata.Type]string),
		memberKeys: make(map[*metadata.Type]map[string]bool),
		bySymbol:   make(map[string]*metadata.Type),
		members:    make(map[string]*metadata.Member),
	}

	var infos []*scippb.SymbolInformation
	for _, doc := range index.Documents {
		infos = append(infos, doc.Symbols...)
	}
	infos = append(infos, index.ExternalSymbols...)

	for _, info := range infos {
		imp.declare(info)
	}
	for _, info := range infos {
		imp.relate(info)
	}
	return imp.assemblies, imp.skipped, nil
}

func (imp *scipImporter) declare(info *scippb.SymbolInformation) {
	sym, err := parseSCIPSymbol(info.Symbol)
	if err != nil || len(sym.descriptors) == 0 {
		imp.skipped++
		return
	}

	var namespace, typeNames []string
	last := sym.descriptors[len(sym.descriptors)-1]
	for _, d := range sym.descriptors {
		switch d.suffix {
		case '/':
			if len(typeNames) == 0 {
				namespace = append(namespace, strings.ReplaceAll(d.name, "/", "."))
			}
		case '#':
			typeNames = append(typeNames, d.name)
		}
	}

	switch last.suffix {
	case '#':
		t := imp.ensureType(sym, namespace, typeNames)
		t.Kind = scipTypeKind(info.Kind)
		imp.bySymbol[info.Symbol] = t
	case '.', '(':
		if len(typeNames) == 0 {
			typeNames = []string{moduleTypeName}
		}
		t := imp.ensureType(sym, namespace, typeNames)
		m := scipMember(last, info.Kind)
		key := m.Kind.String() + " " + m.Name
		if imp.memberKeys[t][key] {
			imp.skipped++
			return
		}
		imp.memberKeys[t][key] = true
		t.Members = append(t.Members, m)
		imp.members[info.Symbol] = m
	default:
		imp.skipped++
	}
}

func (imp *scipImporter) ensureType(sym *scipSymbol, namespace, typeNames []string) *metadata.Type {
	a := imp.asmByName[sym.pkg]
	if a == nil {
		a = &metadata.Assembly{Name: sym.pkg, Version: sym.version}
		imp.asmByName[sym.pkg] = a
		imp.assemblies = append(imp.assemblies, a)
	}

	var t *metadata.Type
	prefix := strings.Join(namespace, ".")
	for i := range typeNames {
		name := strings.Join(typeNames[:i+1], "+")
		if prefix != "" {
			name = prefix + "." + name
		}
		key := a.Name + "\x00" + name
		if t = imp.types[key]; t == nil {
			t = &metadata.Type{FullName: name, Visibility: metadata.VisPublic}
			if typeNames[i] == moduleTypeName {
				t.Sealed, t.Abstract = true, true
			}
			imp.types[key] = t
			imp.typeAsm[t] = a.Name
			imp.memberKeys[t] = make(map[string]bool)
			a.Types = append(a.Types, t)
		}
	}
	return t
}

func scipTypeKind(kind scippb.SymbolInformation_Kind) metadata.TypeKind {
	switch kind {
	case scippb.SymbolInformation_Interface, scippb.SymbolInformation_Trait, scippb.SymbolInformation_Protocol:
		return metadata.KindInterface
	case scippb.SymbolInformation_Struct:
		return metadata.KindStruct
	case scippb.SymbolInformation_Enum:
		return metadata.KindEnum
	}
	return metadata.KindClass
}

func scipMember(d scipDescriptor, kind scippb.SymbolInformation_Kind) *metadata.Member {
	m := &metadata.Member{Name: d.name, Visibility: metadata.VisPublic, Kind: metadata.MemberField}
	if d.suffix == '(' {
		m.Kind = metadata.MemberMethod
	}
	switch kind {
	case scippb.SymbolInformation_Property:
		m.Kind = metadata.MemberProperty
	case scippb.SymbolInformation_Event:
		m.Kind = metadata.MemberEvent
	case scippb.SymbolInformation_EnumMember:
		m.Kind, m.Static, m.Literal = metadata.MemberField, true, true
	case scippb.SymbolInformation_Constructor:
		m.Kind, m.Name = metadata.MemberMethod, ".ctor"
	}
	switch m.Name {
	case "<init>", "<constructor>", "constructor":
		if m.Kind == metadata.MemberMethod {
			m.Name = ".ctor"
		}
	}
	return m
}

func (imp *scipImporter) relate(info *scippb.SymbolInformation) {
	for _, rel := range info.Relationships {
		if !rel.IsImplementation {
			continue
		}
		if src, target := imp.bySymbol[info.Symbol], imp.bySymbol[rel.Symbol]; src != nil && target != nil && src != target {
			ref := &metadata.TypeRef{Kind: metadata.RefNamed, Assembly: imp.typeAsm[target], Name: target.FullName}
			if target.Kind != metadata.KindInterface && src.Base == nil && src.Kind != metadata.KindInterface {
				src.Base = ref
			} else if !hasInterface(src, ref) {
				src.Interfaces = append(src.Interfaces, ref)
			}
			continue
		}
		if src, target := imp.members[info.Symbol], imp.members[rel.Symbol]; src != nil && target != nil {
			src.Virtual, target.Virtual = true, true
		}
	}
}

func hasInterface(t *metadata.Type, ref *metadata.TypeRef) bool {
	for _, i := range t.Interfaces {
		if i.Assembly == ref.Assembly && i.Name == ref.Name {
			return true
		}
	}
	return false
}
