package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"thinner/internal/metadata"
)

// scope holds the generic parameters visible where a reference is written:
// the enclosing method's first, then the enclosing type's and its
// containers'.
type scope struct {
	method []metadata.GenericParam
	types  [][]metadata.GenericParam
}

func (s *scope) withMethod(params []metadata.GenericParam) *scope {
	if s == nil {
		return &scope{method: params}
	}
	return &scope{method: params, types: s.types}
}

func (s *scope) lookup(name string) *metadata.TypeRef {
	if s == nil {
		return nil
	}
	for i, gp := range s.method {
		if gp.Name == name {
			return &metadata.TypeRef{Kind: metadata.RefMethodGenericParam, Name: name, Index: i}
		}
	}
	for _, list := range s.types {
		for i, gp := range list {
			if gp.Name == name {
				return &metadata.TypeRef{Kind: metadata.RefGenericParam, Name: name, Index: i}
			}
		}
	}
	return nil
}

func (s *scope) positional(method bool, index int) *metadata.TypeRef {
	kind := metadata.RefGenericParam
	var list []metadata.GenericParam
	if method {
		kind = metadata.RefMethodGenericParam
		if s != nil {
			list = s.method
		}
	} else if s != nil && len(s.types) > 0 {
		list = s.types[0]
	}
	ref := &metadata.TypeRef{Kind: kind, Index: index}
	if index < len(list) {
		ref.Name = list[index].Name
	}
	return ref
}

// ParseTypeRef parses a textual type reference outside any generic scope:
//
//	[Assembly]Namespace.Name`1<Arg,...>   optionally followed by [] * & or @
//	!0 / !!0                              positional generic parameters
func ParseTypeRef(s string) (*metadata.TypeRef, error) {
	return parseTypeRef(s, nil)
}

func parseTypeRef(s string, sc *scope) (*metadata.TypeRef, error) {
	p := &refParser{s: s, sc: sc}
	ref, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("type reference %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("type reference %q: unexpected %q at offset %d", s, p.s[p.pos:], p.pos)
	}
	return ref, nil
}

type refParser struct {
	s   string
	pos int
	sc  *scope
}

func (p *refParser) rest() string { return p.s[p.pos:] }

func (p *refParser) skipSpace() {
	for p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
}

func (p *refParser) parse() (*metadata.TypeRef, error) {
	p.skipSpace()

	var asm string
	if strings.HasPrefix(p.rest(), "[") {
		end := strings.IndexByte(p.rest(), ']')
		if end < 0 {
			return nil, fmt.Errorf("unterminated assembly qualifier")
		}
		asm = strings.TrimSpace(p.s[p.pos+1 : p.pos+end])
		p.pos += end + 1
	}

	var ref *metadata.TypeRef
	switch {
	case strings.HasPrefix(p.rest(), "!!"):
		p.pos += 2
		n, err := p.number()
		if err != nil {
			return nil, err
		}
		ref = p.sc.positional(true, n)
	case strings.HasPrefix(p.rest(), "!"):
		p.pos++
		n, err := p.number()
		if err != nil {
			return nil, err
		}
		ref = p.sc.positional(false, n)
	default:
		name := p.name()
		if name == "" {
			return nil, fmt.Errorf("missing type name at offset %d", p.pos)
		}
		if asm == "" {
			ref = p.sc.lookup(name)
		}
		if ref == nil {
			named := &metadata.TypeRef{Kind: metadata.RefNamed, Assembly: asm, Name: name}
			if strings.HasPrefix(p.rest(), "<") {
				p.pos++
				args, err := p.args()
				if err != nil {
					return nil, err
				}
				named.Args = args
				if !strings.ContainsRune(named.Name, '`') {
					named.Name += "`" + strconv.Itoa(len(args))
				}
			}
			ref = named
		}
	}

	for {
		p.skipSpace()
		switch {
		case strings.HasPrefix(p.rest(), "[]"):
			p.pos += 2
			ref = metadata.ArrayOf(ref)
		case strings.HasPrefix(p.rest(), "*"):
			p.pos++
			ref = metadata.PointerTo(ref)
		case strings.HasPrefix(p.rest(), "&"), strings.HasPrefix(p.rest(), "@"):
			p.pos++
			ref = metadata.ByRef(ref)
		default:
			return ref, nil
		}
	}
}

func (p *refParser) args() ([]*metadata.TypeRef, error) {
	var args []*metadata.TypeRef
	for {
		arg, err := p.parse()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipSpace()
		switch {
		case strings.HasPrefix(p.rest(), ","):
			p.pos++
		case strings.HasPrefix(p.rest(), ">"):
			p.pos++
			return args, nil
		default:
			return nil, fmt.Errorf("expected ',' or '>' at offset %d", p.pos)
		}
	}
}

func (p *refParser) name() string {
	start := p.pos
	for p.pos < len(p.s) && !strings.ContainsRune("<>,[]*&@ ", rune(p.s[p.pos])) {
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *refParser) number() (int, error) {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected generic parameter index at offset %d", start)
	}
	return strconv.Atoi(p.s[start:p.pos])
}

// ParseMemberRef parses "TypeRef::Signature". The signature may carry a
// "Kind : " prefix; without one the member is looked up as a method, then
// as a field.
func ParseMemberRef(s string) (*metadata.MemberRef, error) {
	return parseMemberRef(s, nil)
}

func parseMemberRef(s string, sc *scope) (*metadata.MemberRef, error) {
	typePart, sig, found := strings.Cut(s, "::")
	if !found {
		return nil, fmt.Errorf("member reference %q: missing '::'", s)
	}
	typ, err := parseTypeRef(typePart, sc)
	if err != nil {
		return nil, err
	}

	sig = strings.TrimSpace(sig)
	kind := metadata.MemberUnknown
	if head, rest, ok := strings.Cut(sig, " : "); ok {
		if k, valid := metadata.ParseMemberKind(head); valid && head != "" {
			kind, sig = k, rest
		}
	}
	sig = normalizeSignature(sig)
	if sig == "" {
		return nil, fmt.Errorf("member reference %q: empty signature", s)
	}
	return &metadata.MemberRef{Type: typ, Kind: kind, Signature: sig}, nil
}

// normalizeSignature accepts ".ctor" for "#ctor" and drops blanks after
// commas so hand-written signatures match member keys.
func normalizeSignature(sig string) string {
	if strings.HasPrefix(sig, ".ctor") {
		sig = "#ctor" + sig[len(".ctor"):]
	}
	return strings.ReplaceAll(sig, ", ", ",")
}
