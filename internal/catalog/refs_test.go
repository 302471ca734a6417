package catalog

import (
	"testing"

	"thinner/internal/metadata"
)

func TestParseTypeRef(t *testing.T) {
	tests := []struct {
		in   string
		want string
		asm  string
	}{
		{"System.Int32", "System.Int32", ""},
		{"[Core]Core.Widget", "Core.Widget", "Core"},
		{"System.Collections.Generic.List`1<System.String>", "System.Collections.Generic.List`1<System.String>", ""},
		{"System.Collections.Generic.Dictionary<System.String, System.Int32>", "System.Collections.Generic.Dictionary`2<System.String,System.Int32>", ""},
		{"System.Byte[]", "System.Byte[]", ""},
		{"System.Int32&", "System.Int32@", ""},
		{"System.Int32@", "System.Int32@", ""},
		{"System.Char*[]", "System.Char*[]", ""},
		{"Outer+Inner", "Outer+Inner", ""},
		{"!0", "!0", ""},
		{"!!1[]", "!!1[]", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref, err := ParseTypeRef(tt.in)
			if err != nil {
				t.Fatalf("ParseTypeRef(%q) error: %v", tt.in, err)
			}
			if got := ref.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if core := ref.Core(); core != nil && core.Assembly != tt.asm {
				t.Errorf("assembly = %q, want %q", core.Assembly, tt.asm)
			}
		})
	}
}

func TestParseTypeRefErrors(t *testing.T) {
	for _, in := range []string{"", "[Core", "List<A", "A B", "!x", "List<A>>"} {
		if _, err := ParseTypeRef(in); err == nil {
			t.Errorf("ParseTypeRef(%q) succeeded", in)
		}
	}
}

func TestParseTypeRefScope(t *testing.T) {
	sc := (&scope{types: [][]metadata.GenericParam{{{Name: "T"}}, {{Name: "TOuter"}}}}).
		withMethod([]metadata.GenericParam{{Name: "U"}, {Name: "T"}})

	tests := []struct {
		in    string
		kind  metadata.RefKind
		index int
	}{
		{"U", metadata.RefMethodGenericParam, 0},
		{"T", metadata.RefMethodGenericParam, 1},
		{"TOuter", metadata.RefGenericParam, 0},
		{"!0", metadata.RefGenericParam, 0},
	}
	for _, tt := range tests {
		ref, err := parseTypeRef(tt.in, sc)
		if err != nil {
			t.Fatalf("parseTypeRef(%q): %v", tt.in, err)
		}
		if ref.Kind != tt.kind || ref.Index != tt.index {
			t.Errorf("parseTypeRef(%q) = kind %d index %d, want kind %d index %d", tt.in, ref.Kind, ref.Index, tt.kind, tt.index)
		}
	}

	if ref, _ := parseTypeRef("!0", sc); ref.Name != "T" {
		t.Errorf("positional parameter name = %q, want T", ref.Name)
	}
	if ref, _ := parseTypeRef("[Asm]T", sc); ref.Kind != metadata.RefNamed {
		t.Errorf("qualified name resolved as generic parameter")
	}
}

func TestParseMemberRef(t *testing.T) {
	tests := []struct {
		in   string
		kind metadata.MemberKind
		sig  string
	}{
		{"Core.Widget::Run(System.Int32)", metadata.MemberUnknown, "Run(System.Int32)"},
		{"Core.Widget::.ctor(System.Int32, System.String)", metadata.MemberUnknown, "#ctor(System.Int32,System.String)"},
		{"Core.Widget::Field : count", metadata.MemberField, "count"},
		{"Core.Money::op_Explicit(Core.Money) : System.Decimal", metadata.MemberUnknown, "op_Explicit(Core.Money) : System.Decimal"},
		{"Core.Money::Method : op_Implicit(Core.Money) : System.Int64", metadata.MemberMethod, "op_Implicit(Core.Money) : System.Int64"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref, err := ParseMemberRef(tt.in)
			if err != nil {
				t.Fatalf("ParseMemberRef: %v", err)
			}
			if ref.Kind != tt.kind || ref.Signature != tt.sig {
				t.Errorf("got kind %v sig %q, want kind %v sig %q", ref.Kind, ref.Signature, tt.kind, tt.sig)
			}
		})
	}

	for _, in := range []string{"Core.Widget.Run", "Core.Widget::", "<::Run"} {
		if _, err := ParseMemberRef(in); err == nil {
			t.Errorf("ParseMemberRef(%q) succeeded", in)
		}
	}
}
