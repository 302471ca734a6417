package closure

import (
	"testing"

	"thinner/internal/errors"
	"thinner/internal/metadata"
)

func lookupType(t *testing.T, name string) *metadata.Type {
	t.Helper()
	for _, asm := range []string{"Lib", "mscorlib"} {
		if typ := program().LookupType(asm, name); typ != nil {
			return typ
		}
	}
	t.Fatalf("no type %s in fixture", name)
	return nil
}

func lookupMember(t *testing.T, typeName, key string) *metadata.Member {
	t.Helper()
	m := lookupType(t, typeName).Member(key)
	if m == nil {
		t.Fatalf("no member %s on %s", key, typeName)
	}
	return m
}

func drainAll(d *Depot) []string {
	var out []string
	for {
		n, ok := d.next()
		if !ok {
			return out
		}
		out = append(out, n.String())
	}
}

func TestDepotAddsParentsFirst(t *testing.T) {
	d := NewDepot(program())
	foo := lookupMember(t, "Lib.Derived", "Method : Foo")

	if err := d.AddMember(foo); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := d.AddMember(foo); err != nil {
		t.Fatalf("second AddMember: %v", err)
	}

	got := drainAll(d)
	want := []string{
		AssemblyNode{foo.DeclaringType.Assembly}.String(),
		TypeNode{foo.DeclaringType}.String(),
		MemberNode{foo}.String(),
	}
	if len(got) != len(want) {
		t.Fatalf("queue = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("queue[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if d.Pending() != 0 || d.Len() != 3 {
		t.Errorf("Pending = %d, Len = %d", d.Pending(), d.Len())
	}
	if !d.ContainsType(foo.DeclaringType) || !d.ContainsMember(foo) {
		t.Error("Contains does not report added entities")
	}
}

func TestDepotRejectsPlaceholders(t *testing.T) {
	d := NewDepot(program())
	if err := d.AddType(metadata.DummyType); !errors.HasCode(err, errors.DummyEntity) {
		t.Errorf("AddType(dummy) = %v", err)
	}
	if err := d.AddMember(metadata.DummyMember); !errors.HasCode(err, errors.DummyEntity) {
		t.Errorf("AddMember(dummy) = %v", err)
	}
	if err := d.AddAssembly(nil); !errors.HasCode(err, errors.DummyEntity) {
		t.Errorf("AddAssembly(nil) = %v", err)
	}
	if d.Len() != 0 {
		t.Errorf("placeholders retained: %d", d.Len())
	}
}

func TestDepotExpansions(t *testing.T) {
	tests := []struct {
		name  string
		add   func(d *Depot) error
		wants []*metadata.Member
	}{
		{
			name: "delegate brings every member",
			add:  func(d *Depot) error { return d.AddType(lookupType(t, "Lib.Handler")) },
			wants: []*metadata.Member{
				lookupMember(t, "Lib.Handler", "Method : Invoke(System.Object)"),
				lookupMember(t, "Lib.Handler", "Method : #ctor(System.Object,System.Int32)"),
			},
		},
		{
			name:  "property brings its accessors",
			add:   func(d *Depot) error { return d.AddMember(lookupMember(t, "Lib.Point", "Property : Length")) },
			wants: []*metadata.Member{lookupMember(t, "Lib.Point", "Method : get_Length")},
		},
		{
			name: "member reference",
			add: func(d *Depot) error {
				return d.AddMemberRef(&metadata.MemberRef{
					Type:      metadata.Named("Lib.Derived"),
					Kind:      metadata.MemberMethod,
					Signature: "#ctor(System.String)",
				})
			},
			wants: []*metadata.Member{lookupMember(t, "Lib.Derived", "Method : #ctor(System.String)")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDepot(program())
			if err := tt.add(d); err != nil {
				t.Fatalf("add: %v", err)
			}
			for _, m := range tt.wants {
				if !d.ContainsMember(m) {
					t.Errorf("%s not retained", m)
				}
			}
		})
	}
}

func TestDepotTypeRefs(t *testing.T) {
	d := NewDepot(program())

	ref := metadata.ArrayOf(metadata.Named("Lib.Point"))
	if err := d.AddTypeRef(ref); err != nil {
		t.Fatalf("AddTypeRef: %v", err)
	}
	if !d.ContainsType(lookupType(t, "Lib.Point")) {
		t.Error("array element type not retained")
	}

	if err := d.AddTypeRef(metadata.Named("Lib.Nope")); !errors.HasCode(err, errors.UnresolvedReference) {
		t.Errorf("AddTypeRef(unknown) = %v", err)
	}
	if err := d.AddMemberRef(&metadata.MemberRef{Type: metadata.Named("Lib.Point"), Signature: "Missing"}); !errors.HasCode(err, errors.UnresolvedReference) {
		t.Errorf("AddMemberRef(unknown) = %v", err)
	}
}
