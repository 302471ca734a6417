package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"thinner/internal/errors"
	"thinner/internal/metadata"
	"thinner/internal/slogutil"
)

const fixtureYAML = `
assemblies:
  - name: mscorlib
    types:
      - name: System.Object
        members:
          - name: .ctor
  - name: Core
    version: 2.1.0
    attributes: ["[mscorlib]System.Object::.ctor"]
    forwarders: ["[Impl]Impl.Engine"]
    types:
      - name: Core.Box` + "`" + `1
        generic: [T]
        base: System.Object
        members:
          - name: Put
            params: [T]
          - name: Map
            generic: [U]
            params: ["U", "!0"]
            type: U
          - name: get_Value
            specialName: true
            type: T
          - kind: property
            name: Value
            type: T
            getter: get_Value
      - name: Core.Box` + "`" + `1+Slot
        visibility: private
        members:
          - kind: field
            name: item
            type: T
  - name: Impl
    types:
      - name: Impl.Engine
        base: "[mscorlib]System.Object"
        members:
          - name: .ctor
            body:
              calls: ["[mscorlib]System.Object::.ctor"]
              handlers:
                - kind: finally
                - kind: catch
                  type: System.Object
`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newTestLoader() *Loader {
	return NewLoader(slogutil.NewDiscardLogger(), FormatAuto)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "catalog.yaml", []byte(fixtureYAML))
	p, err := newTestLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := len(p.Assemblies()); got != 3 {
		t.Fatalf("assemblies = %d, want 3", got)
	}
	if v := p.Assembly("Core").Version; v != "2.1.0" {
		t.Errorf("version = %q", v)
	}

	box := p.LookupType("Core", "Core.Box`1")
	if box == nil {
		t.Fatal("Core.Box`1 not loaded")
	}
	for _, key := range []string{"Method : Put(T)", "Method : Map<U>(U,T)", "Method : get_Value", "Property : Value"} {
		if box.Member(key) == nil {
			t.Errorf("member %q missing; have %v", key, box.Members)
		}
	}
	if prop := box.Member("Property : Value"); prop != nil && prop.Getter != box.Member("Method : get_Value") {
		t.Errorf("getter not linked")
	}

	slot := p.LookupType("Core", "Core.Box`1+Slot")
	if slot.DeclaringType != box || slot.Visibility != metadata.VisPrivate {
		t.Errorf("nested type = %+v", slot)
	}
	if item := slot.Member("Field : item"); item == nil || item.Type.Kind != metadata.RefGenericParam {
		t.Errorf("nested field should see the outer generic parameter: %+v", item)
	}

	ctor := p.LookupType("Impl", "Impl.Engine").Member("Method : #ctor")
	if ctor == nil || ctor.Body == nil {
		t.Fatal("Impl.Engine constructor body missing")
	}
	target, err := p.ResolveMember(ctor.Body.Operands[0].Member)
	if err != nil || target.DeclaringType.FullName != "System.Object" {
		t.Errorf("call operand resolved to %v, %v", target, err)
	}
	if ctor.Body.Handlers[0].CatchType != metadata.NoExceptionType {
		t.Errorf("finally handler should carry the no-exception placeholder")
	}

	if problems := p.Verify(); len(problems) != 0 {
		t.Errorf("Verify() = %v", problems)
	}
}

func TestLoadJSONAndCompressed(t *testing.T) {
	jsonPath := writeFile(t, "a.json", []byte(`{"assemblies":[{"name":"A","types":[{"name":"A.T","generic":["T"],"attributes":[{"ctor":"A.T::Field : x"}]}]}]}`))

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	zstPath := writeFile(t, "b.yaml.zst", enc.EncodeAll([]byte("assemblies:\n  - name: B\n    types:\n      - name: B.T\n"), nil))
	enc.Close()

	p, err := newTestLoader().Load(jsonPath, zstPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.LookupType("A", "A.T") == nil || p.LookupType("B", "B.T") == nil {
		t.Errorf("types missing: %v", p.Types())
	}
	if got := p.LookupType("A", "A.T").Attributes[0].Ctor.Kind; got != metadata.MemberField {
		t.Errorf("attribute ctor kind = %v", got)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"unknown field", "x.yaml", "assemblies:\n  - name: A\n    typez: []\n"},
		{"bad json", "x.json", `{"assemblies": [`},
		{"missing accessor", "x.yaml", "assemblies:\n  - name: A\n    types:\n      - name: A.T\n        members:\n          - {kind: property, name: P, getter: get_P}\n"},
		{"bad kind", "x.yaml", "assemblies:\n  - name: A\n    types:\n      - name: A.T\n        kind: record\n"},
		{"bad type ref", "x.yaml", "assemblies:\n  - name: A\n    types:\n      - name: A.T\n        base: \"List<\"\n"},
		{"duplicate type", "x.yaml", "assemblies:\n  - name: A\n    types:\n      - name: A.T\n      - name: A.T\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, []byte(tt.body))
			_, err := newTestLoader().Load(path)
			if !errors.HasCode(err, errors.CatalogInvalid) {
				t.Errorf("Load() error = %v, want CATALOG_INVALID", err)
			}
		})
	}

	if _, err := newTestLoader().Load(); err == nil {
		t.Errorf("Load() with no paths succeeded")
	}
	if _, err := newTestLoader().Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Load() of a missing file succeeded")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "YAML": FormatYAML, "scip": FormatSCIP, "json": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Errorf("ParseFormat(xml) succeeded")
	}
}

func TestDigest(t *testing.T) {
	a := writeFile(t, "a.yaml", []byte("assemblies: []\n"))
	b := writeFile(t, "b.yaml", []byte("assemblies:\n  - name: B\n"))

	da, err := Digest(a)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if len(da) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(da))
	}
	again, _ := Digest(a)
	if again != da {
		t.Errorf("digest not stable")
	}
	dab, _ := Digest(a, b)
	dba, _ := Digest(b, a)
	if dab == da || dab == dba {
		t.Errorf("digest should depend on every file and their order")
	}
	if _, err := Digest(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Errorf("Digest of a missing file succeeded")
	}
}

func TestImportSCIP(t *testing.T) {
	const pkg = "scip-go gomod example v1 `example/shapes`/"
	index := &scippb.Index{
		Documents: []*scippb.Document{{
			RelativePath: "shapes.go",
			Symbols: []*scippb.SymbolInformation{
				{Symbol: pkg + "Shape#", Kind: scippb.SymbolInformation_Interface},
				{Symbol: pkg + "Shape#Area()."},
				{
					Symbol:        pkg + "Circle#",
					Kind:          scippb.SymbolInformation_Struct,
					Relationships: []*scippb.Relationship{{Symbol: pkg + "Shape#", IsImplementation: true}},
				},
				{
					Symbol:        pkg + "Circle#Area().",
					Relationships: []*scippb.Relationship{{Symbol: pkg + "Shape#Area().", IsImplementation: true}},
				},
				{Symbol: pkg + "Circle#radius."},
				{Symbol: pkg + "New()."},
				{Symbol: pkg + "New().(radius)"},
				{Symbol: "local 3"},
			},
		}},
	}
	data, err := proto.Marshal(index)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := writeFile(t, "index.scip", data)

	p, err := newTestLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	shape := p.LookupType("example", "example.shapes.Shape")
	circle := p.LookupType("example", "example.shapes.Circle")
	if shape == nil || circle == nil {
		t.Fatalf("types missing: %v", p.Types())
	}
	if !shape.IsInterface() || circle.Kind != metadata.KindStruct {
		t.Errorf("kinds: shape %v circle %v", shape.Kind, circle.Kind)
	}
	if len(circle.Interfaces) != 1 || circle.Interfaces[0].Name != shape.FullName {
		t.Errorf("circle interfaces = %v", circle.Interfaces)
	}
	area := circle.Member("Method : Area")
	if area == nil || !area.Virtual || !shape.Member("Method : Area").Virtual {
		t.Errorf("implementation relationship should mark both methods virtual")
	}
	if circle.Member("Field : radius") == nil {
		t.Errorf("term descriptor should become a field")
	}
	module := p.LookupType("example", "example.shapes."+moduleTypeName)
	if module == nil || module.Member("Method : New") == nil {
		t.Errorf("free function should land on the module type")
	}

	related, err := p.RelatedMembers(area, func(*metadata.Type) bool { return true })
	if err != nil || len(related) != 2 {
		t.Errorf("RelatedMembers() = %v, %v", related, err)
	}
}

func TestParseDescriptors(t *testing.T) {
	descs, err := parseDescriptors("`a/b`/Outer#Inner#[T]method(+1).(x)")
	if err != nil {
		t.Fatalf("parseDescriptors: %v", err)
	}
	want := []scipDescriptor{
		{"a/b", '/'}, {"Outer", '#'}, {"Inner", '#'}, {"T", '['}, {"method", '('}, {"x", ')'},
	}
	if len(descs) != len(want) {
		t.Fatalf("got %v", descs)
	}
	for i := range want {
		if descs[i] != want[i] {
			t.Errorf("descriptor %d = %+v, want %+v", i, descs[i], want[i])
		}
	}

	for _, bad := range []string{"Foo", "`open", "m(.", "Foo?"} {
		if _, err := parseDescriptors(bad); err == nil {
			t.Errorf("parseDescriptors(%q) succeeded", bad)
		}
	}
}
