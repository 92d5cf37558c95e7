package glbuild_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/pcg/glbuild"
)

var testTemplate = glbuild.Template{
	Prologue: "void main() {\n",
	Body:     "gl_Position = vec4(displacedPosition, 1.0);\n}\n",
}.WithDefaultSplice()

func TestComposeLayout(t *testing.T) {
	frags := []glbuild.Fragment{"x += 1.0;\n", "y *= 2.0;\n"}
	c := glbuild.NewDefaultComposer()
	got, err := c.AppendVertexShader(nil, testTemplate, frags...)
	if err != nil {
		t.Fatal(err)
	}
	want := "void main() {\n" +
		glbuild.DefaultPreamble +
		"x += 1.0;\ny *= 2.0;\n" +
		glbuild.DefaultPostamble +
		"gl_Position = vec4(displacedPosition, 1.0);\n}\n"
	if string(got) != want {
		t.Errorf("unexpected shader:\n%s\nwant:\n%s", got, want)
	}
	if testTemplate.Size(frags...) != len(want) {
		t.Errorf("Size=%d, want %d", testTemplate.Size(frags...), len(want))
	}
	var buf bytes.Buffer
	n, err := c.WriteVertexShader(&buf, testTemplate, frags...)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(want) || buf.String() != want {
		t.Error("WriteVertexShader differs from AppendVertexShader")
	}
}

func TestComposeNoFragments(t *testing.T) {
	got := testTemplate.AppendSplice(nil)
	if string(got) != glbuild.DefaultPreamble+glbuild.DefaultPostamble {
		t.Errorf("empty splice should be identity, got:\n%s", got)
	}
}

func TestAccumulatorAssociative(t *testing.T) {
	frags := []glbuild.Fragment{
		glbuild.DisplaceAxis(glbuild.AxisX, "0.5"),
		glbuild.DisplaceSine(glbuild.AxisZ, glbuild.AxisY, 0.25, 2, 0),
		glbuild.DisplaceTwist(1),
		glbuild.DisplaceBulge(0.5, 1, 0.5),
	}
	var acc glbuild.Accumulator
	for _, f := range frags {
		acc.Append(f)
	}
	if acc.Len() != len(frags) {
		t.Fatalf("want %d fragments, got %d", len(frags), acc.Len())
	}
	c := glbuild.NewDefaultComposer()
	// Composing with the accumulated fragments one by one or their concatenation must match.
	incremental, err := c.AppendVertexShader(nil, testTemplate, acc.Fragments()...)
	if err != nil {
		t.Fatal(err)
	}
	concatenated := acc.AppendTo(nil)
	if len(concatenated) != acc.Size() {
		t.Errorf("Size=%d, want %d", acc.Size(), len(concatenated))
	}
	single, err := c.AppendVertexShader(nil, testTemplate, glbuild.Fragment(concatenated))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(incremental, single) {
		t.Error("accumulated composition not associative")
	}

	// Fragments returns a copy.
	got := acc.Fragments()
	got[0] = "garbage"
	if acc.Fragments()[0] == "garbage" {
		t.Error("Fragments exposes internal storage")
	}
}

func TestAccumulatorRepeats(t *testing.T) {
	var acc glbuild.Accumulator
	f := glbuild.DisplaceAxis(glbuild.AxisY, "1.0")
	acc.Append(f)
	acc.Append(f)
	src := string(testTemplate.AppendSource(nil, acc.Fragments()...))
	if strings.Count(src, string(f)) != 2 {
		t.Errorf("want fragment applied twice:\n%s", src)
	}
}

func TestValidateFragment(t *testing.T) {
	for _, test := range []struct {
		frag glbuild.Fragment
		ok   bool
	}{
		{frag: "", ok: true},
		{frag: "x += sin(y) * (1.0 + z);\n", ok: true},
		{frag: "{ float a[2]; a[0] = x; x = a[0]; }\n", ok: true},
		{frag: "// main() ( in a comment\nx += 1.0;\n", ok: true},
		{frag: "/* { */ x += 1.0;\n", ok: true},
		{frag: "float domain(float v) ;\n", ok: true},
		{frag: "x += 1.0 * mainScale;\n", ok: true},
		{frag: "x += (1.0;\n"},
		{frag: "x += 1.0);\n"},
		{frag: "{ x += 1.0; ]\n"},
		{frag: "}\nvoid other() {\n"},
		{frag: "void main() {}\n"},
		{frag: "main ();\n"},
		{frag: "#version 300 es\n"},
		{frag: "x += 1.0;\n  #extension GL_OES_standard_derivatives : enable\n"},
		{frag: "#pragma optimize(off)\n"},
		{frag: "/* unterminated"},
	} {
		err := glbuild.ValidateFragment(test.frag)
		if test.ok && err != nil {
			t.Errorf("%q: unexpected error %s", test.frag, err)
		} else if !test.ok {
			var cerr *glbuild.CompositionError
			if !errors.As(err, &cerr) {
				t.Errorf("%q: want CompositionError, got %v", test.frag, err)
			}
		}
	}
}

func TestComposerRejects(t *testing.T) {
	c := glbuild.NewDefaultComposer()
	dst := []byte("prefix")
	got, err := c.AppendVertexShader(dst, testTemplate, "x += 1.0;\n", "y += (;\n")
	var cerr *glbuild.CompositionError
	if !errors.As(err, &cerr) {
		t.Fatalf("want CompositionError, got %v", err)
	}
	if cerr.Fragment != 1 {
		t.Errorf("want offending fragment index 1, got %d", cerr.Fragment)
	}
	if string(got) != "prefix" {
		t.Errorf("dst modified on error: %q", got)
	}
	var buf bytes.Buffer
	n, err := c.WriteVertexShader(&buf, testTemplate, "}")
	if err == nil || n != 0 || buf.Len() != 0 {
		t.Error("WriteVertexShader wrote output for invalid fragment")
	}

	lax := glbuild.Composer{}
	_, err = lax.AppendVertexShader(nil, testTemplate, "}")
	if err != nil {
		t.Errorf("non strict composer should not validate: %s", err)
	}
}

func TestDisplaceHelpers(t *testing.T) {
	if got := glbuild.DisplaceAxis(glbuild.AxisZ, "0.5*y"); got != "z += (0.5*y);\n" {
		t.Errorf("DisplaceAxis: %q", got)
	}
	if got := glbuild.DisplaceSine(glbuild.AxisX, glbuild.AxisY, 0.5, 2, 0); got != "x += 0.5*sin(2.*y+0.);\n" {
		t.Errorf("DisplaceSine: %q", got)
	}
	offset := glbuild.DisplaceOffset(ms3.Vec{X: 1, Y: 0, Z: -2.5})
	wantOffset := "{\nvec3 offsetV=vec3(1.,0.,-2.5);\nx += offsetV.x;\ny += offsetV.y;\nz += offsetV.z;\n}\n"
	if offset != glbuild.Fragment(wantOffset) {
		t.Errorf("DisplaceOffset: %q", offset)
	}
	bulge := glbuild.DisplaceBulge(0.5, -0.5, 0.25)
	if strings.Contains(string(bulge), "--") {
		t.Errorf("DisplaceBulge generated decrement operator: %q", bulge)
	}
	for _, f := range []glbuild.Fragment{offset, bulge, glbuild.DisplaceTwist(-2)} {
		if err := glbuild.ValidateFragment(f); err != nil {
			t.Errorf("generated fragment invalid: %s\n%s", err, f)
		}
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid axis")
		}
	}()
	glbuild.DisplaceAxis('w', "1.0")
}

func TestAppendFloat(t *testing.T) {
	for _, test := range []struct {
		v    float32
		want string
	}{
		{v: 1, want: "1."},
		{v: -2.5, want: "-2.5"},
		{v: 0.125, want: "0.125"},
	} {
		got := string(glbuild.AppendFloat(nil, '-', '.', test.v))
		if got != test.want {
			t.Errorf("AppendFloat(%v)=%q, want %q", test.v, got, test.want)
		}
	}
	if got := string(glbuild.AppendFloat(nil, 'n', 'p', -0.5)); got != "n0p5" {
		t.Errorf("identifier safe float: %q", got)
	}
	if got := string(glbuild.AppendFloats(nil, ',', '-', '.', 1, -0.25)); got != "1.,-0.25" {
		t.Errorf("AppendFloats: %q", got)
	}
	if got := string(glbuild.AppendFloatDecl(nil, "w", 2)); got != "float w=2.;\n" {
		t.Errorf("AppendFloatDecl: %q", got)
	}
}

func TestHash(t *testing.T) {
	a := glbuild.Hash([]byte("x += 1.0;\n"), 0)
	b := glbuild.Hash([]byte("x += 2.0;\n"), 0)
	if a == b {
		t.Error("hash collision for distinct sources")
	}
	if a != glbuild.Hash([]byte("x += 1.0;\n"), 0) {
		t.Error("hash not deterministic")
	}
}
