package glsllib_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/soypat/pcg/glbuild"
	"github.com/soypat/pcg/glbuild/glsllib"
)

// untransformed matches position used as a whole identifier outside of the splice preamble.
var untransformed = regexp.MustCompile(`\bposition\b`)

func TestLambertTemplate(t *testing.T) {
	tmpl := glsllib.LambertTemplate()
	if tmpl.Preamble != glbuild.DefaultPreamble || tmpl.Postamble != glbuild.DefaultPostamble {
		t.Error("Lambert template must use the default splice")
	}
	if !strings.HasSuffix(strings.TrimSpace(tmpl.Prologue), "void main() {") {
		t.Error("prologue must end by opening main")
	}
	if untransformed.MatchString(tmpl.Body) {
		t.Error("body transforms the untransformed position")
	}
	if !strings.Contains(tmpl.Body, "vec4( "+glbuild.DisplacedPositionName+", 1.0 )") {
		t.Error("body does not transform displaced position")
	}
	src, err := glbuild.NewDefaultComposer().AppendVertexShader(nil, tmpl, glbuild.DisplaceAxis(glbuild.AxisY, "0.5"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(src)
	if strings.Count(s, "void main()") != 1 || strings.Count(s, "y += (0.5);") != 1 {
		t.Error("composed Lambert shader malformed")
	}
	if strings.Count(s, "{") != strings.Count(s, "}") {
		t.Error("composed Lambert shader has unbalanced braces")
	}
}

func TestShaderSources(t *testing.T) {
	for name, src := range map[string]string{
		"lambert fragment":             glsllib.LambertFragment(),
		"random displacement vertex":   glsllib.RandomDisplacementVertex(),
		"random displacement fragment": glsllib.RandomDisplacementFragment(),
	} {
		if !strings.Contains(src, "void main()") {
			t.Errorf("%s: missing main", name)
		}
		if strings.Contains(src, "#version") {
			t.Errorf("%s: version directive belongs to the host prefix", name)
		}
	}
	for _, uniform := range []string{"bFactor", "noiseFactor"} {
		if !strings.Contains(glsllib.RandomDisplacementVertex(), "uniform float "+uniform+";") {
			t.Errorf("random displacement vertex shader missing uniform %s", uniform)
		}
	}
	if !strings.Contains(glsllib.RandomDisplacementFragment(), "uniform sampler2D tExplosion;") {
		t.Error("random displacement fragment shader missing explosion sampler")
	}
	if !strings.HasPrefix(glsllib.DesktopVertexPrefix(), "#version") || !strings.HasPrefix(glsllib.DesktopFragmentPrefix(), "#version") {
		t.Error("desktop prefixes must start with a version directive")
	}
}
