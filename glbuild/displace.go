package glbuild

import (
	"fmt"

	"github.com/soypat/geometry/ms3"
)

// Axis names one of the editable position components x, y or z.
type Axis byte

const (
	AxisX Axis = 'x'
	AxisY Axis = 'y'
	AxisZ Axis = 'z'
)

func (a Axis) valid() bool { return a == AxisX || a == AxisY || a == AxisZ }

func (a Axis) mustValid() {
	if !a.valid() {
		panic(fmt.Sprintf("invalid axis %q", byte(a)))
	}
}

// DisplaceAxis returns a fragment that adds the GLSL expression expr to axis:
//
//	x += (expr);
func DisplaceAxis(axis Axis, expr string) Fragment {
	axis.mustValid()
	b := make([]byte, 0, len(expr)+16)
	b = append(b, byte(axis))
	b = append(b, " += ("...)
	b = append(b, expr...)
	b = append(b, ");\n"...)
	return Fragment(b)
}

// DisplaceSine returns a fragment that displaces axis by a sine wave travelling along another axis:
//
//	x += amplitude*sin(frequency*y+phase);
func DisplaceSine(axis, along Axis, amplitude, frequency, phase float32) Fragment {
	axis.mustValid()
	along.mustValid()
	b := make([]byte, 0, 64)
	b = append(b, byte(axis))
	b = append(b, " += "...)
	b = AppendFloat(b, '-', '.', amplitude)
	b = append(b, "*sin("...)
	b = AppendFloat(b, '-', '.', frequency)
	b = append(b, '*', byte(along), '+')
	b = AppendFloat(b, '-', '.', phase)
	b = append(b, ");\n"...)
	return Fragment(b)
}

// DisplaceOffset returns a fragment that translates every vertex by offset:
//
//	{
//	vec3 offsetV=vec3(1.,0.,-2.);
//	x += offsetV.x;
//	...
//	}
func DisplaceOffset(offset ms3.Vec) Fragment {
	b := make([]byte, 0, 96)
	b = append(b, "{\n"...)
	b = AppendVec3Decl(b, "offsetV", offset)
	b = append(b, "x += offsetV.x;\ny += offsetV.y;\nz += offsetV.z;\n}\n"...)
	return Fragment(b)
}

// DisplaceTwist returns a fragment that rotates x and z around the Y axis by an angle
// proportional to y, radiansPerUnit being the angle at y=1.
func DisplaceTwist(radiansPerUnit float32) Fragment {
	b := make([]byte, 0, 128)
	b = append(b, "{\n"...)
	b = append(b, "float twistA = "...)
	b = AppendFloat(b, '-', '.', radiansPerUnit)
	b = append(b, "*y;\n"...)
	b = append(b, "float twistC = cos(twistA);\nfloat twistS = sin(twistA);\n"...)
	b = append(b, "float twistX = twistC*x - twistS*z;\nz = twistS*x + twistC*z;\nx = twistX;\n}\n"...)
	return Fragment(b)
}

// DisplaceBulge returns a fragment that scales x and z by a gaussian bump of given amount
// centered at height center with standard width:
//
//	k = 1 + amount*exp(-((y-center)/width)²)
func DisplaceBulge(amount, center, width float32) Fragment {
	if width == 0 {
		panic("zero bulge width")
	}
	b := make([]byte, 0, 128)
	b = append(b, "{\n"...)
	b = AppendFloatDecl(b, "bulgeW", width)
	b = append(b, "float bulgeT = (y-("...)
	b = AppendFloat(b, '-', '.', center)
	b = append(b, "))/bulgeW;\n"...)
	b = append(b, "float bulgeK = 1.0+"...)
	b = AppendFloat(b, '-', '.', amount)
	b = append(b, "*exp(-bulgeT*bulgeT);\nx *= bulgeK;\nz *= bulgeK;\n}\n"...)
	return Fragment(b)
}
