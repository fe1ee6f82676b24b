package material

import (
	"strconv"
	"strings"
)

const (
	// MaxSamplers is the number of texture units managed by the binding API.
	// Sampler locations for tex0..tex(MaxSamplers-1) are cached at link time;
	// higher units can be declared but the caller binds them.
	MaxSamplers = 4

	// BoneVectors is the declared length of the bones uniform, in vec4 rows.
	// It is fixed rather than derived from the skeleton being drawn.
	BoneVectors = 230
	// MaxBones is the number of 3x4 bone matrices that fit in BoneVectors.
	MaxBones = BoneVectors / 3
)

// Semantic identifies one of the predefined uniforms whose location is
// cached when a program links.
type Semantic int

const (
	SemanticTransform Semantic = iota
	SemanticColor
	SemanticCamera
	SemanticLight1
	SemanticLightParams1
	SemanticBones
	SemanticPointScale

	semanticCount
)

var semantics = [semanticCount]struct {
	name string
	decl string
}{
	SemanticTransform:    {"mvp", "uniform mat4 mvp;\n"},
	SemanticColor:        {"col", "uniform vec4 col;\n"},
	SemanticCamera:       {"camera", "uniform vec3 camera;\n"},
	SemanticLight1:       {"light1", "uniform vec3 light1;\n"},
	SemanticLightParams1: {"lightparams1", "uniform vec2 lightparams1;\n"},
	SemanticBones:        {"bones", "uniform vec4 bones[" + strconv.Itoa(BoneVectors) + "];\n"},
	SemanticPointScale:   {"pointscale", "uniform float pointscale;\n"},
}

// Name returns the uniform name used in shader source.
func (sem Semantic) Name() string {
	if sem < 0 || sem >= semanticCount {
		return ""
	}
	return semantics[sem].name
}

const texturePrefix = "tex"

// SamplerName returns the uniform name of the sampler bound to unit.
func SamplerName(unit int) string { return texturePrefix + strconv.Itoa(unit) }

// declareUniform translates one word of a UNIFORMS line.
func declareUniform(word string, compute bool) (string, error) {
	for _, sem := range semantics {
		if sem.name == word {
			return sem.decl, nil
		}
	}

	if !strings.HasPrefix(word, texturePrefix) {
		return "", newError(SyntaxError, "", "unknown uniform: %s", word)
	}

	rest := word[len(texturePrefix):]
	cube := strings.HasPrefix(rest, "cube")
	if cube {
		rest = rest[len("cube"):]
	}
	floating := strings.HasPrefix(rest, "f")
	if floating {
		rest = rest[1:]
	}

	unit, err := strconv.Atoi(rest)
	if err != nil || unit < 0 || rest[0] == '+' {
		return "", newError(SyntaxError, "", "texture uniform %s must end in a texture unit number", word)
	}

	var decl strings.Builder
	if compute {
		format := "rgba8"
		if floating {
			format = "rgba32f"
		}
		decl.WriteString("layout(binding = " + strconv.Itoa(unit) + ", " + format + ") uniform ")
		if cube {
			decl.WriteString("imageCube ")
		} else {
			decl.WriteString("image2D ")
		}
	} else {
		if cube {
			decl.WriteString("uniform samplerCube ")
		} else {
			decl.WriteString("uniform sampler2D ")
		}
	}
	decl.WriteString(word)
	decl.WriteString(";\n")
	return decl.String(), nil
}

// declareCustomUniform translates a UNIFORM line.
func declareCustomUniform(typ, name string) (string, error) {
	if typ == "" || name == "" {
		return "", newError(SyntaxError, "", "uniform decl must specify type and name")
	}
	return "uniform " + typ + " " + name + ";\n", nil
}

// parseInput splits an INPUTS token of the form name:components.
func parseInput(token string) (name string, components int, err error) {
	name, count, found := strings.Cut(token, ":")
	if !found {
		return "", 0, newError(SyntaxError, "", "input %s doesn't specify number of components, e.g. anormal:3", token)
	}
	if name == "" {
		return "", 0, newError(SyntaxError, "", "input %s doesn't specify a name", token)
	}
	components, err = strconv.Atoi(count)
	if err != nil || components < 1 || components > 4 {
		return "", 0, newError(SyntaxError, "", "input %s can only use 1..4 components", token)
	}
	return name, components, nil
}

func vectorType(components int) string {
	if components == 1 {
		return "float"
	}
	return "vec" + strconv.Itoa(components)
}

func declareAttribute(name string, components int, modern bool) string {
	qualifier := "attribute "
	if modern {
		qualifier = "in "
	}
	return qualifier + vectorType(components) + " " + name + ";\n"
}

// declareVarying returns the vertex and pixel side of an interpolated value.
func declareVarying(name string, components int, modern bool) (vertex, pixel string) {
	decl := vectorType(components) + " " + name + ";\n"
	if modern {
		return "out " + decl, "in " + decl
	}
	return "varying " + decl, "varying " + decl
}

// declareLayout translates a LAYOUT line into a compute work group size.
func declareLayout(x, y string) (string, error) {
	if x == "" || y == "" {
		return "", newError(SyntaxError, "", "layout decl must specify local size x and y")
	}
	return "layout(local_size_x = " + x + ", local_size_y = " + y + ") in;\n", nil
}
