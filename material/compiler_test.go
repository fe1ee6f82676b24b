package material_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adinfit/glmaterial/material"
	"github.com/adinfit/glmaterial/material/nullbackend"
)

func newCompiler(b *nullbackend.Backend, opts ...material.Option) *material.Compiler {
	opts = append([]material.Option{material.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return material.NewCompiler(b, material.NewRegistry(), opts...)
}

const simpleMaterial = `SHADER s
VERTEX
X
PIXEL
Y
`

func TestRoundTrip(t *testing.T) {
	b := nullbackend.New()
	c := newCompiler(b)

	require.NoError(t, c.ParseMaterial(simpleMaterial))

	sh, ok := c.Registry().Get("s")
	require.True(t, ok)
	src := sh.Sources()
	assert.True(t, strings.HasSuffix(src.Vertex, "void main()\n{\nX\n}\n"), src.Vertex)
	assert.True(t, strings.HasSuffix(src.Pixel, "void main()\n{\nY\n}\n"), src.Pixel)
	assert.False(t, sh.IsCompute())
	assert.Equal(t, 1, c.Registry().Len())
}

func TestAssembledSources(t *testing.T) {
	b := nullbackend.New()
	c := newCompiler(b)

	text := `VERTEXFUNCTIONS
vec4 project(vec3 p) { return mvp * vec4(p, 1.0); }
PIXELFUNCTIONS
vec4 shade() { return col; }
SHADER lit
VERTEX
	INPUTS apos:3 atc:2
	UNIFORMS mvp
	gl_Position = project(apos);
	itc = atc;
PIXEL
	INPUTS itc:2
	UNIFORMS col tex0
	gl_FragColor = shade() * texture2D(tex0, itc);
`
	require.NoError(t, c.ParseMaterial(text))
	sh, ok := c.Registry().Get("lit")
	require.True(t, ok)

	wantVertex := material.DefaultHeader +
		"attribute vec3 apos;\n" +
		"attribute vec2 atc;\n" +
		"uniform mat4 mvp;\n" +
		"varying vec2 itc;\n" +
		"vec4 project(vec3 p) { return mvp * vec4(p, 1.0); }\n" +
		"void main()\n{\n" +
		"\tgl_Position = project(apos);\n" +
		"\titc = atc;\n" +
		"}\n"
	wantPixel := material.DefaultHeader +
		"varying vec2 itc;\n" +
		"uniform vec4 col;\n" +
		"uniform sampler2D tex0;\n" +
		"vec4 shade() { return col; }\n" +
		"void main()\n{\n" +
		"\tgl_FragColor = shade() * texture2D(tex0, itc);\n" +
		"}\n"

	if diff := cmp.Diff(wantVertex, sh.Sources().Vertex); diff != "" {
		t.Errorf("vertex source (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantPixel, sh.Sources().Pixel); diff != "" {
		t.Errorf("pixel source (-want +got):\n%s", diff)
	}
}

func TestInputs(t *testing.T) {
	for n := 1; n <= 4; n++ {
		typ := "float"
		if n > 1 {
			typ = "vec" + string(rune('0'+n))
		}

		t.Run("vertex body "+typ, func(t *testing.T) {
			b := nullbackend.New()
			c := newCompiler(b)
			text := "SHADER s\nVERTEX\nINPUTS v:" + string(rune('0'+n)) + "\nx\nPIXEL\ny\n"
			require.NoError(t, c.ParseMaterial(text))
			sh, _ := c.Registry().Get("s")
			assert.Contains(t, sh.Sources().Vertex, "attribute "+typ+" v;\n")
			assert.NotContains(t, sh.Sources().Pixel, " v;")
		})

		t.Run("pixel body "+typ, func(t *testing.T) {
			b := nullbackend.New()
			c := newCompiler(b)
			text := "SHADER s\nVERTEX\nx\nPIXEL\nINPUTS v:" + string(rune('0'+n)) + "\ny\n"
			require.NoError(t, c.ParseMaterial(text))
			sh, _ := c.Registry().Get("s")
			assert.Contains(t, sh.Sources().Vertex, "varying "+typ+" v;\n")
			assert.Contains(t, sh.Sources().Pixel, "varying "+typ+" v;\n")
		})
	}
}

func TestInputErrors(t *testing.T) {
	for _, token := range []string{"anormal", "anormal:0", "anormal:5", "anormal:-2"} {
		b := nullbackend.New()
		c := newCompiler(b)
		err := c.ParseMaterial("SHADER s\nVERTEX\nINPUTS apos:3 " + token + "\n")
		require.Error(t, err, token)
		assert.Contains(t, err.Error(), token)
		kind, _ := material.KindOf(err)
		assert.Equal(t, material.SyntaxError, kind)
		assert.Equal(t, 0, c.Registry().Len())
	}
}

func TestUniformDeclarations(t *testing.T) {
	b := nullbackend.New()
	c := newCompiler(b)
	text := `SHADER g
VERTEX
x
PIXEL
UNIFORMS tex0 texcube2
UNIFORM vec3 tint
y
SHADER c
LAYOUT 8 8
COMPUTE
UNIFORMS texf0
z
`
	require.NoError(t, c.ParseMaterial(text))

	g, ok := c.Registry().Get("g")
	require.True(t, ok)
	assert.Contains(t, g.Sources().Pixel, "uniform sampler2D tex0;\n")
	assert.Contains(t, g.Sources().Pixel, "uniform samplerCube texcube2;\n")
	assert.Contains(t, g.Sources().Pixel, "uniform vec3 tint;\n")
	assert.NotContains(t, g.Sources().Vertex, "tex0")

	cs, ok := c.Registry().Get("c")
	require.True(t, ok)
	assert.True(t, cs.IsCompute())
	want := material.DefaultComputeHeader +
		"layout(local_size_x = 8, local_size_y = 8) in;\n" +
		"layout(binding = 0, rgba32f) uniform image2D texf0;\n" +
		"void main()\n{\nz\n}\n"
	assert.Equal(t, want, cs.Sources().Compute)
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"unknown uniform", "SHADER s\nPIXEL\nUNIFORMS col bogus\n", "bogus"},
		{"uniform without name", "SHADER s\nPIXEL\nUNIFORM vec3\n", "uniform decl must specify type and name"},
		{"code outside block", "SHADER s\ngl_Position = x;\n", "outside of FUNCTIONS/VERTEX/PIXEL block: gl_Position = x;"},
		{"code before shader", "float x;\n", "outside"},
		{"layout without y", "SHADER s\nLAYOUT 8\n", "layout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompiler(nullbackend.New())
			err := c.ParseMaterial(tt.text)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.False(t, material.IsFatal(err))
		})
	}
}

func TestErrorCarriesShaderName(t *testing.T) {
	c := newCompiler(nullbackend.New())
	err := c.ParseMaterial("SHADER broken\nPIXEL\nUNIFORMS bogus\n")

	var merr *material.Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "broken", merr.Shader)
	assert.Equal(t, material.SyntaxError, merr.Kind)
}

func TestEmptyShaderAtEndIsSkipped(t *testing.T) {
	b := nullbackend.New()
	c := newCompiler(b)
	require.NoError(t, c.ParseMaterial(simpleMaterial+"SHADER trailing\n"))
	assert.Equal(t, []string{"s"}, c.Registry().Names())
	assert.Len(t, b.Programs, 1)
}

func TestDuplicateNameInOneFile(t *testing.T) {
	b := nullbackend.New()
	c := newCompiler(b)
	require.NoError(t, c.ParseMaterial("SHADER s\nVERTEX\nA\nPIXEL\nB\nSHADER s\nVERTEX\nC\nPIXEL\nD\n"))

	assert.Equal(t, 1, c.Registry().Len())
	sh, ok := c.Registry().Get("s")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(sh.Sources().Vertex, "{\nC\n}\n"), sh.Sources().Vertex)
	assert.True(t, strings.HasSuffix(sh.Sources().Pixel, "{\nD\n}\n"), sh.Sources().Pixel)

	assert.Len(t, b.Programs, 1)
	assert.Contains(t, b.Programs, sh.Program())
}

func TestBareShaderLineDropsFollowingBlock(t *testing.T) {
	b := nullbackend.New()
	c := newCompiler(b)
	require.NoError(t, c.ParseMaterial(simpleMaterial+"SHADER\nVERTEX\nC\nPIXEL\nD\n"))
	assert.Equal(t, []string{"s"}, c.Registry().Names())
	assert.Len(t, b.Programs, 1)

	require.NoError(t, c.ParseMaterial("SHADER\nVERTEX\nC\nPIXEL\nD\nSHADER t\nPIXEL\nE\n"))
	assert.Equal(t, []string{"s", "t"}, c.Registry().Names())
	tsh, _ := c.Registry().Get("t")
	assert.NotContains(t, tsh.Sources().Vertex, "\nC\n")
}

func TestBlankLinesAreDropped(t *testing.T) {
	c := newCompiler(nullbackend.New())
	require.NoError(t, c.ParseMaterial("SHADER s\nVERTEX\n\nX\n   \nPIXEL\nY"))
	sh, _ := c.Registry().Get("s")
	assert.True(t, strings.HasSuffix(sh.Sources().Vertex, "{\nX\n}\n"))
	assert.True(t, strings.HasSuffix(sh.Sources().Pixel, "{\nY\n}\n"))
}

func TestComputeNotSupported(t *testing.T) {
	b := nullbackend.New()
	b.Compute = false
	c := newCompiler(b)

	err := c.ParseMaterial("SHADER c\nCOMPUTE\nz\n")
	require.Error(t, err)
	assert.Equal(t, "compute shaders not supported", err.Error())
	kind, _ := material.KindOf(err)
	assert.Equal(t, material.UnsupportedError, kind)
	assert.Equal(t, 0, c.Registry().Len())
	assert.Empty(t, b.Programs)
}

func TestCompileError(t *testing.T) {
	b := nullbackend.New()
	b.CompileError = func(stage material.Stage, source string) string {
		if stage == material.StagePixel {
			return "0:6: 'Y' : undeclared identifier\n"
		}
		return ""
	}
	c := newCompiler(b)

	err := c.ParseMaterial(simpleMaterial)
	require.Error(t, err)
	kind, _ := material.KindOf(err)
	assert.Equal(t, material.CompileError, kind)
	assert.False(t, material.IsFatal(err))

	want := "couldn't compile pixel shader: s\n" +
		"GLSL ERROR: 0:6: 'Y' : undeclared identifier\n" +
		"1: #version 130\n" +
		"2: void main()\n" +
		"3: {\n" +
		"4: Y\n" +
		"5: }\n"
	if diff := cmp.Diff(want, err.Error()); diff != "" {
		t.Errorf("message (-want +got):\n%s", diff)
	}

	assert.Equal(t, 0, c.Registry().Len())
	assert.Empty(t, b.Programs, "failed program must be released")
	assert.Empty(t, b.Shaders, "failed stages must be released")
}

func TestCompileErrorKeepsEarlierShaders(t *testing.T) {
	b := nullbackend.New()
	b.CompileError = func(stage material.Stage, source string) string {
		if strings.Contains(source, "BAD") {
			return "syntax error"
		}
		return ""
	}
	c := newCompiler(b)

	err := c.ParseMaterial(simpleMaterial + "SHADER t\nVERTEX\nBAD\nPIXEL\nY\nSHADER u\nVERTEX\nX\nPIXEL\nY\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "couldn't compile vertex shader: t")
	assert.Contains(t, err.Error(), "GLSL ERROR: syntax error\n1: #version 130\n")
	assert.Equal(t, []string{"s"}, c.Registry().Names())
}

func TestLinkErrorIsFatal(t *testing.T) {
	b := nullbackend.New()
	b.LinkError = "error: varying itc not written"
	c := newCompiler(b)

	err := c.ParseMaterial(simpleMaterial)
	require.Error(t, err)
	assert.True(t, material.IsFatal(err))
	assert.Contains(t, err.Error(), "linking failed for shader: s")
	assert.Contains(t, err.Error(), "varying itc not written")
	assert.Equal(t, 0, c.Registry().Len())
	assert.Empty(t, b.Programs)
}

func TestReRegistrationReleasesPrevious(t *testing.T) {
	b := nullbackend.New()
	c := newCompiler(b)

	require.NoError(t, c.ParseMaterial(simpleMaterial))
	first, _ := c.Registry().Get("s")
	firstProgram := first.Program()

	require.NoError(t, c.ParseMaterial(strings.ReplaceAll(simpleMaterial, "X", "X2")))
	second, ok := c.Registry().Get("s")
	require.True(t, ok)
	assert.NotEqual(t, firstProgram, second.Program())
	assert.Equal(t, 1, c.Registry().Len())
	assert.Contains(t, b.Deleted, firstProgram)
	assert.Len(t, b.Programs, 1)
}

func TestAttributeSlots(t *testing.T) {
	b := nullbackend.New()
	c := newCompiler(b)
	require.NoError(t, c.ParseMaterial(simpleMaterial))
	sh, _ := c.Registry().Get("s")

	attribs := b.Programs[sh.Program()].Attribs
	assert.Equal(t, material.AttribPosition, attribs["apos"])
	assert.Equal(t, material.AttribNormal, attribs["anormal"])
	assert.Equal(t, material.AttribTexCoord, attribs["atc"])
	assert.Equal(t, material.AttribColor, attribs["acolor"])
	assert.Equal(t, material.AttribWeights, attribs["aweights"])
	assert.Equal(t, material.AttribIndices, attribs["aindices"])
}

func TestCapabilities(t *testing.T) {
	b := nullbackend.New()
	b.Version = "4.10 INTEL"
	b.Core = true
	caps := material.DetectCapabilities(b)
	assert.Equal(t, "#version 410\n", caps.Header)
	assert.True(t, caps.Compute)
	assert.True(t, caps.ModernIO)

	b.Core = false
	assert.Equal(t, material.DefaultHeader, material.DetectCapabilities(b).Header)
	assert.False(t, material.DetectCapabilities(b).ModernIO)

	b.Version = "OpenGL ES GLSL ES 3.00"
	assert.Equal(t, material.ESHeader, material.DetectCapabilities(b).Header)

	c := newCompiler(b, material.WithCapabilities(material.Capabilities{Header: "#version 150\n"}))
	require.NoError(t, c.ParseMaterial(simpleMaterial))
	sh, _ := c.Registry().Get("s")
	assert.True(t, strings.HasPrefix(sh.Sources().Vertex, "#version 150\n"))
}

func TestModernInputs(t *testing.T) {
	b := nullbackend.New()
	caps := material.DefaultCapabilities()
	caps.Header = "#version 410\n"
	caps.ModernIO = true
	c := newCompiler(b, material.WithCapabilities(caps))
	require.NoError(t, c.ParseMaterial("SHADER s\nVERTEX\nINPUTS anormal:3 acolor:4\nx\nPIXEL\nINPUTS vnormal:3\ny\n"))

	sh, _ := c.Registry().Get("s")
	src := sh.Sources()
	assert.Contains(t, src.Vertex, "in vec3 anormal;\n")
	assert.Contains(t, src.Vertex, "in vec4 acolor;\n")
	assert.Contains(t, src.Vertex, "out vec3 vnormal;\n")
	assert.Contains(t, src.Pixel, "in vec3 vnormal;\n")
	for _, stage := range []string{src.Vertex, src.Pixel} {
		assert.NotContains(t, stage, "attribute ")
		assert.NotContains(t, stage, "varying ")
	}
}

func TestLoadMaterialFile(t *testing.T) {
	loads := 0
	load := func(path string) ([]byte, error) {
		loads++
		if path == "missing.mat" {
			return nil, os.ErrNotExist
		}
		return []byte(simpleMaterial), nil
	}
	c := newCompiler(nullbackend.New(), material.WithLoader(load))

	require.NoError(t, c.LoadMaterialFile("ok.mat"))
	assert.Equal(t, []string{"s"}, c.Registry().Names())

	err := c.LoadMaterialFile("missing.mat")
	require.Error(t, err)
	assert.Equal(t, "cannot load material file: missing.mat", material.Message(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
	kind, _ := material.KindOf(err)
	assert.Equal(t, material.FileError, kind)
	assert.Equal(t, 2, loads)
}

func TestLoadMaterialFileFromDisk(t *testing.T) {
	path := t.TempDir() + "/simple.mat"
	require.NoError(t, os.WriteFile(path, []byte(simpleMaterial), 0o644))

	c := newCompiler(nullbackend.New())
	assert.Equal(t, "", material.Message(c.LoadMaterialFile(path)))
	_, ok := c.Registry().Get("s")
	assert.True(t, ok)
}

func TestRegistryShutdown(t *testing.T) {
	b := nullbackend.New()
	c := newCompiler(b)
	require.NoError(t, c.ParseMaterial(simpleMaterial+"SHADER c\nCOMPUTE\nz\n"))
	assert.Equal(t, []string{"c", "s"}, c.Registry().Names())

	assert.True(t, c.Registry().Delete("c"))
	assert.False(t, c.Registry().Delete("c"))
	assert.Equal(t, []string{"s"}, c.Registry().Names())

	c.Registry().Shutdown()
	assert.Equal(t, 0, c.Registry().Len())
	assert.Empty(t, b.Programs)
	assert.Empty(t, b.Shaders)
}
