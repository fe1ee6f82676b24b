package material

import (
	"strings"
)

const (
	// DefaultHeader is prepended to vertex and pixel sources on desktop
	// compatibility contexts.
	DefaultHeader = "#version 130\n"
	// ESHeader is prepended to vertex and pixel sources on OpenGL ES.
	ESHeader = "#ifdef GL_ES\nprecision highp float;\n#endif\n"
	// DefaultComputeHeader is prepended to compute sources.
	DefaultComputeHeader = "#version 430\n"
)

// Capabilities are the backend properties the assembler and the compiler
// depend on. They are resolved once, usually with DetectCapabilities.
type Capabilities struct {
	Header        string
	ComputeHeader string
	Compute       bool
	// ModernIO declares INPUTS with in/out instead of attribute/varying,
	// as core profile contexts require.
	ModernIO bool
}

// DefaultCapabilities targets a desktop compatibility context with compute
// support.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Header:        DefaultHeader,
		ComputeHeader: DefaultComputeHeader,
		Compute:       true,
	}
}

// DetectCapabilities queries the backend for its shading language version
// and optional features.
func DetectCapabilities(backend Backend) Capabilities {
	caps := DefaultCapabilities()
	caps.Compute = backend.SupportsCompute()

	version := backend.ShadingLanguageVersion()
	switch {
	case strings.Contains(version, "ES"):
		caps.Header = ESHeader
	case backend.CoreProfile():
		if header, ok := VersionHeader(version); ok {
			caps.Header = header
		}
		caps.ModernIO = true
	}
	return caps
}

// VersionHeader turns a reported shading language version such as
// "4.10 NVIDIA" into "#version 410\n".
func VersionHeader(version string) (string, bool) {
	version = strings.TrimSpace(version)
	if len(version) < 4 || version[1] != '.' {
		return "", false
	}
	digits := []byte{version[0], version[2], version[3]}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return "#version " + string(digits) + "\n", true
}

// Sources holds the final per-stage sources of one program.
type Sources struct {
	Vertex  string
	Pixel   string
	Compute string
}

// IsCompute reports whether the sources describe a compute program.
func (src Sources) IsCompute() bool { return src.Compute != "" }

func wrapMain(header, decl, functions, body string) string {
	var b strings.Builder
	b.Grow(len(header) + len(decl) + len(functions) + len(body) + 32)
	b.WriteString(header)
	b.WriteString(decl)
	b.WriteString(functions)
	b.WriteString("void main()\n{\n")
	b.WriteString(body)
	b.WriteString("}\n")
	return b.String()
}

// assemble builds the stage sources for the pending shader. It returns false
// when there is no body to compile.
func (state *parseState) assemble(caps Capabilities) (Sources, bool) {
	compute := state.section(sectionCompute).String()
	if compute != "" {
		return Sources{
			Compute: wrapMain(caps.ComputeHeader, state.decl[declCompute].String(),
				state.section(sectionComputeFunctions).String(), compute),
		}, true
	}

	vertex := state.section(sectionVertex).String()
	pixel := state.section(sectionPixel).String()
	if vertex == "" && pixel == "" {
		return Sources{}, false
	}
	return Sources{
		Vertex: wrapMain(caps.Header, state.decl[declVertex].String(),
			state.section(sectionVertexFunctions).String(), vertex),
		Pixel: wrapMain(caps.Header, state.decl[declPixel].String(),
			state.section(sectionPixelFunctions).String(), pixel),
	}, true
}
