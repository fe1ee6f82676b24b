package material

import "strings"

// section is the accumulator currently receiving raw source lines.
type section int

const (
	sectionNone section = iota
	sectionVertexFunctions
	sectionPixelFunctions
	sectionComputeFunctions
	sectionVertex
	sectionPixel
	sectionCompute

	sectionCount
)

// functionSections finalize the pending shader when they start; body
// sections do not.
var functionSections = map[string]section{
	"VERTEXFUNCTIONS":  sectionVertexFunctions,
	"PIXELFUNCTIONS":   sectionPixelFunctions,
	"COMPUTEFUNCTIONS": sectionComputeFunctions,
}

var bodySections = map[string]section{
	"VERTEX":  sectionVertex,
	"PIXEL":   sectionPixel,
	"COMPUTE": sectionCompute,
}

type declTarget int

const (
	declVertex declTarget = iota
	declPixel
	declCompute

	declCount
)

// parseState lives for a single parse call.
type parseState struct {
	active  section
	buffers [sectionCount]strings.Builder
	decl    [declCount]strings.Builder

	// shader is the name of the SHADER block being accumulated, "" if none.
	shader string
}

func (state *parseState) section(sec section) *strings.Builder {
	return &state.buffers[sec]
}

func (state *parseState) activate(sec section) {
	state.buffers[sec].Reset()
	state.active = sec
}

// begin starts a new SHADER block. Function sections are shared between
// shaders and survive.
func (state *parseState) begin(name string) {
	state.shader = name
	for i := range state.decl {
		state.decl[i].Reset()
	}
	state.buffers[sectionVertex].Reset()
	state.buffers[sectionPixel].Reset()
	state.buffers[sectionCompute].Reset()
	state.active = sectionNone
}

// declTarget picks the declaration buffer for UNIFORMS and UNIFORM lines.
func (state *parseState) declTarget() declTarget {
	switch state.active {
	case sectionVertex, sectionVertexFunctions:
		return declVertex
	case sectionCompute, sectionComputeFunctions:
		return declCompute
	default:
		return declPixel
	}
}

// parseLine handles a single material line. The first word has already
// been read.
func (c *Compiler) parseLine(state *parseState, s *scanner, keyword string) error {
	if sec, ok := functionSections[keyword]; ok {
		if err := c.finalize(state); err != nil {
			return err
		}
		state.activate(sec)
		return nil
	}
	if sec, ok := bodySections[keyword]; ok {
		state.activate(sec)
		return nil
	}

	switch keyword {
	case "SHADER":
		if err := c.finalize(state); err != nil {
			return err
		}
		// A bare SHADER line leaves no block pending; what follows up to the
		// next SHADER is parsed but never compiled.
		state.begin(s.word())

	case "UNIFORMS":
		target := state.declTarget()
		decl := &state.decl[target]
		for word := s.word(); word != ""; word = s.word() {
			d, err := declareUniform(word, target == declCompute)
			if err != nil {
				return err
			}
			decl.WriteString(d)
		}

	case "UNIFORM":
		typ := s.word()
		name := s.word()
		d, err := declareCustomUniform(typ, name)
		if err != nil {
			return err
		}
		state.decl[state.declTarget()].WriteString(d)

	case "INPUTS":
		for token := s.word(); token != ""; token = s.word() {
			name, components, err := parseInput(token)
			if err != nil {
				return err
			}
			if state.active == sectionVertex {
				state.decl[declVertex].WriteString(declareAttribute(name, components, c.caps.ModernIO))
				continue
			}
			vertex, pixel := declareVarying(name, components, c.caps.ModernIO)
			state.decl[declVertex].WriteString(vertex)
			state.decl[declPixel].WriteString(pixel)
		}

	case "LAYOUT":
		x := s.word()
		y := s.word()
		d, err := declareLayout(x, y)
		if err != nil {
			return err
		}
		state.decl[declCompute].WriteString(d)

	default:
		if state.active == sectionNone {
			return newError(SyntaxError, "", "GLSL code outside of FUNCTIONS/VERTEX/PIXEL block: %s", s.line)
		}
		accum := state.section(state.active)
		accum.WriteString(s.line)
		accum.WriteByte('\n')
	}
	return nil
}
