package main

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adinfit/glmaterial/material"
	"github.com/adinfit/glmaterial/material/nullbackend"
)

func previewCompiler(t *testing.T) (*nullbackend.Backend, *material.Compiler) {
	t.Helper()
	backend := nullbackend.New()
	compiler := material.NewCompiler(backend, material.NewRegistry(),
		material.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, LoadMaterials(compiler, nil))
	return backend, compiler
}

func TestPreviewMaterials(t *testing.T) {
	_, compiler := previewCompiler(t)
	registry := compiler.Registry()

	assert.Equal(t, []string{"flat", "hue", "phong", "textured", "wobble"}, registry.Names())

	hue, ok := registry.Get("hue")
	require.True(t, ok)
	assert.Contains(t, hue.Sources().Pixel, "vec3 hsv2rgb(vec3 c)")
	assert.Contains(t, hue.Sources().Pixel, "uniform float time;\n")

	phong, _ := registry.Get("phong")
	assert.Contains(t, phong.Sources().Vertex, "attribute vec4 acolor;\n")
	assert.Contains(t, phong.Sources().Vertex, "varying vec3 vnormal;\n")
	assert.GreaterOrEqual(t, phong.Location(material.SemanticLight1), int32(0))

	textured, _ := registry.Get("textured")
	assert.GreaterOrEqual(t, textured.SamplerLocation(0), int32(0))

	wobble, _ := registry.Get("wobble")
	require.True(t, wobble.IsCompute())
	assert.True(t, strings.HasPrefix(wobble.Sources().Compute, material.DefaultComputeHeader))
	assert.Contains(t, wobble.Sources().Compute, "layout(local_size_x = 64, local_size_y = 1) in;\n")
}

func TestPreviewMaterialsCoreProfile(t *testing.T) {
	backend := nullbackend.New()
	backend.Version = "4.10 NVIDIA"
	backend.Core = true
	compiler := material.NewCompiler(backend, material.NewRegistry(),
		material.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, LoadMaterials(compiler, nil))

	registry := compiler.Registry()
	phong, _ := registry.Get("phong")
	assert.Contains(t, phong.Sources().Vertex, "in vec4 acolor;\n")
	assert.Contains(t, phong.Sources().Vertex, "out vec3 vnormal;\n")
	assert.Contains(t, phong.Sources().Pixel, "in vec3 vnormal;\n")

	for _, name := range registry.Names() {
		sh, _ := registry.Get(name)
		if sh.IsCompute() {
			continue
		}
		src := sh.Sources()
		for _, stage := range []string{src.Vertex, src.Pixel} {
			assert.True(t, strings.HasPrefix(stage, "#version 410\n"), name)
			for _, legacy := range []string{"attribute ", "varying ", "gl_FragColor", "texture2D"} {
				assert.NotContains(t, stage, legacy, name)
			}
		}
	}
}

func TestPreviewMeshInfoBlock(t *testing.T) {
	backend, compiler := previewCompiler(t)
	wobble, _ := compiler.Registry().Get("wobble")

	ubo := compiler.UniformBufferObject(wobble, []float32{42}, "MeshInfo", false)
	require.NotZero(t, ubo)
	assert.Equal(t, []float32{42}, backend.Buffers[ubo])
}

func TestDefaultShader(t *testing.T) {
	_, compiler := previewCompiler(t)
	name, ok := DefaultShader(compiler.Registry())
	require.True(t, ok)
	assert.Equal(t, "flat", name)

	_, ok = DefaultShader(material.NewRegistry())
	assert.False(t, ok)
}

func TestLoadMaterialsStopsAtFirstError(t *testing.T) {
	good := writeFile(t, "good.materials", "SHADER a\nPIXEL\nx\n")
	compiler := material.NewCompiler(nullbackend.New(), material.NewRegistry(),
		material.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	err := LoadMaterials(compiler, []string{good, good + ".missing", good})
	kind, ok := material.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, material.FileError, kind)
	assert.Equal(t, 1, compiler.Registry().Len())
}

func TestLevelFromFlags(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelFromFlags(true, false, true))
	assert.Equal(t, slog.LevelInfo, LevelFromFlags(false, true, false))
	assert.Equal(t, slog.LevelError, LevelFromFlags(false, false, true))
	assert.Equal(t, slog.LevelInfo, LevelFromFlags(false, false, false))
}
