package main

import (
	_ "embed"
	"strings"

	"github.com/adinfit/glmaterial/material"
)

// previewMaterials is used when no material file is given. The wobble compute
// shader expects the mesh vertex buffer at storage binding 0 and the
// MeshInfo uniform block.
//
//go:embed preview.materials
var previewMaterials string

// LoadMaterials compiles the configured material files, or the built-in
// preview materials when there are none.
func LoadMaterials(compiler *material.Compiler, paths []string) error {
	if len(paths) == 0 {
		return compiler.ParseMaterial(previewMaterials)
	}
	for _, path := range paths {
		if err := compiler.LoadMaterialFile(path); err != nil {
			return err
		}
	}
	return nil
}

// DefaultShader picks the first graphics shader by name.
func DefaultShader(registry *material.Registry) (string, bool) {
	for _, name := range registry.Names() {
		if sh, ok := registry.Get(name); ok && !sh.IsCompute() {
			return name, true
		}
	}
	return "", false
}

// ShaderNames lists the registered shaders for log and error messages.
func ShaderNames(registry *material.Registry) string {
	return strings.Join(registry.Names(), " ")
}
