package main

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/go-gl/gl/v4.3-core/gl"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/adinfit/glmaterial/material"
)

type Texture struct {
	Path string
	RGBA *image.RGBA
	ID   uint32
}

// DecodeTexture reads an image in any registered format and converts it to
// tightly packed RGBA.
func DecodeTexture(path string) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("texture %q not found on disk: %w", path, err)
	}
	defer file.Close()

	m, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("unable to decode texture %q: %w", path, err)
	}

	rgba := image.NewRGBA(m.Bounds())
	if rgba.Stride != rgba.Rect.Size().X*4 {
		return nil, fmt.Errorf("unsupported stride")
	}
	draw.Draw(rgba, rgba.Bounds(), m, m.Bounds().Min, draw.Src)
	return rgba, nil
}

func LoadTexture(path string) (*Texture, error) {
	rgba, err := DecodeTexture(path)
	if err != nil {
		return nil, err
	}
	texture := &Texture{Path: path, RGBA: rgba}
	texture.upload()
	return texture, nil
}

func (texture *Texture) Handle() material.Handle { return material.Handle(texture.ID) }

func (texture *Texture) upload() {
	if texture.ID != 0 {
		texture.delete()
	}

	gl.GenTextures(1, &texture.ID)
	gl.BindTexture(gl.TEXTURE_2D, texture.ID)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA8,
		int32(texture.RGBA.Rect.Dx()),
		int32(texture.RGBA.Rect.Dy()),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(texture.RGBA.Pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (texture *Texture) delete() {
	gl.DeleteTextures(1, &texture.ID)
	texture.ID = 0
}

func (texture *Texture) Destroy() {
	texture.delete()
	texture.RGBA = nil
	texture.Path = ""
}

// TextureSet holds the textures bound to the sampler units of a draw.
type TextureSet struct {
	textures [material.MaxSamplers]*Texture
	handles  [material.MaxSamplers]material.Handle
}

// LoadTextures loads paths into consecutive units starting at 0.
func LoadTextures(paths []string) (*TextureSet, error) {
	if len(paths) > material.MaxSamplers {
		return nil, fmt.Errorf("at most %d textures, got %d", material.MaxSamplers, len(paths))
	}
	set := &TextureSet{}
	for unit, path := range paths {
		texture, err := LoadTexture(path)
		if err != nil {
			set.Destroy()
			return nil, err
		}
		set.textures[unit] = texture
		set.handles[unit] = texture.Handle()
	}
	return set, nil
}

func (set *TextureSet) Handles() *[material.MaxSamplers]material.Handle { return &set.handles }

func (set *TextureSet) Destroy() {
	for unit, texture := range set.textures {
		if texture != nil {
			texture.Destroy()
		}
		set.textures[unit] = nil
		set.handles[unit] = 0
	}
}
