package material

import (
	"log/slog"
	"sort"
)

// Registry owns compiled shaders by name. It has no locking; use it from
// the goroutine that owns the graphics context.
type Registry struct {
	shaders map[string]*Shader
	log     *slog.Logger
}

func NewRegistry() *Registry {
	return &Registry{shaders: make(map[string]*Shader)}
}

// Get returns the shader registered under name.
func (r *Registry) Get(name string) (*Shader, bool) {
	sh, ok := r.shaders[name]
	return sh, ok
}

func (r *Registry) Len() int { return len(r.shaders) }

// Names returns the registered shader names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.shaders))
	for name := range r.shaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// register stores sh under its name. A shader previously registered under
// the same name is destroyed.
func (r *Registry) register(sh *Shader) {
	if old, ok := r.shaders[sh.Name]; ok && old != sh {
		r.logger().Warn("material: replacing shader", "shader", sh.Name)
		old.Destroy()
	}
	r.shaders[sh.Name] = sh
	r.logger().Debug("material: registered shader", "shader", sh.Name)
}

// Delete destroys and removes the shader registered under name.
func (r *Registry) Delete(name string) bool {
	sh, ok := r.shaders[name]
	if !ok {
		return false
	}
	sh.Destroy()
	delete(r.shaders, name)
	return true
}

// Shutdown destroys every registered shader and empties the registry.
func (r *Registry) Shutdown() {
	for name, sh := range r.shaders {
		sh.Destroy()
		delete(r.shaders, name)
	}
}

func (r *Registry) logger() *slog.Logger {
	if r.log == nil {
		return slog.Default()
	}
	return r.log
}
