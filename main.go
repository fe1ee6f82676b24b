package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"unsafe"

	"github.com/adinfinit/g"
	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"

	"github.com/adinfit/glmaterial/glbackend"
	"github.com/adinfit/glmaterial/material"
)

var (
	configPath = flag.String("config", "", "viewer config file (.toml, .yaml)")
	cpuprofile = flag.String("cpuprofile", "", "profile")

	shaderName   = flag.String("shader", "", "shader to draw with")
	computeName  = flag.String("compute", "", "compute shader to dispatch over the mesh each frame")
	windowWidth  = flag.Int("width", 0, "window width")
	windowHeight = flag.Int("height", 0, "window height")
	coreProfile  = flag.Bool("core", false, "request a forward compatible 4.1 core context, declaring INPUTS with in/out")
	watch        = flag.Bool("watch", false, "reload material files when they change")

	verbose     = flag.Bool("v", false, "log informational messages")
	veryVerbose = flag.Bool("vv", false, "log debug messages")
	quiet       = flag.Bool("q", false, "only log errors")
)

// LevelFromFlags maps the verbosity flags to a log level. vv wins over v,
// v wins over q. Without flags the level is Info.
func LevelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func init() { runtime.LockOSThread() }

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [file.materials...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: LevelFromFlags(*veryVerbose, *verbose, *quiet),
	}))
	slog.SetDefault(log)

	cfg, err := loadConfig()
	if err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(2)
	}
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Error("unable to create cpu-profile", "path", *cpuprofile, "err", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Error("unable to start cpu-profile", "err", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if err := run(log, &cfg); err != nil {
		log.Error(material.Message(err))
		os.Exit(1)
	}
}

// loadConfig merges the config file, flags and positional arguments.
func loadConfig() (Config, error) {
	cfg := DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = LoadConfig(*configPath)
		if err != nil {
			return cfg, err
		}
	}

	if args := flag.Args(); len(args) > 0 {
		cfg.Materials = args
	}
	if *shaderName != "" {
		cfg.Shader = *shaderName
	}
	if *computeName != "" {
		cfg.Compute = *computeName
	}
	if *windowWidth > 0 {
		cfg.Width = *windowWidth
	}
	if *windowHeight > 0 {
		cfg.Height = *windowHeight
	}
	cfg.Watch = cfg.Watch || *watch
	return cfg, cfg.Validate()
}

func run(log *slog.Logger, cfg *Config) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Samples, 2)
	if *coreProfile {
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, "Material Preview", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize glow: %w", err)
	}
	log.Info("OpenGL", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	backend := glbackend.New(*coreProfile)
	registry := material.NewRegistry()
	defer registry.Shutdown()

	compiler := material.NewCompiler(backend, registry,
		material.WithLogger(log),
		material.WithCapabilities(cfg.Capabilities(material.DetectCapabilities(backend))),
	)

	if err := LoadMaterials(compiler, cfg.Materials); err != nil {
		return err
	}
	log.Info("materials loaded", "shaders", ShaderNames(registry))

	if cfg.Shader == "" {
		name, ok := DefaultShader(registry)
		if !ok {
			return errors.New("no graphics shaders in material files")
		}
		cfg.Shader = name
	}
	if sh, ok := registry.Get(cfg.Shader); !ok || sh.IsCompute() {
		return fmt.Errorf("graphics shader %q not found, have: %s", cfg.Shader, ShaderNames(registry))
	}

	var reloader *Reloader
	if cfg.Watch && len(cfg.Materials) > 0 {
		reloader, err = NewReloader(compiler, log, cfg.Materials)
		if err != nil {
			return err
		}
		defer reloader.Close()
	}

	textures, err := LoadTextures(cfg.Textures)
	if err != nil {
		return err
	}
	defer textures.Destroy()

	mesh := UploadMesh(PreviewMesh())
	defer mesh.Destroy()

	var compute *ComputePass
	if cfg.Compute != "" {
		compute, err = NewComputePass(compiler, cfg.Compute, mesh.Data.VertexCount())
		if err != nil {
			return err
		}
	}

	world := NewWorld()
	world.NextFrameGLFW(window)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0x26/255.0, 0x42/255.0, 0x6b/255.0, 1.0)

	angle := float32(0.0)
	for !window.ShouldClose() {
		if reloader != nil {
			reloader.Poll()
		}

		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		angle += world.DeltaTime * 0.3
		sn, cs := g.Sincos(angle)
		world.Camera.Eye.X = sn * 6.0
		world.Camera.Eye.Z = cs * 6.0

		world.NextFrameGLFW(window)

		computeStart := hrtime.Now()
		if compute != nil {
			compute.Run(material.Handle(mesh.VBO), mesh.Data.VertexCount(), world.Time)
		}
		computeStop := hrtime.Now()

		renderStart := hrtime.Now()
		// the registry may hold a reloaded program under the same name
		if sh, ok := registry.Get(cfg.Shader); ok && !sh.IsCompute() {
			sh.SetFrame(cfg.Frame(world.ModelViewProjection(), world.CameraPosition()))
			sh.SetTextures(textures.Handles())
			sh.SetUniform("time", []float32{float32(world.Time)}, 1, 1)
			mesh.Draw()
			sh.End()
		}
		renderStop := hrtime.Now()

		window.SetTitle(fmt.Sprintf("%s\tCompute:\t%v\tRender:\t%v", cfg.Shader, computeStop-computeStart, renderStop-renderStart))

		window.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}

type World struct {
	ScreenSize g.Vec2
	Camera     Camera

	Time      float64
	DeltaTime float32
}

func NewWorld() *World {
	world := &World{}
	world.Camera = *NewCamera()
	return world
}

func (world *World) NextFrameGLFW(window *glfw.Window) {
	width, height := window.GetFramebufferSize()
	screenSize := g.V2(float32(width), float32(height))
	now := glfw.GetTime()

	if world.ScreenSize != screenSize {
		gl.Viewport(0, 0, int32(width), int32(height))
	}
	world.NextFrame(screenSize, now)
}

func (world *World) NextFrame(screenSize g.Vec2, now float64) {
	if world.ScreenSize != screenSize {
		slog.Debug("viewport resized", "width", screenSize.X, "height", screenSize.Y)
	}
	world.ScreenSize = screenSize
	world.DeltaTime = float32(now - world.Time)
	world.Time = now

	world.Camera.UpdateScreenSize(screenSize)
}

// ModelViewProjection is the transform written to the mvp uniform.
func (world *World) ModelViewProjection() mgl32.Mat4 {
	projection := toMat4(&world.Camera.Projection)
	view := toMat4(&world.Camera.Camera)
	model := mgl32.HomogRotate3DX(-mgl32.DegToRad(90))
	return projection.Mul4(view).Mul4(model)
}

func (world *World) CameraPosition() mgl32.Vec3 {
	eye := world.Camera.Eye
	return mgl32.Vec3{eye.X, eye.Y, eye.Z}
}

// toMat4 reinterprets a column-major g.Mat4 as an mgl32.Mat4.
func toMat4(m *g.Mat4) mgl32.Mat4 {
	return *(*mgl32.Mat4)(unsafe.Pointer(m.Ptr()))
}

type Camera struct {
	Eye, LookAt, Up g.Vec3

	FOV       float32
	Near, Far float32

	Projection g.Mat4
	Camera     g.Mat4
}

func NewCamera() *Camera {
	return &Camera{
		Eye:    g.V3(6, 3, 6),
		LookAt: g.V3(0, 0, 0),
		Up:     g.V3(0, 1, 0),
		FOV:    60,
		Near:   0.1,
		Far:    100,
	}
}

func (camera *Camera) UpdateScreenSize(size g.Vec2) {
	camera.Projection = g.Perspective(g.DegToRad(camera.FOV), size.X/size.Y, camera.Near, camera.Far)
	camera.Camera = g.LookAtV(camera.Eye, camera.LookAt, camera.Up)
}
