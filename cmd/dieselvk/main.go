// Command dieselvk is the engine's single entry point: a flag-driven CLI
// that can open a live render window or run the offline shader-packaging
// command, both against a --config YAML file layered over config.Default().
package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spf13/pflag"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/dieselvk/asche"
	"github.com/andewx/dieselvk/dieselvk"
	"github.com/andewx/dieselvk/internal/collectors"
	"github.com/andewx/dieselvk/internal/config"
	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/ecs"
	"github.com/andewx/dieselvk/internal/file"
	"github.com/andewx/dieselvk/internal/renderer"
	"github.com/andewx/dieselvk/internal/resource"
	"github.com/andewx/dieselvk/internal/resourcedb"
)

// vulkanApp adapts the engine property bag to asche.Application.
// winExtensions is filled in once a window exists, since only the window
// path needs the glfw-required surface extensions.
type vulkanApp struct {
	asche.BaseVulkanApp
	props         *config.Bag
	winExtensions []string
}

func (a *vulkanApp) VulkanAppName() string              { return a.props.String("app_name", "dieselvk") }
func (a *vulkanApp) VulkanDebug() bool                  { return a.props.Bool("validation_layers", false) }
func (a *vulkanApp) VulkanInstanceExtensions() []string { return a.winExtensions }

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "dieselvk:", err)
		os.Exit(1)
	}
}

// flags mirrors the built-in command set plus the ambient --config flag.
type flags struct {
	help       bool
	argsFile   string
	openWindow bool
	makeShader []string
	configPath string
}

// newFlagSet registers the CLI's flags. pflag shorthands are restricted to
// a single rune, so the multi-letter short forms (-af, -rnsh) are
// registered as second long (double-dash) names bound to the same
// variable rather than true shorthands.
func newFlagSet() (*pflag.FlagSet, *flags) {
	fs := pflag.NewFlagSet("dieselvk", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true

	f := &flags{}
	fs.BoolVarP(&f.help, "help", "h", false, "print flag bindings")
	fs.StringVar(&f.argsFile, "args-file", "", "load more whitespace-separated args from a file")
	fs.StringVar(&f.argsFile, "af", "", "alias for --args-file")
	fs.BoolVarP(&f.openWindow, "open-window", "w", false, "create a render window and run the frame loop")
	fs.StringSliceVar(&f.makeShader, "make-shader", nil,
		"vertex|fragment,name,source-path,output-path (comma-separated): package a GLSL source file as a shader resource")
	fs.StringSliceVar(&f.makeShader, "rnsh", nil, "alias for --make-shader")
	fs.StringVarP(&f.configPath, "config", "c", "", "path to a YAML config file (defaults to built-in defaults)")
	return fs, f
}

// expandArgsFile loads whitespace-separated tokens from path and appends
// them after the rest of argv, so an --args-file entry can itself carry
// further flags.
func expandArgsFile(path string, log *diag.Logger) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.IO("args-file %q: %v", path, err)
		return nil
	}
	return strings.Fields(string(data))
}

func run(argv []string) error {
	log := diag.New("logs")

	fs, f := newFlagSet()
	if err := fs.Parse(argv); err != nil {
		log.Configuration("flag parse: %v", err)
		return nil
	}

	if f.argsFile != "" {
		extra := expandArgsFile(f.argsFile, log)
		if err := fs.Parse(append(argv, extra...)); err != nil {
			log.Configuration("flag parse (post args-file): %v", err)
			return nil
		}
	}

	for _, unknown := range fs.Args() {
		log.Configuration("unrecognized argument %q, skipped", unknown)
	}

	if f.help {
		fmt.Println("dieselvk -- flag bindings:")
		fmt.Println(fs.FlagUsages())
		return nil
	}

	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			log.Configuration("config: %v", err)
		} else {
			cfg = loaded
		}
	}
	log = diag.New(cfg.LogDir)

	if len(f.makeShader) > 0 {
		return makeShader(f.makeShader, log)
	}

	if f.openWindow {
		return openWindow(cfg, log)
	}

	fmt.Println("dieselvk: nothing to do (pass --open-window, --make-shader, or --help)")
	return nil
}

// spirvCompiler is the external GLSL-to-SPIR-V toolchain, registered by a
// build that links one. Left nil, --make-shader packages GLSL source only
// and a pipeline consuming the resource must attach compiled words via
// Shader.SetSPIRV before use.
var spirvCompiler resource.SPIRVCompiler

// makeShader implements --make-shader|-rnsh <vertex|fragment> <name>
// <source-path> <output-path>: it reads GLSL source, compiles it through
// spirvCompiler when one is registered, and writes a shader resource file.
func makeShader(args []string, log *diag.Logger) error {
	if len(args) != 4 {
		return fmt.Errorf("--make-shader needs exactly 4 arguments: <vertex|fragment> <name> <source-path> <output-path>, got %d", len(args))
	}
	stageArg, _, sourcePath, outputPath := args[0], args[1], args[2], args[3]

	var stage resource.Stage
	switch stageArg {
	case "vertex":
		stage = resource.Vertex
	case "fragment":
		stage = resource.Fragment
	default:
		log.Configuration("--make-shader: stage must be vertex or fragment, got %q", stageArg)
		return nil
	}

	src, err := os.ReadFile(sourcePath)
	if err != nil {
		log.IO("--make-shader: read %q: %v", sourcePath, err)
		return nil
	}

	sh := &resource.Shader{StageKind: stage}
	sh.SetGLSL(string(src))
	if spirvCompiler != nil {
		words, err := spirvCompiler.Compile(sh.GLSL, stage)
		if err != nil {
			log.Configuration("--make-shader: compile %q: %v", sourcePath, err)
		} else {
			sh.SetSPIRV(words)
		}
	} else {
		log.Configuration("--make-shader: no SPIR-V compiler registered, packaging GLSL source only")
	}

	out := file.Open(outputPath, file.Write, log.IO)
	defer out.Close()
	sh.WriteData(out)
	return out.Err()
}

func openWindow(cfg config.Config, log *diag.Logger) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		return fmt.Errorf("vulkan init: %w", err)
	}

	props := cfg.Bag()
	glfwWindow, err := glfw.CreateWindow(
		props.Int("window_width", 1280), props.Int("window_height", 720),
		props.String("app_name", "dieselvk"), nil, nil)
	if err != nil {
		return fmt.Errorf("glfw create window: %w", err)
	}

	app := &vulkanApp{props: props, winExtensions: glfwWindow.GetRequiredInstanceExtensions()}
	instance, debugCallback, err := asche.CreateInstance(app, log)
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	defer asche.DestroyInstance(instance, debugCallback)

	display := dieselvk.NewCoreDisplay(glfwWindow)
	surface, err := display.CreateSurface(instance)
	if err != nil {
		return fmt.Errorf("create surface: %w", err)
	}

	device, err := dieselvk.NewCoreDevice(instance, dieselvk.DeviceRequirements{
		RequiredExtensions: []string{"VK_KHR_swapchain"},
		Surface:            &surface,
	}, log)
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	defer device.Destroy()

	window, err := dieselvk.NewWindow(device, display)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	db, err := resourcedb.New(device, cfg.ResourceDatabase, log)
	if err != nil {
		return fmt.Errorf("resource database: %w", err)
	}
	defer db.Destroy()

	world := ecs.NewWorld(log)
	stores := collectors.NewStores(world, log)
	systems := collectors.NewSystems(stores, db, window.RenderPass, log)
	frameLoop := renderer.New(window, db, stores, log)

	for !glfwWindow.ShouldClose() {
		glfw.PollEvents()
		systems.Update()
		if err := frameLoop.DrawFrame(); err != nil {
			log.Vulkan("draw frame: %v", err)
			return err
		}
	}
	return nil
}
