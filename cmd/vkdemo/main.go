// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command vkdemo opens a window and renders an animated scene with
// vkrender. The S key saves a screenshot.
package main

import (
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"runtime"
	"time"

	"cogentcore.org/vkrender/base/errors"
	"cogentcore.org/vkrender/base/logx"
	"cogentcore.org/vkrender/vkapi/vkdriver"
	"cogentcore.org/vkrender/vkrender"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/muesli/termenv"
)

func init() {
	// must lock main thread for gpu!
	runtime.LockOSThread()
}

// flags
var (
	configFile = flag.String("config", "", "config file (.toml or .yaml); default ~/.config/vkdemo/config.toml")
	imageFile  = flag.String("image", "", "image to draw as a texture, overriding the config")
	frames     = flag.Int("frames", 0, "exit after this many frames; 0 runs until the window closes")
	shot       = flag.Bool("screenshot", false, "save a screenshot of the last frame on exit")
	vv         = flag.Bool("vv", false, "debug logging")
	v          = flag.Bool("v", false, "info logging")
	q          = flag.Bool("q", false, "only log errors")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: vkdemo [flags]\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nThe embedded shaders are compiled by running go generate in the vkrender\n"+
		"package, which needs glslc. Without them, set shader_dir in the config\n"+
		"to a directory of compiled .spv modules.\n")
}

func main() {
	flag.Usage = usage
	flag.Parse()
	logx.UserLevel = logx.LevelFromFlags(*vv, *v, *q)
	logx.SetDefaultLogger()
	if err := run(); err != nil {
		slog.Error("vkdemo", "err", err)
		os.Exit(1)
	}
}

// app is the state of the running demo.
type app struct {
	cfg    Config
	path   string
	win    *vkdriver.Window
	driver *vkdriver.Driver
	r      *vkrender.Renderer
	scene  Scene
	out    *termenv.Output

	resized    bool
	screenshot bool
	resets     int
}

func run() error {
	a := &app{out: termenv.NewOutput(os.Stdout)}
	a.path = *configFile
	if a.path == "" {
		a.path = errors.Log1(ConfigPath())
	}
	cfg, err := LoadConfig(a.path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if *imageFile != "" {
		a.cfg.Image = *imageFile
	}
	if !*vv && !*v && !*q {
		logx.UserLevel = a.cfg.Level()
		logx.SetDefaultLogger()
	}
	a.scene.Clear, err = a.cfg.Color()
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()
	if err := a.open(); err != nil {
		return err
	}
	defer a.close()

	stop := make(chan struct{})
	defer close(stop)
	reload, err := WatchConfig(a.path, stop)
	if err != nil {
		slog.Warn("config file is not watched", "path", a.path, "err", err)
	}
	return a.loop(reload)
}

// open creates the window, the renderer and the texture.
func (a *app) open() error {
	win, err := vkdriver.OpenWindow(a.cfg.Title, a.cfg.Width, a.cfg.Height)
	if err != nil {
		return err
	}
	a.win = win
	win.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		a.resized = true
	})
	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyS:
			a.screenshot = true
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		}
	})

	opts := a.cfg.Options()
	if a.cfg.ShaderDir != "" {
		opts.Shaders = os.DirFS(a.cfg.ShaderDir)
	}
	a.driver = vkdriver.New()
	a.r, err = vkrender.CreateRenderer(a.driver, win, vkrender.ColorspaceSRGB, opts)
	if err != nil {
		return err
	}
	a.status("device", a.r.DeviceName())
	a.status("output", fmt.Sprint(a.r.OutputSize()))
	return a.loadTexture()
}

// loadTexture uploads the configured image into a new texture.
func (a *app) loadTexture() error {
	if a.scene.Texture != nil {
		errors.Log(a.r.DestroyTexture(a.scene.Texture))
		a.scene.Texture = nil
	}
	if a.cfg.Image == "" {
		return nil
	}
	img, err := imgio.Open(a.cfg.Image)
	if err != nil {
		return err
	}
	b := img.Bounds()
	tex, err := a.r.CreateTexture(b.Dx(), b.Dy(), vkrender.PixelFormatABGR8888, vkrender.TextureStatic)
	if err != nil {
		return err
	}
	tex.SetScaleMode(vkrender.ScaleLinear)
	if err := a.r.UpdateTextureFromImage(tex, image.Rectangle{}, img); err != nil {
		errors.Log(a.r.DestroyTexture(tex))
		return err
	}
	a.scene.Texture = tex
	return nil
}

func (a *app) close() {
	if a.r != nil {
		a.r.Destroy()
		if n := a.driver.Live(); n > 0 {
			slog.Warn("objects left after destroy", "count", n)
		}
	}
	if a.win != nil {
		a.win.Destroy()
	}
}

// status prints a labeled line to stdout.
func (a *app) status(label, value string) {
	fmt.Fprintf(a.out, "%s %s\n", a.out.String(label+":").Bold().Foreground(a.out.Color("4")), value)
}

// apply updates the running demo for a reloaded config.
func (a *app) apply(cfg Config) {
	if c, err := cfg.Color(); err == nil {
		a.scene.Clear = c
	} else {
		errors.Log(err)
	}
	if cfg.VSyncOn() != a.r.VSync() {
		if err := a.r.SetVSync(cfg.VSyncOn()); err != nil {
			errors.Log(err)
		} else {
			a.status("vsync", fmt.Sprint(cfg.VSyncOn()))
		}
	}
	img := cfg.Image
	if *imageFile != "" {
		img = *imageFile
	}
	changed := img != a.cfg.Image
	a.cfg = cfg
	a.cfg.Image = img
	if changed {
		errors.Log(a.loadTexture())
	}
	if !*vv && !*v && !*q {
		logx.UserLevel = cfg.Level()
		logx.SetDefaultLogger()
	}
}

func (a *app) loop(reload <-chan Config) error {
	start := time.Now()
	fpsStart, fpsCount := start, 0
	for n := 0; *frames == 0 || n < *frames; n++ {
		if a.win.ShouldClose() {
			break
		}
		glfw.PollEvents()
		select {
		case cfg, ok := <-reload:
			if ok {
				a.apply(cfg)
			}
		default:
		}

		w, h := a.win.FramebufferSize()
		if w == 0 || h == 0 {
			// minimized
			glfw.WaitEvents()
			continue
		}
		if a.resized {
			a.resized = false
			if err := a.r.WindowSizeChanged(); err != nil {
				return err
			}
		}

		last := *frames > 0 && n == *frames-1
		if err := a.frame(time.Since(start), last && *shot); err != nil {
			return err
		}

		fpsCount++
		if d := time.Since(fpsStart); d > 10*time.Second {
			a.status("fps", fmt.Sprintf("%.0f", float64(fpsCount)/d.Seconds()))
			fpsStart, fpsCount = time.Now(), 0
		}
	}
	return nil
}

// frame renders and presents one frame.
func (a *app) frame(t time.Duration, save bool) error {
	cl := a.scene.Frame(a.r.OutputSize(), float32(t.Seconds()))
	if err := a.r.RunCommandQueue(cl.First, cl.Vertices); err != nil {
		if !vkrender.IsDeviceLost(err) {
			errors.Log(err)
		}
	}
	if save || a.screenshot {
		a.screenshot = false
		errors.Log(a.saveScreenshot())
	}
	err := a.r.RenderPresent()
	if n := a.r.DeviceResets(); n != a.resets {
		// the device was recreated and took the textures with it
		a.resets = n
		a.scene.Texture = nil
		slog.Warn("device reset", "count", n)
		errors.Log(a.loadTexture())
		return nil
	}
	return err
}

func (a *app) saveScreenshot() error {
	img, err := a.r.ReadPixels(image.Rectangle{})
	if err != nil {
		return err
	}
	if err := imgio.Save(a.cfg.Screenshot, img, imgio.PNGEncoder()); err != nil {
		return err
	}
	a.status("screenshot", a.cfg.Screenshot)
	return nil
}
