// gltfinfo is a CLI utility that loads glTF assets into a headless engine and
// reports what the loader produced.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Faultbox/gltfio/internal/config"
	"github.com/Faultbox/gltfio/internal/engine/headless"
	"github.com/Faultbox/gltfio/internal/logger"
	"github.com/Faultbox/gltfio/internal/resources"
	"github.com/Faultbox/gltfio/pkg/gltfio"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "nodes", "tree":
		cmdNodes(args)
	case "bindings", "b":
		cmdBindings(args)
	case "anim", "animations":
		cmdAnim(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`gltfinfo - glTF asset loader inspection utility

Usage:
  gltfinfo <command> [options] <file>

Commands:
  info <file>                  Show asset summary and diagnostics
  nodes <file>                 Print the entity hierarchy
  bindings <file>              List buffer and texture bindings
  anim [-t seconds] <file>     List animations, optionally sampling one pose

Options (all commands):
  -config <path>               Config file (loader defaults)
  -debug                       Enable debug logging

Examples:
  gltfinfo info scene.gltf
  gltfinfo nodes robot.glb
  gltfinfo anim -t 0.5 -i 0 walk.glb`)
}

// session is one loaded asset and the engine it lives in.
type session struct {
	engine    *headless.Engine
	loader    *gltfio.Loader
	resources *resources.Manager
	asset     gltfio.Asset
}

func newFlagSet(name string) (*flag.FlagSet, *string, *bool) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to config file")
	debug := fs.Bool("debug", false, "Enable debug logging")
	return fs, cfgPath, debug
}

func open(name string, fs *flag.FlagSet, cfgPath string, debug bool) *session {
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: gltfinfo %s <file>\n", name)
		os.Exit(1)
	}

	cfg, err := config.LoadFile(cfgPath)
	if err != nil {
		fatal(err)
	}
	level := "warn"
	if debug {
		level = "debug"
	}
	if err := logger.Init(level, cfg.Logging.LogFile); err != nil {
		fatal(err)
	}

	s := &session{
		engine:    headless.New(),
		resources: resources.NewManager(cfg.Resources.BasePath),
	}
	s.loader = gltfio.NewLoader(s.engine,
		gltfio.WithShadows(cfg.Loader.CastShadows, cfg.Loader.ReceiveShadows),
		gltfio.WithBounds(cfg.Loader.ComputeBounds),
	)
	s.asset, err = s.resources.OpenAsset(s.loader, fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	return s
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdInfo(args []string) {
	fs, cfgPath, debug := newFlagSet("info")
	fs.Parse(args)
	s := open("info", fs, *cfgPath, *debug)
	defer logger.Sync()

	a := s.asset
	stats := s.engine.Stats()
	box := a.BoundingBox()

	fmt.Printf("Asset:       %s\n", fs.Arg(0))
	fmt.Printf("Entities:    %d\n", len(a.Entities()))
	fmt.Printf("Renderables: %d\n", len(a.Renderables()))
	fmt.Printf("Materials:   %d instances, %d variants\n", len(a.MaterialInstances()), stats.MaterialVariants)
	fmt.Printf("Buffers:     %d vertex, %d index\n", stats.VertexBuffers, stats.IndexBuffers)
	fmt.Printf("Bindings:    %d buffer, %d texture\n", len(a.BufferBindings()), len(a.TextureBindings()))
	if box.IsEmpty() {
		fmt.Println("Bounds:      (empty)")
	} else {
		fmt.Printf("Bounds:      min %v max %v\n", box.Min, box.Max)
	}

	if doc := a.Source(); doc != nil {
		fmt.Printf("Animations:  %d\n", len(doc.Animations))
	}

	warnings := a.Warnings()
	if len(warnings) == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("Warnings (%d):\n", len(warnings))
	for _, d := range warnings {
		fmt.Printf("  %s\n", d.Error())
	}
}

func cmdNodes(args []string) {
	fs, cfgPath, debug := newFlagSet("nodes")
	fs.Parse(args)
	s := open("nodes", fs, *cfgPath, *debug)
	defer logger.Sync()

	names := make(map[gltfio.Entity]string)
	if doc := s.asset.Source(); doc != nil {
		for i, n := range doc.Nodes {
			if e, ok := s.asset.NodeEntity(i); ok {
				names[e] = fmt.Sprintf("node %d %q", i, n.Name)
			}
		}
	}

	var walk func(e gltfio.Entity, depth int)
	walk = func(e gltfio.Entity, depth int) {
		label := names[e]
		if e == s.asset.Root() {
			label = "root"
		}
		line := fmt.Sprintf("%s%s [entity %d]", strings.Repeat("  ", depth), label, e)
		if r, ok := s.engine.Renderable(e); ok {
			line += fmt.Sprintf(" %d primitives", len(r.Primitives))
		}
		fmt.Println(line)
		for _, child := range s.engine.Children(e) {
			walk(child, depth+1)
		}
	}
	walk(s.asset.Root(), 0)
}

func cmdBindings(args []string) {
	fs, cfgPath, debug := newFlagSet("bindings")
	fs.Parse(args)
	s := open("bindings", fs, *cfgPath, *debug)
	defer logger.Sync()

	fmt.Println("Buffer bindings:")
	for _, b := range s.asset.BufferBindings() {
		target := fmt.Sprintf("vb %d slot %d", b.VertexBuffer, b.BufferIndex)
		if b.IsIndex() {
			target = fmt.Sprintf("ib %d", b.IndexBuffer)
		}
		fmt.Printf("  %-16s buffer %d %-24s offset %-8d size %d\n", target, b.Buffer, short(b.URI), b.Offset, b.Size)
	}

	tbs := s.asset.TextureBindings()
	if len(tbs) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Texture bindings:")
	for _, tb := range tbs {
		fmt.Printf("  %-22s image %d %-12s %s\n", tb.MaterialParameter, tb.Image, tb.MimeType, short(tb.URI))
	}
}

func cmdAnim(args []string) {
	fs, cfgPath, debug := newFlagSet("anim")
	at := fs.Float64("t", -1, "Sample the animation at this time (seconds)")
	index := fs.Int("i", 0, "Animation index to sample")
	fs.Parse(args)
	s := open("anim", fs, *cfgPath, *debug)
	defer logger.Sync()

	blobs, err := s.resources.Blobs(s.asset)
	if err != nil {
		fatal(err)
	}
	animator := gltfio.NewAnimator(s.asset, s.engine, gltfio.WithBlobs(blobs))

	for i := 0; i < animator.Count(); i++ {
		anim := animator.Animation(i)
		fmt.Printf("[%d] %q duration %.3fs, %d samplers, %d channels\n",
			i, anim.Name, anim.Duration, len(anim.Samplers), len(anim.Channels))
		for _, ch := range anim.Channels {
			smp := anim.Samplers[ch.Sampler]
			fmt.Printf("    node %-4d %-12s %-12s %d keys\n", ch.Node, ch.Path, smp.Interpolation, len(smp.Keys))
		}
	}

	if diags := animator.Diagnostics(); len(diags) > 0 {
		fmt.Println()
		fmt.Printf("Diagnostics (%d):\n", len(diags))
		for _, d := range diags {
			fmt.Printf("  %s: %s\n", d.Severity, d.Error())
		}
	}

	if *at < 0 || *index < 0 || *index >= animator.Count() {
		return
	}

	animator.Apply(*index, float32(*at))
	targets := make(map[gltfio.Entity]int)
	for _, ch := range animator.Animation(*index).Channels {
		targets[ch.Target] = ch.Node
	}
	entities := make([]gltfio.Entity, 0, len(targets))
	for e := range targets {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return targets[entities[i]] < targets[entities[j]] })

	fmt.Println()
	fmt.Printf("Pose at %.3fs:\n", *at)
	for _, e := range entities {
		local, _ := s.engine.LocalTransform(e)
		fmt.Printf("  node %-4d translation %v\n", targets[e], local.Col(3).Vec3())
	}
}

func short(uri string) string {
	if uri == "" {
		return "(embedded)"
	}
	if strings.HasPrefix(uri, "data:") {
		return "(data uri)"
	}
	return uri
}
