// GoMockup — Design-to-mockup compositing.
//
// Usage:
//
//	gomockup render -design <path> (-template <path> | -product <id> | -base <path>) -o <file>
//	gomockup serve [-listen :8080] [-loglevel info]
//	gomockup import -bundle <zip> [-dest <dir>]
//	gomockup sweep [-dir <path>] [-older-than 24h]
//	gomockup fonts
//	gomockup init
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoMockup/clients/server"
	"github.com/xob0t/GoMockup/pkg/config"
	"github.com/xob0t/GoMockup/pkg/design"
	"github.com/xob0t/GoMockup/pkg/generator"
	"github.com/xob0t/GoMockup/pkg/mockup"
	"github.com/xob0t/GoMockup/pkg/placement"
	"github.com/xob0t/GoMockup/pkg/scratch"
	"github.com/xob0t/GoMockup/pkg/store"
	"github.com/xob0t/GoMockup/pkg/template"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "render":
		err = runRender(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "sweep":
		err = runSweep(os.Args[2:])
	case "fonts":
		err = runFonts(os.Args[2:])
	case "init":
		err = runInit(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		fatal(err)
	}
}

// setupLogging applies level (falling back to info) and the text formatter.
func setupLogging(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)

	var (
		designPath   string
		templatePath string
		productID    string
		variationID  string
		basePath     string
		output       string
		rotation     float64
		scale        float64
	)

	fs.StringVar(&designPath, "design", "", "Path to design JSON")
	fs.StringVar(&templatePath, "template", "", "Path to a template record JSON")
	fs.StringVar(&productID, "product", "", "Product ID to resolve from the configured template store")
	fs.StringVar(&variationID, "variation", "", "Variation ID (with -product)")
	fs.StringVar(&basePath, "base", "", "Base image; overrides the template's basePath")
	fs.StringVar(&output, "o", "", "Output file path (.png, .jpg, ...)")
	fs.StringVar(&output, "output", "", "Output file path (.png, .jpg, ...)")
	fs.Float64Var(&rotation, "rotation", 0, "Counter-clockwise rotation in degrees; overrides the template")
	fs.Float64Var(&scale, "scale", 1, "Scale factor; overrides the template")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if designPath == "" || output == "" {
		return fmt.Errorf("-design and -o are required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	// Template: file, store or bare base image.
	rec := &template.Record{}
	switch {
	case templatePath != "":
		if rec, err = template.ParseRecordFile(templatePath); err != nil {
			return err
		}
	case productID != "":
		templates, err := store.Open(cfg)
		if err != nil {
			return err
		}
		if c, ok := templates.(io.Closer); ok {
			defer c.Close()
		}
		if rec, err = template.Resolve(ctx, templates, productID, variationID); err != nil {
			return err
		}
	}

	if basePath != "" {
		rec.BasePath = basePath
	}
	if rec.BasePath == "" {
		return fmt.Errorf("no base image: pass -template, -product or -base")
	}

	spec := rec.Placement
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rotation":
			spec.Rotation = placement.Float(rotation)
		case "scale":
			spec.Scale = placement.Float(scale)
		}
	})

	designData, err := os.ReadFile(designPath)
	if err != nil {
		return fmt.Errorf("read design: %w", err)
	}
	base, err := imaging.Open(rec.BasePath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open base image: %w", err)
	}

	r, err := mockup.NewRasterizer(cfg)
	if err != nil {
		return err
	}
	filter, err := placement.FilterByName(cfg.ResampleFilter)
	if err != nil {
		return err
	}
	renderer := &mockup.Renderer{Rasterizer: r, Filter: filter, MaxDimension: cfg.MaxCanvasDimension}

	fmt.Printf("Rendering: %s\n", designPath)
	img, warnings, err := renderer.Render(ctx, designData, base, spec)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	if err != nil {
		return err
	}

	if err := generator.Generate(output, img, generator.Config{JPEGQuality: cfg.JPEGQuality}); err != nil {
		return err
	}
	fmt.Printf("Done: %s\n", output)
	return nil
}

func runServe(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address")
	fs.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	return server.RunServe(cfg)
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	var bundle, dest string
	fs.StringVar(&bundle, "bundle", "", "Template bundle (.zip with templates.json)")
	fs.StringVar(&dest, "dest", "./data/bases", "Directory to extract base images into")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if bundle == "" {
		return fmt.Errorf("-bundle is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	records, err := template.ImportBundle(bundle, dest)
	if err != nil {
		return err
	}

	templates, err := store.Open(cfg)
	if err != nil {
		return err
	}
	if c, ok := templates.(io.Closer); ok {
		defer c.Close()
	}

	ctx := context.Background()
	for _, rec := range records {
		for _, w := range template.Validate(rec) {
			fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", rec.Key(), w)
		}
		if err := templates.Save(ctx, rec); err != nil {
			return fmt.Errorf("save %s: %w", rec.Key(), err)
		}
	}

	fmt.Printf("Imported %d templates into %s store\n", len(records), cfg.TemplateStore)
	return nil
}

func runSweep(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	dir := fs.String("dir", cfg.TempDir, "Temp directory holding mockups")
	olderThan := fs.Duration("older-than", cfg.Retention, "Remove mockups older than this")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	removed, err := scratch.Sweep(*dir, *olderThan, time.Now())
	for _, name := range removed {
		fmt.Printf("Removed: %s\n", name)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Done: %d files removed\n", len(removed))
	return nil
}

func runFonts(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	r, err := mockup.NewRasterizer(cfg)
	if err != nil {
		return err
	}
	fonts := r.Fonts()
	for _, key := range fonts.Keys() {
		if key == fonts.Default() {
			fmt.Printf("%s (default)\n", key)
			continue
		}
		fmt.Println(key)
	}
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var dir string
	fs.StringVar(&dir, "dir", ".", "Directory for the sample files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	designOut := filepath.Join(dir, "design.json")
	templateOut := filepath.Join(dir, "template.json")
	baseOut := filepath.Join(dir, "base.png")

	if err := os.WriteFile(designOut, []byte(design.ExampleJSON()), 0644); err != nil {
		return fmt.Errorf("write design: %w", err)
	}
	if err := os.WriteFile(templateOut, []byte(template.ExampleJSON()), 0644); err != nil {
		return fmt.Errorf("write template: %w", err)
	}

	bg, err := generator.ParseColor("#f2f2f2")
	if err != nil {
		return err
	}
	if err := generator.Generate(baseOut, generator.NewSolidImage(1200, 1200, bg), generator.Config{}); err != nil {
		return err
	}

	fmt.Printf("Created: %s, %s, %s\n", designOut, templateOut, baseOut)
	fmt.Println("Run: gomockup render -design design.json -template template.json -o mockup.png")
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`GoMockup — Design-to-Mockup Compositing (Pure Go)

USAGE:
    gomockup render -design <path> -template <path> -o <file>
    gomockup render -design <path> -product <id> [-variation <id>] -o <file>
    gomockup render -design <path> -base <image> [-rotation <deg>] [-scale <f>] -o <file>
    gomockup serve [-listen :8080] [-loglevel info]
    gomockup import -bundle <zip> [-dest <dir>]
    gomockup sweep [-dir <path>] [-older-than 24h]
    gomockup fonts
    gomockup init [-dir <path>]

RENDER:
    -design <path>         Design JSON (canvas size + objects)
    -template <path>       Template record JSON (basePath + placement)
    -product, -variation   Resolve the template from the configured store
    -base <path>           Base image; overrides the template's basePath
    -rotation <deg>        Counter-clockwise rotation; overrides the template
    -scale <f>             Scale factor; overrides the template
    -o, -output <path>     Output file (.png, .jpg, .gif, .tiff, .bmp)

CONFIGURATION:
    Read from the environment and an optional .env file: LISTEN_ADDR,
    TEMP_DIR, TEMP_URL, FONTS_DIR, DEFAULT_FONT, TEMPLATE_STORE,
    TEMPLATE_STORE_PATH, S3_BUCKET, ...

EXAMPLES:
    gomockup init
    gomockup render -design design.json -template template.json -o mockup.png
    gomockup render -design design.json -base shirt.jpg -rotation 15 -o mockup.jpg
    TEMPLATE_STORE=sqlite gomockup import -bundle templates.zip
    gomockup serve -listen :9000
`)
}
