package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/cactusdynamics/csvplot"
)

type cliOptions struct {
	Title     string   `long:"title" description:"Chart title (default: the source file name)"`
	YUnit     string   `long:"y-unit" choice:"percent" choice:"proportion" description:"Y axis unit (default: percent)"`
	XLabels   []string `long:"x-label" description:"Explicit x axis label; repeat once per column, in column order"`
	Options   string   `long:"options" description:"TOML options file (title, label maps, y unit, colors)"`
	Serve     bool     `long:"serve" description:"Serve a live browser preview after rendering"`
	Port      int      `long:"port" default:"8274" description:"Preview server port"`
	NoBrowser bool     `long:"no-browser" description:"Do not open the preview in a browser"`
	Verbose   bool     `short:"v" long:"verbose" description:"Enable debug logging"`

	Args struct {
		Source string `positional-arg-name:"SOURCE" description:"CSV or XLSX table: header row = categories, first column = series keys"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	var opts cliOptions
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		os.Exit(1)
	}

	if opts.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	renderOptions, err := buildRenderOptions(opts)
	if err != nil {
		logrus.Fatal(err)
	}

	output, err := csvplot.Render(opts.Args.Source, renderOptions)
	if err != nil {
		logrus.Fatal(err)
	}
	fmt.Printf("chart saved to %s\n", output)

	if !opts.Serve {
		return
	}

	hub := csvplot.NewReloadHub()
	watcher := csvplot.NewSourceWatcher(opts.Args.Source, renderOptions, time.Second, hub)
	watcher.Start(context.Background())

	addr := fmt.Sprintf("localhost:%d", opts.Port)
	server := csvplot.NewPreviewServer(hub, addr, opts.Args.Source, output, renderOptions)
	if !opts.NoBrowser {
		csvplot.OpenBrowser("http://" + addr)
	}
	if err := server.Run(); err != nil {
		logrus.Fatal(err)
	}
}

// buildRenderOptions merges the options file (if any) with flags; flags win.
func buildRenderOptions(opts cliOptions) (csvplot.RenderOptions, error) {
	var renderOptions csvplot.RenderOptions

	if opts.Options != "" {
		loaded, err := csvplot.LoadRenderOptions(opts.Options)
		if err != nil {
			return csvplot.RenderOptions{}, err
		}
		renderOptions = loaded
	}

	if opts.Title != "" {
		renderOptions.Title = opts.Title
	}
	if labels := csvplot.Filter(opts.XLabels, func(s string) bool { return s != "" }); len(labels) > 0 {
		renderOptions.XLabels = csvplot.ExplicitLabels(labels)
	}
	if opts.YUnit != "" {
		unit, err := csvplot.ParseYUnit(opts.YUnit)
		if err != nil {
			return csvplot.RenderOptions{}, err
		}
		renderOptions.YUnit = unit
	}

	return renderOptions, nil
}
