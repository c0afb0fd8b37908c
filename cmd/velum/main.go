package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"velum/pkg/css"
	"velum/pkg/html"
	"velum/pkg/layout"
	"velum/pkg/resource"
	"velum/pkg/text"
)

func main() {
	width := flag.Float64("width", 800, "viewport width in pixels")
	height := flag.Float64("height", 600, "viewport height in pixels")
	verbose := flag.Bool("v", false, "log layout diagnostics to stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: velum [flags] <file-or-url>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	source, fetcher, err := load(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "velum: %v\n", err)
		os.Exit(1)
	}

	doc := html.ParseWithLogger(source, logger)
	if doc.Title != "" {
		fmt.Printf("title: %s\n", doc.Title)
	}

	sheet := &css.Stylesheet{}
	for _, src := range doc.Stylesheets {
		sheet.Items = append(sheet.Items, css.ParseStylesheet(src).Items...)
	}
	for _, href := range doc.StylesheetLinks {
		src, err := resource.FetchCSS(fetcher, href)
		if err != nil {
			fmt.Fprintf(os.Stderr, "velum: stylesheet %s: %v\n", href, err)
			continue
		}
		sheet.Items = append(sheet.Items, css.ParseStylesheet(src).Items...)
	}

	engine := layout.NewEngine(layout.Viewport{Width: *width, Height: *height}, text.NewGGMeasurer())
	engine.SetLogger(logger)
	box := engine.Layout(doc.Tree, sheet)

	fmt.Print(box.Dump(doc.Tree))
}

// load reads the document from a URL or a local file. The returned fetcher
// resolves stylesheet links relative to the document.
func load(input string) (string, resource.Fetcher, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		fetcher := resource.NewHTTPFetcher(input)
		body, _, err := fetcher.Fetch(input)
		if err != nil {
			return "", nil, err
		}
		return string(body), fetcher, nil
	}
	body, err := os.ReadFile(input)
	if err != nil {
		return "", nil, err
	}
	return string(body), resource.NewHTTPFetcher(""), nil
}
