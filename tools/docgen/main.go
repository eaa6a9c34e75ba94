// Command docgen renders the markdown pages in docs/ into standalone HTML
// files for the project site.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} — searchdate</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
body { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; font-family: system-ui, sans-serif; line-height: 1.6; }
pre { padding: 1rem; overflow-x: auto; border-radius: 6px; }
code { font-size: 0.9em; }
nav a { margin-right: 1rem; }
</style>
</head>
<body>
<nav>{{range .Nav}}<a href="{{.Href}}">{{.Title}}</a>{{end}}</nav>
<main>{{.Content}}</main>
</body>
</html>
`

// NavItem is a single top navigation link.
type NavItem struct {
	Title string
	Href  string
}

// PageData is the template data for rendering a docs page.
type PageData struct {
	Title   string
	Nav     []NavItem
	Content template.HTML
}

var (
	firstHeadingPattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	mdLinkPattern       = regexp.MustCompile(`href="([^"]+)\.md"`)
)

func main() {
	docsDir := flag.String("docs", "docs", "path to docs directory")
	outDir := flag.String("out", "web", "output directory for rendered HTML")
	flag.Parse()

	entries, err := os.ReadDir(*docsDir)
	if err != nil {
		fatal("reading docs dir: %v", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Linkify,
			extension.Strikethrough,
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
				highlighting.WithFormatOptions(),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	tmpl := template.Must(template.New("page").Parse(pageTemplate))

	var pages []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") || strings.HasPrefix(e.Name(), "_") {
			continue
		}
		pages = append(pages, e.Name())
	}

	nav := make([]NavItem, 0, len(pages))
	for _, page := range pages {
		data, err := os.ReadFile(filepath.Join(*docsDir, page))
		if err != nil {
			fatal("reading %s: %v", page, err)
		}
		nav = append(nav, NavItem{Title: extractTitle(string(data), page), Href: htmlName(page)})
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fatal("creating output dir: %v", err)
	}

	for _, page := range pages {
		mdPath := filepath.Join(*docsDir, page)
		mdData, err := os.ReadFile(mdPath)
		if err != nil {
			fatal("reading %s: %v", mdPath, err)
		}

		var contentBuf bytes.Buffer
		if err := md.Convert(mdData, &contentBuf); err != nil {
			fatal("converting %s: %v", page, err)
		}
		content := mdLinkPattern.ReplaceAllString(contentBuf.String(), `href="$1.html"`)

		var pageBuf bytes.Buffer
		err = tmpl.Execute(&pageBuf, PageData{
			Title:   extractTitle(string(mdData), page),
			Nav:     nav,
			Content: template.HTML(content),
		})
		if err != nil {
			fatal("executing template for %s: %v", page, err)
		}

		outPath := filepath.Join(*outDir, htmlName(page))
		if err := os.WriteFile(outPath, pageBuf.Bytes(), 0644); err != nil {
			fatal("writing %s: %v", outPath, err)
		}
		fmt.Printf("rendered %s -> %s\n", mdPath, outPath)
	}
}

// extractTitle returns the first level-1 heading, falling back to the
// file name.
func extractTitle(content, fallback string) string {
	if m := firstHeadingPattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSuffix(fallback, ".md")
}

func htmlName(page string) string {
	return strings.TrimSuffix(page, ".md") + ".html"
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "docgen: "+format+"\n", args...)
	os.Exit(1)
}
