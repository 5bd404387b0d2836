package reporting

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/testmux/testmux/types"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// WriteHTML renders the result tree through the embedded report template and
// writes the page to path.
func WriteHTML(tree *types.ResultRoot, path string) error {
	tmpl, err := template.New("report.html.tmpl").
		Funcs(template.FuncMap{"lower": strings.ToLower}).
		ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return fmt.Errorf("parsing report template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, tree); err != nil {
		return fmt.Errorf("rendering HTML report: %w", err)
	}
	return writeReport(path, buf.Bytes())
}
