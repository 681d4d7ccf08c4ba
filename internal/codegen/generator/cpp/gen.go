package cpp

import (
	"bytes"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/Alia5/dynbind/internal/codegen/meta"
	"github.com/Alia5/dynbind/internal/codegen/scanner"
)

// Options controls the file-level wrapping of the generated header.
type Options struct {
	Guard      string   // Include guard macro (e.g., "INTERPRETER_AUTOCODE_H")
	Namespaces []string // Enclosing namespaces, outermost first
	TableName  string   // Name of the global lookup table
}

// DefaultOptions returns the wrapping expected by the interpreter runtime.
func DefaultOptions() Options {
	return Options{
		Guard:      "INTERPRETER_AUTOCODE_H",
		Namespaces: []string{"Interpreter", "AutoCode"},
		TableName:  "DYN_STRUCTS",
	}
}

func (o Options) validate() error {
	if !isIdentifier(o.Guard) {
		return fmt.Errorf("invalid include guard %q", o.Guard)
	}
	if !isIdentifier(o.TableName) {
		return fmt.Errorf("invalid table name %q", o.TableName)
	}
	for _, ns := range o.Namespaces {
		if !isIdentifier(ns) {
			return fmt.Errorf("invalid namespace %q", ns)
		}
	}
	return nil
}

// Render produces the complete mapper header for md. outputFile is the path
// the header will be written to; include directives are relative to it.
func Render(logger *slog.Logger, outputFile string, md *meta.Metadata, opts Options) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	tmpl := template.Must(template.New("autocode").Parse(autocodeTemplate))

	data := struct {
		Header     string
		Guard      string
		Includes   []string
		Namespaces []string
		Structs    []scanner.StructDescriptor
		TableName  string
		TableSize  int
		Table      []meta.TableRow
	}{
		Header:     writeFileHeader(),
		Guard:      opts.Guard,
		Includes:   includePaths(outputFile, md.AffectedFiles),
		Namespaces: opts.Namespaces,
		Structs:    md.Structs,
		TableName:  opts.TableName,
		TableSize:  md.TableSize(),
		Table:      md.Table(),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute autocode template: %w", err)
	}

	logger.Debug("Rendered mapper header",
		"structs", len(md.Structs),
		"fields", md.FieldCount(),
		"includes", len(data.Includes),
		"bytes", buf.Len())
	return buf.Bytes(), nil
}
