package cmd

import (
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/Alia5/dynbind/internal/codegen/generator"
	"github.com/Alia5/dynbind/internal/codegen/generator/cpp"
	"github.com/Alia5/dynbind/internal/codegen/scanner"
	"github.com/Alia5/dynbind/internal/log"
)

type Generate struct {
	Dirs []string `arg:"" name:"dir" help:"Directories to scan for annotated sources (non-recursive)"`

	Output  string   `help:"Path of the generated mapper header" default:"interpreter_autocode.h" env:"DYNBIND_OUTPUT"`
	Pattern []string `help:"Source file name patterns (doublestar syntax)" default:"*.h,*.hh,*.hpp,*.cc,*.cpp,*.cxx" env:"DYNBIND_PATTERN"`

	Token         string `help:"Token marking an annotated line" default:"//@" env:"DYNBIND_TOKEN"`
	NameMarker    string `help:"Marker carrying the external name" default:"DYNAMIC_NAME" env:"DYNBIND_NAME_MARKER"`
	LenMarker     string `help:"Marker carrying the capacity of a text buffer" default:"DYNAMIC_LEN" env:"DYNBIND_LEN_MARKER"`
	StructKeyword string `help:"Keyword introducing a struct declaration" default:"struct" env:"DYNBIND_STRUCT_KEYWORD"`
	OrphanFields  string `help:"Handling of field annotations outside an annotated struct" enum:"error,ignore" default:"error" env:"DYNBIND_ORPHAN_FIELDS"`
	KeyPrefix     string `help:"Struct name used to qualify external field keys" enum:"native,external" default:"native" env:"DYNBIND_KEY_PREFIX"`

	Guard     string   `help:"Include guard macro of the generated header" default:"INTERPRETER_AUTOCODE_H" env:"DYNBIND_GUARD"`
	Namespace []string `help:"Namespaces enclosing the generated code, outermost first" default:"Interpreter,AutoCode" env:"DYNBIND_NAMESPACE"`
	Table     string   `help:"Name of the global lookup table" default:"DYN_STRUCTS" env:"DYNBIND_TABLE"`

	ModelOut string `help:"Also write the scanned model to this file (.json, .yaml or .toml)" env:"DYNBIND_MODEL_OUT"`
	Summary  string `help:"Print discovered structs: auto prints only on a terminal" enum:"auto,always,never" default:"auto" env:"DYNBIND_SUMMARY"`
}

var stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// Run is called by Kong when the generate command is executed.
func (g *Generate) Run(logger *slog.Logger, reporter log.Reporter) error {
	cfg := g.config()
	logger.Info("Starting mapper generation", "dirs", cfg.Dirs, "output", cfg.Output)
	return generator.New(cfg, logger, reporter).Generate()
}

func (g *Generate) config() generator.Config {
	summary := false
	switch g.Summary {
	case "always":
		summary = true
	case "auto":
		summary = stdoutIsTerminal()
	}

	return generator.Config{
		Dirs:     g.Dirs,
		Output:   g.Output,
		Patterns: g.Pattern,
		Scanner: scanner.Options{
			Syntax: scanner.Syntax{
				Token:         g.Token,
				NameMarker:    g.NameMarker,
				LenMarker:     g.LenMarker,
				StructKeyword: g.StructKeyword,
			},
			OrphanFields: scanner.OrphanPolicy(g.OrphanFields),
			KeyPrefix:    scanner.KeyPrefix(g.KeyPrefix),
		},
		Cpp: cpp.Options{
			Guard:      g.Guard,
			Namespaces: g.Namespace,
			TableName:  g.Table,
		},
		ModelOut:     g.ModelOut,
		PrintSummary: summary,
	}
}
