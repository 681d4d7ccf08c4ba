package generator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/Alia5/dynbind/internal/codegen/generator/cpp"
	"github.com/Alia5/dynbind/internal/codegen/meta"
	"github.com/Alia5/dynbind/internal/codegen/scanner"
	"github.com/Alia5/dynbind/internal/log"
)

// DefaultPatterns are the file name patterns scanned when none are configured.
var DefaultPatterns = []string{"*.h", "*.hh", "*.hpp", "*.cc", "*.cpp", "*.cxx"}

// Config is everything one generator run needs.
type Config struct {
	Dirs         []string        // Directories to scan, non-recursive
	Output       string          // Path of the generated header
	Patterns     []string        // Base name patterns (doublestar syntax)
	Scanner      scanner.Options // Annotation syntax and policies
	Cpp          cpp.Options     // Header wrapping
	ModelOut     string          // Optional dump of the scanned model
	PrintSummary bool            // Print every struct and member after scanning
}

type Generator struct {
	cfg      Config
	logger   *slog.Logger
	reporter log.Reporter
}

func New(cfg Config, logger *slog.Logger, reporter log.Reporter) *Generator {
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = DefaultPatterns
	}
	return &Generator{
		cfg:      cfg,
		logger:   logger,
		reporter: reporter,
	}
}

// Generate scans every configured directory and writes the mapper header,
// plus the model dump when configured. Either every output is replaced or
// none is.
func (g *Generator) Generate() error {
	if g.cfg.Output == "" {
		return errors.New("no output file configured")
	}
	for _, p := range g.cfg.Patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid file pattern %q", p)
		}
	}

	g.reporter.Printf("Executing pre-build step...")

	md, err := g.ScanAll()
	if err != nil {
		return err
	}

	if g.cfg.PrintSummary {
		g.printSummary(md)
	}

	content, err := cpp.Render(g.logger, g.cfg.Output, md, g.cfg.Cpp)
	if err != nil {
		return fmt.Errorf("render %s: %w", g.cfg.Output, err)
	}

	files := []pendingFile{{path: g.cfg.Output, data: content}}
	if g.cfg.ModelOut != "" {
		model, err := marshalModel(g.cfg.ModelOut, md)
		if err != nil {
			return err
		}
		files = append(files, pendingFile{path: g.cfg.ModelOut, data: model})
	}

	if err := writeFilesAtomic(files...); err != nil {
		return err
	}
	g.logger.Info("Generated mapper header",
		"file", g.cfg.Output,
		"structs", len(md.Structs),
		"fields", md.FieldCount(),
		"tableRows", md.TableSize())
	if g.cfg.ModelOut != "" {
		g.logger.Info("Wrote scanned model", "file", g.cfg.ModelOut)
	}
	return nil
}

// ScanAll scans the configured directories in order and returns the model.
func (g *Generator) ScanAll() (*meta.Metadata, error) {
	s, err := scanner.New(g.cfg.Scanner)
	if err != nil {
		return nil, err
	}

	outputAbs := ""
	if g.cfg.Output != "" {
		if abs, err := filepath.Abs(g.cfg.Output); err == nil {
			outputAbs = abs
		}
	}

	for _, dir := range g.cfg.Dirs {
		g.reporter.Printf("Analyzing dir: %s", dir)

		files, err := g.sourceFiles(dir, outputAbs)
		if err != nil {
			return nil, err
		}
		g.logger.Debug("Listed source files", "dir", dir, "count", len(files))

		for _, path := range files {
			g.reporter.Printf("Analyzing file: %s", path)
			n, err := s.ScanFile(path)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				g.logger.Debug("Found annotated structs", "file", path, "count", n)
			}
		}
	}

	res := s.Result()
	for _, e := range res.EmptyStructs {
		g.logger.Warn("Dropping annotated struct without annotated fields", "struct", e)
	}
	for _, o := range res.OrphanFields {
		g.logger.Debug("Ignoring field annotation outside of a struct", "field", o)
	}
	g.logger.Info("Scan complete", "structs", len(res.Structs), "affectedFiles", len(res.AffectedFiles))

	return &meta.Metadata{
		Structs:       res.Structs,
		AffectedFiles: res.AffectedFiles,
	}, nil
}

// sourceFiles lists the regular files directly in dir whose base name matches
// a configured pattern, skipping the output file itself.
func (g *Generator) sourceFiles(dir, outputAbs string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			g.logger.Debug("Skipping dangling entry", "path", path)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if !g.matches(entry.Name()) {
			continue
		}
		if outputAbs != "" {
			if abs, err := filepath.Abs(path); err == nil && abs == outputAbs {
				continue
			}
		}
		files = append(files, path)
	}
	return files, nil
}

func (g *Generator) matches(name string) bool {
	for _, p := range g.cfg.Patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func (g *Generator) printSummary(md *meta.Metadata) {
	for _, s := range md.Structs {
		g.reporter.Printf("Struct C(%s), PY(%s)", s.NativeName, s.ExternalName)
		for _, f := range s.Fields {
			if f.Bounded() {
				g.reporter.Printf("\tMember C(%s), PY(%s), LEN(%d)", f.NativeMemberName, f.ExternalFieldKey, f.MaxLength)
				continue
			}
			g.reporter.Printf("\tMember C(%s), PY(%s)", f.NativeMemberName, f.ExternalFieldKey)
		}
	}
}

type pendingFile struct {
	path string
	data []byte
}

// writeFilesAtomic writes every file to a temporary sibling first and only
// renames them into place once all of them were written, so a failure
// leaves every previous file untouched.
func writeFilesAtomic(files ...pendingFile) error {
	staged := make([]string, 0, len(files))
	discard := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	for _, f := range files {
		tmp, err := stageFile(f.path, f.data)
		if err != nil {
			discard()
			return err
		}
		staged = append(staged, tmp)
	}

	for i, f := range files {
		if err := os.Rename(staged[i], f.path); err != nil {
			staged = staged[i:]
			discard()
			return fmt.Errorf("replace %s: %w", f.path, err)
		}
	}
	return nil
}

func stageFile(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temporary file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("chmod %s: %w", path, err)
	}
	return tmpName, nil
}

// WriteModel dumps md to path as JSON, YAML or TOML depending on the extension.
func WriteModel(path string, md *meta.Metadata) error {
	data, err := marshalModel(path, md)
	if err != nil {
		return err
	}
	return writeFilesAtomic(pendingFile{path: path, data: data})
}

func marshalModel(path string, md *meta.Metadata) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(md)
		data = buf.Bytes()
	case ".yaml", ".yml":
		data, err = yaml.Marshal(md)
	case ".toml":
		data, err = toml.Marshal(*md)
	default:
		return nil, fmt.Errorf("unsupported model format %q (expected .json, .yaml or .toml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal model: %w", err)
	}
	return data, nil
}
