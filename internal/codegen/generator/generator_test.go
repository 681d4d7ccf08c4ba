package generator

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	toml "github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"

	"github.com/Alia5/dynbind/internal/codegen/generator/cpp"
	"github.com/Alia5/dynbind/internal/codegen/meta"
	"github.com/Alia5/dynbind/internal/codegen/scanner"
	"github.com/Alia5/dynbind/internal/log"
)

const pointSource = `#pragma once
struct Point //@DYNAMIC_NAME(pt)
{
  int x; //@DYNAMIC_NAME(x)
  int y; //@DYNAMIC_NAME(y)
};
`

const selectorSource = `#pragma once
struct ScriptSelector               //@DYNAMIC_NAME(ScriptSelector)
{
  ScriptSelectorType scriptName;    //@DYNAMIC_NAME(Name)
  char label[16]; //@DYNAMIC_NAME(label) DYNAMIC_LEN(16)
};
`

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newTestGenerator(cfg Config) (*Generator, *bytes.Buffer) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg.Cpp.Guard == "" {
		cfg.Cpp = cpp.DefaultOptions()
	}
	return New(cfg, logger, log.NewReporter(&out)), &out
}

func TestGenerateEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.h":          pointSource,
		"b.cpp":        "int main() { return 0; }\n",
		"notes.txt":    "struct Ignored //@DYNAMIC_NAME(ignored)\nint x; //@DYNAMIC_NAME(x)\n",
		"sub/nested.h": "struct Nested //@DYNAMIC_NAME(n)\nint x; //@DYNAMIC_NAME(x)\n",
	})
	output := filepath.Join(dir, "interpreter_autocode.h")

	g, console := newTestGenerator(Config{Dirs: []string{dir}, Output: output, PrintSummary: true})
	require.NoError(t, g.Generate())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	header := string(data)

	assert.Contains(t, header, `#include "a.h"`)
	assert.NotContains(t, header, `#include "b.cpp"`)
	assert.NotContains(t, header, "Ignored")
	assert.NotContains(t, header, "Nested")
	assert.Contains(t, header, `std::array<std::string, 3>{ {"Point", "", "pt"} },`)
	assert.Contains(t, header, `std::array<std::string, 3>{ {"", "x", "Point_x"} },`)
	assert.Contains(t, header, `std::array<std::string, 3>{ {"", "y", "Point_y"} },`)

	lines := console.String()
	assert.Contains(t, lines, "Analyzing dir: "+dir+"\n")
	assert.Contains(t, lines, "Analyzing file: "+filepath.Join(dir, "a.h")+"\n")
	assert.Contains(t, lines, "Analyzing file: "+filepath.Join(dir, "b.cpp")+"\n")
	assert.NotContains(t, lines, "notes.txt")
	assert.Contains(t, lines, "Struct C(Point), PY(pt)\n\tMember C(x), PY(Point_x)\n\tMember C(y), PY(Point_y)\n")
}

func TestScanAllAcrossDirectories(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"geo/a.h":           pointSource,
		"interp/selector.h": selectorSource,
	})

	g, console := newTestGenerator(Config{
		Dirs:   []string{filepath.Join(root, "geo"), filepath.Join(root, "interp")},
		Output: filepath.Join(root, "out", "autocode.h"),
	})
	md, err := g.ScanAll()
	require.NoError(t, err)

	require.Len(t, md.Structs, 2)
	assert.Equal(t, "Point", md.Structs[0].NativeName)
	assert.Equal(t, "ScriptSelector", md.Structs[1].NativeName)
	assert.Equal(t, []string{filepath.Join(root, "geo", "a.h"), filepath.Join(root, "interp", "selector.h")}, md.AffectedFiles)
	assert.Equal(t, 2+4, md.TableSize())
	assert.NotContains(t, console.String(), "Struct C(")
}

func TestGenerateSkipsOwnOutput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "interpreter_autocode.h")
	writeFiles(t, dir, map[string]string{
		"a.h":                    pointSource,
		"interpreter_autocode.h": "struct Stale //@DYNAMIC_NAME(stale)\nint z; //@DYNAMIC_NAME(z)\n",
	})

	g, console := newTestGenerator(Config{Dirs: []string{dir}, Output: output})
	require.NoError(t, g.Generate())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Stale")
	assert.NotContains(t, console.String(), "Analyzing file: "+output)
}

func TestGenerateFailureKeepsPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out", "autocode.h")
	writeFiles(t, dir, map[string]string{
		"src/a.h":        pointSource,
		"src/orphan.h":   "int stray; //@DYNAMIC_NAME(stray)\n",
		"out/autocode.h": "previous\n",
	})

	g, _ := newTestGenerator(Config{Dirs: []string{filepath.Join(dir, "src")}, Output: output})
	err := g.Generate()
	require.Error(t, err)

	var se *scanner.ScanError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, filepath.Join(dir, "src", "orphan.h"), se.File)
	assert.Equal(t, 1, se.Line)

	data, readErr := os.ReadFile(output)
	require.NoError(t, readErr)
	assert.Equal(t, "previous\n", string(data))

	entries, readErr := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, readErr)
	assert.Len(t, entries, 1, "no temporary files may be left behind")
}

func TestGenerateModelFailureKeepsPreviousHeader(t *testing.T) {
	tests := []struct {
		name     string
		modelOut string
	}{
		{name: "unsupported format", modelOut: "model.xml"},
		{name: "missing directory", modelOut: filepath.Join("missing", "model.json")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			output := filepath.Join(dir, "out", "autocode.h")
			writeFiles(t, dir, map[string]string{
				"src/a.h":        pointSource,
				"out/autocode.h": "previous\n",
			})

			g, _ := newTestGenerator(Config{
				Dirs:     []string{filepath.Join(dir, "src")},
				Output:   output,
				ModelOut: filepath.Join(dir, "out", tt.modelOut),
			})
			require.Error(t, g.Generate())

			data, err := os.ReadFile(output)
			require.NoError(t, err)
			assert.Equal(t, "previous\n", string(data))

			entries, err := os.ReadDir(filepath.Join(dir, "out"))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "no temporary files may be left behind")
		})
	}
}

func TestGenerateWritesModel(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.h": pointSource})
	modelOut := filepath.Join(dir, "model.yaml")

	g, _ := newTestGenerator(Config{Dirs: []string{dir}, Output: filepath.Join(dir, "gen.h"), ModelOut: modelOut})
	require.NoError(t, g.Generate())

	data, err := os.ReadFile(modelOut)
	require.NoError(t, err)
	var got meta.Metadata
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got.Structs, 1)
	assert.Equal(t, "Point", got.Structs[0].NativeName)
	assert.FileExists(t, filepath.Join(dir, "gen.h"))
}

func TestGenerateOrphanIgnore(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.h":      pointSource,
		"orphan.h": "int stray; //@DYNAMIC_NAME(stray)\n",
	})

	g, _ := newTestGenerator(Config{
		Dirs:    []string{dir},
		Output:  filepath.Join(dir, "gen.h"),
		Scanner: scanner.Options{OrphanFields: scanner.OrphanIgnore},
	})
	require.NoError(t, g.Generate())
}

func TestGenerateFilesystemErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.h": pointSource})

	g, _ := newTestGenerator(Config{Dirs: []string{filepath.Join(dir, "missing")}, Output: filepath.Join(dir, "gen.h")})
	err := g.Generate()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	g, _ = newTestGenerator(Config{Dirs: []string{dir}, Output: filepath.Join(dir, "no", "such", "dir", "gen.h")})
	err = g.Generate()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	g, _ := newTestGenerator(Config{Dirs: []string{t.TempDir()}})
	assert.Error(t, g.Generate())

	g, _ = newTestGenerator(Config{Dirs: []string{t.TempDir()}, Output: "gen.h", Patterns: []string{"[*.h"}})
	assert.Error(t, g.Generate())
}

func TestGeneratePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.inl": pointSource,
		"b.h":   selectorSource,
	})

	g, _ := newTestGenerator(Config{Dirs: []string{dir}, Output: filepath.Join(dir, "gen.h"), Patterns: []string{"*.{inl,ipp}"}})
	md, err := g.ScanAll()
	require.NoError(t, err)
	require.Len(t, md.Structs, 1)
	assert.Equal(t, "Point", md.Structs[0].NativeName)
}

func TestWriteModel(t *testing.T) {
	dir := t.TempDir()
	md := &meta.Metadata{
		Structs: []scanner.StructDescriptor{{
			NativeName:   "Point",
			ExternalName: "pt",
			File:         "a.h",
			Line:         2,
			Fields: []scanner.FieldDescriptor{
				{NativeMemberName: "name", ExternalFieldKey: "Point_name", RawName: "name", MaxLength: 8, Line: 3},
			},
		}},
		AffectedFiles: []string{"a.h"},
	}

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "model.json")
		require.NoError(t, WriteModel(path, md))
		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var got meta.Metadata
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, *md, got)
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "model.yaml")
		require.NoError(t, WriteModel(path, md))
		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var got meta.Metadata
		require.NoError(t, yaml.Unmarshal(data, &got))
		assert.Equal(t, *md, got)
	})

	t.Run("toml", func(t *testing.T) {
		path := filepath.Join(dir, "model.toml")
		require.NoError(t, WriteModel(path, md))
		data, err := os.ReadFile(path)
		require.NoError(t, err)

		tree, err := toml.LoadBytes(data)
		require.NoError(t, err)
		assert.True(t, tree.Has("affectedFiles"))
		assert.True(t, tree.Has("structs"))
		assert.Contains(t, string(data), "Point_name")
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Error(t, WriteModel(filepath.Join(dir, "model.xml"), md))
	})
}
