package scanner

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// FieldDescriptor represents one annotated struct member.
type FieldDescriptor struct {
	NativeMemberName string `json:"nativeMemberName" yaml:"nativeMemberName" toml:"nativeMemberName"` // Member identifier, subscript stripped (e.g., "buf")
	ExternalFieldKey string `json:"externalFieldKey" yaml:"externalFieldKey" toml:"externalFieldKey"` // Struct-qualified key (e.g., "Point_x")
	RawName          string `json:"rawName" yaml:"rawName" toml:"rawName"`                            // Annotated short name (e.g., "x")
	MaxLength        int    `json:"maxLength,omitempty" yaml:"maxLength,omitempty" toml:"maxLength,omitempty"`
	Line             int    `json:"line" yaml:"line" toml:"line"`
}

// Bounded reports whether the member is a fixed-capacity text buffer.
func (f FieldDescriptor) Bounded() bool { return f.MaxLength > 0 }

// StructDescriptor represents one annotated native struct.
type StructDescriptor struct {
	NativeName   string            `json:"nativeName" yaml:"nativeName" toml:"nativeName"`
	ExternalName string            `json:"externalName" yaml:"externalName" toml:"externalName"`
	Fields       []FieldDescriptor `json:"fields" yaml:"fields" toml:"fields"`
	File         string            `json:"file" yaml:"file" toml:"file"`
	Line         int               `json:"line" yaml:"line" toml:"line"`
}

// ScanError reports a malformed or out-of-context annotation.
type ScanError struct {
	File string
	Line int
	Msg  string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// OrphanPolicy decides what happens to field annotations seen while no
// struct is open.
type OrphanPolicy string

const (
	OrphanError  OrphanPolicy = "error"
	OrphanIgnore OrphanPolicy = "ignore"
)

// KeyPrefix selects which struct name qualifies external field keys.
type KeyPrefix string

const (
	KeyPrefixNative   KeyPrefix = "native"
	KeyPrefixExternal KeyPrefix = "external"
)

// Options configures a Scanner.
type Options struct {
	Syntax       Syntax
	OrphanFields OrphanPolicy
	KeyPrefix    KeyPrefix
}

// Result is everything a scan produced.
type Result struct {
	Structs       []StructDescriptor
	AffectedFiles []string // Files that contributed at least one struct, in discovery order
	EmptyStructs  []string // Struct annotations dropped because no field followed (e.g., "a.h:3 Foo")
	OrphanFields  []string // Field annotations skipped under OrphanIgnore (e.g., "a.h:1 x")
}

type state int

const (
	stateNoStruct state = iota
	stateStructOpen
)

// Scanner accumulates struct descriptors across files. It is not safe for
// concurrent use.
type Scanner struct {
	m    *matcher
	opts Options
	res  Result

	structAt map[string]string // native struct name -> location
	keyAt    map[string]string // external field key -> location
}

// New creates a Scanner. Zero-valued options fall back to the defaults.
func New(opts Options) (*Scanner, error) {
	if opts.Syntax == (Syntax{}) {
		opts.Syntax = DefaultSyntax()
	}
	if opts.OrphanFields == "" {
		opts.OrphanFields = OrphanError
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = KeyPrefixNative
	}
	switch opts.OrphanFields {
	case OrphanError, OrphanIgnore:
	default:
		return nil, fmt.Errorf("unknown orphan field policy %q (expected error or ignore)", opts.OrphanFields)
	}
	switch opts.KeyPrefix {
	case KeyPrefixNative, KeyPrefixExternal:
	default:
		return nil, fmt.Errorf("unknown key prefix %q (expected native or external)", opts.KeyPrefix)
	}

	m, err := opts.Syntax.compile()
	if err != nil {
		return nil, err
	}
	return &Scanner{
		m:        m,
		opts:     opts,
		structAt: make(map[string]string),
		keyAt:    make(map[string]string),
	}, nil
}

// ScanFile opens path, scans it and closes it again.
func (s *Scanner) ScanFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return s.Scan(path, f)
}

// Scan reads annotated source from r. name identifies the source in errors
// and in the affected file list. It returns the number of structs the
// source contributed.
func (s *Scanner) Scan(name string, r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	st := stateNoStruct
	var open *StructDescriptor
	added := 0

	flush := func() {
		if open == nil {
			return
		}
		cur := open
		open = nil
		if len(cur.Fields) == 0 {
			s.res.EmptyStructs = append(s.res.EmptyStructs, fmt.Sprintf("%s:%d %s", cur.File, cur.Line, cur.NativeName))
			return
		}
		s.structAt[cur.NativeName] = fmt.Sprintf("%s:%d", cur.File, cur.Line)
		s.res.Structs = append(s.res.Structs, *cur)
		added++
	}

	lineNo := 0
	for sc.Scan() {
		lineNo++
		al, err := s.m.classify(sc.Text())
		if err != nil {
			return added, &ScanError{File: name, Line: lineNo, Msg: err.Error()}
		}

		switch al.kind {
		case lineIgnored:
			continue
		case lineStruct:
			flush()
			if prev, ok := s.structAt[al.structName]; ok {
				return added, &ScanError{File: name, Line: lineNo, Msg: fmt.Sprintf("struct %q already declared at %s", al.structName, prev)}
			}
			open = &StructDescriptor{
				NativeName:   al.structName,
				ExternalName: al.name,
				File:         name,
				Line:         lineNo,
			}
			st = stateStructOpen
		case lineField:
			if st != stateStructOpen {
				if s.opts.OrphanFields == OrphanIgnore {
					s.res.OrphanFields = append(s.res.OrphanFields, fmt.Sprintf("%s:%d %s", name, lineNo, al.member))
					continue
				}
				return added, &ScanError{File: name, Line: lineNo, Msg: fmt.Sprintf("field %q annotated outside of an annotated struct", al.member)}
			}
			prefix := open.NativeName
			if s.opts.KeyPrefix == KeyPrefixExternal {
				prefix = open.ExternalName
			}
			fd := FieldDescriptor{
				NativeMemberName: al.member,
				ExternalFieldKey: prefix + "_" + al.name,
				RawName:          al.name,
				MaxLength:        al.maxLength,
				Line:             lineNo,
			}
			loc := fmt.Sprintf("%s:%d", name, lineNo)
			if prev, ok := s.keyAt[fd.ExternalFieldKey]; ok {
				return added, &ScanError{File: name, Line: lineNo, Msg: fmt.Sprintf("external key %q already used at %s", fd.ExternalFieldKey, prev)}
			}
			s.keyAt[fd.ExternalFieldKey] = loc
			open.Fields = append(open.Fields, fd)
		}
	}
	if err := sc.Err(); err != nil {
		return added, fmt.Errorf("read %s: %w", name, err)
	}
	flush()

	if added > 0 {
		s.res.AffectedFiles = append(s.res.AffectedFiles, name)
	}
	return added, nil
}

// Result returns the accumulated scan result.
func (s *Scanner) Result() Result {
	return s.res
}
