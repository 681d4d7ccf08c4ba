package scanner

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Syntax describes the in-source annotation markers.
type Syntax struct {
	Token         string // Marks a line as annotated (e.g., "//@")
	NameMarker    string // Carries the external name (e.g., "DYNAMIC_NAME(alias)")
	LenMarker     string // Carries the text capacity (e.g., "DYNAMIC_LEN(32)")
	StructKeyword string // Declares a struct (e.g., "struct")
}

// DefaultSyntax returns the markers used by the interpreter runtime.
func DefaultSyntax() Syntax {
	return Syntax{
		Token:         "//@",
		NameMarker:    "DYNAMIC_NAME",
		LenMarker:     "DYNAMIC_LEN",
		StructKeyword: "struct",
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// memberPattern matches the trailing declarator of a member declaration:
// the identifier and an optional array subscript.
var memberPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*(\[\s*([^\]]*?)\s*\])?$`)

type matcher struct {
	token    string
	structRe *regexp.Regexp
	nameRe   *regexp.Regexp
	lenRe    *regexp.Regexp
}

func (s Syntax) compile() (*matcher, error) {
	if s.Token == "" || s.NameMarker == "" || s.LenMarker == "" || s.StructKeyword == "" {
		return nil, errors.New("annotation syntax: token, name marker, length marker and struct keyword must be set")
	}
	return &matcher{
		token:    s.Token,
		structRe: regexp.MustCompile(`\b` + regexp.QuoteMeta(s.StructKeyword) + `\s+([A-Za-z_][A-Za-z0-9_]*)`),
		nameRe:   regexp.MustCompile(regexp.QuoteMeta(s.NameMarker) + `\(\s*([^)]*?)\s*\)`),
		lenRe:    regexp.MustCompile(regexp.QuoteMeta(s.LenMarker) + `\(\s*([^)]*?)\s*\)`),
	}, nil
}

type lineKind int

const (
	lineIgnored lineKind = iota
	lineStruct
	lineField
)

// annotatedLine is the classification of one source line.
type annotatedLine struct {
	kind       lineKind
	structName string
	name       string
	member     string
	subscript  bool
	dimension  string // Array extent as written, e.g. "16" or "NAME_LEN"
	maxLength  int
}

// classify extracts the annotation facts from a single line. It never looks
// beyond the line it is given.
func (m *matcher) classify(line string) (annotatedLine, error) {
	idx := strings.Index(line, m.token)
	if idx < 0 {
		return annotatedLine{kind: lineIgnored}, nil
	}
	code, annotation := line[:idx], line[idx+len(m.token):]

	name, err := m.externalName(annotation)
	if err != nil {
		return annotatedLine{}, err
	}

	if sm := m.structRe.FindStringSubmatch(code); sm != nil {
		return annotatedLine{kind: lineStruct, structName: sm[1], name: name}, nil
	}

	res := annotatedLine{kind: lineField, name: name}
	if err := parseMember(code, &res); err != nil {
		return annotatedLine{}, err
	}

	if lm := m.lenRe.FindStringSubmatch(annotation); lm != nil {
		n, err := strconv.Atoi(lm[1])
		if err != nil || n <= 0 {
			return annotatedLine{}, fmt.Errorf("invalid length %q: expected a positive integer", lm[1])
		}
		if !res.subscript {
			return annotatedLine{}, fmt.Errorf("length given for member %q which is not a fixed-size array", res.member)
		}
		// Macro or expression extents are checked by the generated static_assert.
		if size, err := strconv.Atoi(res.dimension); err == nil && n > size {
			return annotatedLine{}, fmt.Errorf("length %d exceeds the size %d of array member %q", n, size, res.member)
		}
		res.maxLength = n
	} else if res.subscript {
		return annotatedLine{}, fmt.Errorf("array member %q has no length annotation", res.member)
	}
	return res, nil
}

func (m *matcher) externalName(annotation string) (string, error) {
	nm := m.nameRe.FindStringSubmatch(annotation)
	if nm == nil {
		return "", errors.New("annotation has no name marker")
	}
	if !identPattern.MatchString(nm[1]) {
		return "", fmt.Errorf("invalid external name %q", nm[1])
	}
	return nm[1], nil
}

func parseMember(code string, res *annotatedLine) error {
	end := strings.Index(code, ";")
	if end < 0 {
		return errors.New("field annotation without a ';' terminated declaration")
	}
	decl := code[:end]
	if i := strings.IndexAny(decl, "={"); i >= 0 {
		decl = decl[:i]
	}
	decl = strings.TrimSpace(decl)

	mm := memberPattern.FindStringSubmatch(decl)
	if mm == nil {
		return fmt.Errorf("cannot find member name in declaration %q", decl)
	}
	res.member = mm[1]
	res.subscript = mm[2] != ""
	res.dimension = mm[3]
	return nil
}
