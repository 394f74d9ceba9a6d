package project

import (
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/bonnie/pkg/errors"
)

var (
	depsHeader   = regexp.MustCompile(`^\s*\[\s*(?:dependencies|"dependencies")\s*\]\s*(?:#.*)?$`)
	anyHeader    = regexp.MustCompile(`^\s*\[`)
	depsInline   = regexp.MustCompile(`^(\s*)(?:dependencies|"dependencies")\s*=\s*\{`)
	keyValueLine = regexp.MustCompile(`^(\s*)([A-Za-z0-9_-]+|"(?:[^"\\]|\\.)*"|'[^']*')\s*=\s*`)
)

// RecordInstalledDependency sets dependencies[name] = version in the
// document at path and writes it back. Everything else in the file is kept
// byte for byte.
//
// A [dependencies] section gets its existing entry replaced or a new line
// after its last entry. A single-line inline table is re-emitted with the
// new key added. A document without dependencies gets a section appended.
// The edited document is decoded again and compared with the original before
// it replaces the file.
func RecordInstalledDependency(path, name, version string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeIO, err, "stat %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeIO, err, "read %s", path)
	}

	updated, err := setDependency(data, name, version)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, updated, info.Mode().Perm()); err != nil {
		return errs.Wrap(errs.ErrCodeIO, err, "write %s", path)
	}
	return nil
}

func setDependency(data []byte, name, version string) ([]byte, error) {
	if err := errs.ValidatePackageName(name); err != nil {
		return nil, err
	}
	if version == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "empty version for %s", name)
	}

	var before map[string]any
	if _, err := toml.Decode(string(data), &before); err != nil {
		return nil, errs.Wrap(errs.ErrCodeParse, err, "decode project document")
	}
	if v, ok := before["dependencies"]; ok {
		if _, isTable := v.(map[string]any); !isTable {
			return nil, errs.New(errs.ErrCodeParse, "dependencies must be a table, found %T", v)
		}
	}

	entry, err := encodeEntry(name, version)
	if err != nil {
		return nil, err
	}

	text := string(data)
	lines := strings.SplitAfter(text, "\n")
	var out string
	switch header, inline := locate(lines); {
	case header >= 0:
		out = editSection(lines, header, name, entry)
	case inline >= 0:
		if out, err = editInline(lines, inline, before, name, entry); err != nil {
			return nil, err
		}
	case before["dependencies"] != nil:
		return nil, errs.New(errs.ErrCodeParse, "dependencies table uses a layout that cannot be edited in place")
	default:
		out = appendSection(text, entry)
	}

	if err := verify(before, out, name, version); err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// locate returns the index of the [dependencies] header and of a top-level
// inline "dependencies = {" line; -1 when absent.
func locate(lines []string) (header, inline int) {
	header, inline = -1, -1
	topLevel := true
	for i, l := range lines {
		l = strings.TrimRight(l, "\r\n")
		if depsHeader.MatchString(l) {
			return i, inline
		}
		if anyHeader.MatchString(l) {
			topLevel = false
			continue
		}
		if topLevel && inline < 0 && depsInline.MatchString(l) {
			inline = i
		}
	}
	return header, inline
}

func editSection(lines []string, header int, name, entry string) string {
	end := len(lines)
	for i := header + 1; i < len(lines); i++ {
		if anyHeader.MatchString(lines[i]) {
			end = i
			break
		}
	}

	last := header
	for i := header + 1; i < end; i++ {
		l := strings.TrimSpace(lines[i])
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		last = i
		m := keyValueLine.FindStringSubmatch(lines[i])
		if m == nil || unquoteKey(m[2]) != name {
			continue
		}
		lines[i] = replaceValue(lines[i], len(m[0]), entry)
		return strings.Join(lines, "")
	}

	newline := lineEnding(lines[last])
	if !strings.HasSuffix(lines[last], "\n") {
		lines[last] += newline
	}
	rest := append([]string{entry + newline}, lines[last+1:]...)
	return strings.Join(append(lines[:last+1], rest...), "")
}

// replaceValue swaps the value of a key line for the value in entry. The
// original key spelling, indentation and any trailing comment are kept.
func replaceValue(line string, valueStart int, entry string) string {
	_, value, _ := strings.Cut(entry, " = ")
	end := valueEnd(line, valueStart)
	return line[:valueStart] + value + line[end:]
}

// valueEnd returns the offset just past a simple string value starting at
// start, or the offset of the line ending for anything else.
func valueEnd(line string, start int) int {
	eol := len(strings.TrimRight(line, "\r\n"))
	if start >= eol {
		return eol
	}
	switch line[start] {
	case '"':
		for i := start + 1; i < eol; i++ {
			switch line[i] {
			case '\\':
				i++
			case '"':
				return i + 1
			}
		}
	case '\'':
		if j := strings.IndexByte(line[start+1:eol], '\''); j >= 0 {
			return start + 1 + j + 1
		}
	}
	return eol
}

func editInline(lines []string, idx int, before map[string]any, name, entry string) (string, error) {
	line := lines[idx]
	m := depsInline.FindStringIndex(line)
	closing := inlineEnd(line, m[1])
	if closing < 0 {
		return "", errs.New(errs.ErrCodeParse, "dependencies inline table does not close on its line")
	}

	table := before["dependencies"].(map[string]any)
	var order []string
	seen := map[string]bool{}
	for _, part := range splitInline(line[m[1]:closing]) {
		if km := keyValueLine.FindStringSubmatch(part); km != nil {
			if k := unquoteKey(km[2]); !seen[k] {
				order = append(order, k)
				seen[k] = true
			}
		}
	}
	for _, k := range slices.Sorted(maps.Keys(table)) {
		if !seen[k] {
			order = append(order, k)
		}
	}

	var parts []string
	replaced := false
	for _, k := range order {
		if k == name {
			parts = append(parts, entry)
			replaced = true
			continue
		}
		v, ok := table[k].(string)
		if !ok {
			return "", errs.New(errs.ErrCodeParse, "dependency %q is not a version string", k)
		}
		kv, err := encodeEntry(k, v)
		if err != nil {
			return "", err
		}
		parts = append(parts, kv)
	}
	if !replaced {
		parts = append(parts, entry)
	}

	prefix := line[:m[1]-1]
	lines[idx] = prefix + "{ " + strings.Join(parts, ", ") + " }" + line[closing+1:]
	return strings.Join(lines, ""), nil
}

// splitInline splits an inline table body at commas outside strings.
func splitInline(body string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '"', '\'':
			i = valueEnd(body, i) - 1
		case ',':
			parts = append(parts, body[start:i])
			start = i + 1
		}
	}
	return append(parts, body[start:])
}

// inlineEnd returns the index of the brace closing an inline table whose
// body starts at start, skipping braces inside strings.
func inlineEnd(line string, start int) int {
	depth := 1
	for i := start; i < len(line); i++ {
		switch line[i] {
		case '"':
			i = valueEnd(line, i) - 1
		case '\'':
			i = valueEnd(line, i) - 1
		case '{':
			depth++
		case '}':
			if depth--; depth == 0 {
				return i
			}
		case '#', '\n':
			return -1
		}
	}
	return -1
}

func appendSection(text, entry string) string {
	newline := "\n"
	if strings.Contains(text, "\r\n") {
		newline = "\r\n"
	}
	var b strings.Builder
	b.WriteString(text)
	if text != "" {
		if !strings.HasSuffix(text, "\n") {
			b.WriteString(newline)
		}
		b.WriteString(newline)
	}
	b.WriteString("[dependencies]" + newline)
	b.WriteString(entry + newline)
	return b.String()
}

// encodeEntry renders `key = "value"` with TOML quoting for both sides.
func encodeEntry(name, version string) (string, error) {
	data, err := toml.Marshal(map[string]string{name: version})
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInvalidInput, err, "encode dependency %s", name)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func unquoteKey(k string) string {
	switch {
	case strings.HasPrefix(k, `"`):
		if s, err := strconv.Unquote(k); err == nil {
			return s
		}
		return strings.Trim(k, `"`)
	case strings.HasPrefix(k, "'"):
		return strings.Trim(k, "'")
	}
	return k
}

func lineEnding(line string) string {
	if strings.HasSuffix(line, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// verify decodes the edited document and checks that only
// dependencies[name] changed.
func verify(before map[string]any, edited, name, version string) error {
	var after map[string]any
	if _, err := toml.Decode(edited, &after); err != nil {
		return errs.Wrap(errs.ErrCodeParse, err, "edited document does not decode")
	}

	afterDeps, _ := after["dependencies"].(map[string]any)
	if got, _ := afterDeps[name].(string); got != version {
		return errs.New(errs.ErrCodeParse, "edited document records %s = %q, want %q", name, got, version)
	}

	wantDeps := map[string]any{}
	if d, ok := before["dependencies"].(map[string]any); ok {
		wantDeps = maps.Clone(d)
	}
	wantDeps[name] = version

	want := maps.Clone(before)
	if want == nil {
		want = map[string]any{}
	}
	want["dependencies"] = wantDeps
	if !reflect.DeepEqual(want, after) {
		return errs.New(errs.ErrCodeParse, "editing dependencies changed other content")
	}
	return nil
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
