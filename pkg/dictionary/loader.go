package dictionary

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names the character encoding of a text dictionary.
type Encoding string

const (
	Auto    Encoding = "auto"
	UTF8    Encoding = "utf-8"
	GBK     Encoding = "gbk"
	GB18030 Encoding = "gb18030"
)

// ParseEncoding maps a configured name to an Encoding. Unknown names fall
// back to Auto.
func ParseEncoding(name string) Encoding {
	switch e := Encoding(strings.ToLower(strings.TrimSpace(name))); e {
	case UTF8, GBK, GB18030:
		return e
	case "utf8":
		return UTF8
	case "gb2312", "cp936":
		return GBK
	}
	return Auto
}

func (e Encoding) decoder() transform.Transformer {
	switch e {
	case GBK:
		return simplifiedchinese.GBK.NewDecoder()
	case GB18030:
		return simplifiedchinese.GB18030.NewDecoder()
	}
	// UTF-8 with an optional byte order mark
	return unicode.BOMOverride(unicode.UTF8.NewDecoder())
}

func (e Encoding) encoder() *encoding.Encoder {
	switch e {
	case GBK:
		return simplifiedchinese.GBK.NewEncoder()
	case GB18030:
		return simplifiedchinese.GB18030.NewEncoder()
	}
	return nil
}

type loadOptions struct {
	encoding Encoding
	name     string
}

// Option configures Load and Read.
type Option interface {
	apply(*loadOptions)
}

type optionFunc func(*loadOptions)

func (f optionFunc) apply(opts *loadOptions) {
	f(opts)
}

// WithEncoding sets the encoding of text dictionaries.
func WithEncoding(e Encoding) Option {
	return optionFunc(func(opts *loadOptions) {
		opts.encoding = ParseEncoding(string(e))
	})
}

// WithName overrides the dictionary name, which defaults to the file stem.
func WithName(name string) Option {
	return optionFunc(func(opts *loadOptions) {
		opts.name = name
	})
}

func buildOptions(opts []Option) loadOptions {
	options := loadOptions{encoding: Auto}
	for _, opt := range opts {
		opt.apply(&options)
	}
	return options
}

// Load reads the dictionary file at path; the format follows the extension.
func Load(path string, opts ...Option) (*Dictionary, error) {
	options := buildOptions(opts)
	name := options.name
	if name == "" {
		name = NameFromPath(path)
	}

	if err := ValidateFileFormat(path); err != nil {
		return nil, &LoadError{Name: name, Path: path, Err: err}
	}
	format := DetectFileFormat(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Name: name, Path: path, Err: err}
	}
	defer f.Close()

	var d *Dictionary
	if format == FormatBinary {
		d, err = ReadBinary(f, name)
	} else {
		d, err = Read(f, WithName(name), WithEncoding(options.encoding))
	}
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = path
		}
		return nil, err
	}
	d.path = path

	log.Debugf("Loaded dictionary %s from %s: %d codes, %d words", d.name, path, d.Len(), d.WordCount())
	return d, nil
}

var magicRegexp = regexp.MustCompile(`-\*-.*[ \t]coding:[ \t]*([^ \t;]+?)[ \t;].*-\*-`)

func detectEncoding(line string) Encoding {
	m := magicRegexp.FindStringSubmatch(line)
	if len(m) < 2 {
		return UTF8
	}
	return ParseEncoding(m[1])
}

// Read parses a text dictionary from r. Any malformed record rejects the
// whole table.
func Read(r io.Reader, opts ...Option) (*Dictionary, error) {
	options := buildOptions(opts)
	name := options.name

	enc := options.encoding
	var reader io.Reader = r
	if enc == Auto {
		b := bufio.NewReader(r)
		first, err := b.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, &LoadError{Name: name, Err: err}
		}
		enc = detectEncoding(string(first))
		reader = io.MultiReader(bytes.NewReader(first), b)
	}
	reader = transform.NewReader(reader, enc.decoder())

	b := newBuilder()
	s := bufio.NewScanner(reader)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for s.Scan() {
		lineNo++
		code, cands, ok := parseLine(s.Text())
		if !ok {
			continue
		}
		if err := validateRecord(code, cands); err != nil {
			return nil, &LoadError{Name: name, Line: lineNo, Err: err}
		}
		b.add(code, cands)
	}
	if err := s.Err(); err != nil {
		return nil, &LoadError{Name: name, Line: lineNo, Err: err}
	}
	if len(b.order) == 0 {
		return nil, &LoadError{Name: name, Err: ErrEmpty}
	}
	return b.build(name, ""), nil
}

// parseLine splits a record into its lower-cased code and candidates.
// ok is false for blank and comment lines.
func parseLine(line string) (code string, candidates []string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' || line[0] == ';' {
		return "", nil, false
	}
	fields := strings.Fields(line)
	return strings.ToLower(fields[0]), fields[1:], true
}

// WriteText writes d as a text dictionary, one line per code.
// Non UTF-8 encodings get a coding magic line so Auto can read them back.
func WriteText(w io.Writer, d *Dictionary, enc Encoding) error {
	var bw *bufio.Writer
	var tw *transform.Writer
	if e := enc.encoder(); e != nil {
		tw = transform.NewWriter(w, e)
		bw = bufio.NewWriter(tw)
		if _, err := bw.WriteString("# -*- coding: " + string(enc) + " -*-\n"); err != nil {
			return err
		}
	} else {
		bw = bufio.NewWriter(w)
	}

	for _, e := range d.Entries() {
		if _, err := bw.WriteString(e.Code + " " + strings.Join(e.Candidates, " ") + "\n"); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if tw != nil {
		return tw.Close()
	}
	return nil
}
