// Command fqwb-dicgen builds a pinyin dictionary for fqwb from a word list.
//
// Each input line holds a word and an optional frequency:
//
//	中国 9000
//	中
//
// The output format follows the extension of -o: .dic or .txt for a text
// table, .bin for a compiled one.
//
//	fqwb-dicgen -in words.txt -o data/pinyin.dic -initials
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bastiangx/fqwb/internal/utils"
	"github.com/bastiangx/fqwb/pkg/dictionary"
	"github.com/charmbracelet/log"
)

func main() {
	in := flag.String("in", "", "Word list, one word per line with optional frequency (default stdin)")
	out := flag.String("o", "data/pinyin.dic", "Output dictionary file: "+formatHelp())
	name := flag.String("name", "", "Dictionary name (default: output file stem)")
	encoding := flag.String("encoding", "utf-8", "Text output encoding: utf-8, gbk or gb18030")
	initials := flag.Bool("initials", false, "Also index multi-syllable words by their initials")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	flag.Parse()

	if *debugMode {
		log.SetLevel(log.DebugLevel)
	}

	var src io.Reader = os.Stdin
	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			log.Fatalf("Opening word list: %v", err)
		}
		defer f.Close()
		src = f
	}

	words, err := readWords(src)
	if err != nil {
		log.Fatalf("Reading word list: %v", err)
	}

	dictName := *name
	if dictName == "" {
		dictName = dictionary.NameFromPath(*out)
	}
	d, err := dictionary.FromEntries(dictName, buildEntries(words, *initials))
	if err != nil {
		log.Fatalf("Building dictionary: %v", err)
	}

	if err := write(*out, d, dictionary.ParseEncoding(*encoding)); err != nil {
		log.Fatalf("Writing %s: %v", *out, err)
	}
	if err := dictionary.ValidateFileFormat(*out); err != nil {
		log.Fatalf("Checking %s: %v", *out, err)
	}
	log.Infof("Wrote %s: %s codes, %s words", *out,
		utils.FormatWithCommas(d.Len()), utils.FormatWithCommas(d.WordCount()))
}

func write(path string, d *dictionary.Dictionary, enc dictionary.Encoding) error {
	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		switch dictionary.DetectFileFormat(path) {
		case dictionary.FormatBinary:
			return dictionary.WriteBinary(w, d)
		case dictionary.FormatText:
			if enc == dictionary.Auto {
				enc = dictionary.UTF8
			}
			return dictionary.WriteText(w, d, enc)
		default:
			return dictionary.ErrUnsupportedFormat
		}
	})
}

// formatHelp lists the output formats by extension.
func formatHelp() string {
	parts := make([]string, 0, 2)
	for _, f := range dictionary.ListSupportedFormats() {
		parts = append(parts, fmt.Sprintf("%s (%s)", strings.ToLower(f.Description), strings.Join(f.Extensions, ", ")))
	}
	return strings.Join(parts, "; ")
}
