package convert

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/starford/oedify/internal/models"
	"github.com/starford/oedify/internal/storage"
)

// tabfileEscaper keeps one record per line; the downstream packager reverses
// these escapes.
var tabfileEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\t", `\t`,
)

// keyEscaper protects the key separator inside a single key.
var keyEscaper = strings.NewReplacer("|", `\|`, "\t", " ", "\n", " ")

// ExportOptions names the artifacts Export writes.
type ExportOptions struct {
	Name       string // base file name, without extension
	Stylesheet []byte // copied to Name+".css" when non-empty, else Name+".css" is removed
}

// Export writes entries as a tabfile, "word|alt|syn<TAB>definition" per
// line, preceded by the source metadata as "##key<TAB>value" lines. It
// returns the paths written, relative to the storage root.
func Export(store storage.Provider, opts ExportOptions, meta []models.MetaField, entries []models.Entry) ([]string, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("convert: export: empty name")
	}

	var buf bytes.Buffer
	for _, f := range meta {
		if f.Key == "wordcount" {
			continue
		}
		fmt.Fprintf(&buf, "##%s\t%s\n", f.Key, tabfileEscaper.Replace(f.Value))
	}
	fmt.Fprintf(&buf, "##wordcount\t%d\n", len(entries))
	for _, e := range entries {
		buf.WriteString(TabfileLine(e))
		buf.WriteByte('\n')
	}

	tabPath := opts.Name + ".txt"
	if err := store.Write(tabPath, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("convert: export: %w", err)
	}
	written := []string{tabPath}

	cssPath := opts.Name + ".css"
	if len(opts.Stylesheet) == 0 {
		// A stylesheet left by an earlier export would no longer match.
		if err := store.Delete(cssPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return written, fmt.Errorf("convert: export: %w", err)
		}
		return written, nil
	}
	if err := store.Write(cssPath, opts.Stylesheet); err != nil {
		return written, fmt.Errorf("convert: export stylesheet: %w", err)
	}
	return append(written, cssPath), nil
}

// TabfileLine renders one entry without the trailing newline.
func TabfileLine(e models.Entry) string {
	words := e.Words()
	for i, w := range words {
		words[i] = keyEscaper.Replace(w)
	}
	return strings.Join(words, "|") + "\t" + tabfileEscaper.Replace(e.Definition)
}
