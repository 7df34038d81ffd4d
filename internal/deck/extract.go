package deck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// ExtractSlideTexts reads a .pptx archive and returns one text block per
// slide, in slide order. Within a slide, runs of a paragraph are joined
// with no separator and paragraphs are joined by newline, so each
// paragraph becomes one line of the block.
func ExtractSlideTexts(data []byte) ([]string, error) {
	if sniffLegacy(data) {
		return nil, ErrLegacyFormat
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}

	type part struct {
		index int
		file  *zip.File
	}
	var parts []part
	for _, f := range zr.File {
		m := slidePartRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, part{index: n, file: f})
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no slide parts found", ErrNotArchive)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].index < parts[j].index })

	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		rc, err := p.file.Open()
		if err != nil {
			return nil, fmt.Errorf("open slide part %s: %w", p.file.Name, err)
		}
		text, err := slideText(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parse slide part %s: %w", p.file.Name, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// slideText walks one slide part's XML and joins its text runs: runs
// within an <a:p> paragraph concatenate with no separator, paragraphs
// join with newline.
func slideText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var lines []string
	var para strings.Builder
	inParagraph := false
	inRunText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				para.Reset()
			case "t":
				inRunText = true
			}
		case xml.CharData:
			if inParagraph && inRunText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inParagraph {
					lines = append(lines, para.String())
					inParagraph = false
				}
			case "t":
				inRunText = false
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
