package extraction

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"code.sajari.com/docconv"
)

// DOCXFormat reads the body paragraphs of Office Open XML documents, one
// line per paragraph. Headers, footers and table cells are left out.
//
// When word/document.xml does not parse, the whole file goes through
// Fallback instead (docconv by default), which is looser about layout but
// still recovers the text.
type DOCXFormat struct {
	Fallback func(r io.Reader) (string, error)
}

func (f *DOCXFormat) Name() string         { return "Word" }
func (f *DOCXFormat) Extensions() []string { return []string{".docx"} }

func (f *DOCXFormat) Extract(_ context.Context, path string, _ Options) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if zf.Name != "word/document.xml" {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return "", fmt.Errorf("open document part: %w", err)
		}
		defer rc.Close()
		text, err := docxParagraphs(rc)
		if err == nil {
			return text, nil
		}
		if alt, ferr := f.fallback(path); ferr == nil && strings.TrimSpace(alt) != "" {
			return alt, nil
		}
		return text, err
	}
	return "", errors.New("docx: word/document.xml not found")
}

func (f *DOCXFormat) fallback(path string) (string, error) {
	conv := f.Fallback
	if conv == nil {
		conv = docconvDocx
	}
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()
	return conv(fh)
}

func docconvDocx(r io.Reader) (string, error) {
	body, _, err := docconv.ConvertDocx(r)
	if err != nil {
		return "", fmt.Errorf("docconv docx: %w", err)
	}
	return strings.TrimSpace(body), nil
}

// docxParagraphs joins the text of top-level body paragraphs with newlines.
// Paragraphs nested in tables or text boxes are not body paragraphs.
func docxParagraphs(r io.Reader) (string, error) {
	const ns = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	dec := xml.NewDecoder(r)
	var (
		paras   []string
		cur     strings.Builder
		depth   int
		inPara  bool
		inRun   int
		inText  bool
		paraLvl int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return strings.Join(paras, "\n"), fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Space != ns {
				continue
			}
			switch t.Name.Local {
			case "p":
				// document > body > p
				if !inPara && depth == 3 {
					inPara = true
					paraLvl = depth
					cur.Reset()
				}
			case "r":
				if inPara {
					inRun++
				}
			case "t":
				inText = inPara && inRun > 0
			case "tab":
				if inPara && inRun > 0 {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inPara && inRun > 0 {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space == ns {
				switch t.Name.Local {
				case "p":
					if inPara && depth == paraLvl {
						paras = append(paras, cur.String())
						inPara = false
					}
				case "r":
					if inRun > 0 {
						inRun--
					}
				case "t":
					inText = false
				}
			}
			depth--
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return strings.Join(paras, "\n"), nil
}
