package rag

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
)

// ExtractText 按扩展名把原始内容转成纯文本
//
// Markdown 先渲染为 HTML 再取文本；HTML 去掉 script 和 style 后取文本；
// PDF 按页拼接文本层；DOCX 每个段落一行。其余扩展名按 UTF-8 文本处理。
func ExtractText(ext string, raw []byte) (string, error) {
	switch ext {
	case ".md", ".markdown":
		var buf bytes.Buffer
		if err := goldmark.Convert(raw, &buf); err != nil {
			return "", err
		}
		return htmlText(&buf)
	case ".html", ".htm":
		return htmlText(bytes.NewReader(raw))
	case ".pdf":
		return pdfText(raw)
	case ".docx":
		return docxText(raw)
	default:
		return strings.TrimSpace(string(raw)), nil
	}
}

func htmlText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(doc.Text()), nil
}

// pdfText 只读取文本层，扫描件得到空串
func pdfText(raw []byte) (text string, err error) {
	// 解析器遇到损坏的对象会 panic
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// docxText 读取 word/document.xml 中的 w:t 文本
func docxText(raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", err
	}
	f, err := zr.Open("word/document.xml")
	if err != nil {
		return "", fmt.Errorf("docx without document body: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	inText := false
	dec := xml.NewDecoder(f)
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
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
