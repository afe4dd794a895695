package knowledge

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	apperrors "github.com/campushub/backend-go/internal/errors"
)

// FileParser 文件解析器接口
type FileParser interface {
	Parse(reader io.Reader, filename string) (string, error)
	Supports(filename string) bool
}

// TextParser 文本文件解析器
type TextParser struct{}

func (p *TextParser) Supports(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".txt" || ext == ".md" || ext == ".markdown"
}

func (p *TextParser) Parse(reader io.Reader, filename string) (string, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", apperrors.NewStoreIO("读取文件失败", err)
	}
	return string(content), nil
}

// PDFParser PDF文件解析器
type PDFParser struct{}

func (p *PDFParser) Supports(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".pdf"
}

func (p *PDFParser) Parse(reader io.Reader, filename string) (string, error) {
	pdfBytes, err := io.ReadAll(reader)
	if err != nil {
		return "", apperrors.NewStoreIO("读取PDF文件失败", err)
	}

	pdfReader, err := model.NewPdfReader(bytes.NewReader(pdfBytes))
	if err != nil {
		return "", apperrors.NewStoreIO("解析PDF失败", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", apperrors.NewStoreIO("获取PDF页数失败", err)
	}

	// 逐页提取文本，单页失败跳过
	var textBuilder strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

// WordParser Word文档解析器（仅.docx）
type WordParser struct{}

func (p *WordParser) Supports(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".docx"
}

func (p *WordParser) Parse(reader io.Reader, filename string) (string, error) {
	docBytes, err := io.ReadAll(reader)
	if err != nil {
		return "", apperrors.NewStoreIO("读取Word文件失败", err)
	}

	doc, err := document.Read(bytes.NewReader(docBytes), int64(len(docBytes)))
	if err != nil {
		return "", apperrors.NewStoreIO("解析Word文档失败", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			textBuilder.WriteString(run.Text())
		}
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

// FileParserManager 文件解析器管理器
type FileParserManager struct {
	parsers []FileParser
}

// NewFileParserManager 创建文件解析器管理器
func NewFileParserManager() *FileParserManager {
	return &FileParserManager{
		parsers: []FileParser{
			&PDFParser{},
			&WordParser{},
			&TextParser{},
		},
	}
}

// Supported 是否有解析器支持该文件
func (m *FileParserManager) Supported(filename string) bool {
	for _, parser := range m.parsers {
		if parser.Supports(filename) {
			return true
		}
	}
	return false
}

// ParseFile 解析文件
func (m *FileParserManager) ParseFile(reader io.Reader, filename string) (string, error) {
	for _, parser := range m.parsers {
		if parser.Supports(filename) {
			return parser.Parse(reader, filename)
		}
	}
	return "", apperrors.NewValidation(fmt.Sprintf("不支持的文件格式: %s", filename))
}

// ParsePath 打开并解析本地文件
func (m *FileParserManager) ParsePath(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperrors.NewStoreIO("打开文件失败", err)
	}
	defer f.Close()
	return m.ParseFile(f, filepath.Base(path))
}
