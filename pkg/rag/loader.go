package rag

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/easyops/adqa-go/pkg/otel"
)

// DocumentLoader 文档加载器接口
type DocumentLoader interface {
	// Load 加载文档
	Load(ctx context.Context) ([]Document, error)
	// SupportedExtensions 支持的文件扩展名
	SupportedExtensions() []string
}

// TextLoader 从 io.Reader 加载单个文档，按扩展名提取纯文本
type TextLoader struct {
	source string
	reader io.Reader
}

// NewTextLoader 从 io.Reader 创建文本加载器，source 的扩展名决定解析方式
func NewTextLoader(source string, reader io.Reader) *TextLoader {
	return &TextLoader{
		source: source,
		reader: reader,
	}
}

// Load 加载文档，内容为空时返回空列表
func (l *TextLoader) Load(ctx context.Context) ([]Document, error) {
	raw, err := io.ReadAll(l.reader)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(l.source))
	text, err := ExtractText(ext, raw)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", l.source, err)
	}
	if text == "" {
		return nil, nil
	}

	base := filepath.Base(l.source)
	doc := Document{
		ID:      generateDocumentID(l.source),
		Content: text,
		Metadata: DocumentMetadata{
			Source:   l.source,
			Title:    strings.TrimSuffix(base, filepath.Ext(base)),
			Filename: base,
			FileType: ext,
			LoadedAt: time.Now(),
		},
	}
	return []Document{doc}, nil
}

// SupportedExtensions 支持的文件扩展名
func (l *TextLoader) SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown", ".html", ".htm", ".pdf", ".docx"}
}

// DirectoryLoader 递归加载目录中的受支持文件
type DirectoryLoader struct {
	root       string
	extensions []string
	logger     otel.Logger
}

// DirectoryLoaderOption 目录加载器选项
type DirectoryLoaderOption func(*DirectoryLoader)

// WithLoaderLogger 设置日志
func WithLoaderLogger(l otel.Logger) DirectoryLoaderOption {
	return func(d *DirectoryLoader) {
		d.logger = l
	}
}

// WithExtensions 限制加载的扩展名
func WithExtensions(exts ...string) DirectoryLoaderOption {
	return func(d *DirectoryLoader) {
		d.extensions = exts
	}
}

// NewDirectoryLoader 创建目录加载器
func NewDirectoryLoader(root string, opts ...DirectoryLoaderOption) *DirectoryLoader {
	d := &DirectoryLoader{
		root:       root,
		extensions: (&TextLoader{}).SupportedExtensions(),
		logger:     otel.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load 加载目录下的全部文档
//
// 目录不存在时创建目录并返回空结果。单个文件读取或解析失败只记录日志并跳过。
func (d *DirectoryLoader) Load(ctx context.Context) ([]Document, error) {
	if _, err := os.Stat(d.root); os.IsNotExist(err) {
		if err := os.MkdirAll(d.root, 0o755); err != nil {
			return nil, err
		}
		d.logger.Info("created documents folder", "path", d.root)
		return nil, nil
	}

	var docs []Document
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() || !slices.Contains(d.extensions, strings.ToLower(filepath.Ext(path))) {
			return nil
		}

		loaded, err := d.loadFile(ctx, path)
		if err != nil {
			d.logger.Warn("failed to load document", "path", path, "error", err.Error())
			return nil
		}
		if len(loaded) == 0 {
			d.logger.Info("no text extracted", "path", path)
			return nil
		}
		docs = append(docs, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

func (d *DirectoryLoader) loadFile(ctx context.Context, path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewTextLoader(path, f).Load(ctx)
}

// SupportedExtensions 支持的文件扩展名
func (d *DirectoryLoader) SupportedExtensions() []string {
	return slices.Clone(d.extensions)
}

// compile-time interface check
var _ DocumentLoader = (*TextLoader)(nil)
var _ DocumentLoader = (*DirectoryLoader)(nil)
