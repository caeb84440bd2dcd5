// Package store is the read-only resource store: it lists configuration
// fragments, reads alias and override indexes, and resolves asset keys to
// paths inside a resources tree.
//
// Tree layout:
//
//	default/data/*.json              default fragments
//	styles/<style>/data/*.json       per-style fragments
//	styles/<style>/<asset dirs>/     images and fonts, each dir may carry
//	                                 alias.json and overrides.json
//
// Fragments and tables may be written as .json, .jsonc or .yaml/.yml.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/ByLCY/textboxer/document"
)

// Well-known index file stems; any supported extension is accepted.
const (
	AliasIndex    = "alias"
	OverrideIndex = "overrides"
)

// Store is the capability the resolution engine consumes.
type Store interface {
	// ListFragments returns every fragment document in scope, ordered by source path.
	ListFragments(scope string) ([]Entry, error)
	// OpenAlias returns dir's alias index; ok is false when the directory has none.
	OpenAlias(dir string) (aliases map[string]string, ok bool, err error)
	// OpenOverrideIndex returns dir's override index; ok is false when the directory has none.
	OpenOverrideIndex(dir string) (index map[string]string, ok bool, err error)
	// OpenOverrideTable reads an override table, preserving declaration order.
	OpenOverrideTable(p string) ([]Entry, error)
	// ResolveAsset maps key to a path under dir. When explicit is set, key is
	// taken as a path relative to the store root and no alias is consulted.
	ResolveAsset(dir, key string, explicit bool) (string, error)
	ReadFile(p string) ([]byte, error)
	Exists(p string) bool
	HasStyle(name string) bool
}

// Entry is a named document: a fragment keyed by its source path, or an
// override keyed by its name.
type Entry struct {
	Name string
	Doc  document.Document
}

// ResourceError reports an asset that is absent and that no alias resolves.
type ResourceError struct {
	Path   string
	Reason string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("资源 %s 不可用: %s", e.Path, e.Reason)
}

// DefaultDataScope holds the fragments shared by every style.
const DefaultDataScope = "default/data"

// StyleDir returns the root directory of a style.
func StyleDir(style string) string { return path.Join("styles", style) }

// StyleDataScope returns the fragment directory of a style.
func StyleDataScope(style string) string { return path.Join(StyleDir(style), "data") }

// FS implements Store over an fs.FS. It never writes and is safe for
// concurrent use.
type FS struct {
	fsys fs.FS
}

var _ Store = (*FS)(nil)

// New wraps fsys.
func New(fsys fs.FS) *FS { return &FS{fsys: fsys} }

// Open roots a store at a directory on disk.
func Open(root string) (*FS, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("打开资源目录 %s 失败: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("资源路径 %s 不是目录", root)
	}
	return New(os.DirFS(root)), nil
}

// ListFragments implements Store. A missing scope yields no fragments.
func (s *FS) ListFragments(scope string) ([]Entry, error) {
	scope = path.Clean(scope)
	entries, err := fs.ReadDir(s.fsys, scope)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("列出片段目录 %s 失败: %w", scope, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !supported(e.Name()) {
			continue
		}
		names = append(names, path.Join(scope, e.Name()))
	}
	sort.Strings(names)

	out := make([]Entry, 0, len(names))
	for _, name := range names {
		doc, err := s.readDocument(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Name: name, Doc: doc})
	}
	return out, nil
}

// OpenAlias implements Store.
func (s *FS) OpenAlias(dir string) (map[string]string, bool, error) {
	return s.openIndex(dir, AliasIndex)
}

// OpenOverrideIndex implements Store.
func (s *FS) OpenOverrideIndex(dir string) (map[string]string, bool, error) {
	return s.openIndex(dir, OverrideIndex)
}

// OpenOverrideTable implements Store.
func (s *FS) OpenOverrideTable(p string) ([]Entry, error) {
	data, err := s.ReadFile(p)
	if err != nil {
		return nil, err
	}
	entries, err := decodeOrdered(p, data)
	if err != nil {
		return nil, fmt.Errorf("解析覆盖表 %s 失败: %w", p, err)
	}
	return entries, nil
}

// ResolveAsset implements Store.
func (s *FS) ResolveAsset(dir, key string, explicit bool) (string, error) {
	if explicit {
		p := path.Clean(key)
		if !fs.ValidPath(p) || !s.isFile(p) {
			return "", &ResourceError{Path: key, Reason: "显式路径不存在"}
		}
		return p, nil
	}
	direct := path.Join(dir, key)
	if fs.ValidPath(direct) && s.isFile(direct) {
		return direct, nil
	}
	aliases, ok, err := s.OpenAlias(dir)
	if err != nil {
		return "", err
	}
	if ok {
		if target, found := aliases[key]; found {
			p := path.Join(dir, target)
			if !fs.ValidPath(p) || !s.isFile(p) {
				return "", &ResourceError{Path: p, Reason: fmt.Sprintf("别名 %q 指向的文件不存在", key)}
			}
			return p, nil
		}
	}
	return "", &ResourceError{Path: direct, Reason: "文件不存在且没有匹配的别名"}
}

// ReadFile implements Store.
func (s *FS) ReadFile(p string) ([]byte, error) {
	p = path.Clean(p)
	if !fs.ValidPath(p) {
		return nil, &ResourceError{Path: p, Reason: "非法路径"}
	}
	data, err := fs.ReadFile(s.fsys, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &ResourceError{Path: p, Reason: "文件不存在"}
	}
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", p, err)
	}
	return data, nil
}

// Exists implements Store.
func (s *FS) Exists(p string) bool {
	p = path.Clean(p)
	if !fs.ValidPath(p) {
		return false
	}
	_, err := fs.Stat(s.fsys, p)
	return err == nil
}

// HasStyle implements Store.
func (s *FS) HasStyle(name string) bool {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return false
	}
	info, err := fs.Stat(s.fsys, StyleDir(name))
	return err == nil && info.IsDir()
}

func (s *FS) isFile(p string) bool {
	info, err := fs.Stat(s.fsys, p)
	return err == nil && !info.IsDir()
}

func (s *FS) readDocument(p string) (document.Document, error) {
	data, err := s.ReadFile(p)
	if err != nil {
		return nil, err
	}
	v, err := decode(p, data)
	if err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", p, err)
	}
	doc, ok := document.AsDocument(v)
	if !ok {
		return nil, fmt.Errorf("%s: 顶层必须是对象，实际为 %T", p, v)
	}
	return doc, nil
}

func (s *FS) openIndex(dir, stem string) (map[string]string, bool, error) {
	for _, ext := range extensions {
		p := path.Join(dir, stem+ext)
		if !fs.ValidPath(p) || !s.isFile(p) {
			continue
		}
		doc, err := s.readDocument(p)
		if err != nil {
			return nil, false, err
		}
		index := make(map[string]string, len(doc))
		for k, v := range doc {
			str, ok := v.(string)
			if !ok {
				return nil, false, &document.ConfigError{Path: p + ":" + k, Reason: fmt.Sprintf("索引值必须是字符串，实际为 %T", v)}
			}
			index[k] = str
		}
		return index, true, nil
	}
	return nil, false, nil
}
