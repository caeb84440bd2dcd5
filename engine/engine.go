// Package engine turns one set of positional arguments into a layout result:
// it selects the style, binds the arguments, resolves the style's fragments
// under the resulting predicate state, resolves dynamic images and their
// override tables, and lays out text and images.
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/textboxer/args"
	"github.com/ByLCY/textboxer/config"
	"github.com/ByLCY/textboxer/document"
	"github.com/ByLCY/textboxer/layout"
	"github.com/ByLCY/textboxer/predicate"
	"github.com/ByLCY/textboxer/resolver"
	"github.com/ByLCY/textboxer/store"
)

// preload keys
const (
	keyDefaultStyle = "defaultstyle"
	keyPathPrefix   = "pathprefix"
	keyImageKey     = "key"
)

// Engine plans one dialogue box per call. It holds no per-request state.
type Engine struct {
	Store      store.Store
	Typesetter layout.Typesetter
	Logger     *slog.Logger

	// DefaultStyle, when set, replaces the defaultstyle of the default data.
	DefaultStyle string
	// Filter is the resize filter for images that name none.
	Filter string
}

// Request is one invocation's input.
type Request struct {
	// Mode is config.ModeStr or config.ModeArgs.
	Mode string
	Args []string
}

// Plan is everything decided for a request before pixels are drawn.
type Plan struct {
	Style    string
	Bound    *args.Bound
	State    predicate.State
	Document document.Document
	Result   *layout.Result
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}

// Plan resolves the request into a layout result.
func (e *Engine) Plan(req Request) (*Plan, error) {
	if e.Store == nil {
		return nil, fmt.Errorf("engine: 缺少资源库 Store")
	}
	log := e.logger()
	res := &resolver.Resolver{Logger: log}

	mode := req.Mode
	if mode == "" {
		mode = config.ModeStr
	}
	tokens := req.Args
	if mode == config.ModeStr {
		tokens = args.Tokenize(strings.Join(req.Args, " "))
	}

	defaults, err := e.Store.ListFragments(store.DefaultDataScope)
	if err != nil {
		return nil, fmt.Errorf("读取默认配置失败: %w", err)
	}
	style, tokens, err := e.selectStyle(res, defaults, tokens)
	if err != nil {
		return nil, err
	}
	log = log.With("style", style)
	res.Logger = log

	styleEntries, err := e.Store.ListFragments(store.StyleDataScope(style))
	if err != nil {
		return nil, fmt.Errorf("读取样式 %s 的配置失败: %w", style, err)
	}
	loaded, err := res.Load(append(append([]store.Entry{}, defaults...), styleEntries...))
	if err != nil {
		return nil, fmt.Errorf("加载配置片段失败: %w", err)
	}

	bound, err := bindArgs(loaded.Preload, mode, tokens)
	if err != nil {
		return nil, err
	}
	if len(bound.Extra) > 0 {
		log.Warn("ignoring arguments beyond the schema", "extra", bound.Extra)
	}

	state := newState(bound, mode)
	log.Debug("predicate state", "textbox", state.Tags(predicate.CategoryTextbox), "image", state.Tags(predicate.CategoryImage),
		"flag", state.Tags(predicate.CategoryFlag), "mode", state.Tags(predicate.CategoryMode))

	resolved := res.Resolve(state, loaded.Buckets)
	resolved, imagePaths, err := e.resolveDynamicImages(res, state, resolved, style, bound)
	if err != nil {
		return nil, err
	}

	text := make(map[string]string, len(bound.Text))
	for name, s := range bound.Text {
		text[name] = norm.NFC.String(s)
	}
	result, err := layout.Build(resolved, layout.Request{Text: text, ImagePaths: imagePaths}, layout.BuildOptions{
		Typesetter: e.Typesetter,
		Style:      style,
		StyleDir:   store.StyleDir(style),
		Filter:     e.Filter,
	})
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	return &Plan{Style: style, Bound: bound, State: state, Document: resolved, Result: result}, nil
}

// selectStyle consumes the first token when it names a style; otherwise the
// configured default, then the defaultstyle of the default data, applies.
func (e *Engine) selectStyle(res *resolver.Resolver, defaults []store.Entry, tokens []string) (string, []string, error) {
	if len(tokens) > 0 && e.Store.HasStyle(tokens[0]) {
		return tokens[0], tokens[1:], nil
	}
	style := e.DefaultStyle
	if style == "" {
		loaded, err := res.Load(defaults)
		if err != nil {
			return "", nil, fmt.Errorf("加载默认配置失败: %w", err)
		}
		if style, err = loaded.Preload.StringOr(keyDefaultStyle, ""); err != nil {
			return "", nil, err
		}
	}
	if style == "" {
		return "", nil, &document.ConfigError{Path: keyDefaultStyle, Reason: "未指定样式且没有默认样式"}
	}
	if !e.Store.HasStyle(style) {
		return "", nil, &store.ResourceError{Path: store.StyleDir(style), Reason: "样式不存在"}
	}
	return style, tokens, nil
}

func bindArgs(preload document.Document, mode string, tokens []string) (*args.Bound, error) {
	entries, err := preload.Strings(mode)
	if err != nil {
		return nil, fmt.Errorf("读取参数描述失败: %w", err)
	}
	schema, err := args.ParseSchema(entries)
	if err != nil {
		return nil, fmt.Errorf("参数描述 %s 无效: %w", mode, err)
	}
	var bound *args.Bound
	if mode == config.ModeArgs {
		bound, err = args.BindArgs(schema, tokens)
	} else {
		bound, err = args.BindStr(schema, tokens)
	}
	if err != nil {
		return nil, err
	}
	return bound, nil
}

func newState(bound *args.Bound, mode string) predicate.State {
	state := predicate.NewState()
	for name := range bound.Text {
		state.Add(predicate.CategoryTextbox, name)
	}
	for name := range bound.Images {
		state.Add(predicate.CategoryImage, name)
	}
	state.Add(predicate.CategoryFlag, bound.Flags...)
	state.Add(predicate.CategoryMode, mode)
	return state
}

// resolveDynamicImages resolves the asset path of every dynamic image that
// received an argument and applies the override table registered for it.
// Images are visited by name; each override table folds over the document
// produced by the previous one.
func (e *Engine) resolveDynamicImages(res *resolver.Resolver, state predicate.State, resolved document.Document, style string, bound *args.Bound) (document.Document, map[string]string, error) {
	paths := map[string]string{}
	if !resolved.Has("images") {
		return resolved, paths, nil
	}
	images, err := resolved.Sub("images")
	if err != nil {
		return nil, nil, err
	}
	basepath, err := images.StringOr("basepath", "")
	if err != nil {
		return nil, nil, document.Prefix(err, "images")
	}
	entries := images.Entries()
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		img := entries[name]
		if kind, _ := img.StringOr("type", ""); kind != layout.TypeDynamic {
			continue
		}
		prefix := "images." + name
		key, err := img.String(keyImageKey)
		if err != nil {
			return nil, nil, document.Prefix(err, prefix)
		}
		arg, ok := bound.Images[key]
		if !ok {
			continue
		}
		pathPrefix, err := img.StringOr(keyPathPrefix, "")
		if err != nil {
			return nil, nil, document.Prefix(err, prefix)
		}
		dir := path.Join(store.StyleDir(style), basepath, pathPrefix)
		p, err := e.Store.ResolveAsset(dir, arg.Key, arg.Explicit)
		if err != nil {
			return nil, nil, fmt.Errorf("解析图片 %s 失败: %w", name, err)
		}
		paths[name] = p
		res.Logger.Debug("resolved image", "image", name, "key", arg.Key, "path", p)

		overrideDir, rel := dir, strings.TrimPrefix(p, dir+"/")
		if rel == p {
			overrideDir, rel = path.Dir(p), path.Base(p)
		}
		resolved, err = res.ApplyAssetOverrides(state, resolved, e.Store, overrideDir, rel)
		if err != nil {
			return nil, nil, fmt.Errorf("应用图片 %s 的覆盖表失败: %w", name, err)
		}
	}
	return resolved, paths, nil
}
