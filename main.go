package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/ByLCY/textboxer/config"
	"github.com/ByLCY/textboxer/document"
	"github.com/ByLCY/textboxer/engine"
	"github.com/ByLCY/textboxer/layout"
	"github.com/ByLCY/textboxer/output"
	"github.com/ByLCY/textboxer/renderer"
	canvasrenderer "github.com/ByLCY/textboxer/renderer/canvas"
	"github.com/ByLCY/textboxer/store"
)

type options struct {
	configPath string
	out        string
	debug      bool
	debugJSON  string
	resources  string
	mode       string
	filter     string
	style      string
	query      string
}

func main() {
	var opts options
	fs := pflag.NewFlagSet("textboxer", pflag.ExitOnError)
	fs.StringVar(&opts.configPath, "config", "", "配置文件路径（默认读取 $"+config.EnvVar+"）")
	fs.StringVarP(&opts.out, "out", "o", "", "PNG 输出路径，缺省时写入标准输出")
	fs.BoolVar(&opts.debug, "debug", false, "输出调试日志")
	fs.StringVar(&opts.debugJSON, "debug-json", "", "布局调试 JSON 输出路径")
	fs.StringVar(&opts.resources, "resources", "", "资源目录")
	fs.StringVar(&opts.mode, "mode", "", "参数模式: str 或 args")
	fs.StringVar(&opts.filter, "filter", "", "默认缩放滤镜")
	fs.StringVar(&opts.style, "style", "", "默认样式，覆盖资源中的 defaultstyle")
	fs.StringVar(&opts.query, "query", "", "只输出解析后配置在该路径的值，例如 textboxes.main 或 images.box.divide[0]")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: textboxer [flags] [style] <参数>...\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if err := run(fs, opts, fs.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "textboxer: %v\n", err)
		os.Exit(1)
	}
}

// run 串联配置、解析、布局与渲染。
func run(fs *pflag.FlagSet, opts options, positional []string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, fs, opts)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := output.NewLogger(level)

	st, err := store.Open(cfg.Resources)
	if err != nil {
		return err
	}
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Assets: st, Filter: cfg.Filter, Logger: logger})

	e := &engine.Engine{Store: st, Typesetter: r, Logger: logger, DefaultStyle: cfg.DefaultStyle, Filter: cfg.Filter}
	plan, err := e.Plan(engine.Request{Mode: cfg.Mode, Args: positional})
	if err != nil {
		return err
	}
	logger.Debug("planned", "style", plan.Style, "images", len(plan.Result.Images), "texts", len(plan.Result.Texts))

	if opts.query != "" {
		return printQuery(plan.Document, opts.query)
	}
	if cfg.DebugJSON != "" {
		if err := writeDebug(plan.Result, cfg.DebugJSON); err != nil {
			return err
		}
	}
	return render(r, plan.Result, opts.out)
}

// applyFlags 让显式设置的命令行参数覆盖配置文件。
func applyFlags(cfg *config.Config, fs *pflag.FlagSet, opts options) {
	if fs.Changed("resources") {
		cfg.Resources = opts.resources
	}
	if fs.Changed("mode") {
		cfg.Mode = opts.mode
	}
	if fs.Changed("filter") {
		cfg.Filter = opts.filter
	}
	if fs.Changed("style") {
		cfg.DefaultStyle = opts.style
	}
	if fs.Changed("debug-json") {
		cfg.DebugJSON = opts.debugJSON
	}
}

func render(r renderer.Renderer, result *layout.Result, out string) error {
	img, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if out == "" {
		return output.Show(img, os.Stdout)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	return output.Save(img, out)
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

// printQuery 输出解析后配置在 path 处的值，便于调试样式片段。
func printQuery(doc document.Document, path string) error {
	v, ok := doc.Lookup(path)
	if !ok {
		return &document.ConfigError{Path: path, Reason: "解析后的配置中不存在该路径"}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化 %s 失败: %w", path, err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
