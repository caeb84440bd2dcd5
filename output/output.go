// Package output writes rendered images.
package output

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// ErrTerminal is returned by Show when stdout is a terminal, where raw PNG
// bytes would be unreadable.
var ErrTerminal = errors.New("标准输出是终端，请使用 --out 指定输出文件")

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return nil
}

// Save writes img as a PNG file at path.
func Save(img image.Image, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("关闭输出文件失败: %w", cerr)
		}
	}()
	return Encode(f, img)
}

// Show writes img to f (normally os.Stdout) unless f is a terminal.
func Show(img image.Image, f *os.File) error {
	if IsTerminal(f) {
		return ErrTerminal
	}
	return Encode(f, img)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewLogger creates the command logger on stderr: text for terminals, JSON
// when stderr is piped or redirected.
func NewLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if IsTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
