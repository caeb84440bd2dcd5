package layout

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// runeWidth 以每个 rune 10 像素计宽。
func runeWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * 10
}

func TestWrapShortTextUnchanged(t *testing.T) {
	if got := Wrap("hello", 100, runeWidth, false); got != "hello" {
		t.Fatalf("got %q", got)
	}
	if got := Wrap("", 100, runeWidth, false); got != "" {
		t.Fatalf("empty text should stay empty, got %q", got)
	}
}

func TestWrapCutToTwoLines(t *testing.T) {
	wrapped := Wrap("A B C D", 25, runeWidth, false)
	if wrapped != "A\nB\nC\nD" {
		t.Fatalf("Wrap = %q", wrapped)
	}
	if got := CutLines(wrapped, 2); got != "A\nB" {
		t.Fatalf("CutLines = %q", got)
	}
	if got := CountLines(wrapped); got != 4 {
		t.Fatalf("CountLines = %d", got)
	}
}

func TestWrapLinesNarrowerThanMax(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog and keeps running far away"
	for _, maxWidth := range []float64{95, 150, 400} {
		wrapped := Wrap(text, maxWidth, runeWidth, false)
		for _, line := range strings.Split(wrapped, LineBreak) {
			// 宽度恰好等于上限的前缀会被直接采用
			if runeWidth(line) > maxWidth {
				t.Fatalf("max %g: line %q is %g wide", maxWidth, line, runeWidth(line))
			}
		}
		// 只吞掉断行处的空格，其余字符保持原序
		if strings.ReplaceAll(wrapped, LineBreak, " ") != text {
			t.Fatalf("max %g: characters not preserved: %q", maxWidth, wrapped)
		}
	}
}

func TestWrapIdempotent(t *testing.T) {
	text := "i'm in your website. what will you do. おやすみ、オヤスミ。"
	once := Wrap(text, 125, runeWidth, false)
	if twice := Wrap(once, 125, runeWidth, false); twice != once {
		t.Fatalf("wrap not idempotent:\n%q\n%q", once, twice)
	}
}

func TestWrapBreakOnAny(t *testing.T) {
	// 最长可容纳前缀为 4 个字符；breakOnAny 忽略空格直接硬断
	got := Wrap("ab cdefgh", 45, runeWidth, true)
	if got != "ab c\ndefg\nh" {
		t.Fatalf("got %q", got)
	}
	got = Wrap("ab cdefgh", 45, runeWidth, false)
	if got != "ab\ncdef\ngh" {
		t.Fatalf("got %q", got)
	}
}

func TestWrapNoSpaceHardBreak(t *testing.T) {
	if got := Wrap("abcdefghij", 45, runeWidth, false); got != "abcd\nefgh\nij" {
		t.Fatalf("got %q", got)
	}
}

func TestWrapProgressesOnOverwideRune(t *testing.T) {
	got := Wrap("abc", 5, runeWidth, false)
	if got != "a\nb\nc" {
		t.Fatalf("got %q", got)
	}
}

func TestWrapExactWidthShortCircuit(t *testing.T) {
	// 探测到宽度恰好等于上限的前缀时立即采用
	got := Wrap("abcdefgh", 40, runeWidth, true)
	if got != "abcd\nefgh" {
		t.Fatalf("got %q", got)
	}
}

func TestWrapPlateauMeasure(t *testing.T) {
	// 连续字符同宽的平台：宽度只在偶数长度时增长
	plateau := func(s string) float64 {
		n := utf8.RuneCountInString(s)
		return float64(n/2) * 20
	}
	wrapped := Wrap("aaaa bbbb cccc", 50, plateau, false)
	for _, line := range strings.Split(wrapped, LineBreak) {
		if plateau(line) >= 50 {
			t.Fatalf("line %q too wide in %q", line, wrapped)
		}
	}
}

func TestWrapKeepsExistingBreaks(t *testing.T) {
	got := Wrap("ab\ncd ef", 45, runeWidth, false)
	if got != "ab\ncd\nef" {
		t.Fatalf("got %q", got)
	}
}

func TestCutLinesNoLimit(t *testing.T) {
	if got := CutLines("a\nb\nc", 0); got != "a\nb\nc" {
		t.Fatalf("got %q", got)
	}
	if got := CutLines("a\nb", 5); got != "a\nb" {
		t.Fatalf("got %q", got)
	}
}
