package layout

import (
	"math/bits"
	"strings"
)

// LineBreak 是 Wrap 输出中的行分隔符。
const LineBreak = "\n"

// Wrap 将 text 折行，使每一行在 widthOf 的度量下窄于 maxWidth。
//
// 对剩余文本：整体宽度小于 maxWidth 时原样输出；否则用 ⌊log2(n)+1⌋ 次二分探测找到
// 仍窄于 maxWidth 的最长前缀 lastBelow（宽度恰好相等时立即停止），再从该位置向前
// 寻找最近的空格断行并吞掉该空格；没有空格或 breakOnAny 为真时在 lastBelow 处硬断。
// 文本中已有的换行视为强制断行，各段独立折行。长度以 rune 计。
func Wrap(text string, maxWidth float64, widthOf func(string) float64, breakOnAny bool) string {
	paragraphs := strings.Split(text, LineBreak)
	for i, p := range paragraphs {
		paragraphs[i] = wrapParagraph([]rune(p), maxWidth, widthOf, breakOnAny)
	}
	return strings.Join(paragraphs, LineBreak)
}

func wrapParagraph(cut []rune, maxWidth float64, widthOf func(string) float64, breakOnAny bool) string {
	var lines []string
	for len(cut) > 0 {
		if widthOf(string(cut)) < maxWidth {
			lines = append(lines, string(cut))
			break
		}
		lastBelow := searchFit(cut, maxWidth, widthOf)
		if lastBelow == 0 {
			// 连一个字符都放不下时仍输出一个字符，保证循环前进
			lastBelow = 1
		}
		breakPos := lastSpace(cut, lastBelow)
		if breakPos == -1 || breakOnAny {
			lines = append(lines, string(cut[:lastBelow]))
			cut = cut[lastBelow:]
			continue
		}
		lines = append(lines, string(cut[:breakPos]))
		cut = cut[breakPos+1:]
	}
	// 剩余为空时不产生末尾空行
	return strings.Join(lines, LineBreak)
}

// searchFit 二分查找最长的、宽度小于 maxWidth 的前缀长度。
// 度量只保证单调不减（字距调整会产生平台），因此探测次数固定为 ⌊log2(n)+1⌋。
func searchFit(cut []rune, maxWidth float64, widthOf func(string) float64) int {
	n := len(cut)
	start, end := 0, n
	lastBelow := 0
	for i := 0; i < bits.Len(uint(n)); i++ {
		cur := max(end-start, 0)/2 + start
		if cur > n {
			cur = n
		}
		w := widthOf(string(cut[:cur]))
		switch {
		case w < maxWidth:
			start = cur + 1
			lastBelow = cur
		case w > maxWidth:
			end = cur - 1
		default:
			return cur
		}
	}
	return lastBelow
}

// lastSpace 返回 cut[0:limit+1] 中最后一个空格的下标，没有则返回 -1。
func lastSpace(cut []rune, limit int) int {
	limit = min(limit+1, len(cut))
	for i := limit - 1; i >= 0; i-- {
		if cut[i] == ' ' {
			return i
		}
	}
	return -1
}

// CountLines 返回折行文本的行数。
func CountLines(wrapped string) int {
	return strings.Count(wrapped, LineBreak) + 1
}

// CutLines 只保留前 maxLines 行，丢弃其后的全部内容（不加省略号）。
func CutLines(wrapped string, maxLines int) string {
	if maxLines <= 0 || CountLines(wrapped) <= maxLines {
		return wrapped
	}
	if i := findNth(wrapped, LineBreak, maxLines); i >= 0 {
		return wrapped[:i]
	}
	return wrapped
}

func findNth(haystack, needle string, n int) int {
	start := strings.Index(haystack, needle)
	for start >= 0 && n > 1 {
		next := strings.Index(haystack[start+len(needle):], needle)
		if next < 0 {
			return -1
		}
		start += len(needle) + next
		n--
	}
	return start
}
