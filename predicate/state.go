package predicate

import "sort"

// 引擎使用的谓词类别。
const (
	CategoryTextbox = "textbox"
	CategoryImage   = "image"
	CategoryFlag    = "flag"
	CategoryMode    = "mode"
)

// State 记录本次请求中每个类别下处于激活状态的标签集合。
// 类别存在但集合为空与类别不存在是两种不同的状态：后者使该类别的子句恒为真。
type State map[string]map[string]struct{}

// NewState 返回声明了引擎标准类别（均为空集）的状态。
func NewState() State {
	s := State{}
	for _, c := range []string{CategoryTextbox, CategoryImage, CategoryFlag, CategoryMode} {
		s.Declare(c)
	}
	return s
}

// FromLists 由类别到标签列表的映射构造状态。
func FromLists(lists map[string][]string) State {
	s := State{}
	for category, tags := range lists {
		s.Add(category, tags...)
	}
	return s
}

// Declare 声明一个类别而不添加任何标签。
func (s State) Declare(category string) {
	if _, ok := s[category]; !ok {
		s[category] = map[string]struct{}{}
	}
}

// Add 向类别添加标签，必要时声明该类别。
func (s State) Add(category string, tags ...string) {
	s.Declare(category)
	for _, tag := range tags {
		s[category][tag] = struct{}{}
	}
}

// Has 返回 tag 是否属于 category，以及 category 是否已声明。
func (s State) Has(category, tag string) (member, known bool) {
	set, known := s[category]
	if !known {
		return false, false
	}
	_, member = set[tag]
	return member, true
}

// Tags 返回类别下排序后的标签，便于日志输出。
func (s State) Tags(category string) []string {
	out := make([]string, 0, len(s[category]))
	for tag := range s[category] {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
