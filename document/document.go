// Package document 定义配置片段与解析结果共用的递归文档结构，以及深度合并规则。
package document

// Document 是字符串键到值的映射，值可以是 Document、标量（string/float64/int/bool/nil）或 []any。
type Document map[string]any

// 片段顶层的保留键，合并完成后会被剥离。
const (
	KeyPredicate = "predicate"
	KeySort      = "sort"
)

// AsDocument 将 Document 或 map[string]any 统一视为 Document。
func AsDocument(v any) (Document, bool) {
	switch m := v.(type) {
	case Document:
		return m, true
	case map[string]any:
		return Document(m), true
	default:
		return nil, false
	}
}

// Clone 深拷贝任意文档值；映射统一转换为 Document。
func Clone(v any) any {
	switch c := v.(type) {
	case Document:
		return cloneMap(c)
	case map[string]any:
		return cloneMap(c)
	case []any:
		out := make([]any, len(c))
		for i, item := range c {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

func cloneMap(m map[string]any) Document {
	out := make(Document, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

// Clone 返回 d 的深拷贝。
func (d Document) Clone() Document {
	if d == nil {
		return Document{}
	}
	return cloneMap(d)
}

// Merge 返回 a 与 b 的深度合并结果，不修改任何输入。
// 两侧同键且都是映射时递归合并；否则取 b 的值（右侧优先）。
func Merge(a, b Document) Document {
	out := make(Document, len(a)+len(b))
	for key, av := range a {
		bv, ok := b[key]
		if !ok {
			out[key] = Clone(av)
			continue
		}
		am, aIsDoc := AsDocument(av)
		bm, bIsDoc := AsDocument(bv)
		if aIsDoc && bIsDoc {
			out[key] = Merge(am, bm)
			continue
		}
		out[key] = Clone(bv)
	}
	for key, bv := range b {
		if _, ok := a[key]; !ok {
			out[key] = Clone(bv)
		}
	}
	return out
}

// Without 返回去掉指定顶层键后的浅层副本，嵌套值仍与 d 共享。
func (d Document) Without(keys ...string) Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Normalize 将解码器产生的 map[string]any / map[any]any 递归转换为 Document。
// yaml 在非字符串键时会生成 map[any]any，这里统一按 fmt 字符串化键名。
func Normalize(v any) any {
	switch c := v.(type) {
	case Document:
		return normalizeMap(c)
	case map[string]any:
		return normalizeMap(c)
	case map[any]any:
		m := make(map[string]any, len(c))
		for k, val := range c {
			m[keyString(k)] = val
		}
		return normalizeMap(m)
	case []any:
		out := make([]any, len(c))
		for i, item := range c {
			out[i] = Normalize(item)
		}
		return out
	default:
		return v
	}
}

func normalizeMap(m map[string]any) Document {
	out := make(Document, len(m))
	for k, v := range m {
		out[k] = Normalize(v)
	}
	return out
}
