package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FormData 是节点表单数据：键唯一的 JSON 兼容映射。
//
// 值域是封闭的递归类型：string | float64 | bool | nil | []any | map[string]any。
// 从 JSON 解码得到的数据天然满足该约束；通过 Go 代码构造的数据可用 Normalize 收敛。
type FormData map[string]any

// Clone 深拷贝表单数据。nil 返回 nil。
func (d FormData) Clone() FormData {
	if d == nil {
		return nil
	}
	out := make(FormData, len(d))
	for k, v := range d {
		out[k] = CloneValue(v)
	}
	return out
}

// Get 返回字段值及其是否存在。
func (d FormData) Get(field string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d[field]
	return v, ok
}

// String 返回字符串字段，不存在或类型不符时返回 fallback。
func (d FormData) String(field, fallback string) string {
	if s, ok := d[field].(string); ok && s != "" {
		return s
	}
	return fallback
}

// Number 返回数值字段，0/不存在时返回 fallback。
func (d FormData) Number(field string, fallback float64) float64 {
	if f, ok := ToFloat(d[field]); ok && f != 0 {
		return f
	}
	return fallback
}

// Strings 返回字符串数组字段，缺失或为空时返回 fallback。
func (d FormData) Strings(field string, fallback []string) []string {
	raw, ok := d[field]
	if !ok || raw == nil {
		return fallback
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return fallback
}

// Map 返回嵌套对象字段。
func (d FormData) Map(field string) (map[string]any, bool) {
	return AsMap(d[field])
}

// AsMap 将 FormData / map[string]any 统一视为 map[string]any。
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case FormData:
		return map[string]any(m), true
	}
	return nil, false
}

// AsSlice 将 []any / []string / []map[string]any 统一视为 []any。
func AsSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	case []FormData:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = map[string]any(item)
		}
		return out, true
	}
	return nil, false
}

// CloneValue 深拷贝一个 JSON 兼容值。
func CloneValue(v any) any {
	if m, ok := AsMap(v); ok {
		out := make(map[string]any, len(m))
		for k, item := range m {
			out[k] = CloneValue(item)
		}
		return out
	}
	if s, ok := AsSlice(v); ok {
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = CloneValue(item)
		}
		return out
	}
	return v
}

// Normalize 把任意 Go 值收敛到封闭的 JSON 值域（数字统一为 float64）。
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, float64:
		return x, nil
	}
	if f, ok := ToFloat(v); ok {
		return f, nil
	}
	if m, ok := AsMap(v); ok {
		out := make(map[string]any, len(m))
		for k, item := range m {
			n, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	}
	if s, ok := AsSlice(v); ok {
		out := make([]any, len(s))
		for i, item := range s {
			n, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	}

	// 其他结构体等类型走一次 JSON 往返
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value of type %T is not JSON compatible: %w", v, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NormalizeFormData 对整张表单执行 Normalize。
func NormalizeFormData(d FormData) (FormData, error) {
	if d == nil {
		return nil, nil
	}
	n, err := Normalize(map[string]any(d))
	if err != nil {
		return nil, err
	}
	m, _ := AsMap(n)
	return FormData(m), nil
}

// ToFloat 识别 Go 的各类数值类型。
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// IsBlank 判断值是否为 null 或空字符串（"缺失"语义由调用方的 ok 标志承担）。
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// CanonicalJSON 返回值的规范 JSON 串：对象键排序、数字统一。
// 两个值当且仅当规范串相同时视为相等。
func CanonicalJSON(v any) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v any) {
	if m, ok := AsMap(v); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			b.Write(kb)
			b.WriteByte(':')
			writeCanonical(b, m[k])
		}
		b.WriteByte('}')
		return
	}
	if s, ok := AsSlice(v); ok {
		b.WriteByte('[')
		for i, item := range s {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
		return
	}
	if f, ok := ToFloat(v); ok {
		fb, _ := json.Marshal(f)
		b.Write(fb)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		// 非 JSON 值按类型+文本表示，保证总能得到一个确定的键
		fmt.Fprintf(b, "%T:%v", v, v)
		return
	}
	b.Write(data)
}

// StrictEqual 模拟严格相等：标量按值比较（数值统一为 float64），
// 数组与对象没有引用身份可比，恒为 false。
func StrictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		return ok && fa == fb
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return false
}

// LookupPath 沿路径段读取嵌套对象中的值。
func LookupPath(root map[string]any, path []string) (any, bool) {
	if len(path) == 0 || root == nil {
		return nil, false
	}
	var cur any = root
	for _, seg := range path {
		m, ok := AsMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
