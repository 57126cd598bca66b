package workflow

import (
	"sort"

	"github.com/BaSui01/gtmflow/types"
)

// FieldSet 字段名集合，记录首次加入顺序。
type FieldSet struct {
	order []string
	set   map[string]struct{}
}

// NewFieldSet 创建集合并依次加入 fields。
func NewFieldSet(fields ...string) *FieldSet {
	fs := &FieldSet{set: make(map[string]struct{}, len(fields))}
	for _, f := range fields {
		fs.Add(f)
	}
	return fs
}

// Add 加入字段；已存在时不改变顺序。
func (s *FieldSet) Add(field string) {
	if _, ok := s.set[field]; ok {
		return
	}
	s.set[field] = struct{}{}
	s.order = append(s.order, field)
}

// Has reports whether field is in the set. A nil set is empty.
func (s *FieldSet) Has(field string) bool {
	if s == nil {
		return false
	}
	_, ok := s.set[field]
	return ok
}

// Len 返回元素个数。
func (s *FieldSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Fields 按加入顺序返回字段。
func (s *FieldSet) Fields() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Sorted 按字典序返回字段，用于与顺序无关的比较。
func (s *FieldSet) Sorted() []string {
	out := s.Fields()
	sort.Strings(out)
	return out
}

// EvaluateCondition 对表单数据求值单个条件。未知运算符恒为 false。
func EvaluateCondition(c types.Condition, data types.FormData) bool {
	value, present := data.Get(c.Field)

	switch c.Operator {
	case types.OperatorEquals:
		// 缺失字段与 null 同视为 nil
		return types.StrictEqual(value, c.Value)
	case types.OperatorNotEquals:
		return !types.StrictEqual(value, c.Value)
	case types.OperatorExists:
		return present && !types.IsBlank(value)
	case types.OperatorNotExists:
		return !present || types.IsBlank(value)
	default:
		return false
	}
}

// HiddenFields 计算需要隐藏的字段集合。
//
// 条件彼此独立求值后取并集：hideFields 在条件成立时隐藏目标字段，
// showFields 在条件不成立时隐藏目标字段。字段一旦被加入就不会被后续条件移除，
// 两个条件对同一字段意见相左时，隐藏者胜出。
func HiddenFields(conditions []types.Condition, data types.FormData) *FieldSet {
	hidden := NewFieldSet()
	for _, c := range conditions {
		holds := EvaluateCondition(c, data)
		switch c.Action.Type {
		case types.ActionHideFields:
			if holds {
				for _, f := range c.Action.Fields {
					hidden.Add(f)
				}
			}
		case types.ActionShowFields:
			if !holds {
				for _, f := range c.Action.Fields {
					hidden.Add(f)
				}
			}
		}
	}
	return hidden
}
