// internal/service/flashpromo/domain/segment.go
package domain

import (
	"fmt"
	"sort"
)

// Segment 是用户行为分群标签。封闭枚举，促销按分群定向投放。
type Segment string

const (
	SegmentNewUsers       Segment = "new_users"
	SegmentFrequentBuyers Segment = "frequent_buyers"
	SegmentVIPCustomers   Segment = "vip_customers"
	SegmentLocationBased  Segment = "location_based"
	SegmentTimeBased      Segment = "time_based"
	SegmentBehaviorBased  Segment = "behavior_based"
)

// AllSegments 返回全部可用分群。
func AllSegments() []Segment {
	return []Segment{
		SegmentNewUsers,
		SegmentFrequentBuyers,
		SegmentVIPCustomers,
		SegmentLocationBased,
		SegmentTimeBased,
		SegmentBehaviorBased,
	}
}

// ParseSegment 将字符串解析为 Segment，非法值返回 ErrValidation。
func ParseSegment(s string) (Segment, error) {
	seg := Segment(s)
	switch seg {
	case SegmentNewUsers, SegmentFrequentBuyers, SegmentVIPCustomers,
		SegmentLocationBased, SegmentTimeBased, SegmentBehaviorBased:
		return seg, nil
	}
	return "", fmt.Errorf("%w: invalid user segment: %q", ErrValidation, s)
}

// ParseSegments 批量解析，任何一个非法即整体失败。
func ParseSegments(values []string) (SegmentSet, error) {
	set := NewSegmentSet()
	for _, v := range values {
		seg, err := ParseSegment(v)
		if err != nil {
			return nil, err
		}
		set.Add(seg)
	}
	return set, nil
}

// DisplayName 返回面向用户的展示名。
func (s Segment) DisplayName() string {
	switch s {
	case SegmentNewUsers:
		return "New Users"
	case SegmentFrequentBuyers:
		return "Frequent Buyers"
	case SegmentVIPCustomers:
		return "VIP Customers"
	case SegmentLocationBased:
		return "Location Based"
	case SegmentTimeBased:
		return "Time Based"
	case SegmentBehaviorBased:
		return "Behavior Based"
	}
	return string(s)
}

// SegmentSet 是分群的集合。
type SegmentSet map[Segment]struct{}

// NewSegmentSet 以给定分群构建集合。
func NewSegmentSet(segments ...Segment) SegmentSet {
	set := make(SegmentSet, len(segments))
	for _, s := range segments {
		set[s] = struct{}{}
	}
	return set
}

func (s SegmentSet) Add(seg Segment)      { s[seg] = struct{}{} }
func (s SegmentSet) Remove(seg Segment)   { delete(s, seg) }
func (s SegmentSet) Has(seg Segment) bool { _, ok := s[seg]; return ok }
func (s SegmentSet) Len() int             { return len(s) }
func (s SegmentSet) IsEmpty() bool        { return len(s) == 0 }

// Intersects 判断两个集合是否有交集。
func (s SegmentSet) Intersects(other SegmentSet) bool {
	for seg := range s {
		if other.Has(seg) {
			return true
		}
	}
	return false
}

// Clone 返回集合的浅拷贝。
func (s SegmentSet) Clone() SegmentSet {
	out := make(SegmentSet, len(s))
	for seg := range s {
		out[seg] = struct{}{}
	}
	return out
}

// Values 返回排序后的分群列表，保证序列化输出稳定。
func (s SegmentSet) Values() []Segment {
	out := make([]Segment, 0, len(s))
	for seg := range s {
		out = append(out, seg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings 返回排序后的字符串列表。
func (s SegmentSet) Strings() []string {
	values := s.Values()
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
