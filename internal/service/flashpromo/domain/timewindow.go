// internal/service/flashpromo/domain/timewindow.go
package domain

import (
	"fmt"
	"time"
)

// TimeOfDay 是自午夜起的秒数。促销窗口只看本地墙钟的时刻，不绑定日期。
type TimeOfDay int

// NewTimeOfDay 以时分秒构造 TimeOfDay。
func NewTimeOfDay(hour, minute, second int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("%w: invalid time of day %02d:%02d:%02d", ErrValidation, hour, minute, second)
	}
	return TimeOfDay(hour*3600 + minute*60 + second), nil
}

// ParseTimeOfDay 解析 "17:00" 或 "17:00:30" 形式的时刻。
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var hour, minute, second int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &hour, &minute, &second); err != nil {
		second = 0
		if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
			return 0, fmt.Errorf("%w: invalid time of day %q", ErrValidation, s)
		}
	}
	return NewTimeOfDay(hour, minute, second)
}

// TimeOfDayFrom 提取 time.Time 的时刻部分。
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return int(t) / 60 % 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// TimeWindow 是促销生效的时间窗口（每日重复，不跨午夜）。
// 窗口只决定 is-currently-active 判定，不驱动任何存储状态变化。
type TimeWindow struct {
	start TimeOfDay
	end   TimeOfDay
}

// NewTimeWindow 构造 TimeWindow，要求 start < end。
func NewTimeWindow(start, end TimeOfDay) (TimeWindow, error) {
	if start >= end {
		return TimeWindow{}, fmt.Errorf("%w: start time must be before end time", ErrValidation)
	}
	return TimeWindow{start: start, end: end}, nil
}

// Start 返回窗口起点。
func (w TimeWindow) Start() TimeOfDay { return w.start }

// End 返回窗口终点。
func (w TimeWindow) End() TimeOfDay { return w.end }

// ActiveAt 判断给定时间的墙钟时刻是否落在窗口内，两端都是闭区间。
func (w TimeWindow) ActiveAt(t time.Time) bool {
	return w.ActiveAtTimeOfDay(TimeOfDayFrom(t))
}

// ActiveAtTimeOfDay 判断给定时刻是否落在窗口内。
func (w TimeWindow) ActiveAtTimeOfDay(t TimeOfDay) bool {
	return w.start <= t && t <= w.end
}

// DurationMinutes 返回窗口时长（分钟）。
func (w TimeWindow) DurationMinutes() int {
	return (int(w.end) - int(w.start)) / 60
}

func (w TimeWindow) Equal(other TimeWindow) bool {
	return w.start == other.start && w.end == other.end
}

func (w TimeWindow) String() string {
	return w.start.String() + " - " + w.end.String()
}
