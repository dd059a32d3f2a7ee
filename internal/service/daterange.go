package service

import (
	"time"

	"econet-data/internal/domain"
)

// Filter 命名时间过滤器
type Filter string

const (
	FilterToday     Filter = "today"
	FilterThisWeek  Filter = "thisWeek"
	FilterThisMonth Filter = "thisMonth"
	FilterLastMonth Filter = "lastMonth"
)

// Window 时间窗口，[Start, End) 左闭右开，UTC
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains 判断时间点是否落在窗口内
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Range 当前窗口 + 用于环比的上一窗口
// Hourly 为 true 时按小时分桶（today / 指定缩放日），否则按自然日
type Range struct {
	Current  Window
	Previous Window
	Hourly   bool
}

// ResolveRange 把命名过滤器解析为 UTC 时间窗口
// zoomDate 非空时表示缩放到具体某一天（覆盖 filter），按小时分桶。
// 边界：
//   - today:     [今日零点, 明日零点)，上一期为昨日全天
//   - thisWeek:  [周一零点, now)，上一期为整体左移 7 天的同等窗口
//   - thisMonth: [本月一日零点, now)，上一期为上月同等经过时长
//   - lastMonth: 上一个完整自然月，上一期为再往前一个完整自然月
func ResolveRange(filter Filter, zoomDate *time.Time, now time.Time) (Range, error) {
	now = now.UTC()

	if zoomDate != nil {
		day := startOfDay(zoomDate.UTC())
		return Range{
			Current:  Window{Start: day, End: day.AddDate(0, 0, 1)},
			Previous: Window{Start: day.AddDate(0, 0, -1), End: day},
			Hourly:   true,
		}, nil
	}

	switch filter {
	case FilterToday:
		day := startOfDay(now)
		return Range{
			Current:  Window{Start: day, End: day.AddDate(0, 0, 1)},
			Previous: Window{Start: day.AddDate(0, 0, -1), End: day},
			Hourly:   true,
		}, nil

	case FilterThisWeek:
		// 周一为一周起点
		offset := (int(now.Weekday()) + 6) % 7
		start := startOfDay(now).AddDate(0, 0, -offset)
		return Range{
			Current:  Window{Start: start, End: now},
			Previous: Window{Start: start.AddDate(0, 0, -7), End: now.AddDate(0, 0, -7)},
		}, nil

	case FilterThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Range{
			Current:  Window{Start: start, End: now},
			Previous: Window{Start: start.AddDate(0, -1, 0), End: now.AddDate(0, -1, 0)},
		}, nil

	case FilterLastMonth:
		thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		lastMonth := thisMonth.AddDate(0, -1, 0)
		monthBefore := thisMonth.AddDate(0, -2, 0)
		return Range{
			Current:  Window{Start: lastMonth, End: thisMonth},
			Previous: Window{Start: monthBefore, End: lastMonth},
		}, nil

	default:
		return Range{}, domain.NewValidationError("unknown filter: %s", string(filter))
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
