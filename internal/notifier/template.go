package notifier

import (
	"strconv"
	"strings"

	"github.com/jgoulah/dormwatch/pkg/models"
)

const (
	defaultTitle   = "⚠️ 电量不足提醒 - {dorm_name}"
	defaultContent = "宿舍 {dorm_name} 剩余电量 {power} 度，低于提醒阈值 {threshold} 度，请及时充值。\n\n查询时间：{time}\n宿舍编号：{dorm_id}\n宿舍类型：{dorm_type}"
)

// TimeLayout is how {time} is rendered
const TimeLayout = "2006-01-02 15:04:05"

// Render substitutes {dorm_name}, {power}, {threshold}, {time}, {dorm_id}
// and {dorm_type} in tmpl. Unknown placeholders are left as-is.
func Render(tmpl string, alert models.Alert) string {
	return strings.NewReplacer(
		"{dorm_name}", alert.Room.Name,
		"{power}", FormatPower(alert.Value),
		"{threshold}", FormatPower(alert.Threshold),
		"{time}", alert.Timestamp.Format(TimeLayout),
		"{dorm_id}", alert.Room.ID,
		"{dorm_type}", alert.Room.Type,
	).Replace(tmpl)
}

// FormatPower prints a value with as few digits as needed
func FormatPower(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
