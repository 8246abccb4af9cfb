package mapper

import (
	"fmt"
	"regexp"
	"strings"

	"zhipin-sync/internal/model"
)

const secondsPerDay = 86400

// FormatSecondsOfDay 将当日秒数格式化为 "HH:MM"，非整分值带秒 "HH:MM:SS"。
// 与 ParseSecondsOfDay 在 [0, 86400) 上严格互逆。
func FormatSecondsOfDay(sec int) (string, error) {
	if sec < 0 || sec >= secondsPerDay {
		return "", fmt.Errorf("seconds of day out of range: %d", sec)
	}
	h := sec / 3600
	m := sec % 3600 / 60
	s := sec % 60
	if s == 0 {
		return fmt.Sprintf("%02d:%02d", h, m), nil
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s), nil
}

// ParseSecondsOfDay 解析 "HH:MM" 或 "HH:MM:SS" 为当日秒数。
func ParseSecondsOfDay(text string) (int, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q", text)
	}
	var h, m, s int
	if _, err := fmt.Sscanf(parts[0]+":"+parts[1], "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", text, err)
	}
	if len(parts) == 3 {
		if _, err := fmt.Sscanf(parts[2], "%d", &s); err != nil {
			return 0, fmt.Errorf("invalid time of day %q: %w", text, err)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
		return 0, fmt.Errorf("time of day out of range %q", text)
	}
	return h*3600 + m*60 + s, nil
}

// FormatTimeSlot 将班段起止秒数格式化为 "HH:MM~HH:MM" 字符串。
func FormatTimeSlot(start, end int) (string, error) {
	s, err := FormatSecondsOfDay(start)
	if err != nil {
		return "", fmt.Errorf("start: %w", err)
	}
	e, err := FormatSecondsOfDay(end)
	if err != nil {
		return "", fmt.Errorf("end: %w", err)
	}
	return s + "~" + e, nil
}

// ParseTimeSlot 解析 "HH:MM~HH:MM" 为起止秒数。
func ParseTimeSlot(slot string) (int, int, error) {
	parts := strings.Split(slot, "~")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time slot %q", slot)
	}
	start, err := ParseSecondsOfDay(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseSecondsOfDay(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

var (
	salaryRangeRe = regexp.MustCompile(`\d+(?:\.\d+)?元-\d+(?:\.\d+)?元`)
	salaryBonusRe = regexp.MustCompile(`奖金[^，。；！,.;!\s]*`)
)

// ParseSalaryDetails 从薪资备注中尽力提取价格区间与奖金说明。
// 未命中时返回空串，不报错；这是启发式解析，不保证结构化结果。
func ParseSalaryDetails(memo string) (rng string, bonus string) {
	rng = salaryRangeRe.FindString(memo)
	bonus = salaryBonusRe.FindString(memo)
	return rng, bonus
}

// defaultBenefit 兜底福利标签，保证福利列表永不为空。
const defaultBenefit = "按国家规定"

// 福利关键词到规范标签的固定映射，命中即追加。
var benefitKeywords = []struct {
	keyword string
	label   string
}{
	{"保险", "有保险"},
	{"年假", "带薪年假"},
	{"补贴", "有补贴"},
	{"股票", "股票福利"},
	{"学历", "学历教育福利"},
}

func buildBenefits(w model.RawWelfare, memo string) model.Benefits {
	items := make([]string, 0, 4)
	seen := make(map[string]struct{})
	add := func(label string) {
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		items = append(items, label)
	}

	if w.HaveInsurance == 1 {
		add("有保险")
	}
	if w.Accommodation == 1 {
		add("包住宿")
	}
	if w.Catering == 1 {
		add("包餐")
	}

	text := strings.Join(w.WelfareList, " ") + " " + memo
	for _, kw := range benefitKeywords {
		if strings.Contains(text, kw.keyword) {
			add(kw.label)
		}
	}

	if len(items) == 0 {
		items = append(items, defaultBenefit)
	}

	benefits := model.Benefits{Items: items}
	if strings.Contains(text, "晋升") {
		benefits.Promotion = "有晋升通道"
	}
	return benefits
}

func splitAddress(addr string) (district, subarea string) {
	runes := []rune(addr)

	start := 0
	if i := indexRune(runes, '市'); i >= 0 && i+1 < len(runes) {
		start = i + 1
	}
	di := indexRuneFrom(runes, start, '区')
	if di < 0 {
		return "", ""
	}
	district = string(runes[start : di+1])

	rest := runes[di+1:]
	for j, r := range rest {
		if r == '路' || r == '街' || r == '道' {
			subarea = string(rest[:j+1])
			break
		}
	}
	return district, subarea
}

func indexRune(runes []rune, target rune) int {
	return indexRuneFrom(runes, 0, target)
}

func indexRuneFrom(runes []rune, start int, target rune) int {
	for i := start; i < len(runes); i++ {
		if runes[i] == target {
			return i
		}
	}
	return -1
}
