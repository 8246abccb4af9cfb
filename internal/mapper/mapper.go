package mapper

import (
	"fmt"
	"log"
	"os"

	"zhipin-sync/internal/brandmap"
	"zhipin-sync/internal/model"
)

// Converter 将上游原始记录转换为单品牌的部分领域文档。
// 纯转换层：不做网络与存储 I/O，不持有可变共享状态。
type Converter struct {
	brands brandmap.Lookup
	logger *log.Logger
}

// New 创建 Converter，未提供 logger 时默认输出到标准输出。
func New(brands brandmap.Lookup, logger *log.Logger) *Converter {
	if logger == nil {
		logger = log.New(os.Stdout, "[mapper] ", log.LstdFlags)
	}
	return &Converter{brands: brands, logger: logger}
}

// Convert 转换一个组织的列表响应。
// 单条记录缺失必填字段时跳过该条继续分组，不中断整批；
// 仅响应封套本身非法（code != 0）才返回错误。
func (c *Converter) Convert(resp model.RawListResponse, orgID int64) (*model.ZhipinData, error) {
	if resp.Code != 0 {
		return nil, fmt.Errorf("invalid list response: code=%d message=%s", resp.Code, resp.Message)
	}

	brandName, ok := c.brands.BrandName(orgID)
	if !ok {
		brandName = brandmap.PlaceholderBrand(orgID)
		c.logger.Printf("org=%d not in brand map, using placeholder %s", orgID, brandName)
	}

	stores := make([]model.Store, 0)
	index := make(map[string]int)

	for _, raw := range resp.Data.Result {
		if raw.StoreID == "" || raw.JobID == 0 || raw.JobName == "" {
			c.logger.Printf("org=%d skip malformed record storeId=%q jobId=%d", orgID, raw.StoreID, raw.JobID)
			continue
		}

		i, seen := index[raw.StoreID]
		if !seen {
			district, subarea := splitAddress(raw.StoreAddress)
			stores = append(stores, model.Store{
				ID:       "store_" + raw.StoreID,
				Name:     raw.StoreName,
				Brand:    brandName,
				Location: raw.StoreAddress,
				District: district,
				Subarea:  subarea,
				// 坐标不做地理编码，保留占位值
				Coordinates:    model.Coordinates{},
				Transportation: "",
				Positions:      make([]model.Position, 0, 1),
			})
			i = len(stores) - 1
			index[raw.StoreID] = i
		}

		stores[i].Positions = append(stores[i].Positions, buildPosition(raw))
	}

	return &model.ZhipinData{
		DefaultBrand: brandName,
		Brands: map[string]model.BrandConfig{
			brandName: DefaultBrandConfig(),
		},
		Stores: stores,
	}, nil
}

// buildPosition 由一条原始记录推导规范化岗位，全部为确定性转换。
func buildPosition(raw model.RawPositionRecord) model.Position {
	arr := raw.WorkTimeArrangement

	slots := make([]string, 0, len(arr.WorkTimeList))
	for _, wt := range arr.WorkTimeList {
		slot, err := FormatTimeSlot(wt.StartTime, wt.EndTime)
		if err != nil {
			continue
		}
		slots = append(slots, slot)
	}

	rng, bonus := ParseSalaryDetails(raw.SalaryMemo)

	scheduleType := model.ScheduleFixed
	if raw.CooperationMode == 2 {
		scheduleType = model.ScheduleFlexible
	}

	policy := model.AttendancePolicy{
		PunctualityRequired:  false,
		LateToleranceMinutes: 15,
		MakeupShiftsAllowed:  true,
	}
	requirement := "弹性考勤，迟到15分钟以内不计，可安排补班"
	if raw.CooperationMode == 3 {
		// 全职岗位考勤从严
		policy = model.AttendancePolicy{
			PunctualityRequired:  true,
			LateToleranceMinutes: 5,
			MakeupShiftsAllowed:  false,
		}
		requirement = "严格考勤，迟到不得超过5分钟，不支持补班"
	}

	return model.Position{
		ID:        fmt.Sprintf("pos_%d_%s", raw.JobID, raw.StoreID),
		Name:      raw.JobName,
		TimeSlots: slots,
		Salary: model.Salary{
			Base:  raw.Salary,
			Range: rng,
			Bonus: bonus,
			Memo:  raw.SalaryMemo,
		},
		Benefits:         buildBenefits(raw.Welfare, raw.SalaryMemo),
		ScheduleType:     scheduleType,
		AttendancePolicy: policy,
		SchedulingFlexibility: model.SchedulingFlexibility{
			ShiftSwapAllowed:   arr.Type == 2 || arr.Type == 3,
			AdvanceNoticeHours: arr.MaxWorkTakingTime / 3600,
			WeekendRequired:    hasWeekend(arr.WeekDays),
		},
		MinHoursPerWeek:       arr.DailyMinHours * float64(arr.PerWeekWorkDays),
		MaxHoursPerWeek:       arr.DailyMinHours * 7,
		AttendanceRequirement: requirement,
		WorkDays:              remapWeekdays(arr.WeekDays),
		RequirementNum:        raw.RequirementNum,
		SignUpNum:             raw.SignUpNum,
	}
}

// RemapWeekday 将上游星期（0=周日..6=周六）映射为规范星期（1=周一..7=周日）。
func RemapWeekday(d int) int {
	if d == 0 {
		return 7
	}
	return d
}

func remapWeekdays(days []int) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		out = append(out, RemapWeekday(d))
	}
	return out
}

func hasWeekend(days []int) bool {
	for _, d := range days {
		if d == 0 || d == 6 {
			return true
		}
	}
	return false
}
