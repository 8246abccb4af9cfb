package model

import "time"

// RawListResponse 上游职位列表接口的响应封套。
// code != 0 表示业务错误，即使 HTTP 状态为 200。
type RawListResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    RawListData `json:"data"`
}

// RawListData 分页结果体。
type RawListData struct {
	Result []RawPositionRecord `json:"result"`
	Total  int                 `json:"total"`
}

// RawPositionRecord 上游一条职位原始记录，仅在一次转换调用内存在。
type RawPositionRecord struct {
	StoreID             string                 `json:"storeId"`
	StoreName           string                 `json:"storeName"`
	StoreAddress        string                 `json:"storeAddress"`
	JobID               int64                  `json:"jobId"`
	JobName             string                 `json:"jobName"`
	Salary              float64                `json:"salary"`
	SalaryMemo          string                 `json:"salaryMemo"`
	Welfare             RawWelfare             `json:"welfare"`
	WorkTimeArrangement RawWorkTimeArrangement `json:"workTimeArrangement"`
	CooperationMode     int                    `json:"cooperationMode"`
	RequirementNum      int                    `json:"requirementNum"`
	SignUpNum           int                    `json:"signUpNum"`
}

// RawWelfare 上游福利字段，数值 1 表示提供。
type RawWelfare struct {
	HaveInsurance int      `json:"haveInsurance"`
	Accommodation int      `json:"accommodation"`
	Catering      int      `json:"catering"`
	WelfareList   []string `json:"welfareList"`
}

// RawWorkTimeArrangement 上游排班信息。
// - Type: 1 固定班次 2 灵活排班 3 轮班
// - WeekDays: 0=周日 .. 6=周六
// - MaxWorkTakingTime: 接单提前量，单位秒
type RawWorkTimeArrangement struct {
	Type              int           `json:"type"`
	WorkTimeList      []RawWorkTime `json:"workTimeList"`
	WeekDays          []int         `json:"weekDays"`
	DailyMinHours     float64       `json:"dailyMinHours"`
	PerWeekWorkDays   int           `json:"perWeekWorkDays"`
	MaxWorkTakingTime int           `json:"maxWorkTakingTime"`
}

// RawWorkTime 一个班段，起止均为当日秒数。
type RawWorkTime struct {
	StartTime int `json:"startTime"`
	EndTime   int `json:"endTime"`
}

// ScheduleType 排班类型。
type ScheduleType string

const (
	ScheduleFixed    ScheduleType = "fixed"
	ScheduleFlexible ScheduleType = "flexible"
	ScheduleRotating ScheduleType = "rotating"
	ScheduleOnCall   ScheduleType = "on_call"
)

// Salary 岗位薪资，Range/Bonus 为备注文本中尽力解析的结果，可能为空。
type Salary struct {
	Base  float64 `json:"base"`
	Range string  `json:"range,omitempty"`
	Bonus string  `json:"bonus,omitempty"`
	Memo  string  `json:"memo"`
}

// Benefits 岗位福利，Items 永不为空。
type Benefits struct {
	Items     []string `json:"items"`
	Promotion string   `json:"promotion,omitempty"`
}

// AttendancePolicy 考勤政策，由合作模式推导。
type AttendancePolicy struct {
	PunctualityRequired  bool `json:"punctualityRequired"`
	LateToleranceMinutes int  `json:"lateToleranceMinutes"`
	MakeupShiftsAllowed  bool `json:"makeupShiftsAllowed"`
}

// SchedulingFlexibility 排班灵活度。
type SchedulingFlexibility struct {
	ShiftSwapAllowed   bool `json:"shiftSwapAllowed"`
	AdvanceNoticeHours int  `json:"advanceNoticeHours"`
	WeekendRequired    bool `json:"weekendRequired"`
}

// Position 规范化岗位，ID 在所属门店内唯一。
// WorkDays 使用 1=周一 .. 7=周日。
type Position struct {
	ID                    string                `json:"id"`
	Name                  string                `json:"name"`
	TimeSlots             []string              `json:"timeSlots"`
	Salary                Salary                `json:"salary"`
	Benefits              Benefits              `json:"benefits"`
	ScheduleType          ScheduleType          `json:"scheduleType"`
	AttendancePolicy      AttendancePolicy      `json:"attendancePolicy"`
	SchedulingFlexibility SchedulingFlexibility `json:"schedulingFlexibility"`
	MinHoursPerWeek       float64               `json:"minHoursPerWeek"`
	MaxHoursPerWeek       float64               `json:"maxHoursPerWeek"`
	AttendanceRequirement string                `json:"attendanceRequirement"`
	WorkDays              []int                 `json:"workDays"`
	RequirementNum        int                   `json:"requirementNum"`
	SignUpNum             int                   `json:"signUpNum"`
}

// Coordinates 门店坐标，同步阶段不做地理编码，保持占位值。
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Store 规范化门店，ID 由上游门店 ID 派生，跨同步稳定。
type Store struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Brand          string      `json:"brand"`
	Location       string      `json:"location"`
	District       string      `json:"district"`
	Subarea        string      `json:"subarea"`
	Coordinates    Coordinates `json:"coordinates"`
	Transportation string      `json:"transportation"`
	Positions      []Position  `json:"positions"`
}

// ScreeningCriteria 品牌筛选规则。
type ScreeningCriteria struct {
	AgeMin            int      `json:"ageMin"`
	AgeMax            int      `json:"ageMax"`
	PreferredAgeRange string   `json:"preferredAgeRange,omitempty"`
	BlacklistKeywords []string `json:"blacklistKeywords"`
	PreferredKeywords []string `json:"preferredKeywords"`
}

// BrandConfig 品牌回复模板与筛选规则。
// 同步只在品牌首次出现时创建，之后保持人工编辑内容不被覆盖。
type BrandConfig struct {
	Templates map[string]string `json:"templates"`
	Screening ScreeningCriteria `json:"screening"`
}

// ZhipinData 聚合领域文档。
// stores 中每个 brand 必须能在 brands 中命中；defaultBrand 亦然。
type ZhipinData struct {
	City         string                 `json:"city"`
	DefaultBrand string                 `json:"defaultBrand"`
	Brands       map[string]BrandConfig `json:"brands"`
	Stores       []Store                `json:"stores"`
}

// SyncResult 单个组织同步结果。
// Errors 非空时 Success 必为 false；ConvertedData 仅在成功时存在。
type SyncResult struct {
	Success          bool        `json:"success"`
	BrandName        string      `json:"brandName"`
	OrganizationID   int64       `json:"organizationId"`
	ProcessedRecords int         `json:"processedRecords"`
	StoreCount       int         `json:"storeCount"`
	DurationMS       int64       `json:"durationMs"`
	Errors           []string    `json:"errors,omitempty"`
	ConvertedData    *ZhipinData `json:"convertedData,omitempty"`
}

// SyncRecord 一次完整同步运行的记录，创建后不再修改。
type SyncRecord struct {
	ID              string       `json:"id"`
	Timestamp       time.Time    `json:"timestamp"`
	OrganizationIDs []int64      `json:"organizationIds"`
	Results         []SyncResult `json:"results"`
	OverallSuccess  bool         `json:"overallSuccess"`
	TotalDurationMS int64        `json:"totalDurationMs"`
}

// BrandSyncStatus 静态映射品牌与已同步品牌的差集视图。
type BrandSyncStatus struct {
	TotalMapped   int      `json:"totalMapped"`
	TotalSynced   int      `json:"totalSynced"`
	MissingBrands []string `json:"missingBrands"`
	SyncedBrands  []string `json:"syncedBrands"`
}
