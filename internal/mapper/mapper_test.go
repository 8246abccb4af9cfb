package mapper

import (
	"testing"

	"zhipin-sync/internal/brandmap"
	"zhipin-sync/internal/model"
)

func testLookup() brandmap.Lookup {
	return brandmap.NewStaticFromTable(map[int64]string{
		1001: "测试品牌",
	})
}

func TestTimeSlotRoundTrip(t *testing.T) {
	t.Parallel()

	// 覆盖整点、整分、带秒与边界值。
	cases := []struct{ start, end int }{
		{0, 86399},
		{28800, 64800},         // 08:00~18:00
		{30600, 75600},         // 08:30~21:00
		{45, 86340},            // 带秒
		{3661, 3725},           // 01:01:01~01:02:05
		{secondsPerDay - 1, 0}, // 23:59:59~00:00
	}

	for _, c := range cases {
		slot, err := FormatTimeSlot(c.start, c.end)
		if err != nil {
			t.Fatalf("FormatTimeSlot(%d, %d) error: %v", c.start, c.end, err)
		}
		start, end, err := ParseTimeSlot(slot)
		if err != nil {
			t.Fatalf("ParseTimeSlot(%q) error: %v", slot, err)
		}
		if start != c.start || end != c.end {
			t.Fatalf("round trip (%d,%d) -> %q -> (%d,%d)", c.start, c.end, slot, start, end)
		}
	}
}

func TestTimeSlotRoundTripExhaustiveSample(t *testing.T) {
	t.Parallel()

	// 以 997 秒为步长扫过整天，覆盖秒对齐与非对齐两类格式。
	for sec := 0; sec < secondsPerDay; sec += 997 {
		text, err := FormatSecondsOfDay(sec)
		if err != nil {
			t.Fatalf("FormatSecondsOfDay(%d) error: %v", sec, err)
		}
		got, err := ParseSecondsOfDay(text)
		if err != nil {
			t.Fatalf("ParseSecondsOfDay(%q) error: %v", text, err)
		}
		if got != sec {
			t.Fatalf("round trip %d -> %q -> %d", sec, text, got)
		}
	}
}

func TestFormatSecondsOfDayRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	if _, err := FormatSecondsOfDay(-1); err == nil {
		t.Fatal("expected error for -1")
	}
	if _, err := FormatSecondsOfDay(secondsPerDay); err == nil {
		t.Fatal("expected error for 86400")
	}
}

func TestRemapWeekday(t *testing.T) {
	t.Parallel()

	if got := RemapWeekday(0); got != 7 {
		t.Fatalf("RemapWeekday(0) = %d, want 7", got)
	}
	for d := 1; d <= 6; d++ {
		if got := RemapWeekday(d); got != d {
			t.Fatalf("RemapWeekday(%d) = %d, want %d", d, got, d)
		}
	}
}

func TestParseSalaryDetails(t *testing.T) {
	t.Parallel()

	rng, bonus := ParseSalaryDetails("综合薪资5250元-5750元，全勤奖金300，月结")
	if rng != "5250元-5750元" {
		t.Fatalf("range = %q, want 5250元-5750元", rng)
	}
	if bonus != "奖金300" {
		t.Fatalf("bonus = %q, want 奖金300", bonus)
	}

	rng, bonus = ParseSalaryDetails("面议")
	if rng != "" || bonus != "" {
		t.Fatalf("expected no match, got range=%q bonus=%q", rng, bonus)
	}

	rng, _ = ParseSalaryDetails("")
	if rng != "" {
		t.Fatalf("empty memo should not match, got %q", rng)
	}
}

func TestBuildBenefitsNeverEmpty(t *testing.T) {
	t.Parallel()

	b := buildBenefits(model.RawWelfare{}, "")
	if len(b.Items) != 1 || b.Items[0] != "按国家规定" {
		t.Fatalf("expected default benefit, got %v", b.Items)
	}
}

func TestBuildBenefitsFlagsAndKeywords(t *testing.T) {
	t.Parallel()

	w := model.RawWelfare{
		HaveInsurance: 1,
		Accommodation: 1,
		Catering:      1,
		WelfareList:   []string{"商业保险", "带薪年假"},
	}
	b := buildBenefits(w, "岗位有餐补贴，表现好有晋升机会")

	want := map[string]bool{"有保险": true, "包住宿": true, "包餐": true, "带薪年假": true, "有补贴": true}
	got := make(map[string]bool, len(b.Items))
	for _, item := range b.Items {
		if got[item] {
			t.Fatalf("duplicate benefit %q in %v", item, b.Items)
		}
		got[item] = true
	}
	for label := range want {
		if !got[label] {
			t.Fatalf("missing benefit %q in %v", label, b.Items)
		}
	}
	if b.Promotion == "" {
		t.Fatal("expected promotion to be set when memo mentions 晋升")
	}
}

func validRecord() model.RawPositionRecord {
	return model.RawPositionRecord{
		StoreID:      "s001",
		StoreName:    "测试品牌(人民广场店)",
		StoreAddress: "上海市黄浦区南京东路100号",
		JobID:        9001,
		JobName:      "服务员",
		Salary:       5250,
		SalaryMemo:   "5250元-5750元，含全勤奖金200",
		Welfare:      model.RawWelfare{HaveInsurance: 1},
		WorkTimeArrangement: model.RawWorkTimeArrangement{
			Type:              2,
			WorkTimeList:      []model.RawWorkTime{{StartTime: 28800, EndTime: 64800}},
			WeekDays:          []int{0, 2, 4, 6},
			DailyMinHours:     4,
			PerWeekWorkDays:   5,
			MaxWorkTakingTime: 7200,
		},
		CooperationMode: 2,
		RequirementNum:  3,
		SignUpNum:       1,
	}
}

func TestConvertGroupsByStoreAndSkipsMalformed(t *testing.T) {
	t.Parallel()

	rec1 := validRecord()
	rec2 := validRecord()
	rec2.JobID = 9002
	rec2.JobName = "后厨"
	rec3 := validRecord()
	rec3.StoreID = "s002"
	rec3.StoreName = "测试品牌(静安店)"
	rec3.JobID = 9003
	bad := validRecord()
	bad.StoreID = "" // 缺必填字段，应跳过

	resp := model.RawListResponse{
		Data: model.RawListData{
			Result: []model.RawPositionRecord{rec1, bad, rec2, rec3},
			Total:  4,
		},
	}

	c := New(testLookup(), nil)
	data, err := c.Convert(resp, 1001)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}

	if len(data.Stores) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(data.Stores))
	}
	if len(data.Stores[0].Positions) != 2 {
		t.Fatalf("expected 2 positions in first store, got %d", len(data.Stores[0].Positions))
	}
	if data.Stores[0].ID != "store_s001" {
		t.Fatalf("store id = %q, want store_s001", data.Stores[0].ID)
	}
	if data.Stores[0].Brand != "测试品牌" {
		t.Fatalf("brand = %q, want 测试品牌", data.Stores[0].Brand)
	}
	if data.Stores[0].District != "黄浦区" {
		t.Fatalf("district = %q, want 黄浦区", data.Stores[0].District)
	}
	if data.Stores[0].Subarea != "南京东路" {
		t.Fatalf("subarea = %q, want 南京东路", data.Stores[0].Subarea)
	}
}

func TestConvertDerivedPositionFields(t *testing.T) {
	t.Parallel()

	resp := model.RawListResponse{
		Data: model.RawListData{Result: []model.RawPositionRecord{validRecord()}, Total: 1},
	}
	c := New(testLookup(), nil)
	data, err := c.Convert(resp, 1001)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}

	pos := data.Stores[0].Positions[0]
	if pos.ScheduleType != model.ScheduleFlexible {
		t.Fatalf("schedule type = %q, want flexible for cooperation mode 2", pos.ScheduleType)
	}
	if pos.AttendancePolicy.LateToleranceMinutes != 15 || !pos.AttendancePolicy.MakeupShiftsAllowed {
		t.Fatalf("unexpected attendance policy %+v", pos.AttendancePolicy)
	}
	if !pos.SchedulingFlexibility.ShiftSwapAllowed {
		t.Fatal("expected shift swap allowed for arrangement type 2")
	}
	if pos.SchedulingFlexibility.AdvanceNoticeHours != 2 {
		t.Fatalf("advance notice = %d, want 2", pos.SchedulingFlexibility.AdvanceNoticeHours)
	}
	if !pos.SchedulingFlexibility.WeekendRequired {
		t.Fatal("expected weekend required when weekdays include 0 and 6")
	}
	if pos.MinHoursPerWeek != 20 || pos.MaxHoursPerWeek != 28 {
		t.Fatalf("hours per week = %v/%v, want 20/28", pos.MinHoursPerWeek, pos.MaxHoursPerWeek)
	}
	if got := pos.WorkDays; len(got) != 4 || got[0] != 7 || got[3] != 6 {
		t.Fatalf("work days = %v, want [7 2 4 6]", got)
	}
	if len(pos.TimeSlots) != 1 || pos.TimeSlots[0] != "08:00~18:00" {
		t.Fatalf("time slots = %v, want [08:00~18:00]", pos.TimeSlots)
	}
	if pos.Salary.Range != "5250元-5750元" {
		t.Fatalf("salary range = %q", pos.Salary.Range)
	}
}

func TestConvertFullTimeAttendance(t *testing.T) {
	t.Parallel()

	rec := validRecord()
	rec.CooperationMode = 3
	resp := model.RawListResponse{
		Data: model.RawListData{Result: []model.RawPositionRecord{rec}, Total: 1},
	}
	c := New(testLookup(), nil)
	data, err := c.Convert(resp, 1001)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}

	pos := data.Stores[0].Positions[0]
	if pos.ScheduleType != model.ScheduleFixed {
		t.Fatalf("schedule type = %q, want fixed", pos.ScheduleType)
	}
	p := pos.AttendancePolicy
	if !p.PunctualityRequired || p.LateToleranceMinutes != 5 || p.MakeupShiftsAllowed {
		t.Fatalf("unexpected full-time attendance policy %+v", p)
	}
}

func TestConvertUnmappedOrgUsesPlaceholder(t *testing.T) {
	t.Parallel()

	resp := model.RawListResponse{
		Data: model.RawListData{Result: []model.RawPositionRecord{validRecord()}, Total: 1},
	}
	c := New(testLookup(), nil)
	data, err := c.Convert(resp, 4242)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if data.DefaultBrand != "未知品牌-4242" {
		t.Fatalf("default brand = %q", data.DefaultBrand)
	}
	if _, ok := data.Brands["未知品牌-4242"]; !ok {
		t.Fatal("expected placeholder brand config")
	}
}

func TestConvertRejectsBusinessErrorEnvelope(t *testing.T) {
	t.Parallel()

	c := New(testLookup(), nil)
	if _, err := c.Convert(model.RawListResponse{Code: 4001, Message: "token expired"}, 1001); err == nil {
		t.Fatal("expected error for non-zero code envelope")
	}
}

func TestDefaultBrandConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultBrandConfig()
	if len(cfg.Templates) != 16 {
		t.Fatalf("expected 16 reply templates, got %d", len(cfg.Templates))
	}
	for _, key := range replyContexts {
		if cfg.Templates[key] == "" {
			t.Fatalf("missing template for context %s", key)
		}
	}
	if cfg.Screening.AgeMin != 18 || cfg.Screening.AgeMax != 50 {
		t.Fatalf("unexpected screening age range %d-%d", cfg.Screening.AgeMin, cfg.Screening.AgeMax)
	}

	// 每次调用必须返回独立副本，避免共享模板被下游修改。
	other := DefaultBrandConfig()
	other.Templates["initial_inquiry"] = "改过的"
	if cfg.Templates["initial_inquiry"] == "改过的" {
		t.Fatal("DefaultBrandConfig must return an independent copy")
	}
}
