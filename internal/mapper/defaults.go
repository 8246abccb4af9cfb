package mapper

import "zhipin-sync/internal/model"

// 16 个固定回复场景，品牌模板按场景键存储。
var replyContexts = []string{
	"initial_inquiry",
	"location_inquiry",
	"no_location_match",
	"schedule_inquiry",
	"interview_request",
	"salary_inquiry",
	"age_concern",
	"insurance_inquiry",
	"attendance_inquiry",
	"flexibility_inquiry",
	"work_hours_inquiry",
	"availability_inquiry",
	"part_time_inquiry",
	"company_info_inquiry",
	"followup_chat",
	"general_chat",
}

// 默认模板文本，含插值占位符，品牌创建后可人工编辑。
var defaultTemplates = map[string]string{
	"initial_inquiry":      "您好，感谢关注{brand_name}！我们目前有{position_name}等岗位在招，方便聊聊您的情况吗？",
	"location_inquiry":     "我们在{district}有门店：{store_name}，地址{location}，您看方便吗？",
	"no_location_match":    "抱歉，您附近暂时没有合适门店，留个联系方式，有新门店开业第一时间通知您。",
	"schedule_inquiry":     "这个岗位班次为{time_slots}，每周工作{work_days}天，排班{schedule_type}。",
	"interview_request":    "可以安排面试，您看{store_name}（{location}）什么时间方便过来？",
	"salary_inquiry":       "该岗位薪资{salary}元起，{salary_memo}，具体面议。",
	"age_concern":          "我们招聘年龄范围是{age_min}-{age_max}岁，符合条件欢迎报名。",
	"insurance_inquiry":    "福利方面：{benefits}，详情可到店面谈。",
	"attendance_inquiry":   "考勤要求：{attendance_requirement}。",
	"flexibility_inquiry":  "排班支持提前{advance_notice_hours}小时报备调整，{shift_swap}。",
	"work_hours_inquiry":   "每周工时约{min_hours}-{max_hours}小时，具体以门店排班为准。",
	"availability_inquiry": "岗位目前招{requirement_num}人，已报名{sign_up_num}人，建议尽快投递。",
	"part_time_inquiry":    "我们支持灵活用工模式，时间可以和店长协商安排。",
	"company_info_inquiry": "{brand_name}是连锁品牌，门店分布在{city}多个区域，用工规范有保障。",
	"followup_chat":        "您好，之前聊过{position_name}岗位，请问您最近还在考虑吗？",
	"general_chat":         "收到，您有任何关于{brand_name}岗位的问题都可以问我。",
}

// DefaultBrandConfig 生成新品牌的默认配置。
// 每次调用返回独立副本；已存在的品牌在合并阶段会丢弃该默认值。
func DefaultBrandConfig() model.BrandConfig {
	templates := make(map[string]string, len(replyContexts))
	for _, key := range replyContexts {
		templates[key] = defaultTemplates[key]
	}
	return model.BrandConfig{
		Templates: templates,
		Screening: model.ScreeningCriteria{
			AgeMin:            18,
			AgeMax:            50,
			PreferredAgeRange: "20-40",
			BlacklistKeywords: []string{"中介", "刷单", "培训费"},
			PreferredKeywords: []string{"有经验", "能吃苦", "住附近", "长期稳定"},
		},
	}
}
