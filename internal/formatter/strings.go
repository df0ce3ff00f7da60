package formatter

import "github.com/kiranshivaraju/compass/pkg/models"

// Section keys, in display order.
const (
	SectionOverview    = "overview"
	SectionPhases      = "phases"
	SectionServices    = "services"
	SectionAgencies    = "agencies"
	SectionCompetitors = "competitors"
	SectionVendors     = "vendors"
	SectionBudget      = "budget"
	SectionTimeline    = "timeline"
	SectionNextSteps   = "next_steps"
)

var sectionOrder = []string{
	SectionOverview,
	SectionPhases,
	SectionServices,
	SectionAgencies,
	SectionCompetitors,
	SectionVendors,
	SectionBudget,
	SectionTimeline,
	SectionNextSteps,
}

var icons = map[string]string{
	SectionOverview:    "📋",
	SectionPhases:      "🗺️",
	SectionServices:    "🛠️",
	SectionAgencies:    "🤝",
	SectionCompetitors: "🏁",
	SectionVendors:     "📦",
	SectionBudget:      "💰",
	SectionTimeline:    "⏱️",
	SectionNextSteps:   "🚀",
}

type locale struct {
	title      string
	rtl        bool
	sections   map[string]string
	labels     map[string]string
	totalLabel string
	// nextSteps translates the catalog's English next steps.
	nextSteps  map[string]string
}

var locales = map[string]locale{
	models.LanguageEnglish: {
		title: "Project Blueprint",
		sections: map[string]string{
			SectionOverview:    "Project Overview",
			SectionPhases:      "Project Phases",
			SectionServices:    "Recommended Services",
			SectionAgencies:    "Agency Showcase",
			SectionCompetitors: "Market Landscape",
			SectionVendors:     "External Vendors",
			SectionBudget:      "Budget Estimate",
			SectionTimeline:    "Timeline Estimate",
			SectionNextSteps:   "Next Steps",
		},
		labels: map[string]string{
			"objective":                "Objective",
			"deliverables":             "Deliverables",
			"creative_recommendations": "Creative Recommendations",
			"duration":                 "Duration",
			"budget_range":             "Budget Range",
			"match_score":              "Match Score",
			"why_choose":               "Why Choose",
			"target_market":            "Target Market",
			"launch_mode":              "Launch Mode",
			"complexity":               "Complexity",
			"budget_tier":              "Budget Tier",
			"generated_at":             "Generated",
		},
		totalLabel: "Total",
	},
	models.LanguageArabic: {
		title: "مخطط المشروع",
		rtl:   true,
		sections: map[string]string{
			SectionOverview:    "نظرة عامة على المشروع",
			SectionPhases:      "مراحل المشروع",
			SectionServices:    "الخدمات الموصى بها",
			SectionAgencies:    "الوكالات المقترحة",
			SectionCompetitors: "المشهد التنافسي",
			SectionVendors:     "الموردون الخارجيون",
			SectionBudget:      "الميزانية التقديرية",
			SectionTimeline:    "الجدول الزمني التقديري",
			SectionNextSteps:   "الخطوات التالية",
		},
		labels: map[string]string{
			"objective":                "الهدف",
			"deliverables":             "المخرجات",
			"creative_recommendations": "توصيات إبداعية",
			"duration":                 "المدة",
			"budget_range":             "نطاق الميزانية",
			"match_score":              "درجة التوافق",
			"why_choose":               "لماذا نختارها",
			"target_market":            "السوق المستهدف",
			"launch_mode":              "طريقة الإطلاق",
			"complexity":               "مستوى التعقيد",
			"budget_tier":              "فئة الميزانية",
			"generated_at":             "تاريخ الإنشاء",
		},
		totalLabel: "الإجمالي",
		nextSteps: map[string]string{
			"Review and refine the project blueprint":          "مراجعة مخطط المشروع وتحسينه",
			"Schedule consultations with recommended agencies": "تحديد مواعيد استشارات مع الوكالات الموصى بها",
			"Finalize budget and timeline":                     "اعتماد الميزانية والجدول الزمني",
			"Begin phase 1 implementation":                     "بدء تنفيذ المرحلة الأولى",
			"Set up project tracking and milestones":           "إعداد متابعة المشروع والمراحل الرئيسية",
		},
	},
}

func localeFor(language string) (string, locale) {
	if l, ok := locales[language]; ok {
		return language, l
	}
	return models.LanguageEnglish, locales[models.LanguageEnglish]
}
