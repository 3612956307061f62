package i18n

// Locale is one of the supported interface languages.
type Locale int

const (
	English Locale = iota
	Somali
	Arabic
)

func (l Locale) String() string {
	switch l {
	case Somali:
		return "Somali"
	case Arabic:
		return "Arabic"
	default:
		return "English"
	}
}

// Dir is the text direction for the locale.
func (l Locale) Dir() string {
	if l == Arabic {
		return "rtl"
	}
	return "ltr"
}

// Parse maps a settings language name to a Locale; unknown names are
// English.
func Parse(name string) Locale {
	switch name {
	case "Somali":
		return Somali
	case "Arabic":
		return Arabic
	default:
		return English
	}
}

// Strings is every translated label the dashboard renders.
type Strings struct {
	AppTitle             string `json:"app_title"`
	Dashboard            string `json:"dashboard"`
	AssessmentForm       string `json:"assessment_form"`
	TeacherResources     string `json:"teacher_resources"`
	ParentTracker        string `json:"parent_tracker"`
	EducationalContent   string `json:"educational_content"`
	StudentName          string `json:"student_name"`
	GradeLevel           string `json:"grade_level"`
	MathScore            string `json:"math_score"`
	ReadingScore         string `json:"reading_score"`
	WritingScore         string `json:"writing_score"`
	Attendance           string `json:"attendance"`
	BehaviorRating       string `json:"behavior_rating"`
	LiteracyLevel        string `json:"literacy_level"`
	AnalyzeLearningRisk  string `json:"analyze_learning_risk"`
	AssessmentResults    string `json:"assessment_results"`
	Recommendations      string `json:"recommendations"`
	TeacherName          string `json:"teacher_name"`
	AssessmentDate       string `json:"assessment_date"`
	AssessmentSubtitle   string `json:"assessment_subtitle"`
	AttentionSpan        string `json:"attention_span"`
	ClassParticipation   string `json:"class_participation"`
	HomeworkCompletion   string `json:"homework_completion"`
	TeacherNotes         string `json:"teacher_notes"`
	AssessStudent        string `json:"assess_student"`
	ClearForm            string `json:"clear_form"`
	AcademicScores       string `json:"academic_scores"`
	BehavioralIndicators string `json:"behavioral_indicators"`
	DemoModelNotice      string `json:"demo_model_notice"`
}

var tables = [...]Strings{
	English: {
		AppTitle:             "EduScan Somalia",
		Dashboard:            "Dashboard",
		AssessmentForm:       "Assessment Form",
		TeacherResources:     "Teacher Resources",
		ParentTracker:        "Parent Tracker",
		EducationalContent:   "Educational Content",
		StudentName:          "Student Name",
		GradeLevel:           "Grade Level",
		MathScore:            "Math Score (0-100)",
		ReadingScore:         "Reading Score (0-100)",
		WritingScore:         "Writing Score (0-100)",
		Attendance:           "Attendance (%)",
		BehaviorRating:       "Behavior Rating (1-5)",
		LiteracyLevel:        "Literacy Level (1-10)",
		AnalyzeLearningRisk:  "Analyze Learning Risk",
		AssessmentResults:    "Assessment Results",
		Recommendations:      "Recommendations",
		TeacherName:          "Teacher Name",
		AssessmentDate:       "Assessment Date",
		AssessmentSubtitle:   "Comprehensive learning risk assessment for students",
		AttentionSpan:        "Attention Span (1-5)",
		ClassParticipation:   "Class Participation (1-5)",
		HomeworkCompletion:   "Homework Completion (1-5)",
		TeacherNotes:         "Teacher Notes",
		AssessStudent:        "Assess Student",
		ClearForm:            "Clear Form",
		AcademicScores:       "Academic Scores",
		BehavioralIndicators: "Behavioral Indicators",
		DemoModelNotice:      "No trained model is installed. Results come from a demo model and must not be used for decisions.",
	},
	Somali: {
		AppTitle:             "EduScan Somalia",
		Dashboard:            "Xarunta Xogta",
		AssessmentForm:       "Foomka Qiimaynta",
		TeacherResources:     "Agabka Macalliminta",
		ParentTracker:        "Dabagalka Waalidka",
		EducationalContent:   "Waxyaabaha Waxbarasho",
		StudentName:          "Magaca Ardayga",
		GradeLevel:           "Heerka Fasalka",
		MathScore:            "Dhibcaha Xisaabta (0-100)",
		ReadingScore:         "Dhibcaha Akhriska (0-100)",
		WritingScore:         "Dhibcaha Qorista (0-100)",
		Attendance:           "Soo Gaadhitaanka (%)",
		BehaviorRating:       "Qiimaynta Dhaqanka (1-5)",
		LiteracyLevel:        "Heerka Aqrinta (1-10)",
		AnalyzeLearningRisk:  "Falanqee Khatarta Barashada",
		AssessmentResults:    "Natiijada Qiimaynta",
		Recommendations:      "Talooyinka",
		TeacherName:          "Magaca Macallinka",
		AssessmentDate:       "Taariikhda Qiimaynta",
		AssessmentSubtitle:   "Qiimayn dhamaystiran oo khatarta barashada ardayda",
		AttentionSpan:        "Mudada Diiradda (1-5)",
		ClassParticipation:   "Ka-qaybgalka Fasalka (1-5)",
		HomeworkCompletion:   "Dhammaystirka Hawlaha Guriga (1-5)",
		TeacherNotes:         "Xusuusta Macallinka",
		AssessStudent:        "Qiimee Ardayga",
		ClearForm:            "Nadiifi Foomka",
		AcademicScores:       "Dhibcaha Tacliinta",
		BehavioralIndicators: "Tilmaamaha Dhaqanka",
		DemoModelNotice:      "Ma jiro model la tababaray. Natiijooyinku waxay ka yimaadeen model tijaabo ah.",
	},
	Arabic: {
		AppTitle:             "EduScan Somalia",
		Dashboard:            "لوحة التحكم",
		AssessmentForm:       "نموذج التقييم",
		TeacherResources:     "موارد المعلم",
		ParentTracker:        "متتبع الوالدين",
		EducationalContent:   "المحتوى التعليمي",
		StudentName:          "اسم الطالب",
		GradeLevel:           "مستوى الصف",
		MathScore:            "درجة الرياضيات (0-100)",
		ReadingScore:         "درجة القراءة (0-100)",
		WritingScore:         "درجة الكتابة (0-100)",
		Attendance:           "الحضور (%)",
		BehaviorRating:       "تقييم السلوك (1-5)",
		LiteracyLevel:        "مستوى الإلمام بالقراءة والكتابة (1-10)",
		AnalyzeLearningRisk:  "تحليل مخاطر التعلم",
		AssessmentResults:    "نتائج التقييم",
		Recommendations:      "التوصيات",
		TeacherName:          "اسم المعلم",
		AssessmentDate:       "تاريخ التقييم",
		AssessmentSubtitle:   "تقييم شامل لمخاطر التعلم للطلاب",
		AttentionSpan:        "مدة الانتباه (1-5)",
		ClassParticipation:   "المشاركة في الفصل (1-5)",
		HomeworkCompletion:   "إكمال الواجب المنزلي (1-5)",
		TeacherNotes:         "ملاحظات المعلم",
		AssessStudent:        "تقييم الطالب",
		ClearForm:            "مسح النموذج",
		AcademicScores:       "الدرجات الأكاديمية",
		BehavioralIndicators: "مؤشرات السلوك",
		DemoModelNotice:      "لا يوجد نموذج مدرب. النتائج من نموذج تجريبي.",
	},
}

// For returns the string table for a locale.
func For(l Locale) Strings {
	if int(l) < 0 || int(l) >= len(tables) {
		return tables[English]
	}
	return tables[l]
}
