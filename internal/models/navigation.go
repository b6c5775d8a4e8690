package models

// TabID identifies a navigable panel. The set is closed: every value the
// shell understands is declared below.
type TabID string

const (
	TabDashboard     TabID = "dashboard"
	TabProfile       TabID = "profile"
	TabMessages      TabID = "messages"
	TabSettings      TabID = "settings"
	TabHelp          TabID = "help"
	TabNotifications TabID = "notifications"
	TabEvents        TabID = "events"

	TabUsers         TabID = "users"
	TabStudents      TabID = "students"
	TabTeachers      TabID = "teachers"
	TabClasses       TabID = "classes"
	TabAdmissions    TabID = "admissions"
	TabTimetable     TabID = "timetable"
	TabExams         TabID = "exams"
	TabAttendance    TabID = "attendance"
	TabReports       TabID = "reports"
	TabFees          TabID = "fees"
	TabPayroll       TabID = "payroll"
	TabAnnouncements TabID = "announcements"
	TabLibrary       TabID = "library"
	TabTransport     TabID = "transport"
	TabHostel        TabID = "hostel"
	TabInventory     TabID = "inventory"
	TabAuditLogs     TabID = "audit-logs"

	TabMyClasses   TabID = "my-classes"
	TabAssignments TabID = "assignments"
	TabGradebook   TabID = "gradebook"
	TabLessonPlans TabID = "lesson-plans"
	TabLeave       TabID = "leave"

	TabCourses TabID = "courses"
	TabGrades  TabID = "grades"

	TabChildren TabID = "children"
	TabProgress TabID = "progress"
	TabMeetings TabID = "meetings"
)

// KnownTabs returns every declared tab id.
func KnownTabs() []TabID {
	return []TabID{
		TabDashboard, TabProfile, TabMessages, TabSettings, TabHelp, TabNotifications, TabEvents,
		TabUsers, TabStudents, TabTeachers, TabClasses, TabAdmissions, TabTimetable, TabExams,
		TabAttendance, TabReports, TabFees, TabPayroll, TabAnnouncements, TabLibrary, TabTransport,
		TabHostel, TabInventory, TabAuditLogs,
		TabMyClasses, TabAssignments, TabGradebook, TabLessonPlans, TabLeave,
		TabCourses, TabGrades,
		TabChildren, TabProgress, TabMeetings,
	}
}

// SpecialTabs are reachable for every role even when no menu item lists them.
func SpecialTabs() []TabID {
	return []TabID{TabEvents, TabNotifications}
}

// ParseTab validates a tab id received over the wire.
func ParseTab(raw string) (TabID, bool) {
	for _, tab := range KnownTabs() {
		if string(tab) == raw {
			return tab, true
		}
	}
	return "", false
}

// Section groups menu items under a header.
type Section string

const (
	SectionMain          Section = "main"
	SectionManagement    Section = "management"
	SectionAcademic      Section = "academic"
	SectionFinance       Section = "finance"
	SectionCommunication Section = "communication"
	SectionResources     Section = "resources"
	SectionPersonal      Section = "personal"
	SectionSystem        Section = "system"
)

// SectionLabel pairs a section with its header text.
type SectionLabel struct {
	Key   Section
	Label string
}

// SectionOrder is the fixed display order of menu sections.
var SectionOrder = []SectionLabel{
	{Key: SectionMain, Label: "Main"},
	{Key: SectionManagement, Label: "Management"},
	{Key: SectionAcademic, Label: "Academic"},
	{Key: SectionFinance, Label: "Finance"},
	{Key: SectionCommunication, Label: "Communication"},
	{Key: SectionResources, Label: "Resources"},
	{Key: SectionPersonal, Label: "Personal"},
	{Key: SectionSystem, Label: "System"},
}

// Feature names an optional module that can be switched off.
type Feature string

const (
	FeatureNone                Feature = ""
	FeatureLibrary             Feature = "library"
	FeatureTransport           Feature = "transport"
	FeatureHostel              Feature = "hostel"
	FeatureBiometricAttendance Feature = "biometric_attendance"
)

// NavigationItem is one static menu entry.
type NavigationItem struct {
	ID      TabID   `json:"id"`
	Label   string  `json:"label"`
	Icon    string  `json:"icon"`
	Section Section `json:"section"`
	Feature Feature `json:"-"`
}

// MenuSection is a rendered group of items.
type MenuSection struct {
	Key        Section          `json:"key"`
	Label      string           `json:"label"`
	ShowHeader bool             `json:"show_header"`
	Items      []NavigationItem `json:"items"`
}
