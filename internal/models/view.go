package models

// ViewID names a concrete panel the front-end mounts.
type ViewID string

const (
	ViewAdminDashboard   ViewID = "admin-dashboard"
	ViewTeacherDashboard ViewID = "teacher-dashboard"
	ViewStudentDashboard ViewID = "student-dashboard"
	ViewParentDashboard  ViewID = "parent-dashboard"

	ViewProfile       ViewID = "profile"
	ViewMessages      ViewID = "messages"
	ViewSettings      ViewID = "settings"
	ViewHelp          ViewID = "help"
	ViewNotifications ViewID = "notifications"
	ViewEventCalendar ViewID = "event-calendar"

	ViewUserManagement       ViewID = "user-management"
	ViewStudentDirectory     ViewID = "student-directory"
	ViewTeacherDirectory     ViewID = "teacher-directory"
	ViewClassManagement      ViewID = "class-management"
	ViewAdmissions           ViewID = "admissions"
	ViewTimetableBuilder     ViewID = "timetable-builder"
	ViewTimetable            ViewID = "timetable"
	ViewExamScheduler        ViewID = "exam-scheduler"
	ViewExamGrading          ViewID = "exam-grading"
	ViewExamSchedule         ViewID = "exam-schedule"
	ViewAttendance           ViewID = "attendance"
	ViewBiometricAttendance  ViewID = "biometric-attendance"
	ViewReports              ViewID = "reports"
	ViewFeeManagement        ViewID = "fee-management"
	ViewFeePanel             ViewID = "fee-panel"
	ViewPayroll              ViewID = "payroll"
	ViewAnnouncementComposer ViewID = "announcement-composer"
	ViewAnnouncementBoard    ViewID = "announcement-board"
	ViewLibraryAdmin         ViewID = "library-admin"
	ViewLibraryCatalog       ViewID = "library-catalog"
	ViewTransportManagement  ViewID = "transport-management"
	ViewTransportRoutes      ViewID = "transport-routes"
	ViewHostelManagement     ViewID = "hostel-management"
	ViewInventory            ViewID = "inventory"
	ViewAuditLogs            ViewID = "audit-logs"

	ViewMyClasses             ViewID = "my-classes"
	ViewAssignmentManager     ViewID = "assignment-manager"
	ViewAssignmentSubmissions ViewID = "assignment-submissions"
	ViewGradebook             ViewID = "gradebook"
	ViewLessonPlans           ViewID = "lesson-plans"
	ViewLeaveRequests         ViewID = "leave-requests"
	ViewCourses               ViewID = "courses"
	ViewGrades                ViewID = "grades"
	ViewChildrenOverview      ViewID = "children-overview"
	ViewChildProgress         ViewID = "child-progress"
	ViewParentMeetings        ViewID = "parent-meetings"

	// ViewNotAvailable is the placeholder for tabs no view serves.
	ViewNotAvailable ViewID = "not-available"
)

// ViewProps is the bundle every mounted view receives. The callbacks carry
// intents back to the shell controller; views never mutate shell state.
type ViewProps struct {
	Role        UserRole `json:"role"`
	CurrentUser *User    `json:"current_user"`
	DarkMode    bool     `json:"dark_mode"`

	SetActiveTab func(TabID) error `json:"-"`
	Logout       func() error      `json:"-"`
}

// Resolution is the outcome of dispatching a tab.
type Resolution struct {
	Tab      TabID     `json:"tab"`
	View     ViewID    `json:"view"`
	Props    ViewProps `json:"props"`
	Fallback bool      `json:"fallback"`
	Reason   string    `json:"reason,omitempty"`
}
