package service

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	"github.com/noah-isme/sma-dashboard-shell/pkg/config"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
)

// FeatureSet reports which optional modules are switched on.
type FeatureSet map[models.Feature]bool

// Enabled treats FeatureNone as always on.
func (f FeatureSet) Enabled(feature models.Feature) bool {
	if feature == models.FeatureNone {
		return true
	}
	return f[feature]
}

// FeaturesFromConfig maps the FEATURE_* flags.
func FeaturesFromConfig(cfg config.FeatureConfig) FeatureSet {
	return FeatureSet{
		models.FeatureLibrary:             cfg.Library,
		models.FeatureTransport:           cfg.Transport,
		models.FeatureHostel:              cfg.Hostel,
		models.FeatureBiometricAttendance: cfg.BiometricAttendance,
	}
}

// AllFeatures enables every optional module.
func AllFeatures() FeatureSet {
	return FeatureSet{
		models.FeatureLibrary:             true,
		models.FeatureTransport:           true,
		models.FeatureHostel:              true,
		models.FeatureBiometricAttendance: true,
	}
}

var commonNavigation = []models.NavigationItem{
	{ID: models.TabDashboard, Label: "Dashboard", Icon: "home", Section: models.SectionMain},
	{ID: models.TabProfile, Label: "My Profile", Icon: "user", Section: models.SectionPersonal},
	{ID: models.TabMessages, Label: "Messages", Icon: "message-square", Section: models.SectionCommunication},
	{ID: models.TabSettings, Label: "Settings", Icon: "settings", Section: models.SectionSystem},
	{ID: models.TabHelp, Label: "Help & Support", Icon: "help-circle", Section: models.SectionSystem},
}

var roleNavigation = map[models.UserRole][]models.NavigationItem{
	models.RoleAdmin: {
		{ID: models.TabUsers, Label: "User Management", Icon: "users", Section: models.SectionManagement},
		{ID: models.TabStudents, Label: "Students", Icon: "graduation-cap", Section: models.SectionManagement},
		{ID: models.TabTeachers, Label: "Teachers", Icon: "briefcase", Section: models.SectionManagement},
		{ID: models.TabClasses, Label: "Classes", Icon: "layers", Section: models.SectionManagement},
		{ID: models.TabAdmissions, Label: "Admissions", Icon: "user-plus", Section: models.SectionManagement},
		{ID: models.TabTimetable, Label: "Timetable", Icon: "calendar", Section: models.SectionAcademic},
		{ID: models.TabExams, Label: "Examinations", Icon: "clipboard", Section: models.SectionAcademic},
		{ID: models.TabAttendance, Label: "Attendance", Icon: "check-square", Section: models.SectionAcademic},
		{ID: models.TabReports, Label: "Reports", Icon: "bar-chart", Section: models.SectionAcademic},
		{ID: models.TabFees, Label: "Fee Management", Icon: "credit-card", Section: models.SectionFinance},
		{ID: models.TabPayroll, Label: "Payroll", Icon: "dollar-sign", Section: models.SectionFinance},
		{ID: models.TabAnnouncements, Label: "Announcements", Icon: "megaphone", Section: models.SectionCommunication},
		{ID: models.TabEvents, Label: "Events", Icon: "calendar-days", Section: models.SectionCommunication},
		{ID: models.TabLibrary, Label: "Library", Icon: "book", Section: models.SectionResources, Feature: models.FeatureLibrary},
		{ID: models.TabTransport, Label: "Transport", Icon: "bus", Section: models.SectionResources, Feature: models.FeatureTransport},
		{ID: models.TabHostel, Label: "Hostel", Icon: "bed", Section: models.SectionResources, Feature: models.FeatureHostel},
		{ID: models.TabInventory, Label: "Inventory", Icon: "package", Section: models.SectionResources},
		{ID: models.TabAuditLogs, Label: "Audit Logs", Icon: "shield", Section: models.SectionSystem},
	},
	models.RoleTeacher: {
		{ID: models.TabMyClasses, Label: "My Classes", Icon: "layers", Section: models.SectionAcademic},
		{ID: models.TabAttendance, Label: "Attendance", Icon: "fingerprint", Section: models.SectionAcademic},
		{ID: models.TabAssignments, Label: "Assignments", Icon: "file-text", Section: models.SectionAcademic},
		{ID: models.TabGradebook, Label: "Gradebook", Icon: "award", Section: models.SectionAcademic},
		{ID: models.TabLessonPlans, Label: "Lesson Plans", Icon: "book-open", Section: models.SectionAcademic},
		{ID: models.TabTimetable, Label: "My Timetable", Icon: "calendar", Section: models.SectionAcademic},
		{ID: models.TabExams, Label: "Exams & Grading", Icon: "clipboard", Section: models.SectionAcademic},
		{ID: models.TabAnnouncements, Label: "Announcements", Icon: "megaphone", Section: models.SectionCommunication},
		{ID: models.TabLibrary, Label: "Library", Icon: "book", Section: models.SectionResources, Feature: models.FeatureLibrary},
		{ID: models.TabLeave, Label: "Leave Requests", Icon: "calendar-x", Section: models.SectionPersonal},
	},
	models.RoleStudent: {
		{ID: models.TabCourses, Label: "My Courses", Icon: "book-open", Section: models.SectionAcademic},
		{ID: models.TabAssignments, Label: "Assignments", Icon: "file-text", Section: models.SectionAcademic},
		{ID: models.TabGrades, Label: "My Grades", Icon: "award", Section: models.SectionAcademic},
		{ID: models.TabAttendance, Label: "My Attendance", Icon: "check-square", Section: models.SectionAcademic},
		{ID: models.TabTimetable, Label: "Timetable", Icon: "calendar", Section: models.SectionAcademic},
		{ID: models.TabExams, Label: "Exam Schedule", Icon: "clipboard", Section: models.SectionAcademic},
		{ID: models.TabFees, Label: "Fee Panel", Icon: "credit-card", Section: models.SectionFinance},
		{ID: models.TabAnnouncements, Label: "Announcements", Icon: "megaphone", Section: models.SectionCommunication},
		{ID: models.TabEvents, Label: "Events", Icon: "calendar-days", Section: models.SectionCommunication},
		{ID: models.TabLibrary, Label: "Library", Icon: "book", Section: models.SectionResources, Feature: models.FeatureLibrary},
		{ID: models.TabTransport, Label: "Transport", Icon: "bus", Section: models.SectionResources, Feature: models.FeatureTransport},
	},
	models.RoleParent: {
		{ID: models.TabChildren, Label: "My Children", Icon: "users", Section: models.SectionMain},
		{ID: models.TabProgress, Label: "Academic Progress", Icon: "trending-up", Section: models.SectionAcademic},
		{ID: models.TabAttendance, Label: "Attendance", Icon: "check-square", Section: models.SectionAcademic},
		{ID: models.TabTimetable, Label: "Timetable", Icon: "calendar", Section: models.SectionAcademic},
		{ID: models.TabFees, Label: "Fee Payments", Icon: "credit-card", Section: models.SectionFinance},
		{ID: models.TabMeetings, Label: "Parent Meetings", Icon: "video", Section: models.SectionCommunication},
		{ID: models.TabAnnouncements, Label: "Announcements", Icon: "megaphone", Section: models.SectionCommunication},
		{ID: models.TabEvents, Label: "Events", Icon: "calendar-days", Section: models.SectionCommunication},
		{ID: models.TabTransport, Label: "Transport", Icon: "bus", Section: models.SectionResources, Feature: models.FeatureTransport},
	},
}

// NavigationRegistry is the static per-role menu table.
type NavigationRegistry struct {
	items map[models.UserRole][]models.NavigationItem
	index map[models.UserRole]map[models.TabID]struct{}
}

// NewNavigationRegistry builds the table once, dropping items whose feature
// is disabled. It fails when a role lists an id twice or an item names a
// section outside SectionOrder.
func NewNavigationRegistry(features FeatureSet) (*NavigationRegistry, error) {
	return buildNavigationRegistry(commonNavigation, roleNavigation, features)
}

func buildNavigationRegistry(common []models.NavigationItem, perRole map[models.UserRole][]models.NavigationItem, features FeatureSet) (*NavigationRegistry, error) {
	rank := sectionRank()
	reg := &NavigationRegistry{
		items: make(map[models.UserRole][]models.NavigationItem, len(perRole)),
		index: make(map[models.UserRole]map[models.TabID]struct{}, len(perRole)),
	}

	for _, role := range models.AllRoles() {
		specific, ok := perRole[role]
		if !ok {
			return nil, fmt.Errorf("navigation for role %s is not defined", role)
		}

		combined := make([]models.NavigationItem, 0, len(common)+len(specific))
		seen := make(map[models.TabID]struct{}, cap(combined))
		for _, item := range append(append([]models.NavigationItem{}, common...), specific...) {
			if _, dup := seen[item.ID]; dup {
				return nil, fmt.Errorf("navigation for role %s lists %q twice", role, item.ID)
			}
			if _, known := rank[item.Section]; !known {
				return nil, fmt.Errorf("navigation item %q uses unknown section %q", item.ID, item.Section)
			}
			seen[item.ID] = struct{}{}
			if !features.Enabled(item.Feature) {
				continue
			}
			combined = append(combined, item)
		}

		sort.SliceStable(combined, func(i, j int) bool {
			return rank[combined[i].Section] < rank[combined[j].Section]
		})

		idx := make(map[models.TabID]struct{}, len(combined))
		for _, item := range combined {
			idx[item.ID] = struct{}{}
		}
		reg.items[role] = combined
		reg.index[role] = idx
	}

	return reg, nil
}

// Items returns the role's visible items ordered by section.
func (r *NavigationRegistry) Items(role models.UserRole) ([]models.NavigationItem, error) {
	items, ok := r.items[role]
	if !ok {
		return nil, unknownRole(role)
	}
	out := make([]models.NavigationItem, len(items))
	copy(out, items)
	return out, nil
}

// Menu groups the role's items into sections. Sections come out in the
// declared order, empty ones are skipped and main never shows a header.
func (r *NavigationRegistry) Menu(role models.UserRole) ([]models.MenuSection, error) {
	items, err := r.Items(role)
	if err != nil {
		return nil, err
	}
	return GroupBySection(items), nil
}

// Listed reports whether the role's menu shows tab.
func (r *NavigationRegistry) Listed(role models.UserRole, tab models.TabID) bool {
	_, ok := r.index[role][tab]
	return ok
}

// Reachable reports whether the role may navigate to tab: listed items plus
// the special tabs every role can open.
func (r *NavigationRegistry) Reachable(role models.UserRole, tab models.TabID) bool {
	if _, ok := r.index[role]; !ok {
		return false
	}
	if r.Listed(role, tab) {
		return true
	}
	for _, special := range models.SpecialTabs() {
		if special == tab {
			return true
		}
	}
	return false
}

// ReachableTabs lists every tab the role may open.
func (r *NavigationRegistry) ReachableTabs(role models.UserRole) ([]models.TabID, error) {
	items, err := r.Items(role)
	if err != nil {
		return nil, err
	}
	tabs := make([]models.TabID, 0, len(items)+2)
	for _, item := range items {
		tabs = append(tabs, item.ID)
	}
	for _, special := range models.SpecialTabs() {
		if !r.Listed(role, special) {
			tabs = append(tabs, special)
		}
	}
	return tabs, nil
}

// GroupBySection renders items into menu sections. Items whose section is
// not part of SectionOrder are dropped.
func GroupBySection(items []models.NavigationItem) []models.MenuSection {
	buckets := make(map[models.Section][]models.NavigationItem)
	for _, item := range items {
		buckets[item.Section] = append(buckets[item.Section], item)
	}

	sections := make([]models.MenuSection, 0, len(models.SectionOrder))
	for _, s := range models.SectionOrder {
		grouped := buckets[s.Key]
		if len(grouped) == 0 {
			continue
		}
		sections = append(sections, models.MenuSection{
			Key:        s.Key,
			Label:      s.Label,
			ShowHeader: s.Key != models.SectionMain,
			Items:      grouped,
		})
	}
	return sections
}

func sectionRank() map[models.Section]int {
	rank := make(map[models.Section]int, len(models.SectionOrder))
	for i, s := range models.SectionOrder {
		rank[s.Key] = i
	}
	return rank
}

func unknownRole(role models.UserRole) error {
	return appErrors.Clone(appErrors.ErrUnknownRole, fmt.Sprintf("unknown role %q", role))
}
