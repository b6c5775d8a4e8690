package service

import (
	"fmt"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
)

// Route maps tabs, for a set of roles, to one view. An empty Roles list
// means every role. Otherwise routes only fill pairs no earlier route has
// claimed; any other overlap is a build error.
type Route struct {
	Tabs      []models.TabID
	Roles     []models.UserRole
	View      models.ViewID
	Feature   models.Feature
	Otherwise bool
}

func tabs(ids ...models.TabID) []models.TabID      { return ids }
func roles(rs ...models.UserRole) []models.UserRole { return rs }
func only(r models.UserRole) []models.UserRole     { return []models.UserRole{r} }

var defaultRoutes = []Route{
	{Tabs: tabs(models.TabDashboard), Roles: only(models.RoleAdmin), View: models.ViewAdminDashboard},
	{Tabs: tabs(models.TabDashboard), Roles: only(models.RoleTeacher), View: models.ViewTeacherDashboard},
	{Tabs: tabs(models.TabDashboard), Roles: only(models.RoleStudent), View: models.ViewStudentDashboard},
	{Tabs: tabs(models.TabDashboard), Roles: only(models.RoleParent), View: models.ViewParentDashboard},

	{Tabs: tabs(models.TabProfile), View: models.ViewProfile},
	{Tabs: tabs(models.TabMessages), View: models.ViewMessages},
	{Tabs: tabs(models.TabSettings), View: models.ViewSettings},
	{Tabs: tabs(models.TabHelp), View: models.ViewHelp},
	{Tabs: tabs(models.TabNotifications), View: models.ViewNotifications},
	{Tabs: tabs(models.TabEvents), View: models.ViewEventCalendar},

	{Tabs: tabs(models.TabUsers), Roles: only(models.RoleAdmin), View: models.ViewUserManagement},
	{Tabs: tabs(models.TabStudents), Roles: only(models.RoleAdmin), View: models.ViewStudentDirectory},
	{Tabs: tabs(models.TabTeachers), Roles: only(models.RoleAdmin), View: models.ViewTeacherDirectory},
	{Tabs: tabs(models.TabClasses), Roles: only(models.RoleAdmin), View: models.ViewClassManagement},
	{Tabs: tabs(models.TabAdmissions), Roles: only(models.RoleAdmin), View: models.ViewAdmissions},
	{Tabs: tabs(models.TabReports), Roles: only(models.RoleAdmin), View: models.ViewReports},
	{Tabs: tabs(models.TabPayroll), Roles: only(models.RoleAdmin), View: models.ViewPayroll},
	{Tabs: tabs(models.TabInventory), Roles: only(models.RoleAdmin), View: models.ViewInventory},
	{Tabs: tabs(models.TabAuditLogs), Roles: only(models.RoleAdmin), View: models.ViewAuditLogs},
	{Tabs: tabs(models.TabHostel), Roles: only(models.RoleAdmin), View: models.ViewHostelManagement, Feature: models.FeatureHostel},

	{Tabs: tabs(models.TabTimetable), Roles: only(models.RoleAdmin), View: models.ViewTimetableBuilder},
	{Tabs: tabs(models.TabTimetable), View: models.ViewTimetable, Otherwise: true},

	{Tabs: tabs(models.TabExams), Roles: only(models.RoleAdmin), View: models.ViewExamScheduler},
	{Tabs: tabs(models.TabExams), Roles: only(models.RoleTeacher), View: models.ViewExamGrading},
	{Tabs: tabs(models.TabExams), Roles: only(models.RoleStudent), View: models.ViewExamSchedule},

	// Teachers mark attendance on the biometric panel; everyone else gets the
	// regular register.
	{Tabs: tabs(models.TabAttendance), Roles: only(models.RoleTeacher), View: models.ViewBiometricAttendance, Feature: models.FeatureBiometricAttendance},
	{Tabs: tabs(models.TabAttendance), View: models.ViewAttendance, Otherwise: true},

	{Tabs: tabs(models.TabFees), Roles: only(models.RoleAdmin), View: models.ViewFeeManagement},
	{Tabs: tabs(models.TabFees), Roles: roles(models.RoleStudent, models.RoleParent), View: models.ViewFeePanel},

	{Tabs: tabs(models.TabAnnouncements), Roles: roles(models.RoleAdmin, models.RoleTeacher), View: models.ViewAnnouncementComposer},
	{Tabs: tabs(models.TabAnnouncements), Roles: roles(models.RoleStudent, models.RoleParent), View: models.ViewAnnouncementBoard},

	{Tabs: tabs(models.TabLibrary), Roles: only(models.RoleAdmin), View: models.ViewLibraryAdmin, Feature: models.FeatureLibrary},
	{Tabs: tabs(models.TabLibrary), Roles: roles(models.RoleTeacher, models.RoleStudent), View: models.ViewLibraryCatalog, Feature: models.FeatureLibrary},

	{Tabs: tabs(models.TabTransport), Roles: only(models.RoleAdmin), View: models.ViewTransportManagement, Feature: models.FeatureTransport},
	{Tabs: tabs(models.TabTransport), Roles: roles(models.RoleStudent, models.RoleParent), View: models.ViewTransportRoutes, Feature: models.FeatureTransport},

	{Tabs: tabs(models.TabMyClasses), Roles: only(models.RoleTeacher), View: models.ViewMyClasses},
	{Tabs: tabs(models.TabAssignments), Roles: only(models.RoleTeacher), View: models.ViewAssignmentManager},
	{Tabs: tabs(models.TabAssignments), Roles: only(models.RoleStudent), View: models.ViewAssignmentSubmissions},
	{Tabs: tabs(models.TabGradebook), Roles: only(models.RoleTeacher), View: models.ViewGradebook},
	{Tabs: tabs(models.TabLessonPlans), Roles: only(models.RoleTeacher), View: models.ViewLessonPlans},
	{Tabs: tabs(models.TabLeave), Roles: only(models.RoleTeacher), View: models.ViewLeaveRequests},

	{Tabs: tabs(models.TabCourses), Roles: only(models.RoleStudent), View: models.ViewCourses},
	{Tabs: tabs(models.TabGrades), Roles: only(models.RoleStudent), View: models.ViewGrades},

	{Tabs: tabs(models.TabChildren), Roles: only(models.RoleParent), View: models.ViewChildrenOverview},
	{Tabs: tabs(models.TabProgress), Roles: only(models.RoleParent), View: models.ViewChildProgress},
	{Tabs: tabs(models.TabMeetings), Roles: only(models.RoleParent), View: models.ViewParentMeetings},
}

type dispatchKey struct {
	role models.UserRole
	tab  models.TabID
}

// DispatchTable resolves (role, tab) to exactly one view. It is built once
// and read concurrently afterwards.
type DispatchTable struct {
	views   map[dispatchKey]models.ViewID
	metrics *MetricsService
}

// NewDispatchTable expands the default routes for the enabled features.
func NewDispatchTable(features FeatureSet, metrics *MetricsService) (*DispatchTable, error) {
	return buildDispatchTable(defaultRoutes, features, metrics)
}

func buildDispatchTable(routes []Route, features FeatureSet, metrics *MetricsService) (*DispatchTable, error) {
	table := &DispatchTable{views: make(map[dispatchKey]models.ViewID), metrics: metrics}

	for i, route := range routes {
		if !features.Enabled(route.Feature) {
			continue
		}
		targets := route.Roles
		if len(targets) == 0 {
			targets = models.AllRoles()
		}
		for _, role := range targets {
			if !role.Valid() {
				return nil, fmt.Errorf("route %d names unknown role %q", i, role)
			}
			for _, tab := range route.Tabs {
				key := dispatchKey{role: role, tab: tab}
				if existing, taken := table.views[key]; taken {
					if route.Otherwise {
						continue
					}
					return nil, appErrors.Clone(appErrors.ErrAmbiguousRoute,
						fmt.Sprintf("tab %q for role %s matches both %s and %s", tab, role, existing, route.View))
				}
				table.views[key] = route.View
			}
		}
	}

	return table, nil
}

// Lookup returns the view for the pair without any fallback.
func (d *DispatchTable) Lookup(role models.UserRole, tab models.TabID) (models.ViewID, bool) {
	view, ok := d.views[dispatchKey{role: role, tab: tab}]
	return view, ok
}

// Resolve selects the view to mount and binds props to it. The returned
// resolution is always renderable: unmatched pairs yield the not-available
// placeholder together with a NO_VIEW_FOR_TAB error.
func (d *DispatchTable) Resolve(role models.UserRole, tab models.TabID, props models.ViewProps) (models.Resolution, error) {
	if !role.Valid() {
		err := unknownRole(role)
		d.record(models.ViewNotAvailable, true)
		return placeholder(tab, props, err.Error()), err
	}

	view, ok := d.Lookup(role, tab)
	if !ok {
		err := appErrors.Clone(appErrors.ErrNoViewForTab, fmt.Sprintf("no view for tab %q and role %s", tab, role))
		d.record(models.ViewNotAvailable, true)
		return placeholder(tab, props, appErrors.ErrNoViewForTab.Message), err
	}

	d.record(view, false)
	return models.Resolution{Tab: tab, View: view, Props: props}, nil
}

// Verify checks that every tab reachable from the navigation registry
// resolves for its role.
func (d *DispatchTable) Verify(nav *NavigationRegistry) error {
	for _, role := range models.AllRoles() {
		reachable, err := nav.ReachableTabs(role)
		if err != nil {
			return err
		}
		for _, tab := range reachable {
			if _, ok := d.Lookup(role, tab); !ok {
				return appErrors.Clone(appErrors.ErrNoViewForTab, fmt.Sprintf("reachable tab %q has no view for role %s", tab, role))
			}
		}
	}
	return nil
}

func (d *DispatchTable) record(view models.ViewID, fallback bool) {
	if d.metrics != nil {
		d.metrics.RecordResolution(view, fallback)
	}
}

func placeholder(tab models.TabID, props models.ViewProps, reason string) models.Resolution {
	return models.Resolution{
		Tab:      tab,
		View:     models.ViewNotAvailable,
		Props:    props,
		Fallback: true,
		Reason:   reason,
	}
}
