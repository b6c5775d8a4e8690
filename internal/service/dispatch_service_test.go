package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
)

func newTestDispatch(t *testing.T, features FeatureSet) *DispatchTable {
	t.Helper()
	table, err := NewDispatchTable(features, nil)
	require.NoError(t, err)
	return table
}

func TestDispatchEveryReachableTabResolves(t *testing.T) {
	reg := newTestRegistry(t)
	table := newTestDispatch(t, AllFeatures())

	require.NoError(t, table.Verify(reg))

	for _, role := range models.AllRoles() {
		reachable, err := reg.ReachableTabs(role)
		require.NoError(t, err)
		for _, tab := range reachable {
			res, err := table.Resolve(role, tab, models.ViewProps{Role: role})
			require.NoError(t, err, "%s/%s", role, tab)
			assert.False(t, res.Fallback, "%s/%s", role, tab)
			assert.NotEqual(t, models.ViewNotAvailable, res.View)
		}
	}
}

func TestDispatchDisambiguations(t *testing.T) {
	table := newTestDispatch(t, AllFeatures())

	cases := []struct {
		role models.UserRole
		tab  models.TabID
		want models.ViewID
	}{
		{models.RoleAdmin, models.TabDashboard, models.ViewAdminDashboard},
		{models.RoleTeacher, models.TabDashboard, models.ViewTeacherDashboard},
		{models.RoleStudent, models.TabDashboard, models.ViewStudentDashboard},
		{models.RoleParent, models.TabDashboard, models.ViewParentDashboard},
		{models.RoleTeacher, models.TabAttendance, models.ViewBiometricAttendance},
		{models.RoleAdmin, models.TabAttendance, models.ViewAttendance},
		{models.RoleStudent, models.TabAttendance, models.ViewAttendance},
		{models.RoleParent, models.TabAttendance, models.ViewAttendance},
		{models.RoleAdmin, models.TabFees, models.ViewFeeManagement},
		{models.RoleStudent, models.TabFees, models.ViewFeePanel},
		{models.RoleParent, models.TabFees, models.ViewFeePanel},
		{models.RoleAdmin, models.TabExams, models.ViewExamScheduler},
		{models.RoleTeacher, models.TabExams, models.ViewExamGrading},
		{models.RoleStudent, models.TabExams, models.ViewExamSchedule},
		{models.RoleTeacher, models.TabAssignments, models.ViewAssignmentManager},
		{models.RoleStudent, models.TabAssignments, models.ViewAssignmentSubmissions},
		{models.RoleAdmin, models.TabTimetable, models.ViewTimetableBuilder},
		{models.RoleParent, models.TabTimetable, models.ViewTimetable},
		{models.RoleTeacher, models.TabAnnouncements, models.ViewAnnouncementComposer},
		{models.RoleParent, models.TabAnnouncements, models.ViewAnnouncementBoard},
		{models.RoleTeacher, models.TabEvents, models.ViewEventCalendar},
		{models.RoleParent, models.TabNotifications, models.ViewNotifications},
	}

	for _, tc := range cases {
		res, err := table.Resolve(tc.role, tc.tab, models.ViewProps{})
		require.NoError(t, err, "%s/%s", tc.role, tc.tab)
		assert.Equal(t, tc.want, res.View, "%s/%s", tc.role, tc.tab)
	}
}

func TestDispatchUnmatchedPairFallsBack(t *testing.T) {
	table := newTestDispatch(t, AllFeatures())
	props := models.ViewProps{Role: models.RoleStudent, DarkMode: true}

	res, err := table.Resolve(models.RoleStudent, models.TabPayroll, props)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNoViewForTab.Code))
	assert.True(t, res.Fallback)
	assert.Equal(t, models.ViewNotAvailable, res.View)
	assert.Equal(t, models.TabPayroll, res.Tab)
	assert.True(t, res.Props.DarkMode)
	assert.Equal(t, appErrors.ErrNoViewForTab.Message, res.Reason)
}

func TestDispatchUnknownRole(t *testing.T) {
	table := newTestDispatch(t, AllFeatures())

	res, err := table.Resolve(models.UserRole("janitor"), models.TabDashboard, models.ViewProps{})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnknownRole.Code))
	assert.True(t, res.Fallback)
}

func TestDispatchHonoursFeatureFlags(t *testing.T) {
	features := AllFeatures()
	features[models.FeatureBiometricAttendance] = false
	features[models.FeatureLibrary] = false
	table := newTestDispatch(t, features)

	res, err := table.Resolve(models.RoleTeacher, models.TabAttendance, models.ViewProps{})
	require.NoError(t, err)
	assert.Equal(t, models.ViewAttendance, res.View)

	res, err = table.Resolve(models.RoleStudent, models.TabLibrary, models.ViewProps{})
	require.Error(t, err)
	assert.True(t, res.Fallback)

	reg, err := NewNavigationRegistry(features)
	require.NoError(t, err)
	assert.NoError(t, table.Verify(reg))
}

func TestBuildDispatchRejectsOverlap(t *testing.T) {
	routes := []Route{
		{Tabs: tabs(models.TabFees), Roles: only(models.RoleAdmin), View: models.ViewFeeManagement},
		{Tabs: tabs(models.TabFees), View: models.ViewFeePanel},
	}
	_, err := buildDispatchTable(routes, AllFeatures(), nil)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrAmbiguousRoute.Code))

	routes[1].Otherwise = true
	table, err := buildDispatchTable(routes, AllFeatures(), nil)
	require.NoError(t, err)
	view, ok := table.Lookup(models.RoleAdmin, models.TabFees)
	assert.True(t, ok)
	assert.Equal(t, models.ViewFeeManagement, view)
	view, _ = table.Lookup(models.RoleParent, models.TabFees)
	assert.Equal(t, models.ViewFeePanel, view)
}

func TestDispatchRecordsMetrics(t *testing.T) {
	metrics := NewMetricsService()
	table, err := NewDispatchTable(AllFeatures(), metrics)
	require.NoError(t, err)

	_, _ = table.Resolve(models.RoleAdmin, models.TabDashboard, models.ViewProps{})
	_, _ = table.Resolve(models.RoleParent, models.TabGradebook, models.ViewProps{})

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(2), snap.ViewResolutions)
	assert.Equal(t, uint64(1), snap.FallbackResolutions)
}
