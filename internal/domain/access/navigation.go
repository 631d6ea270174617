package access

type NavItem struct {
	Path    string  `json:"path"`
	Label   string  `json:"label"`
	Icon    string  `json:"icon"`
	Feature Feature `json:"permission,omitempty"`
}

func (n NavItem) RequiredFeature() Feature {
	return n.Feature
}

// PermissionsPath is the navigation entry of the override editor. The editor API is
// guarded by the same feature so that the menu and the endpoints agree.
const PermissionsPath = "/permissions"

var navigationItems = []NavItem{
	{Path: "/dashboard", Label: "Dashboard", Icon: "home"},
	{Path: "/attendance", Label: "Attendance", Icon: "clock", Feature: FeatureAttendancePage},
	{Path: "/leaves", Label: "Leave Request", Icon: "calendar", Feature: FeatureLeaveRequestPage},
	{Path: "/payroll", Label: "Payroll", Icon: "dollar-sign", Feature: FeaturePayrollPage},
	{Path: "/employees", Label: "Employees", Icon: "users", Feature: FeatureEmployeesList},
	{Path: "/attendance-overview", Label: "Attendance Management", Icon: "user-check", Feature: FeatureAttendanceManagement},
	{Path: "/leave-management", Label: "Leave Management", Icon: "calendar-clock", Feature: FeatureLeaveManagement},
	{Path: "/payroll-management", Label: "Payroll Management", Icon: "hand-coins", Feature: FeaturePayrollManagement},
	{Path: "/job-post", Label: "Job Post", Icon: "megaphone", Feature: FeatureOpenJobPositions},
	{Path: "/recruitment", Label: "Candidates/Applicants", Icon: "briefcase", Feature: FeatureCandidatesApplicants},
	{Path: "/premium", Label: "CV Search", Icon: "user-search", Feature: FeatureCVSearch},
	{Path: PermissionsPath, Label: "Give Permission", Icon: "shield-check", Feature: FeaturePendingLeaveRequests},
}

// NavigationItems returns the full, unfiltered menu.
func NavigationItems() []NavItem {
	out := make([]NavItem, len(navigationItems))
	copy(out, navigationItems)
	return out
}

// Navigation returns the menu entries visible under set.
func Navigation(set Set) []NavItem {
	return FilterByPermission(navigationItems, set, NavItem.RequiredFeature)
}

// PermissionsEditorFeature is the feature that unlocks the override editor.
func PermissionsEditorFeature() Feature {
	for _, item := range navigationItems {
		if item.Path == PermissionsPath {
			return item.Feature
		}
	}
	return FeaturePendingLeaveRequests
}
