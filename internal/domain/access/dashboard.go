package access

type Widget struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Link    string  `json:"link,omitempty"`
	Feature Feature `json:"permission"`
}

func (w Widget) RequiredFeature() Feature {
	return w.Feature
}

// DashboardSection groups widgets. Gates, when set, decides visibility of the
// whole section; otherwise the section shows when any widget does.
type DashboardSection struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Widgets []Widget  `json:"widgets"`
	Gates   []Feature `json:"-"`
}

func (s DashboardSection) visible(set Set) bool {
	if len(s.Gates) > 0 {
		return AnyPermission(set, s.Gates...)
	}
	for _, w := range s.Widgets {
		if HasPermission(set, w.Feature) {
			return true
		}
	}
	return false
}

var dashboardSections = []DashboardSection{
	{
		ID:    "personal",
		Title: "My Overview",
		Widgets: []Widget{
			{ID: "attendance_rate", Title: "Attendance Rate", Link: "/attendance", Feature: FeatureAttendanceRate},
			{ID: "available_leave", Title: "Available Leave Days", Link: "/leaves", Feature: FeatureAvailableLeave},
			{ID: "overtime_payment", Title: "Overtime Payment", Link: "/payroll", Feature: FeatureOvertimePayment},
			{ID: "net_salary", Title: "Net Salary", Link: "/payroll", Feature: FeatureNetSalary},
		},
		Gates: []Feature{FeatureAttendanceRate, FeatureAvailableLeave, FeatureOvertimePayment, FeaturePayrollPage, FeatureNetSalary},
	},
	{
		ID:    "hr",
		Title: "HR Overview",
		Widgets: []Widget{
			{ID: "active_employees", Title: "Active Employees", Link: "/employees", Feature: FeatureActiveEmployees},
			{ID: "on_leave_today", Title: "On Leave Today", Link: "/leave-management", Feature: FeatureOnLeaveToday},
			{ID: "late_arrivals", Title: "Late Arrivals", Link: "/attendance-overview", Feature: FeatureLateArrivals},
			{ID: "pending_requests", Title: "Pending Requests", Link: "/leave-management", Feature: FeaturePendingLeaveRequests},
			{ID: "open_job_posts", Title: "Open Job Posts", Link: "/job-post", Feature: FeatureOpenJobPositions},
		},
	},
	{
		ID:    "organization",
		Title: "Organization Overview",
		Widgets: []Widget{
			{ID: "total_users", Title: "Total Users", Link: "/user-records", Feature: FeatureTotalEmployees},
			{ID: "pending_user_approval", Title: "Pending User Approval", Link: "/user-records", Feature: FeaturePendingLeaveRequests},
			{ID: "total_branches", Title: "Total Branches", Link: "/company-records", Feature: FeatureTotalEmployees},
			{ID: "total_job_posts", Title: "Total Job Posts", Link: "/job-postings", Feature: FeatureJobPosts},
			{ID: "pending_job_posts", Title: "Pending Job Posts", Link: "/job-postings", Feature: FeatureJobPosts},
		},
	},
	{
		ID:    "quick_actions",
		Title: "Quick Actions",
		Widgets: []Widget{
			{ID: "view_users", Title: "View Users", Link: "/user-record", Feature: FeatureEmployeesList},
			{ID: "view_companies", Title: "View Companies", Link: "/company-record", Feature: FeatureTotalEmployees},
			{ID: "job_posts", Title: "Job Posts", Link: "/job-postings", Feature: FeatureJobPosts},
			{ID: "check_in_out", Title: "Check In/Out", Link: "/attendance", Feature: FeatureAttendancePage},
			{ID: "apply_leave", Title: "Apply for Leave", Link: "/leaves", Feature: FeatureLeaveRequestPage},
			{ID: "view_payslip", Title: "View Payslip", Link: "/payroll", Feature: FeaturePayrollPage},
		},
	},
	{
		ID:    "activity",
		Title: "Recent Activity",
		Widgets: []Widget{
			{ID: "leave_requests", Title: "Recent Leave Requests", Feature: FeaturePendingLeaveRequests},
			{ID: "attendance_logged", Title: "Attendance Logged", Feature: FeatureAttendancePage},
			{ID: "payslip_available", Title: "Payslip Available", Feature: FeaturePayrollPage},
		},
	},
	{
		ID:    "departments",
		Title: "Department Overview",
		Widgets: []Widget{
			{ID: "department_headcount", Title: "Employees by Department", Feature: FeatureTotalEmployees},
		},
	},
}

// Dashboard returns the visible sections in display order, each trimmed to the
// widgets set allows.
func Dashboard(set Set) []DashboardSection {
	out := make([]DashboardSection, 0, len(dashboardSections))
	for _, section := range dashboardSections {
		if !section.visible(set) {
			continue
		}
		widgets := FilterByPermission(section.Widgets, set, Widget.RequiredFeature)
		out = append(out, DashboardSection{ID: section.ID, Title: section.Title, Widgets: widgets})
	}
	return out
}
