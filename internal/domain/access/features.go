package access

import "strings"

// Feature names one gate-able capability. The set of valid values is closed:
// only the constants below are ever produced by ParseFeature.
type Feature string

// NoFeature marks an item that is visible to everyone.
const NoFeature Feature = ""

const (
	FeatureAttendanceRate  Feature = "attendance_rate"
	FeatureAvailableLeave  Feature = "available_leave"
	FeatureOvertimePayment Feature = "overtime_payment"
	FeatureNetSalary       Feature = "net_salary"

	FeatureTotalEmployees       Feature = "total_employees"
	FeatureActiveEmployees      Feature = "active_employees"
	FeatureOnLeaveToday         Feature = "on_leave_today"
	FeatureLateArrivals         Feature = "late_arrivals"
	FeaturePendingLeaveRequests Feature = "pending_leave_requests"
	FeatureOpenJobPositions     Feature = "open_job_positions"

	FeatureAttendancePage   Feature = "attendance_page"
	FeatureLeaveRequestPage Feature = "leave_request_page"
	FeaturePayrollPage      Feature = "payroll_page"
	FeatureTasksCommit      Feature = "tasks_commit"
	FeatureProfileView      Feature = "profile_view"
	FeatureMessagingHR      Feature = "messaging_hr"

	FeatureEmployeesList Feature = "employees_list"
	FeatureTasksAssign   Feature = "tasks_assign"

	FeatureLeaveManagement      Feature = "leave_management"
	FeatureAttendanceManagement Feature = "attendance_management"
	FeaturePayrollManagement    Feature = "payroll_management"
	FeatureJobPosts             Feature = "job_posts"
	FeatureCandidatesApplicants Feature = "candidates_applicants"
	FeatureCVSearch             Feature = "cv_search"
	FeatureHiringRequests       Feature = "hiring_requests"
)

var catalog = []Feature{
	FeatureAttendanceRate,
	FeatureAvailableLeave,
	FeatureOvertimePayment,
	FeatureNetSalary,
	FeatureTotalEmployees,
	FeatureActiveEmployees,
	FeatureOnLeaveToday,
	FeatureLateArrivals,
	FeaturePendingLeaveRequests,
	FeatureOpenJobPositions,
	FeatureAttendancePage,
	FeatureLeaveRequestPage,
	FeaturePayrollPage,
	FeatureTasksCommit,
	FeatureProfileView,
	FeatureMessagingHR,
	FeatureEmployeesList,
	FeatureTasksAssign,
	FeatureLeaveManagement,
	FeatureAttendanceManagement,
	FeaturePayrollManagement,
	FeatureJobPosts,
	FeatureCandidatesApplicants,
	FeatureCVSearch,
	FeatureHiringRequests,
}

// catalogIndex gives each feature its position in the catalog. Sets iterate in this order.
var catalogIndex = func() map[Feature]int {
	idx := make(map[Feature]int, len(catalog))
	for i, f := range catalog {
		idx[f] = i
	}
	return idx
}()

// Catalog returns every known feature in a stable order.
func Catalog() []Feature {
	out := make([]Feature, len(catalog))
	copy(out, catalog)
	return out
}

func (f Feature) Valid() bool {
	_, ok := catalogIndex[f]
	return ok
}

// Label renders the key the way the admin editor lists it ("cv search").
func (f Feature) Label() string {
	return strings.ToLower(strings.ReplaceAll(string(f), "_", " "))
}

func (f Feature) String() string {
	return string(f)
}

// ParseFeature accepts the wire value of a catalog key. Surrounding whitespace and
// letter case are ignored.
func ParseFeature(raw string) (Feature, bool) {
	f := Feature(strings.ToLower(strings.TrimSpace(raw)))
	if !f.Valid() {
		return NoFeature, false
	}
	return f, true
}

// ParseFeatures converts stored strings, dropping anything outside the catalog.
func ParseFeatures(raw []string) []Feature {
	out := make([]Feature, 0, len(raw))
	for _, value := range raw {
		if f, ok := ParseFeature(value); ok {
			out = append(out, f)
		}
	}
	return out
}

// FeatureStrings is the inverse of ParseFeatures.
func FeatureStrings(features []Feature) []string {
	out := make([]string, 0, len(features))
	for _, f := range features {
		out = append(out, string(f))
	}
	return out
}
