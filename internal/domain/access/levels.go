package access

import "strings"

// Level is one of the three cumulative permission tiers.
type Level string

const (
	Level1 Level = "LEVEL_1"
	Level2 Level = "LEVEL_2"
	Level3 Level = "LEVEL_3"
)

var level1Features = []Feature{
	FeatureAttendanceRate,
	FeatureAvailableLeave,
	FeatureOvertimePayment,
	FeatureNetSalary,
	FeatureAttendancePage,
	FeatureLeaveRequestPage,
	FeatureProfileView,
	FeatureMessagingHR,
	FeatureTasksCommit,
	FeaturePayrollPage,
}

var level2Features = extend(level1Features,
	FeatureTotalEmployees,
	FeatureActiveEmployees,
	FeatureOnLeaveToday,
	FeatureLateArrivals,
	FeaturePendingLeaveRequests,
	FeatureOpenJobPositions,
	FeatureEmployeesList,
	FeatureTasksAssign,
	FeatureLeaveManagement,
)

var level3Features = extend(level2Features,
	FeatureAttendanceManagement,
	FeaturePayrollManagement,
	FeatureJobPosts,
	FeatureCandidatesApplicants,
	FeatureCVSearch,
	FeatureHiringRequests,
)

var levelTable = map[Level]Set{
	Level1: newSet(level1Features),
	Level2: newSet(level2Features),
	Level3: newSet(level3Features),
}

var levelLabels = map[Level]string{
	Level1: "Level 1 (Basic)",
	Level2: "Level 2",
	Level3: "Level 3",
}

func extend(base []Feature, more ...Feature) []Feature {
	out := make([]Feature, 0, len(base)+len(more))
	out = append(out, base...)
	return append(out, more...)
}

// Levels lists the tiers from lowest to highest.
func Levels() []Level {
	return []Level{Level1, Level2, Level3}
}

func (l Level) Valid() bool {
	_, ok := levelTable[l]
	return ok
}

// Normalize maps anything that is not a known tier to Level1 so a corrupt or
// missing stored level never grants more than baseline access.
func (l Level) Normalize() Level {
	if l.Valid() {
		return l
	}
	return Level1
}

// ParseLevel is lenient about case and whitespace and never fails; see Normalize.
func ParseLevel(raw string) Level {
	return Level(strings.ToUpper(strings.TrimSpace(raw))).Normalize()
}

// Rank is 1, 2 or 3.
func (l Level) Rank() int {
	switch l.Normalize() {
	case Level2:
		return 2
	case Level3:
		return 3
	default:
		return 1
	}
}

func (l Level) Label() string {
	return levelLabels[l.Normalize()]
}

func (l Level) String() string {
	return string(l)
}

// Features returns the tier's fixed feature set.
func (l Level) Features() Set {
	return levelTable[l.Normalize()]
}

// Includes reports whether the tier grants f on its own.
func (l Level) Includes(f Feature) bool {
	return l.Features().Has(f)
}

// LevelFeatures returns a copy of the tier's features in catalog order.
func LevelFeatures(l Level) []Feature {
	return l.Features().Features()
}
