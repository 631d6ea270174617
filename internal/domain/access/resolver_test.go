package access

import (
	"encoding/json"
	"testing"
)

func unionOf(level Level, overrides []Feature) map[Feature]struct{} {
	out := map[Feature]struct{}{}
	for _, f := range LevelFeatures(level) {
		out[f] = struct{}{}
	}
	for _, f := range overrides {
		if f.Valid() {
			out[f] = struct{}{}
		}
	}
	return out
}

func TestComputeFinalPermissionsIsUnion(t *testing.T) {
	overrideLists := [][]Feature{
		nil,
		{FeatureEmployeesList},
		{FeatureCVSearch, FeatureTasksAssign, FeatureCVSearch},
		{FeatureAttendancePage},
		{FeatureHiringRequests, FeatureJobPosts, FeaturePayrollManagement},
		Catalog(),
	}

	for _, level := range append(Levels(), Level("")) {
		for _, overrides := range overrideLists {
			got := ComputeFinalPermissions(level, overrides)
			want := unionOf(level.Normalize(), overrides)
			if got.Len() != len(want) {
				t.Fatalf("%s %v: expected %d features, got %d", level, overrides, len(want), got.Len())
			}
			for f := range want {
				if !got.Has(f) {
					t.Fatalf("%s %v: missing %s", level, overrides, f)
				}
			}
			if !got.Contains(level.Features()) {
				t.Fatalf("%s %v: result is not a superset of the tier", level, overrides)
			}
			if got.Len() > len(Catalog()) {
				t.Fatalf("result larger than catalog")
			}
		}
	}
}

func TestComputeFinalPermissionsIdempotent(t *testing.T) {
	overrides := []Feature{FeatureEmployeesList, FeatureCVSearch}
	once := ComputeFinalPermissions(Level1, overrides)
	twice := ComputeFinalPermissions(Level1, append(append([]Feature{}, overrides...), overrides...))
	if !once.Equal(twice) {
		t.Fatalf("duplicated overrides changed the result: %v vs %v", once.Strings(), twice.Strings())
	}
}

func TestComputeFinalPermissionsOrderIndependent(t *testing.T) {
	a := ComputeFinalPermissions(Level2, []Feature{FeatureCVSearch, FeatureJobPosts})
	b := ComputeFinalPermissions(Level2, []Feature{FeatureJobPosts, FeatureCVSearch})
	if !a.Equal(b) {
		t.Fatal("override order changed the result")
	}
}

func TestInvalidLevelFailsSafe(t *testing.T) {
	for _, level := range []Level{"", "LEVEL_4", "root"} {
		got := ComputeFinalPermissions(level, nil)
		if !got.Equal(ComputeFinalPermissions(Level1, nil)) {
			t.Fatalf("level %q did not resolve as level 1", level)
		}
	}
}

func TestOverridesAreMonotonic(t *testing.T) {
	var overrides []Feature
	prev := ComputeFinalPermissions(Level1, overrides)
	for _, f := range Catalog() {
		overrides = append(overrides, f)
		next := ComputeFinalPermissions(Level1, overrides)
		if !next.Contains(prev) {
			t.Fatalf("adding %s removed a granted feature", f)
		}
		prev = next
	}
	if prev.Len() != len(Catalog()) {
		t.Fatalf("expected full catalog, got %d", prev.Len())
	}
}

func TestUnknownOverrideIsInert(t *testing.T) {
	got := ComputeFinalPermissions(Level1, []Feature{"legacy_feature"})
	if !got.Equal(Level1.Features()) {
		t.Fatalf("unknown override changed the result: %v", got.Strings())
	}
	if got.Has("legacy_feature") {
		t.Fatal("unknown override was granted")
	}
}

func TestScenarioLevel1(t *testing.T) {
	got := ComputeFinalPermissions(Level1, nil)
	if !got.Has(FeatureAttendancePage) || !got.Has(FeaturePayrollPage) {
		t.Fatal("expected level 1 to include attendance and payroll pages")
	}
	if got.Has(FeatureEmployeesList) {
		t.Fatal("level 1 must not include employees_list")
	}
	if got.Len() != 10 {
		t.Fatalf("expected 10 level 1 features, got %d", got.Len())
	}
}

func TestScenarioLevel1WithEmployeesList(t *testing.T) {
	got := ComputeFinalPermissions(Level1, []Feature{FeatureEmployeesList})
	added, removed := Level1.Features().Diff(got)
	if len(removed) != 0 {
		t.Fatalf("unexpected removals: %v", removed)
	}
	if len(added) != 1 || added[0] != FeatureEmployeesList {
		t.Fatalf("expected only employees_list to be added, got %v", added)
	}
	if got.Has(FeatureTasksAssign) || got.Has(FeatureLeaveManagement) {
		t.Fatal("other level 2 features leaked in")
	}
}

func TestScenarioLevel3CoversAllTiers(t *testing.T) {
	got := ComputeFinalPermissions(Level3, nil)
	for _, level := range Levels() {
		for _, f := range LevelFeatures(level) {
			if !got.Has(f) {
				t.Fatalf("level 3 missing %s from %s", f, level)
			}
		}
	}
}

func TestSetIteratesInCatalogOrder(t *testing.T) {
	got := NewSet(FeatureHiringRequests, FeatureAttendanceRate, FeatureEmployeesList).Features()
	want := []Feature{FeatureAttendanceRate, FeatureEmployeesList, FeatureHiringRequests}
	if len(got) != len(want) {
		t.Fatalf("unexpected features %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSetJSON(t *testing.T) {
	set := NewSet(FeatureCVSearch, FeatureAttendanceRate)
	payload, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if string(payload) != `["attendance_rate","cv_search"]` {
		t.Fatalf("unexpected payload %s", payload)
	}

	var decoded Set
	if err := json.Unmarshal([]byte(`["cv_search","gone_feature","attendance_rate"]`), &decoded); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if !decoded.Equal(set) {
		t.Fatalf("unexpected decoded set %v", decoded.Strings())
	}
}

func TestEmptySetMarshalsAsArray(t *testing.T) {
	payload, err := json.Marshal(Set{})
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if string(payload) != `[]` {
		t.Fatalf("unexpected payload %s", payload)
	}
}
