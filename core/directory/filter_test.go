package directory

import (
	"reflect"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }

var directoryFixture = []TutorProfile{
	{ID: "t1", Name: "Alice", Subjects: []string{"Mathematics", "Physics"}, GradeLevel: "High School", Location: "Kathmandu", HourlyRate: 500},
	{ID: "t2", Name: "Bob", Subjects: []string{"Mathematics"}, GradeLevel: "Middle School", Location: "Lalitpur", HourlyRate: 550},
	{ID: "t3", Name: "Carol", Subjects: []string{"English"}, GradeLevel: "High School", Location: "Lalitpur", HourlyRate: 650},
	{ID: "t4", Name: "Dan", Subjects: []string{"Chemistry"}, GradeLevel: "High School", Location: "Greater Lalitpur Area", HourlyRate: 600},
	{ID: "t5", Name: "Eve", Subjects: []string{"Mathematics"}, GradeLevel: "Elementary", Location: "Pokhara", HourlyRate: 300},
}

func ids(tutors []TutorProfile) []string {
	out := make([]string, 0, len(tutors))
	for _, tut := range tutors {
		out = append(out, tut.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		criteria SearchCriteria
		want     []string
	}{
		{name: "empty criteria returns everything", criteria: SearchCriteria{}, want: []string{"t1", "t2", "t3", "t4", "t5"}},
		{name: "subject exact match", criteria: SearchCriteria{Subject: "Mathematics"}, want: []string{"t1", "t2", "t5"}},
		{name: "subject is case sensitive", criteria: SearchCriteria{Subject: "mathematics"}, want: []string{}},
		{name: "grade level exact match", criteria: SearchCriteria{GradeLevel: "High School"}, want: []string{"t1", "t3", "t4"}},
		{name: "location substring ignores case", criteria: SearchCriteria{Location: "lalitpur"}, want: []string{"t2", "t3", "t4"}},
		{name: "max price is inclusive", criteria: SearchCriteria{MaxPrice: floatPtr(550)}, want: []string{"t1", "t2", "t5"}},
		{name: "criteria combine with AND", criteria: SearchCriteria{Subject: "Mathematics", Location: "lalitpur", MaxPrice: floatPtr(550)}, want: []string{"t2"}},
		{name: "no match", criteria: SearchCriteria{Subject: "Biology"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(directoryFixture, tt.criteria)
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("Filter() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

// affordable tutors in Lalitpur: the 550 one matches, the 650 one does not
func TestFilter_locationAndPrice(t *testing.T) {
	got := Filter(directoryFixture, SearchCriteria{Location: "Lalitpur", MaxPrice: floatPtr(600)})
	want := []string{"t2", "t4"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("Filter() = %v, want %v", ids(got), want)
	}
}

func TestFilter_preservesInputOrder(t *testing.T) {
	got := Filter(directoryFixture, SearchCriteria{MaxPrice: floatPtr(1000)})
	if !reflect.DeepEqual(ids(got), ids(directoryFixture)) {
		t.Errorf("Filter() reordered results: %v", ids(got))
	}
}

func TestFilter_doesNotMutateInput(t *testing.T) {
	before := make([]TutorProfile, len(directoryFixture))
	copy(before, directoryFixture)

	Filter(directoryFixture, SearchCriteria{Subject: "Mathematics", GradeLevel: "Elementary"})

	if !reflect.DeepEqual(before, directoryFixture) {
		t.Error("Filter() mutated its input")
	}
}
