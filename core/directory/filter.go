package directory

import "strings"

// Filter returns the tutors matching every populated criterion, preserving
// the relative order of `tutors`. It is pure: no store access, no mutation.
//
// Matching rules:
//   - Subject: exact, case-sensitive match against one of the tutor's subjects
//   - GradeLevel: exact match
//   - Location: case-insensitive substring match
//   - MaxPrice: hourly rate <= max, inclusive
func Filter(tutors []TutorProfile, criteria SearchCriteria) []TutorProfile {
	if criteria.IsEmpty() {
		return tutors
	}

	matches := make([]TutorProfile, 0, len(tutors))
	for _, tutor := range tutors {
		if criteria.Subject != "" && !contains(tutor.Subjects, criteria.Subject) {
			continue
		}
		if criteria.GradeLevel != "" && tutor.GradeLevel != criteria.GradeLevel {
			continue
		}
		if criteria.Location != "" &&
			!strings.Contains(strings.ToLower(tutor.Location), strings.ToLower(criteria.Location)) {
			continue
		}
		if criteria.MaxPrice != nil && tutor.HourlyRate > *criteria.MaxPrice {
			continue
		}
		matches = append(matches, tutor)
	}
	return matches
}
