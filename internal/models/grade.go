package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	minGrade = 1
	maxGrade = 12
)

// GradeLabels lists the canonical grade labels in order.
func GradeLabels() []string {
	labels := make([]string, 0, maxGrade)
	for g := minGrade; g <= maxGrade; g++ {
		labels = append(labels, gradeLabel(g))
	}
	return labels
}

// NormalizeGrade maps "5", "grade 5" or "Grade 5" to "Grade 5".
func NormalizeGrade(raw string) (string, bool) {
	n, ok := gradeNumber(raw)
	if !ok {
		return "", false
	}
	return gradeLabel(n), true
}

// NormalizeGrades canonicalises, de-duplicates and orders a grade set.
func NormalizeGrades(raw []string) ([]string, error) {
	seen := make(map[int]struct{}, len(raw))
	numbers := make([]int, 0, len(raw))
	for _, r := range raw {
		n, ok := gradeNumber(r)
		if !ok {
			return nil, fmt.Errorf("unknown grade %q", r)
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	labels := make([]string, len(numbers))
	for i, n := range numbers {
		labels[i] = gradeLabel(n)
	}
	return labels, nil
}

// GradeOrder returns the numeric position of a grade label, or 0 when unknown.
func GradeOrder(label string) int {
	n, ok := gradeNumber(label)
	if !ok {
		return 0
	}
	return n
}

func gradeNumber(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if len(s) >= 5 && strings.EqualFold(s[:5], "grade") {
		s = strings.TrimSpace(s[5:])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minGrade || n > maxGrade {
		return 0, false
	}
	return n, true
}

func gradeLabel(n int) string {
	return "Grade " + strconv.Itoa(n)
}
