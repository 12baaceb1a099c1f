package matching

import (
	"reflect"
	"testing"
)

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		applicant []string
		required  []string
		expect    int
	}{
		{name: "empty applicant", applicant: nil, required: []string{"go", "rust"}, expect: 0},
		{name: "empty required", applicant: []string{"go"}, required: nil, expect: 0},
		{name: "both empty", applicant: nil, required: nil, expect: 0},
		{name: "superset applicant", applicant: []string{"go", "rust"}, required: []string{"go"}, expect: 100},
		{name: "half", applicant: []string{"go", "sql"}, required: []string{"go", "rust", "sql", "java"}, expect: 50},
		{name: "one of three rounds down", applicant: []string{"go"}, required: []string{"go", "rust", "sql"}, expect: 33},
		{name: "two of three rounds up", applicant: []string{"go", "rust"}, required: []string{"go", "rust", "sql"}, expect: 67},
		{name: "exact half up", applicant: []string{"a"}, required: []string{"a", "b", "c", "d", "e", "f", "g", "h"}, expect: 13},
		{name: "no overlap", applicant: []string{"python"}, required: []string{"go"}, expect: 0},
		{name: "blank labels ignored", applicant: []string{"go", "  "}, required: []string{"go", ""}, expect: 100},
		{name: "duplicate required labels collapse", applicant: []string{"go"}, required: []string{"Go", "go ", "rust"}, expect: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ScoreLabels(tt.applicant, tt.required); got != tt.expect {
				t.Fatalf("expected %d, got %d", tt.expect, got)
			}
		})
	}
}

func TestScoreIgnoresCaseAndWhitespace(t *testing.T) {
	plain := ScoreLabels([]string{"go", "sql"}, []string{"go", "rust", "sql", "java"})
	noisy := ScoreLabels([]string{"  GO", "Sql  "}, []string{"Go ", " RUST", "sql", "Java"})
	if plain != noisy {
		t.Fatalf("expected identical scores, got %d and %d", plain, noisy)
	}
}

func TestScoreIsOrderIndependent(t *testing.T) {
	a := ScoreLabels([]string{"sql", "go"}, []string{"java", "sql", "rust", "go"})
	b := ScoreLabels([]string{"go", "sql"}, []string{"go", "rust", "sql", "java"})
	if a != b {
		t.Fatalf("expected order independence, got %d and %d", a, b)
	}
}

func TestParseSkills(t *testing.T) {
	got := ParseSkills(" Go, SQL ,,go, Docker ").Keys()
	want := []string{"docker", "go", "sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSplitLabelsKeepsFirstSpelling(t *testing.T) {
	got := SplitLabels("React, Node.js , react,, TypeScript")
	want := []string{"React", "Node.js", "TypeScript"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestIntersects(t *testing.T) {
	applicant := NewSkillSet("go", "kubernetes")
	if !applicant.Intersects(NewSkillSet("Kubernetes", "helm")) {
		t.Fatalf("expected overlap on kubernetes")
	}
	if applicant.Intersects(NewSkillSet("java")) {
		t.Fatalf("expected no overlap")
	}
	if applicant.Intersects(SkillSet{}) {
		t.Fatalf("expected no overlap with empty set")
	}
	if got := applicant.Intersect(NewSkillSet("GO", "rust")).Keys(); !reflect.DeepEqual(got, []string{"go"}) {
		t.Fatalf("unexpected intersection %v", got)
	}
}
