package core

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in  string
		out Category
		ok  bool
	}{
		{"Food", Food, true},
		{"food", Food, true},
		{" Utilities ", Utilities, true},
		{"1", Food, true},
		{"6", Others, true},
		{"7", 0, false},
		{"0", 0, false},
		{"", 0, false},
		{"Groceries", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseCategory(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidCategory) {
			t.Fatalf("%q expected ErrInvalidCategory, got %v", tc.in, err)
		}
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := Entertainment.Label(); got != "Entertainment" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := Category(42).Label(); got != "Unknown" {
		t.Fatalf("expected Unknown, got %q", got)
	}
	if len(Categories()) != 6 {
		t.Fatalf("expected 6 categories")
	}
}

func TestFilterCriteriaIsEmpty(t *testing.T) {
	if !(FilterCriteria{}).IsEmpty() {
		t.Fatal("zero filter should be empty")
	}
	if !(FilterCriteria{Category: " ", StartDate: "", EndDate: "  "}).IsEmpty() {
		t.Fatal("blank filter should be empty")
	}
	if (FilterCriteria{EndDate: "2024-01-31"}).IsEmpty() {
		t.Fatal("end date alone should count as a filter")
	}
}

func TestNewFilterRequest(t *testing.T) {
	req, err := NewFilterRequest(FilterCriteria{Category: "Rent", StartDate: "2024-01-01", EndDate: "2024-01-31"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Category != "3" {
		t.Fatalf("expected numeric category, got %q", req.Category)
	}
	if req.StartDate != "2024-01-01T00:00:00.000Z" || req.EndDate != "2024-01-31T00:00:00.000Z" {
		t.Fatalf("unexpected dates: %+v", req)
	}

	req, err = NewFilterRequest(FilterCriteria{StartDate: "2024-02-01"})
	if err != nil || req.Category != "" || req.EndDate != "" {
		t.Fatalf("unexpected partial request %+v err=%v", req, err)
	}

	if _, err := NewFilterRequest(FilterCriteria{StartDate: "yesterday"}); err == nil {
		t.Fatal("expected error for unparseable date")
	}

	req, err = NewFilterRequest(FilterCriteria{Category: "   ", StartDate: " 2024-01-01 ", EndDate: " "})
	if err != nil {
		t.Fatalf("blank category should be ignored, got %v", err)
	}
	if req.Category != "" || req.StartDate != "2024-01-01T00:00:00.000Z" || req.EndDate != "" {
		t.Fatalf("unexpected request %+v", req)
	}
}
