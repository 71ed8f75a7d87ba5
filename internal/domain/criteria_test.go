package domain_test

import (
	"reflect"
	"testing"

	"sunset_storefront/internal/domain"
)

func TestFilterState_TogglesResetPage(t *testing.T) {
	f := domain.NewFilterState().ToggleRating("5").WithPage(3)
	if f.Page != 3 {
		t.Fatalf("page = %d, want 3", f.Page)
	}

	f = f.ToggleType("Luxury")
	if f.Page != 1 {
		t.Fatalf("filter change must reset page, got %d", f.Page)
	}
	if !reflect.DeepEqual(f.Ratings, []string{"5"}) || !reflect.DeepEqual(f.Types, []string{"Luxury"}) {
		t.Fatalf("other fields must survive: %+v", f)
	}
}

func TestFilterState_PageChangePreservesFilters(t *testing.T) {
	f := domain.NewFilterState().
		ToggleRating("4").
		ToggleFacility("Free WiFi").
		WithSort(domain.SortPriceHighToLow).
		WithPage(5)

	if f.Page != 5 {
		t.Fatalf("page = %d, want 5", f.Page)
	}
	if len(f.Ratings) != 1 || len(f.Facilities) != 1 || f.SortOption != domain.SortPriceHighToLow {
		t.Fatalf("page change must preserve every other field: %+v", f)
	}
}

func TestFilterState_ToggleRemovesSelected(t *testing.T) {
	f := domain.NewFilterState().ToggleRating("5").ToggleRating("5")
	if len(f.Ratings) != 0 {
		t.Fatalf("double toggle should clear, got %v", f.Ratings)
	}
}

func TestFilterState_Cleared(t *testing.T) {
	f := domain.NewFilterState().
		ToggleRating("5").
		ToggleType("Resort").
		WithSort(domain.SortRatingHighToLow).
		WithPage(4).
		Cleared()

	want := domain.FilterState{Page: 1}
	if !reflect.DeepEqual(f, want) {
		t.Fatalf("cleared = %+v, want %+v", f, want)
	}
}
