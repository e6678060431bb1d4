package paging

import (
	"math"
	"net/http/httptest"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        Params
	}{
		{"defaults", 0, 0, Params{Page: 1, Limit: 10}},
		{"negative", -3, -1, Params{Page: 1, Limit: 10}},
		{"explicit", 3, 25, Params{Page: 3, Limit: 25}},
		{"capped", 1, 5000, Params{Page: 1, Limit: MaxLimit}},
		{"huge page", math.MaxInt, 50, Params{Page: MaxPage, Limit: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.page, tt.limit); got != tt.want {
				t.Errorf("New(%d, %d) = %+v, want %+v", tt.page, tt.limit, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		target string
		want   Params
	}{
		{"/api/communities", Params{Page: 1, Limit: 10}},
		{"/api/communities?page=2&limit=5", Params{Page: 2, Limit: 5}},
		{"/api/communities?page=abc&limit=", Params{Page: 1, Limit: 10}},
		{"/api/communities?page=9223372036854775807&limit=100", Params{Page: MaxPage, Limit: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if got := Parse(r); got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.target, got, tt.want)
			}
		})
	}
}

func TestSkip(t *testing.T) {
	if got := New(3, 10).Skip(); got != 20 {
		t.Errorf("Skip() = %d, want 20", got)
	}
	for _, limit := range []int{1, 50, MaxLimit} {
		if got := New(math.MaxInt, limit).Skip(); got < 0 {
			t.Errorf("Skip() with huge page and limit %d = %d, want non-negative", limit, got)
		}
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name           string
		p              Params
		n              int
		wantLo, wantHi int
	}{
		{"first page full", New(1, 10), 25, 0, 10},
		{"last page partial", New(3, 10), 25, 20, 25},
		{"past the end", New(4, 10), 25, 25, 25},
		{"empty list", New(1, 10), 0, 0, 0},
		{"huge page", New(math.MaxInt64/50, 100), 5, 5, 5},
		{"unnormalized overflow", Params{Page: math.MaxInt, Limit: 100}, 5, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.p.Window(tt.n)
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("Window(%d) = [%d,%d), want [%d,%d)", tt.n, lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}
