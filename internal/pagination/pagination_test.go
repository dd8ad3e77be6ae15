package pagination

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		in           PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"zero_values", PageRequest{}, 1, DefaultPageSize},
		{"keeps_valid", PageRequest{Page: 3, PageSize: 10}, 3, 10},
		{"caps_page_size", PageRequest{Page: 1, PageSize: 500}, 1, MaxPageSize},
		{"negative_page", PageRequest{Page: -2, PageSize: 5}, 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.in
			req.Normalize()
			if req.Page != tt.wantPage || req.PageSize != tt.wantPageSize {
				t.Errorf("got page=%d size=%d, want page=%d size=%d", req.Page, req.PageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	req := PageRequest{Page: 3, PageSize: 20}
	if got := req.Offset(); got != 40 {
		t.Errorf("expected offset 40, got %d", got)
	}
}

func TestNewPageResponse(t *testing.T) {
	t.Run("partial_last_page", func(t *testing.T) {
		resp := NewPageResponse([]int{1, 2}, PageRequest{Page: 1, PageSize: 2}, 5)
		if resp.TotalPages != 3 {
			t.Errorf("expected 3 pages, got %d", resp.TotalPages)
		}
		if !resp.HasMore {
			t.Error("expected more pages")
		}
	})

	t.Run("nil_data_becomes_empty", func(t *testing.T) {
		resp := NewPageResponse[int](nil, PageRequest{Page: 1, PageSize: 20}, 0)
		if resp.Data == nil || len(resp.Data) != 0 {
			t.Errorf("expected empty slice, got %v", resp.Data)
		}
		if resp.HasMore || resp.TotalPages != 0 {
			t.Errorf("expected no pages, got %d (has_more=%v)", resp.TotalPages, resp.HasMore)
		}
	})

	t.Run("last_page", func(t *testing.T) {
		resp := NewPageResponse([]int{5}, PageRequest{Page: 3, PageSize: 2}, 5)
		if resp.HasMore {
			t.Error("expected no more pages on the last page")
		}
	})
}
