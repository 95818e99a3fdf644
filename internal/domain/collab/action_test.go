package collab

import "testing"

func TestParseActionType(t *testing.T) {
	cases := []struct {
		in   string
		want ActionType
	}{
		{"zoom", ActionZoom},
		{"ZOOM", ActionZoom},
		{"  filter_apply  ", ActionFilterApply},
		{"cursor_move", ActionCursorMove},
		{"permission_change", ActionPermissionChange},
		{"teleport", ActionShareView},
		{"", ActionShareView},
	}
	for _, tc := range cases {
		if got := ParseActionType(tc.in); got != tc.want {
			t.Errorf("ParseActionType(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestUserColorWraps(t *testing.T) {
	if UserColor(0) != ColorPalette[0] {
		t.Fatalf("index 0 should map to the first color")
	}
	if UserColor(len(ColorPalette)) != ColorPalette[0] {
		t.Fatalf("index past the palette should wrap")
	}
	if UserColor(-1) == "" {
		t.Fatalf("negative index should still yield a color")
	}
}
