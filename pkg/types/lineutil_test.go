package types

import "testing"

func TestLineIndex_Line(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		offset   int
		wantLine int
	}{
		{
			name:     "empty text at offset 0",
			text:     "",
			offset:   0,
			wantLine: 1,
		},
		{
			name:     "single line",
			text:     "hello",
			offset:   2,
			wantLine: 1,
		},
		{
			name:     "second line",
			text:     "hello\nworld",
			offset:   7,
			wantLine: 2,
		},
		{
			name:     "offset at newline belongs to first line",
			text:     "hello\nworld",
			offset:   5,
			wantLine: 1,
		},
		{
			name:     "offset at start of second line",
			text:     "hello\nworld",
			offset:   6,
			wantLine: 2,
		},
		{
			name:     "blank lines are counted",
			text:     "\n\nthird\n\n",
			offset:   2,
			wantLine: 3,
		},
		{
			name:     "multibyte runes count as one offset",
			text:     "héllo\nwörld",
			offset:   6,
			wantLine: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewLineIndex(tt.text)
			if got := idx.Line(tt.offset); got != tt.wantLine {
				t.Errorf("Line(%d) = %d, want %d", tt.offset, got, tt.wantLine)
			}
		})
	}
}

func TestLineIndex_Content(t *testing.T) {
	idx := NewLineIndex("first\r\nsecond\n\nfourth")

	if got := idx.LineCount(); got != 4 {
		t.Fatalf("LineCount() = %d, want 4", got)
	}
	if got := idx.Content(1); got != "first" {
		t.Errorf("Content(1) = %q, want %q", got, "first")
	}
	if got := idx.Content(2); got != "second" {
		t.Errorf("Content(2) = %q, want %q", got, "second")
	}
	if got := idx.Content(3); got != "" {
		t.Errorf("Content(3) = %q, want empty", got)
	}
	if got := idx.Content(9); got != "" {
		t.Errorf("Content(9) = %q, want empty", got)
	}
}

func TestLineIndex_LazySplit(t *testing.T) {
	idx := NewLineIndex("a\nb\nc")
	if idx.lines != nil {
		t.Fatal("lines should not be materialized before Content is called")
	}
	_ = idx.Line(3)
	if idx.lines != nil {
		t.Fatal("Line must not materialize lines")
	}
	_ = idx.Content(2)
	if idx.lines == nil {
		t.Fatal("Content should materialize lines")
	}
}

func TestLineIndex_Column(t *testing.T) {
	idx := NewLineIndex("abc\ndefgh")
	if got := idx.Column(6); got != 2 {
		t.Errorf("Column(6) = %d, want 2", got)
	}
	if got := idx.LineStart(2); got != 4 {
		t.Errorf("LineStart(2) = %d, want 4", got)
	}
}
