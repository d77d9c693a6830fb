package pipeline

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewFrameTask_QuantizesToMilliseconds(t *testing.T) {
	crop := CropRect{Width: 100, Height: 100}

	tests := []struct {
		pts  float64
		want int64
	}{
		{0, 0},
		{0.0334, 33},
		{0.0336, 33},
		{1.9999, 1999},
		{2.0, 2000},
	}

	for _, tt := range tests {
		task := NewFrameTask(tt.pts, crop)
		if task.TimeMs != tt.want {
			t.Errorf("pts %g: expected %dms, got %dms", tt.pts, tt.want, task.TimeMs)
		}
	}
}

func TestNewFrameTask_SameMillisecondSameKey(t *testing.T) {
	crop := CropRect{Width: 100, Height: 100}
	a := NewFrameTask(0.0334, crop)
	b := NewFrameTask(0.0339, crop)
	if a != b {
		t.Errorf("expected identical keys, got %+v and %+v", a, b)
	}
}

func TestCropRect_Within(t *testing.T) {
	tests := []struct {
		rect CropRect
		want bool
	}{
		{CropRect{0, 0, 100, 100}, true},
		{CropRect{50, 50, 50, 50}, true},
		{CropRect{50, 50, 51, 50}, false},
		{CropRect{-1, 0, 10, 10}, false},
	}

	for _, tt := range tests {
		if got := tt.rect.Within(100, 100); got != tt.want {
			t.Errorf("%+v.Within(100,100): expected %v, got %v", tt.rect, tt.want, got)
		}
	}
}

func TestCropRect_Empty(t *testing.T) {
	if (CropRect{Width: 1, Height: 1}).Empty() {
		t.Error("1x1 rect should not be empty")
	}
	if !(CropRect{Width: 0, Height: 5}).Empty() {
		t.Error("zero-width rect should be empty")
	}
	if !(CropRect{Width: 5, Height: -1}).Empty() {
		t.Error("negative-height rect should be empty")
	}
}

func TestErrorKindClassification(t *testing.T) {
	err := NewError(KindInvalidCrop, "bad selection")
	if !IsKind(err, KindInvalidCrop) {
		t.Error("expected invalid_crop kind")
	}
	if IsKind(err, KindLoad) {
		t.Error("unexpected load kind")
	}

	// Classification survives wrapping with %w.
	wrapped := fmt.Errorf("outer: %w", err)
	if KindOf(wrapped) != KindInvalidCrop {
		t.Errorf("expected invalid_crop through wrap, got %q", KindOf(wrapped))
	}
}

func TestWrapError_PreservesCause(t *testing.T) {
	cause := errors.New("disk gone")
	err := WrapError(KindLoad, cause, "open recording")

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable with errors.Is")
	}
	if KindOf(err) != KindLoad {
		t.Errorf("expected load kind, got %q", KindOf(err))
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Error("expected empty kind for unclassified error")
	}
}
