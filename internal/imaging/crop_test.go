package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

func TestCropTo_KeepsCentre(t *testing.T) {
	rs, _ := NewResampler("nearest")
	// Left third red, right two thirds green; cropping 300x100 to 100x100
	// keeps the centre third, which is all green.
	src := image.NewRGBA(image.Rect(0, 0, 300, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 300; x++ {
			if x < 100 {
				src.Set(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				src.Set(x, y, color.RGBA{0, 255, 0, 255})
			}
		}
	}
	out := cropTo(src, bip.Size{Width: 100, Height: 100}, rs)
	r, g, _, _ := out.At(5, 50).RGBA()
	if r>>8 != 0 || g>>8 != 255 {
		t.Errorf("left edge after crop: got r=%d g=%d, want green", r>>8, g>>8)
	}
}

func TestLetterbox_Geometry(t *testing.T) {
	rs, _ := NewResampler("nearest")
	src := createInMemoryImage(100, 300, color.RGBA{255, 255, 255, 255})
	fill := color.NRGBA{0, 0, 255, 255}

	out := letterbox(src, bip.Size{Width: 300, Height: 300}, rs, fill)
	if out.Bounds().Dx() != 300 || out.Bounds().Dy() != 300 {
		t.Fatalf("got %dx%d, want 300x300", out.Bounds().Dx(), out.Bounds().Dy())
	}
	// 100x300 fits as 100x300 centred: columns 0..99 are pillarbox.
	if _, _, b, _ := out.At(50, 150).RGBA(); b>>8 != 255 {
		t.Error("left pillar should be the fill colour")
	}
	if r, _, _, _ := out.At(150, 150).RGBA(); r>>8 != 255 {
		t.Error("centre should be the source")
	}
}

func TestCoverSize(t *testing.T) {
	tests := []struct {
		s, t, want bip.Size
	}{
		{bip.Size{Width: 400, Height: 200}, bip.Size{Width: 200, Height: 200}, bip.Size{Width: 400, Height: 200}},
		{bip.Size{Width: 200, Height: 400}, bip.Size{Width: 200, Height: 200}, bip.Size{Width: 200, Height: 400}},
		{bip.Size{Width: 100, Height: 100}, bip.Size{Width: 300, Height: 150}, bip.Size{Width: 300, Height: 300}},
	}
	for _, tt := range tests {
		if got := coverSize(tt.s, tt.t); got != tt.want {
			t.Errorf("coverSize(%v, %v): got %v, want %v", tt.s, tt.t, got, tt.want)
		}
	}
}

func TestFitInside(t *testing.T) {
	tests := []struct {
		s, t, want bip.Size
	}{
		{bip.Size{Width: 400, Height: 200}, bip.Size{Width: 200, Height: 200}, bip.Size{Width: 200, Height: 100}},
		{bip.Size{Width: 100, Height: 300}, bip.Size{Width: 300, Height: 300}, bip.Size{Width: 100, Height: 300}},
		{bip.Size{Width: 10, Height: 10}, bip.Size{Width: 200, Height: 100}, bip.Size{Width: 100, Height: 100}},
		{bip.Size{Width: 5000, Height: 1}, bip.Size{Width: 100, Height: 100}, bip.Size{Width: 100, Height: 1}},
	}
	for _, tt := range tests {
		if got := fitInside(tt.s, tt.t); got != tt.want {
			t.Errorf("fitInside(%v, %v): got %v, want %v", tt.s, tt.t, got, tt.want)
		}
	}
}
