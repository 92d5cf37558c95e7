package glrender

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/chewxy/math32"
	"github.com/soypat/pcg"
	"golang.org/x/image/draw"
)

type setImage = interface {
	image.Image
	Set(x, y int, c color.Color)
}

// ImageRendererGrid converts radius grids to images. Image columns map to angle
// samples and image rows to height samples, the top row being the top of the lathe.
type ImageRendererGrid struct {
	conv func(r float32) color.Color
}

// NewImageRendererGrid instances a new [ImageRendererGrid]. A nil radius->color conversion
// function results in a grayscale scheme normalized to the grid's maximum radius.
func NewImageRendererGrid(conversion func(float32) color.Color) *ImageRendererGrid {
	return &ImageRendererGrid{conv: conversion}
}

// Render samples grid with nearest neighbor interpolation over the whole image.
func (ir *ImageRendererGrid) Render(grid pcg.RadiusGrid, img setImage) error {
	err := grid.Validate()
	if err != nil {
		return err
	}
	imgBB := img.Bounds()
	dxi, dyi := imgBB.Dx(), imgBB.Dy()
	if dxi == 0 || dyi == 0 {
		return errors.New("empty image")
	}
	conv := ir.conv
	if conv == nil {
		conv = grayscale(grid.MaxRadius())
	}
	segments, np := grid.Segments(), grid.PointsPerRing()
	for i := 0; i < dxi; i++ {
		ring := grid[i*segments/dxi]
		for j := 0; j < dyi; j++ {
			// Flip vertically so height grows upwards.
			h := (dyi - 1 - j) * np / dyi
			img.Set(i+imgBB.Min.X, j+imgBB.Min.Y, conv(ring[h]))
		}
	}
	return nil
}

func grayscale(maxRadius float32) func(float32) color.Color {
	inv := float32(0)
	if maxRadius > 0 {
		inv = 1 / maxRadius
	}
	return func(r float32) color.Color {
		if math32.IsNaN(r) || math32.IsInf(r, 0) {
			return color.RGBA{R: 255, A: 255}
		}
		return color.Gray{Y: uint8(255 * math32.Min(1, r*inv))}
	}
}

// EncodeGridPNG renders grid at one pixel per sample, scales the result with nearest neighbor
// interpolation to an image picHeight tall and twice as wide, and encodes it as PNG to w.
func EncodeGridPNG(w io.Writer, grid pcg.RadiusGrid, picHeight int, conv func(float32) color.Color) error {
	if picHeight <= 0 {
		return errors.New("zero or negative image height")
	}
	err := grid.Validate()
	if err != nil {
		return err
	}
	native := image.NewRGBA(image.Rect(0, 0, grid.Segments(), grid.PointsPerRing()))
	err = NewImageRendererGrid(conv).Render(grid, native)
	if err != nil {
		return err
	}
	img := image.NewRGBA(image.Rect(0, 0, 2*picHeight, picHeight))
	draw.NearestNeighbor.Scale(img, img.Bounds(), native, native.Bounds(), draw.Src, nil)
	return png.Encode(w, img)
}
