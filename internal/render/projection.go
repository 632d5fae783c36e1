// Package render turns scene snapshots into pixels. The window, terminal
// and browser front ends all share its projection.
package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera describes the fixed viewpoint looking at the origin down -Z.
type Camera struct {
	Distance float32
	FOV      float32 // vertical, degrees
	Near     float32
	Far      float32
}

// DefaultCamera returns the viewpoint used by every renderer.
func DefaultCamera() Camera {
	return Camera{Distance: 260, FOV: 60, Near: 1, Far: 2000}
}

// Projector maps world points to screen pixels for one viewport and
// rotation.
type Projector struct {
	cam    Camera
	width  float32
	height float32
	view   mgl32.Mat4
	proj   mgl32.Mat4
	mvp    mgl32.Mat4
}

// NewProjector creates a projector for a width×height viewport.
func NewProjector(cam Camera, width, height int) *Projector {
	p := &Projector{cam: cam}
	p.Resize(width, height)
	return p
}

// Resize updates the viewport.
func (p *Projector) Resize(width, height int) {
	p.width = float32(max(width, 1))
	p.height = float32(max(height, 1))
	p.view = mgl32.LookAtV(mgl32.Vec3{0, 0, p.cam.Distance}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	p.proj = mgl32.Perspective(mgl32.DegToRad(p.cam.FOV), p.width/p.height, p.cam.Near, p.cam.Far)
	p.SetRotation(0)
}

// SetRotation sets the model rotation about Y.
func (p *Projector) SetRotation(rad float64) {
	model := mgl32.HomogRotate3DY(float32(rad))
	p.mvp = p.proj.Mul4(p.view).Mul4(model)
}

// Size returns the viewport size.
func (p *Projector) Size() (int, int) { return int(p.width), int(p.height) }

// Project returns the screen position of w and its distance from the eye.
// ok is false for points behind the near plane.
func (p *Projector) Project(w mgl32.Vec3) (x, y, depth float32, ok bool) {
	clip := p.mvp.Mul4x1(w.Vec4(1))
	if clip.W() < p.cam.Near {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	x = (ndc.X() + 1) / 2 * p.width
	y = (1 - ndc.Y()) / 2 * p.height
	return x, y, clip.W(), true
}

// Scale returns how many pixels one world unit covers at depth.
func (p *Projector) Scale(depth float32) float32 {
	if depth <= 0 {
		return 0
	}
	f := float32(1 / math.Tan(float64(mgl32.DegToRad(p.cam.FOV))/2))
	return f * p.height / 2 / depth
}
