// Package picking resolves screen-space gestures against world-space
// geometry: single-click tree picks, box selection, and nearest-point
// queries. Every operation is a pure function of an explicit camera and the
// objects passed in, so callers can replay or test gestures without any
// shared viewer state.
package picking

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrapf(ErrNoIntrinsics, msg)
}

// CameraIntrinsics holds the parameters necessary to do a perspective
// projection of a 3D scene to the 2D plane.
type CameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for CameraIntrinsics have valid inputs.
func (params *CameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width == 0 || params.Height == 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// NewIntrinsicsFromFOV derives intrinsics for an ideal pinhole with square
// pixels, a centered principal point, and the given vertical field of view.
func NewIntrinsicsFromFOV(width, height int, vfovDegrees float64) CameraIntrinsics {
	f := float64(height) / 2 / math.Tan(vfovDegrees*math.Pi/360)
	return CameraIntrinsics{
		Width:  width,
		Height: height,
		Fx:     f,
		Fy:     f,
		Ppx:    float64(width) / 2,
		Ppy:    float64(height) / 2,
	}
}

// NewIntrinsicsFromJSONFile takes in a file path to a JSON and turns it into CameraIntrinsics.
func NewIntrinsicsFromJSONFile(jsonPath string) (*CameraIntrinsics, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	intrinsics := &CameraIntrinsics{}
	if err := json.Unmarshal(byteValue, intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return intrinsics, nil
}

// PointToPixel projects a 3D point in the camera frame to a pixel in an image plane.
func (params *CameraIntrinsics) PointToPixel(x, y, z float64) (float64, float64) {
	if z != 0. {
		xPx := math.Round((x/z)*params.Fx + params.Ppx)
		yPx := math.Round((y/z)*params.Fy + params.Ppy)
		return xPx, yPx
	}
	return -1.0, -1.0
}

// PixelToPoint transforms a pixel with depth to a 3D point in the camera frame.
func (params *CameraIntrinsics) PixelToPoint(x, y, z float64) (float64, float64, float64) {
	xOverZ := (x - params.Ppx) / params.Fx
	yOverZ := (y - params.Ppy) / params.Fy
	return xOverZ * z, yOverZ * z, z
}

// Matrix creates a new camera matrix and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *CameraIntrinsics) Matrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}

// Camera is a posed pinhole camera. Its frame follows the usual computer
// vision convention: x right, y down, z forward through the image plane.
type Camera struct {
	Intrinsics CameraIntrinsics
	Position   r3.Vector

	right, down, forward r3.Vector
}

// NewLookAtCamera poses a camera at eye looking toward target. up fixes the
// roll; it does not need to be perpendicular to the view direction, only
// non-parallel to it.
func NewLookAtCamera(intr CameraIntrinsics, eye, target, up r3.Vector) (*Camera, error) {
	if err := intr.CheckValid(); err != nil {
		return nil, err
	}
	forward := target.Sub(eye)
	if forward.Norm() < 1e-12 {
		return nil, errors.New("camera target coincides with eye")
	}
	forward = forward.Normalize()
	right := forward.Cross(up)
	if right.Norm() < 1e-12 {
		return nil, errors.New("camera up direction is parallel to the view direction")
	}
	right = right.Normalize()
	return &Camera{
		Intrinsics: intr,
		Position:   eye,
		right:      right,
		down:       forward.Cross(right),
		forward:    forward,
	}, nil
}

// Right returns the camera frame x axis in world coordinates.
func (c *Camera) Right() r3.Vector { return c.right }

// Down returns the camera frame y axis in world coordinates.
func (c *Camera) Down() r3.Vector { return c.down }

// Forward returns the camera frame z axis in world coordinates.
func (c *Camera) Forward() r3.Vector { return c.forward }

// WorldToCamera expresses a world point in the camera frame.
func (c *Camera) WorldToCamera(p r3.Vector) r3.Vector {
	rel := p.Sub(c.Position)
	return r3.Vector{
		X: rel.Dot(c.right),
		Y: rel.Dot(c.down),
		Z: rel.Dot(c.forward),
	}
}

// WorldToScreen projects a world point to pixel coordinates. ok is false for
// points on or behind the image plane, which never take part in screen-space
// queries.
func (c *Camera) WorldToScreen(p r3.Vector) (r2.Point, bool) {
	pc := c.WorldToCamera(p)
	if pc.Z <= 0 {
		return r2.Point{}, false
	}
	px, py := c.Intrinsics.PointToPixel(pc.X, pc.Y, pc.Z)
	return r2.Point{X: px, Y: py}, true
}

// ScreenRay returns the world-space ray from the camera through a pixel.
func (c *Camera) ScreenRay(px r2.Point) Ray {
	dx := (px.X - c.Intrinsics.Ppx) / c.Intrinsics.Fx
	dy := (px.Y - c.Intrinsics.Ppy) / c.Intrinsics.Fy
	dir := c.right.Mul(dx).Add(c.down.Mul(dy)).Add(c.forward)
	return Ray{Origin: c.Position, Dir: dir.Normalize()}
}

// Ray is a half line with a unit direction.
type Ray struct {
	Origin r3.Vector
	Dir    r3.Vector
}

// At returns the point a parameter t along the ray.
func (r Ray) At(t float64) r3.Vector {
	return r.Origin.Add(r.Dir.Mul(t))
}

// ClosestParam returns the parameter of the point on the ray's line nearest
// to p. Negative values lie behind the origin.
func (r Ray) ClosestParam(p r3.Vector) float64 {
	return p.Sub(r.Origin).Dot(r.Dir)
}

// DistanceTo returns the perpendicular distance from p to the ray's line.
func (r Ray) DistanceTo(p r3.Vector) float64 {
	w := p.Sub(r.Origin)
	t := w.Dot(r.Dir)
	perpSq := w.Norm2() - t*t
	if perpSq < 0 {
		return 0
	}
	return math.Sqrt(perpSq)
}
