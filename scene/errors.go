package scene

import "errors"

var (
	ErrCountMismatch    = errors.New("scene: primitive counts do not match scene info")
	ErrInvalidMaterial  = errors.New("scene: primitive references unknown material")
	ErrInvalidAlbedo    = errors.New("scene: material albedo must be in [0, 1]")
	ErrInvalidSphere    = errors.New("scene: sphere radius must not be negative")
	ErrUnknownMatType   = errors.New("scene: unsupported material type")
	ErrCameraNotDefined = errors.New("scene: no camera defined")
	ErrLayoutVersion    = errors.New("scene: unsupported compiled scene layout version")
)
