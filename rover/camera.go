package rover

import "strings"

// Camera is one of the onboard cameras whose photos are ingested.
type Camera string

const (
	MAHLI  Camera = "MAHLI"
	FHAZ   Camera = "FHAZ"
	RHAZ   Camera = "RHAZ"
	NAVCAM Camera = "NAVCAM"
	MAST   Camera = "MAST"
)

var allowedCameras = map[Camera]struct{}{
	MAHLI:  {},
	FHAZ:   {},
	RHAZ:   {},
	NAVCAM: {},
	MAST:   {},
}

// ParseCamera reports whether name is an allowed camera. Matching ignores
// case and surrounding space.
func ParseCamera(name string) (Camera, bool) {
	c := Camera(strings.ToUpper(strings.TrimSpace(name)))
	_, ok := allowedCameras[c]
	return c, ok
}
