package camera

// Frame size codes understood by the ESP32-CAM sensor driver.
const (
	FrameSizeQVGA = 5  // 320x240
	FrameSizeVGA  = 8  // 640x480
	FrameSizeSVGA = 9  // 800x600
	FrameSizeXGA  = 10 // 1024x768
	FrameSizeSXGA = 12 // 1280x1024
)

// Settings holds the tunable sensor parameters we push to the camera
// over its control endpoint. Zero is a valid value for most of them,
// so presets always spell out every field.
type Settings struct {
	FrameSize  int `json:"framesize"`
	Quality    int `json:"quality"`    // JPEG quality, 10 (best) to 63
	Brightness int `json:"brightness"` // -2 to 2
	Contrast   int `json:"contrast"`   // -2 to 2
	Saturation int `json:"saturation"` // -2 to 2
	AELevel    int `json:"ae_level"`   // exposure compensation, -2 to 2
	AGCGain    int `json:"agc_gain"`   // sensor gain ceiling, 0 to 30
	LampLevel  int `json:"lamp"`       // onboard LED duty, 0 to 255

	HMirror bool `json:"hmirror"`
	VFlip   bool `json:"vflip"`
}

// DefaultSettings is the daylight configuration the daemon boots with.
func DefaultSettings() Settings {
	return Settings{
		FrameSize: FrameSizeSVGA,
		Quality:   12,
	}
}

type control struct {
	name  string
	value int
}

// controls flattens the settings into the ordered var/val sequence the
// sensor expects. Frame size goes first: changing it resets the JPEG
// encoder, which would clobber a quality value applied before it.
func (s Settings) controls() []control {
	b2i := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}
	return []control{
		{"framesize", s.FrameSize},
		{"quality", s.Quality},
		{"brightness", s.Brightness},
		{"contrast", s.Contrast},
		{"saturation", s.Saturation},
		{"ae_level", s.AELevel},
		{"agc_gain", s.AGCGain},
		{"lamp", s.LampLevel},
		{"hmirror", b2i(s.HMirror)},
		{"vflip", b2i(s.VFlip)},
	}
}
