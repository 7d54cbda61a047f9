package camera

// Preset names for field conditions.
const (
	PresetDay        = "day"
	PresetNight      = "night"
	PresetLowPower   = "lowpower"
	PresetHighDetail = "detail"
)

// Presets returns the named settings bundles.
func Presets() map[string]Settings {
	return map[string]Settings{
		PresetDay: DefaultSettings(),
		PresetNight: {
			FrameSize:  FrameSizeVGA,
			Quality:    14,
			Brightness: 1,
			AELevel:    2,
			AGCGain:    20,
			LampLevel:  180,
		},
		PresetLowPower: {
			FrameSize: FrameSizeQVGA,
			Quality:   20,
		},
		PresetHighDetail: {
			FrameSize: FrameSizeSXGA,
			Quality:   10,
		},
	}
}

// Preset looks up a settings bundle by name.
func Preset(name string) (Settings, bool) {
	s, ok := Presets()[name]
	return s, ok
}
