package sequencer

import "strings"

// DrumKit maps sample names to the pitch the percussion voice is tuned to
type DrumKit struct {
	Name  string
	Freqs map[string]float64
}

// DefaultFrequency is used for samples a kit does not know
const DefaultFrequency = 440.0

// Kits contains all available drum kits
var Kits = map[string]DrumKit{
	"default": {
		Name: "Default",
		Freqs: map[string]float64{
			"bd":    55,   // Kick
			"kick":  55,   // Kick
			"sn":    180,  // Snare
			"sd":    180,  // Snare
			"snare": 180,  // Snare
			"hh":    8000, // Closed HH
			"hat":   8000, // Closed HH
			"oh":    6500, // Open HH
			"cp":    1200, // Clap
			"clap":  1200, // Clap
			"lt":    90,   // Low Tom
			"mt":    130,  // Mid Tom
			"ht":    190,  // High Tom
			"rim":   1700, // Rimshot
			"cb":    560,  // Cowbell
		},
	},
	"808": {
		Name: "TR-808",
		Freqs: map[string]float64{
			"bd":    49,
			"kick":  49,
			"sn":    238,
			"sd":    238,
			"snare": 238,
			"hh":    8500,
			"hat":   8500,
			"oh":    7200,
			"cp":    1000,
			"clap":  1000,
			"lt":    80,
			"mt":    120,
			"ht":    165,
			"rim":   1680,
			"cb":    540, // 540 + 800 Hz pair; the lower one drives the voice
		},
	},
	"909": {
		Name: "TR-909",
		Freqs: map[string]float64{
			"bd":    60,
			"kick":  60,
			"sn":    200,
			"sd":    200,
			"snare": 200,
			"hh":    9000,
			"hat":   9000,
			"oh":    7500,
			"cp":    1300,
			"clap":  1300,
			"lt":    100,
			"mt":    145,
			"ht":    210,
			"rim":   1800,
			"cb":    600,
		},
	},
}

// DefaultKit is the default kit name
const DefaultKit = "default"

// KitNames returns the list of available kit names
func KitNames() []string {
	return []string{"default", "808", "909"}
}

// GetKit returns a kit by name, defaulting to the default kit if not found
func GetKit(name string) DrumKit {
	if kit, ok := Kits[name]; ok {
		return kit
	}
	return Kits[DefaultKit]
}

// Frequency returns the pitch for a sample name, DefaultFrequency if unknown
func (k DrumKit) Frequency(name string) float64 {
	if f, ok := k.Freqs[strings.ToLower(name)]; ok {
		return f
	}
	return DefaultFrequency
}
