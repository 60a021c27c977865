package synth

// Voice describes a prebuilt output voice.
type Voice struct {
	Name      string
	Character string
}

// prebuiltVoices is the catalog of output voices the TTS models accept
// in the voiceName field.
var prebuiltVoices = []Voice{
	{"Zephyr", "Bright"},
	{"Puck", "Upbeat"},
	{"Charon", "Informative"},
	{"Kore", "Firm"},
	{"Fenrir", "Excitable"},
	{"Leda", "Youthful"},
	{"Orus", "Firm"},
	{"Aoede", "Breezy"},
	{"Callirrhoe", "Easy-going"},
	{"Autonoe", "Bright"},
	{"Enceladus", "Breathy"},
	{"Iapetus", "Clear"},
	{"Umbriel", "Easy-going"},
	{"Algieba", "Smooth"},
	{"Despina", "Smooth"},
	{"Erinome", "Clear"},
	{"Algenib", "Gravelly"},
	{"Rasalgethi", "Informative"},
	{"Laomedeia", "Upbeat"},
	{"Achernar", "Soft"},
	{"Alnilam", "Firm"},
	{"Schedar", "Even"},
	{"Gacrux", "Mature"},
	{"Pulcherrima", "Forward"},
	{"Achird", "Friendly"},
	{"Zubenelgenubi", "Casual"},
	{"Vindemiatrix", "Gentle"},
	{"Sadachbia", "Lively"},
	{"Sadaltager", "Knowledgeable"},
	{"Sulafat", "Warm"},
}

// Voices returns the prebuilt voice catalog.
func Voices() []Voice {
	out := make([]Voice, len(prebuiltVoices))
	copy(out, prebuiltVoices)
	return out
}

// KnownVoice reports whether name is in the prebuilt catalog. Unknown
// names are not rejected, only flagged, since the catalog trails the
// remote service.
func KnownVoice(name string) bool {
	for _, v := range prebuiltVoices {
		if v.Name == name {
			return true
		}
	}
	return false
}
