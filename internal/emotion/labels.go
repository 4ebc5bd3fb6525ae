// Package emotion defines the label vocabularies shared by the analyzers
// and the fusion step that reconciles their proposals.
package emotion

// Modality identifies which analyzer proposed a label. The constant order is
// also the evaluation order used for deterministic fusion tie-breaks.
type Modality string

const (
	ModalityAudio Modality = "audio_emotion"
	ModalityText  Modality = "text_emotion"
	ModalityImage Modality = "image"
)

// rank returns the evaluation order of a modality: audio before text before
// image. Unknown modalities sort last.
func (m Modality) rank() int {
	switch m {
	case ModalityAudio:
		return 0
	case ModalityText:
		return 1
	case ModalityImage:
		return 2
	}
	return 3
}

// Contribution is one emotion-label proposal from one modality
type Contribution struct {
	Label  string   `json:"label"`
	Score  float64  `json:"score"`
	Source Modality `json:"source"`
}

// NeutralLabel is the fallback emotion when no modality contributed anything
const NeutralLabel = "neutral"

// DefaultScore is assumed when a model payload omits a confidence score
const DefaultScore = 0.8

// audioLabels is the emotion2vec id-to-label table. The numeric ids and their
// exact strings are part of the model contract and must not change.
var audioLabels = [...]string{
	0: "angry",
	1: "disgusted",
	2: "fearful",
	3: "happy",
	4: "neutral",
	5: "other",
	6: "sad",
	7: "surprised",
	8: "unknown",
}

// AudioLabel maps a numeric emotion2vec id to its label string.
func AudioLabel(id int) (string, bool) {
	if id < 0 || id >= len(audioLabels) {
		return "", false
	}
	return audioLabels[id], true
}

// textLabels is the fine-grained text-emotion vocabulary, in model id order.
var textLabels = [...]string{
	0: "admiration",
	1: "amusement",
	2: "anger",
	3: "annoyance",
	4: "approval",
	5: "caring",
	6: "confusion",
	7: "curiosity",
	8: "desire",
	9: "disappointment",
	10: "disapproval",
	11: "disgust",
	12: "embarrassment",
	13: "excitement",
	14: "fear",
	15: "gratitude",
	16: "grief",
	17: "joy",
	18: "love",
	19: "nervousness",
	20: "optimism",
	21: "pride",
	22: "realization",
	23: "relief",
	24: "remorse",
	25: "sadness",
	26: "surprise",
	27: "neutral",
}

var textLabelSet = func() map[string]bool {
	set := make(map[string]bool, len(textLabels))
	for _, l := range textLabels {
		set[l] = true
	}
	return set
}()

// TextLabel maps a numeric text-emotion id to its label string.
func TextLabel(id int) (string, bool) {
	if id < 0 || id >= len(textLabels) {
		return "", false
	}
	return textLabels[id], true
}

// IsTextLabel reports whether s belongs to the text-emotion vocabulary.
func IsTextLabel(s string) bool {
	return textLabelSet[s]
}
