package bias

// Level is the risk bucket derived from a bias density score
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Display colors for each risk level
const (
	ColorLow    = "#10b981"
	ColorMedium = "#f59e0b"
	ColorHigh   = "#f43f5e"
)

// Color returns the display color associated with the level
func (l Level) Color() string {
	switch l {
	case LevelHigh:
		return ColorHigh
	case LevelMedium:
		return ColorMedium
	default:
		return ColorLow
	}
}

// Finding is a sentence flagged by the first category whose trigger word matched it.
// Text holds the HTML-escaped sentence with every occurrence of Word wrapped
// in the highlight marker; the marker is the only markup it contains.
type Finding struct {
	Category string `json:"category"`
	Word     string `json:"word"`
	Sentence string `json:"sentence"`
	Text     string `json:"text"`
}

// Report is the outcome of scanning one document
type Report struct {
	Findings  []Finding `json:"findings"`
	Sentences int       `json:"sentences"`
	Score     float64   `json:"score"`
	Level     Level     `json:"level"`
	Color     string    `json:"color"`
}

// CategoryCounts returns the number of findings per category
func (r Report) CategoryCounts() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Findings {
		counts[f.Category]++
	}
	return counts
}
