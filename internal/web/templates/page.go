package templates

import "fmt"

// PageData is everything the poem page shows
type PageData struct {
	SeedPlaceholder string
	MinTokens       int
	MaxTokens       int
	DefaultTokens   int
	MinTemperature  float64
	MaxTemperature  float64
	DefaultTemp     float64
	CurrentPoemHTML string // Already-rendered goldmark block from the session, may be empty
	AttributionName string
	AttributionURL  string
}

const (
	pageTitle       = "বিদ্রোহী AI"
	pageHeading     = "Create Poems like Kazi Nazrul Islam"
	pageDescription = "Give a starting line, and the AI will generate a rebellious Nazrul-style poem."
	seedLabel       = "Write the first line of the poem:"
)

func formatTemperature(t float64) string {
	return fmt.Sprintf("%.2f", t)
}

func formatTemperatureBound(t float64) string {
	return fmt.Sprintf("%.1f", t)
}
