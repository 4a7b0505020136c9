package prompt

import (
	"fmt"
	"math/rand"
	"strings"
)

// Prompt is one immutable generation instruction. Text embeds the seed for
// providers that cannot accept it separately; Seed carries it structurally for
// providers that can.
type Prompt struct {
	Text string
	Seed int
}

// Input collects the knobs that shape one logo prompt.
type Input struct {
	Company     string
	Style       string
	Industry    string
	ColorScheme string
	Variation   int
	Background  string
}

// MaxSeed bounds the random seed embedded in every prompt.
const MaxSeed = 999999

var styleDescriptions = map[string]string{
	"minimal":     "minimalist, simple, clean lines, modern",
	"geometric":   "geometric shapes, structured, angular",
	"circular":    "circular design, round, balanced",
	"badge":       "badge style, seal, traditional",
	"wordmark":    "typography-focused, elegant",
	"lettermark":  "monogram, initials, sophisticated",
	"abstract":    "abstract, artistic, creative",
	"mascot":      "character design, friendly",
	"emblem":      "shield, crest, formal",
	"combination": "icon and text, professional",
}

var colorDescriptions = map[string]string{
	"professional": "blue and gray, corporate",
	"vibrant":      "vibrant bold colors, energetic",
	"nature":       "green and earth tones, organic",
	"elegant":      "sophisticated muted colors, luxury",
	"modern":       "teal and purple, contemporary",
	"warm":         "warm colors, friendly",
	"cool":         "cool colors, calm",
	"monochrome":   "black and white, classic",
}

// tones cycles by variation index so a batch of up to six logos gets six
// distinct moods.
var tones = []string{
	"elegant and refined",
	"bold and striking",
	"creative and artistic",
	"sleek and contemporary",
	"unique and memorable",
	"sophisticated and timeless",
}

var backgroundStyles = map[string]string{
	"white":    "white background, centered, clean, simple, isolated on white",
	"natural":  "natural background, realistic environment, atmospheric, detailed scene",
	"creative": "artistic background, creative composition, dynamic, visually striking",
}

// Compose builds a generation prompt. Deterministic in its descriptor content
// for fixed inputs; only the seed varies between calls.
func Compose(in Input) Prompt {
	styleDesc, ok := styleDescriptions[in.Style]
	if !ok {
		styleDesc = "modern, professional"
	}
	colorDesc, ok := colorDescriptions[in.ColorScheme]
	if !ok {
		colorDesc = "harmonious colors"
	}

	industry := ""
	if strings.TrimSpace(in.Industry) != "" {
		industry = ", " + in.Industry + " industry"
	}

	tone := tones[((in.Variation%len(tones))+len(tones))%len(tones)]

	background, ok := backgroundStyles[in.Background]
	if !ok {
		background = backgroundStyles["natural"]
	}

	seed := NewSeed()
	text := fmt.Sprintf("%s%s, %s, %s, %s, %s, high quality, detailed, professional, seed %d",
		in.Company, industry, styleDesc, colorDesc, tone, background, seed)

	return Prompt{Text: text, Seed: seed}
}

// NewSeed draws a fresh seed in [1, MaxSeed].
func NewSeed() int {
	return rand.Intn(MaxSeed) + 1
}
