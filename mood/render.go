package mood

import (
	"fmt"

	"github.com/fogleman/gg"
)

const (
	cellSize    = 14
	cellPadding = 2
	marginX     = 20
	marginY     = 20
)

// Colori di base per categoria (r, g, b), scuriti o schiariti in base
// all'intensità della settimana
var categoryColors = [][3]float64{
	{1.00, 0.84, 0.00}, // joy
	{1.00, 0.76, 0.25}, // happiness
	{0.91, 0.12, 0.39}, // love
	{0.30, 0.69, 0.31}, // approval
	{0.61, 0.15, 0.69}, // celebration
	{0.00, 0.59, 0.53}, // cool
	{1.00, 0.34, 0.13}, // excitement
	{0.47, 0.33, 0.28}, // strength
	{0.25, 0.32, 0.71}, // sadness
	{0.38, 0.49, 0.55}, // disappointment
	{0.83, 0.18, 0.18}, // anger
	{0.96, 0.26, 0.21}, // shock
	{0.40, 0.23, 0.72}, // fear
	{0.31, 0.76, 0.97}, // anxiety
	{0.01, 0.66, 0.96}, // surprise
	{0.55, 0.76, 0.29}, // thinking
	{0.74, 0.74, 0.13}, // confusion
	{0.62, 0.62, 0.62}, // skepticism
	{0.74, 0.74, 0.74}, // neutral
	{0.46, 0.46, 0.64}, // tired
	{1.00, 0.60, 0.00}, // playful
	{0.47, 0.56, 0.61}, // disapproval
	{0.80, 0.86, 0.22}, // misc
}

// RenderHeatmap disegna la mappa di calore dell'umore: una colonna per
// settimana, una riga per categoria, intensità proporzionale al conteggio.
func RenderHeatmap(analysis *Analysis, path string) error {
	if analysis.Weeks == 0 {
		return fmt.Errorf("nessuna settimana da disegnare")
	}

	width := marginX*2 + analysis.Weeks*(cellSize+cellPadding)
	height := marginY*2 + len(categories)*(cellSize+cellPadding)

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Massimo per normalizzare l'intensità
	maxCount := 1
	for _, week := range analysis.WeekStats {
		for _, count := range week.MoodCounts {
			if count > maxCount {
				maxCount = count
			}
		}
	}

	for col, week := range analysis.WeekStats {
		x := float64(marginX + col*(cellSize+cellPadding))
		for row := range categories {
			y := float64(marginY + row*(cellSize+cellPadding))
			count := week.MoodCounts[row]
			if count == 0 {
				dc.SetRGB(0.95, 0.95, 0.95)
			} else {
				intensity := 0.35 + 0.65*float64(count)/float64(maxCount)
				base := categoryColors[row]
				dc.SetRGB(
					1-(1-base[0])*intensity,
					1-(1-base[1])*intensity,
					1-(1-base[2])*intensity,
				)
			}
			dc.DrawRectangle(x, y, cellSize, cellSize)
			dc.Fill()
		}

		// La settimana senza attività viene marcata con una colonna tratteggiata
		if week.Messages == 0 {
			dc.SetRGBA(0.85, 0.85, 0.85, 0.6)
			dc.DrawRectangle(x, marginY, cellSize, float64(height-marginY*2))
			dc.Fill()
		}
	}

	return dc.SavePNG(path)
}
