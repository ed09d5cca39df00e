package models

// Prompt is one turn's work item. A new turn always replaces it entirely.
type Prompt struct {
	TargetImageURL string `json:"targetImageUrl"`
	HTML           string `json:"html"`
	SeedCSS        string `json:"seedCss,omitempty"`
}

// TurnCounter tracks progress within a game. 1 <= Number <= Total.
type TurnCounter struct {
	Number int `json:"number"`
	Total  int `json:"total"`
}

// Valid reports whether the counter satisfies 1 <= Number <= Total.
func (t TurnCounter) Valid() bool {
	return t.Number >= 1 && t.Number <= t.Total
}

// Clamp returns the nearest valid counter: Number at least 1 and Total at
// least Number.
func (t TurnCounter) Clamp() TurnCounter {
	if t.Number < 1 {
		t.Number = 1
	}
	if t.Total < t.Number {
		t.Total = t.Number
	}
	return t
}

// Last reports whether this is the final turn of the game.
func (t TurnCounter) Last() bool {
	return t.Valid() && t.Number == t.Total
}
