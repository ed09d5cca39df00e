package models

// Step is one player's contribution within a chain.
type Step struct {
	Author         User   `json:"author"`
	SubmittedCSS   string `json:"submittedCss"`
	ResultImageURL string `json:"resultImageUrl"`
}

// Chain is one lineage of turns starting from a single initial prompt.
type Chain struct {
	InitialPrompt Prompt `json:"initialPrompt"`
	Steps         []Step `json:"steps"`
}

// GameResults is the final outcome of a finished game.
type GameResults struct {
	Chains []Chain `json:"chains"`
}

// Clone returns a deep copy of the results.
func (g GameResults) Clone() GameResults {
	out := GameResults{}
	if g.Chains == nil {
		return out
	}
	out.Chains = make([]Chain, len(g.Chains))
	for i, c := range g.Chains {
		out.Chains[i] = Chain{InitialPrompt: c.InitialPrompt}
		if c.Steps != nil {
			out.Chains[i].Steps = make([]Step, len(c.Steps))
			copy(out.Chains[i].Steps, c.Steps)
		}
	}
	return out
}

// TotalSteps counts the steps across every chain.
func (g GameResults) TotalSteps() int {
	n := 0
	for _, c := range g.Chains {
		n += len(c.Steps)
	}
	return n
}

// RevealCursor marks how much of GameResults is unlocked for display.
type RevealCursor struct {
	ChainIndex int `json:"chainIndex"`
	StepIndex  int `json:"stepIndex"`
}

// BeforeFirstStep is the sentinel cursor: nothing is visible yet.
var BeforeFirstStep = RevealCursor{ChainIndex: 0, StepIndex: -1}

// IsSentinel reports whether c is the "before first step" position.
func (c RevealCursor) IsSentinel() bool {
	return c == BeforeFirstStep
}

// Shows reports whether the step at (chainIndex, stepIndex) is unlocked by c.
func (c RevealCursor) Shows(chainIndex, stepIndex int) bool {
	return chainIndex < c.ChainIndex ||
		(chainIndex == c.ChainIndex && stepIndex <= c.StepIndex)
}

// Before reports whether c addresses an earlier position than other.
func (c RevealCursor) Before(other RevealCursor) bool {
	if c.ChainIndex != other.ChainIndex {
		return c.ChainIndex < other.ChainIndex
	}
	return c.StepIndex < other.StepIndex
}

// Resolves reports whether c is the sentinel or addresses an existing step.
func (g GameResults) Resolves(c RevealCursor) bool {
	if c.IsSentinel() {
		return true
	}
	if c.ChainIndex < 0 || c.ChainIndex >= len(g.Chains) {
		return false
	}
	return c.StepIndex >= 0 && c.StepIndex < len(g.Chains[c.ChainIndex].Steps)
}

// Next returns the position one step after c, skipping chains without steps.
// ok is false when c already addresses the last step of the last chain.
func (g GameResults) Next(c RevealCursor) (next RevealCursor, ok bool) {
	if c.ChainIndex >= 0 && c.ChainIndex < len(g.Chains) &&
		c.StepIndex+1 < len(g.Chains[c.ChainIndex].Steps) {
		return RevealCursor{ChainIndex: c.ChainIndex, StepIndex: c.StepIndex + 1}, true
	}
	for ci := c.ChainIndex + 1; ci < len(g.Chains); ci++ {
		if len(g.Chains[ci].Steps) > 0 {
			return RevealCursor{ChainIndex: ci, StepIndex: 0}, true
		}
	}
	return c, false
}

// Finished reports whether no further advance is meaningful from c.
func (g GameResults) Finished(c RevealCursor) bool {
	_, ok := g.Next(c)
	return !ok
}
