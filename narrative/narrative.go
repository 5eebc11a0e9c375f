// Package narrative defines contract between player and branching narrative
// engine producing story content.
package narrative

// Unit is one produced span of story text with its ordered annotations.
type Unit struct {
	Text string
	Tags []string
}

// Choice is an option offered by engine at the end of content.
type Choice struct {
	Index int
	Text  string
}

// Engine is a pull based producer of narrative units with a writable
// variable bag. Engine is not safe for concurrent use, player drives it from
// a single control flow.
type Engine interface {
	// CanContinue reports whether Continue will produce another unit.
	CanContinue() bool
	// Continue produces next unit. An error here is fatal for current cycle.
	Continue() (Unit, error)
	// CurrentChoices returns options available once content is exhausted.
	CurrentChoices() []Choice
	// ChooseChoiceIndex follows the choice with given index.
	ChooseChoiceIndex(index int) error
	// ResetState rewinds engine to the very beginning.
	ResetState() error
	// SetVariable writes a story variable by name.
	SetVariable(name string, value any) error
	// SaveState serializes complete engine state.
	SaveState() (string, error)
	// LoadState restores state previously produced by SaveState.
	LoadState(blob string) error
	// GlobalTags returns story level annotations.
	GlobalTags() []string
}

// Inspector is optionally implemented by engines able to expose their
// variables for debugging.
type Inspector interface {
	Variables() map[string]any
}

// Identifier is optionally implemented by engines which can name story they
// are playing, name is used to keep saved sessions apart.
type Identifier interface {
	StoryID() string
}
