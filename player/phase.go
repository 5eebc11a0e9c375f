package player

// Phase is the state of playback loop.
// ENUM(idle, pulling, applying, revealing, draining, resolving, awaitingChoice, restarted)
type Phase int
