package directive

// Kind is the closed vocabulary of recognized directives. Property directives
// come first, bare flags follow.
// ENUM(unknown, audio, audioLoop, image, link, linkOpen, setTheme, background, class, animate, ask, window, header, htmlTag, setTitle, setAuthor, delay, toast, message, toaster, readerInput, audioLoopPause, audioLoopResume, unsetBackground, inline, uninline, clearKeepHeader, clear, restart)
type Kind int

// properties maps authored property names to kinds, only valid in
// "PROPERTY: value" form.
var properties = map[string]Kind{
	"AUDIO":        KindAudio,
	"AUDIOLOOP":    KindAudioLoop,
	"IMAGE":        KindImage,
	"LINK":         KindLink,
	"LINKOPEN":     KindLinkOpen,
	"SETTHEME":     KindSetTheme,
	"BACKGROUND":   KindBackground,
	"CLASS":        KindClass,
	"ANIMATE":      KindAnimate,
	"ASK":          KindAsk,
	"WINDOW":       KindWindow,
	"HEADER":       KindHeader,
	"HTML_TAG":     KindHtmlTag,
	"SETTITLE":     KindSetTitle,
	"SETAUTHOR":    KindSetAuthor,
	"DELAY":        KindDelay,
	"TOAST":        KindToast,
	"MESSAGE":      KindMessage,
	"TOASTER":      KindToaster,
	"READER_INPUT": KindReaderInput,
}

// flags maps authored bare flag names to kinds.
var flags = map[string]Kind{
	"AUDIOLOOP_PAUSE":   KindAudioLoopPause,
	"AUDIOLOOP_RESUME":  KindAudioLoopResume,
	"UNSET_BACKGROUND":  KindUnsetBackground,
	"INLINE":            KindInline,
	"UNINLINE":          KindUninline,
	"CLEAR_KEEP_HEADER": KindClearKeepHeader,
	"CLEAR":             KindClear,
	"RESTART":           KindRestart,
}

// Deferred reports whether side effect of the kind has to wait until unit is
// rendered: audio, popups, notifications and anything asking reader for input.
func (k Kind) Deferred() bool {
	switch k {
	case KindAudio, KindAudioLoop, KindAudioLoopPause, KindAudioLoopResume,
		KindAsk, KindWindow, KindToast, KindMessage, KindToaster, KindReaderInput:
		return true
	}
	return false
}
