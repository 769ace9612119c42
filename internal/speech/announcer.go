package speech

import "github.com/ayusman/yubimoji/internal/event"

// Announcer speaks accepted signs and, optionally, resolved words.
type Announcer struct {
	speaker    Speaker
	speakWords bool
}

var _ event.Observer = (*Announcer)(nil)

// NewAnnouncer creates an Announcer. A nil speaker stays silent.
func NewAnnouncer(speaker Speaker, speakWords bool) *Announcer {
	if speaker == nil {
		speaker = Nop{}
	}
	return &Announcer{speaker: speaker, speakWords: speakWords}
}

// SignUpdated speaks the sign when one was accepted.
func (a *Announcer) SignUpdated(u event.SignUpdate) {
	if u.Accepted() {
		a.speaker.Speak(u.Sign)
	}
}

// WordResolved speaks the word when word announcements are on.
func (a *Announcer) WordResolved(w event.WordEvent) {
	if a.speakWords {
		a.speaker.Speak(w.Word)
	}
}
