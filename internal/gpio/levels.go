package gpio

import (
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-sensor/internal/logic"
)

// Levels adapts a Reader to logic.LevelSource.
//
// The debouncer cannot handle read failures, so on error Levels returns the
// last good level for the pin, or the idle level if there was none. Errors are
// logged once per failure run. Not safe for concurrent use.
type Levels struct {
	reader  Reader
	idle    bool
	last    map[int]bool
	failing map[int]bool
	errors  int
}

// NewLevels wraps r. active is the raw level that means "engaged"; its
// opposite is reported until a pin has been read successfully.
func NewLevels(r Reader, active logic.Level) *Levels {
	return &Levels{
		reader:  r,
		idle:    !bool(active),
		last:    make(map[int]bool),
		failing: make(map[int]bool),
	}
}

// ReadRaw implements logic.LevelSource.
func (l *Levels) ReadRaw(pin int) bool {
	v, err := l.reader.Read(pin)
	if err != nil {
		l.errors++
		if !l.failing[pin] {
			log.Printf("gpio read error on pin %d, holding last level: %v", pin, err)
			l.failing[pin] = true
		}
		if last, ok := l.last[pin]; ok {
			return last
		}
		return l.idle
	}

	if l.failing[pin] {
		log.Printf("gpio pin %d readable again", pin)
		l.failing[pin] = false
	}
	l.last[pin] = v
	return v
}

// Errors returns the number of failed reads so far.
func (l *Levels) Errors() int {
	return l.errors
}
