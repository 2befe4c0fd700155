package trace

import (
	"time"

	"github.com/rs/zerolog"
)

// Span tracks one pipeline phase.
type Span struct {
	log   *zerolog.Logger
	name  string
	start time.Time
}

// Phase logs the beginning of a phase. A nil logger is allowed.
func Phase(log *zerolog.Logger, name string) *Span {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	log.Debug().Str("phase", name).Msg("begin")
	return &Span{log: log, name: name, start: time.Now()}
}

// End logs the end of the phase with its duration and returns it.
func (s *Span) End(err error) time.Duration {
	dur := time.Since(s.start)
	if err != nil {
		s.log.Error().Str("phase", s.name).Dur("elapsed", dur).Err(err).Msg("failed")
		return dur
	}
	s.log.Info().Str("phase", s.name).Dur("elapsed", dur).Msg("end")
	return dur
}
