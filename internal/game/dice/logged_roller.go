package dice

import "go.uber.org/zap"

// Roller wraps a Source, a variant Lookup and a logger to provide logged
// rolling of die sets. Every roll is logged at debug level.
type Roller struct {
	src    Source
	lookup Lookup
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that samples with src, resolves variants
// through lookup and logs each roll to logger.
//
// Precondition: src and logger must be non-nil; lookup may be nil, in which
// case every die rolls uniformly.
func NewLoggedRoller(src Source, lookup Lookup, logger *zap.Logger) *Roller {
	if src == nil {
		panic("dice.NewLoggedRoller: src must not be nil")
	}
	if logger == nil {
		panic("dice.NewLoggedRoller: logger must not be nil")
	}
	return &Roller{src: src, lookup: lookup, logger: logger}
}

// Roll re-samples every unlocked die in s and logs the resulting faces.
//
// Postcondition: equivalent to RollUnlocked(s, lookup, src).
func (r *Roller) Roll(s Set) Set {
	out := RollUnlocked(s, r.lookup, r.src)
	faces := make([]int, 0, Count)
	variants := make([]string, 0, Count)
	for _, i := range s.Unlocked() {
		faces = append(faces, out[i].Face)
		variants = append(variants, string(out[i].Variant))
	}
	r.logger.Debug("dice roll",
		zap.Ints("faces", faces),
		zap.Strings("variants", variants),
		zap.Int("locked", Count-len(faces)),
	)
	return out
}

// Source returns the roller's random source.
func (r *Roller) Source() Source {
	return r.src
}
