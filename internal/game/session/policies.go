package session

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cory-johannsen/farkle/internal/game/ai"
	"github.com/cory-johannsen/farkle/internal/game/catalog"
	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/scripting"
)

// NewPolicies builds the policy registry: one fallback policy per
// difficulty plus one per challenger. Challengers with a script have it
// loaded into scripts under their id and consult it for a continue bias.
//
// Precondition: tunings covers every difficulty; src and logger are non-nil.
// scripts and roster may be nil.
func NewPolicies(tunings map[ai.Difficulty]ai.Tuning, roster *catalog.Roster, scripts *scripting.Manager, scriptDir string, instLimit int, src dice.Source, logger *zap.Logger) (*ai.Registry, error) {
	fallback := make(map[ai.Difficulty]*ai.Policy, len(ai.Difficulties))
	for _, d := range ai.Difficulties {
		t, ok := tunings[d]
		if !ok {
			return nil, fmt.Errorf("session: no tuning for difficulty %s", d)
		}
		fallback[d] = ai.NewPolicy(d, t, src, logger)
	}
	reg := ai.NewRegistry(fallback)
	if roster == nil {
		return reg, nil
	}
	for _, ch := range roster.All() {
		p := fallback[ch.Difficulty]
		if ch.Script != "" && scripts != nil {
			path := filepath.Join(scriptDir, ch.Script)
			if err := scripts.LoadFile(ch.ID, path, instLimit); err != nil {
				return nil, fmt.Errorf("session: challenger %q: %w", ch.ID, err)
			}
			p = p.WithScript(scripts, ch.ID)
		}
		if err := reg.Register(ch.ID, p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
