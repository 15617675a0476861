package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/farkle/internal/game/dice"
)

// payoutMultiplier is applied to the wager on a human win.
const payoutMultiplier = 2

// settleLocked pays out the wager and rolls the reward once per match.
//
// Precondition: s.state is MatchOver.
func (s *Session) settleLocked(ctx context.Context) {
	if !s.active {
		return
	}
	s.active = false
	st := s.state
	res := Result{Wager: st.Wager, Won: st.Winner == HumanSeat}

	if res.Won {
		res.Payout = st.Wager * payoutMultiplier
		s.profile.Credit(res.Payout)
		if id, ok := s.rollRewardLocked(); ok {
			s.profile.AddDie(id)
			res.Reward = id
			s.deps.Logger.Info("reward granted",
				zap.String("match", st.ID.String()),
				zap.String("variant", string(id)),
			)
		}
	}
	s.result = &res
	s.deps.Logger.Info("wager settled",
		zap.String("match", st.ID.String()),
		zap.Stringer("outcome", st.Outcome),
		zap.Bool("won", res.Won),
		zap.Int("wager", res.Wager),
		zap.Int("payout", res.Payout),
		zap.Int("groschen", s.profile.Groschen),
	)
	s.saveLocked(ctx, s.profile)
}

func (s *Session) rollRewardLocked() (dice.VariantID, bool) {
	if s.challenger != nil {
		return s.challenger.RollReward(s.deps.Catalog, s.deps.Source, s.profile.Owned)
	}
	return s.deps.Catalog.RollReward(s.deps.Source, s.profile.Owned)
}

