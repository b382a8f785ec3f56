package progression

import (
	"regexp"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
)

// DefaultAwardXP is the flat XP granted for any completed quest.
const DefaultAwardXP = 10

const (
	PolicyFlat       = "flat"
	PolicyRewardText = "reward_text"
)

// AwardPolicy decides how much XP a completed quest is worth.
type AwardPolicy interface {
	Award(quest models.Quest) int
}

// FlatAward grants the same XP for every quest regardless of its reward text.
type FlatAward struct {
	XP int
}

func (f FlatAward) Award(models.Quest) int {
	if f.XP <= 0 {
		return DefaultAwardXP
	}
	return f.XP
}

var rewardXPPattern = regexp.MustCompile(`(?i)^\s*(\d+)\s*XP\b`)

// RewardTextAward reads the XP amount from a reward text such as "50 XP".
// Text that does not start with an XP amount earns Fallback.
type RewardTextAward struct {
	Fallback int
}

func (r RewardTextAward) Award(quest models.Quest) int {
	if xp, ok := ParseRewardXP(quest.Rewards); ok {
		return xp
	}
	return FlatAward{XP: r.Fallback}.Award(quest)
}

// ParseRewardXP extracts the leading "<n> XP" amount from a reward text.
func ParseRewardXP(text string) (int, bool) {
	m := rewardXPPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// NewAwardPolicy builds the policy named by the XP_AWARD_POLICY setting.
// Unknown names fall back to the flat policy.
func NewAwardPolicy(name string, flatXP int) AwardPolicy {
	if name == PolicyRewardText {
		return RewardTextAward{Fallback: flatXP}
	}
	return FlatAward{XP: flatXP}
}
