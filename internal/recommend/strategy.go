// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"fmt"

	"github.com/mfolsom1/eventreco/internal/apperrors"
)

// StrategyWeights is the pure weight record a strategy resolves to.
// Adding a strategy means adding a row to strategyTable, nothing else.
type StrategyWeights struct {
	BaseSimWeight float64
	FriendStep    float64
	FriendCap     int
	DropNoFriends bool
}

const (
	StrategyHybrid         = "hybrid"
	StrategyFriendsOnly    = "friends_only"
	StrategyFriendsBoosted = "friends_boosted"
)

var strategyTable = map[string]StrategyWeights{
	StrategyHybrid:         {BaseSimWeight: 1, FriendStep: 0.10, FriendCap: 5, DropNoFriends: false},
	StrategyFriendsBoosted: {BaseSimWeight: 1, FriendStep: 0.30, FriendCap: 5, DropNoFriends: false},
	StrategyFriendsOnly:    {BaseSimWeight: 0, FriendStep: 0.30, FriendCap: 5, DropNoFriends: true},
}

// ResolveStrategy looks up the weight record for name. Unknown names fail
// with InvalidArgument.
func ResolveStrategy(name string) (StrategyWeights, error) {
	w, ok := strategyTable[name]
	if !ok {
		return StrategyWeights{}, apperrors.New(apperrors.InvalidArgument, fmt.Sprintf("unknown strategy %q", name))
	}
	return w, nil
}
