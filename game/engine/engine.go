package engine

// beats maps each choice to the choice it defeats.
var beats = map[Choice]Choice{
	Rock:     Scissors,
	Paper:    Rock,
	Scissors: Paper,
}

// Resolve compares the player's choice with the opponent's and returns the
// outcome for the player. Every pair that is neither a win nor a loss,
// including equal choices, is a draw.
func Resolve(player, opponent Choice) Outcome {
	if beaten, ok := beats[player]; ok && beaten == opponent {
		return Win
	}
	if beaten, ok := beats[opponent]; ok && beaten == player {
		return Lose
	}
	return Draw
}

// Rule is one row of the rule table.
type Rule struct {
	Player   Choice  `json:"player"`
	Opponent Choice  `json:"opponent"`
	Outcome  Outcome `json:"outcome"`
}

// Rules returns the outcome of every ordered pair of choices.
func Rules() []Rule {
	rules := make([]Rule, 0, len(Choices)*len(Choices))
	for _, player := range Choices {
		for _, opponent := range Choices {
			rules = append(rules, Rule{
				Player:   player,
				Opponent: opponent,
				Outcome:  Resolve(player, opponent),
			})
		}
	}
	return rules
}
