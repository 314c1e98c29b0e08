package game

import "errors"

var ErrUnknownChoice = errors.New("unknown choice")

type Choice string

const (
	ChoiceRock     Choice = "rock"
	ChoicePaper    Choice = "paper"
	ChoiceScissors Choice = "scissors"
)

// ParseChoice maps a wire string onto a Choice.
func ParseChoice(s string) (Choice, error) {
	switch Choice(s) {
	case ChoiceRock, ChoicePaper, ChoiceScissors:
		return Choice(s), nil
	default:
		return "", ErrUnknownChoice
	}
}

type Outcome int

const (
	OutcomeTie Outcome = iota
	OutcomeFirstWins
	OutcomeSecondWins
)

// Resolve decides a round. It is total over the 3x3 choice space:
// rock beats scissors, paper beats rock, scissors beats paper.
func Resolve(first, second Choice) Outcome {
	if first == second {
		return OutcomeTie
	}

	switch first {
	case ChoiceRock:
		if second == ChoiceScissors {
			return OutcomeFirstWins
		}
	case ChoicePaper:
		if second == ChoiceRock {
			return OutcomeFirstWins
		}
	case ChoiceScissors:
		if second == ChoicePaper {
			return OutcomeFirstWins
		}
	}
	return OutcomeSecondWins
}
