package store

import "github.com/google/uuid"

// BracketMatch is one slot in a round. A match with only Player1
// populated is a bye; the lone participant advances unplayed.
type BracketMatch struct {
	ID        string `json:"id"`
	Player1ID string `json:"player1Id"`
	Player2ID string `json:"player2Id,omitempty"`
	WinnerID  string `json:"winnerId,omitempty"`
}

func (m BracketMatch) IsBye() bool {
	return m.Player1ID != "" && m.Player2ID == ""
}

func (m BracketMatch) Resolved() bool {
	return m.WinnerID != ""
}

type Round []BracketMatch

type Bracket []Round

// Clone deep-copies the bracket so a snapshot handed to another
// goroutine never aliases live rounds.
func (b Bracket) Clone() Bracket {
	out := make(Bracket, len(b))
	for i, round := range b {
		out[i] = append(Round(nil), round...)
	}
	return out
}

// RoundsFor returns log2(n) for power-of-two n, else false.
func RoundsFor(participants int) (int, bool) {
	if participants < 2 || participants&(participants-1) != 0 {
		return 0, false
	}
	rounds := 0
	for n := participants; n > 1; n /= 2 {
		rounds++
	}
	return rounds, true
}

// SeedBracket builds the full bracket skeleton for the participants.
// Round 1 pairs adjacent entries in registration order; later rounds
// hold empty slots that fill as winners come through. Participant
// count must be a power of two.
func SeedBracket(participantIDs []string) (Bracket, error) {
	rounds, ok := RoundsFor(len(participantIDs))
	if !ok {
		return nil, ErrParticipantCount
	}

	bracket := make(Bracket, rounds)
	first := make(Round, 0, len(participantIDs)/2)
	for i := 0; i+1 < len(participantIDs); i += 2 {
		first = append(first, BracketMatch{
			ID:        uuid.NewString(),
			Player1ID: participantIDs[i],
			Player2ID: participantIDs[i+1],
		})
	}
	bracket[0] = first

	size := len(first) / 2
	for r := 1; r < rounds; r++ {
		round := make(Round, size)
		for i := range round {
			round[i] = BracketMatch{ID: uuid.NewString()}
		}
		bracket[r] = round
		size /= 2
	}
	return bracket, nil
}
