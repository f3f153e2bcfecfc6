package participation

import "chewbot/models"

// Participant is a user taking part in an event together with the chews they put in
type Participant struct {
	User     *models.User
	Wager    int64
	Accepted bool
}

func (p *Participant) base() *Participant { return p }

// Username returns the participant's login
func (p *Participant) Username() string {
	if p.User == nil {
		return ""
	}
	return p.User.Username
}

// participantLike is implemented by *Participant and by any type embedding Participant
type participantLike interface {
	base() *Participant
}
