package dto

import "wealthreactor/domain/entities"

// UserToDTO converts a user entity for API responses
func UserToDTO(user *entities.User) UserDTO {
	return UserDTO{
		Username:   user.Username,
		Wallet:     user.Wallet(),
		Referrer:   user.ReferrerUsername,
		ReferrerL2: user.ReferrerL2Username,
		HasPaid:    user.HasPaid,
		PaymentTx:  user.PaymentTx,
		CreatedAt:  user.CreatedAt,
	}
}

// UsersToDTO converts a list of users; the result is never nil
func UsersToDTO(users []*entities.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for _, user := range users {
		out = append(out, UserToDTO(user))
	}
	return out
}

// AgentToDTO converts an agent entity for API responses
func AgentToDTO(agent *entities.Agent) AgentDTO {
	return AgentDTO{
		AgentID:    agent.AgentID,
		Wallet:     agent.WalletAddress,
		Referrer:   agent.ReferrerAgentID,
		ReferrerL2: agent.ReferrerL2AgentID,
		HasWebhook: agent.HasWebhook(),
		Metadata:   agent.Metadata,
		CreatedAt:  agent.CreatedAt,
	}
}

// RotatorEntryToDTO converts a rotator lease for API responses
func RotatorEntryToDTO(entry *entities.RotatorEntry) RotatorMemberDTO {
	return RotatorMemberDTO{
		Username:  entry.Username,
		ExpiresAt: entry.ExpiresAt,
		JoinedAt:  entry.CreatedAt,
	}
}
