package services

import (
	"context"

	"wealthreactor/domain/entities"
	"wealthreactor/domain/interfaces"
)

// profileService composes public pages from a user record and the stream catalog
type profileService struct {
	registry interfaces.RegistryService
}

// NewProfileService creates a new profile service
func NewProfileService(registry interfaces.RegistryService) interfaces.ProfileService {
	return &profileService{registry: registry}
}

func (s *profileService) ComposeProfile(ctx context.Context, username string) (*entities.Profile, error) {
	user, err := s.registry.Lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	return ComposeProfile(user), nil
}

func (s *profileService) ComposeProfileByWallet(ctx context.Context, wallet string) (*entities.Profile, error) {
	user, err := s.registry.LookupByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return ComposeProfile(user), nil
}

// ComposeProfile merges the user's custom links over the catalog defaults
func ComposeProfile(user *entities.User) *entities.Profile {
	catalog := entities.Streams()
	streams := make([]entities.ProfileStream, 0, len(catalog))
	for _, stream := range catalog {
		custom, ok := user.CustomLink(stream.ID)
		streams = append(streams, stream.Resolve(custom, ok))
	}

	links := user.Links
	if links == nil {
		links = map[string]string{}
	}

	return &entities.Profile{
		Username:  user.Username,
		Wallet:    user.Wallet(),
		Links:     links,
		Streams:   streams,
		HasPaid:   user.HasPaid,
		CreatedAt: user.CreatedAt,
	}
}
