package entities

import "time"

// Stream is one of the fixed third-party affiliate offers a user can link to
type Stream struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Tagline     string `json:"tagline"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	DefaultURL  string `json:"defaultUrl"`
	PromoCode   string `json:"promoCode,omitempty"`
}

// streamCatalog is ordered as it appears on a profile page
var streamCatalog = []Stream{
	{
		ID:          "crinkl",
		Name:        "Crinkl",
		Tagline:     "Turn Receipts into Bitcoin",
		Description: "Scan receipts, earn BTC instantly.",
		Icon:        "🧾",
		DefaultURL:  "https://crinkl.it.com/welcome?ref=PMA6J5A",
	},
	{
		ID:          "goe1ulife",
		Name:        "Goe1ulife",
		Tagline:     "Instant BTC for Referrals",
		Description: "Get paid in Bitcoin for referring businesses.",
		Icon:        "🚀",
		DefaultURL:  "https://go.e1ulife.com/?affid=magicdave",
	},
	{
		ID:          "mgames",
		Name:        "mGames",
		Tagline:     "Play to Own",
		Description: "Gaming on BASE. Own your assets, earn from referrals.",
		Icon:        "🎮",
		DefaultURL:  "https://magicdave.memegames.ai/",
	},
	{
		ID:          "rebet",
		Name:        "ReBet",
		Tagline:     "Social Sports Casino",
		Description: "Free bets when friends play. Promo code required.",
		Icon:        "🎰",
		DefaultURL:  "https://apps.apple.com/us/app/rebet-social-sports-casino/id6468762763",
		PromoCode:   "U-DAV-NAM-KV",
	},
	{
		ID:          "amplivo",
		Name:        "Amplivo",
		Tagline:     "Plastic into Profit",
		Description: "Turn plastic waste into oil. Earn USDT from the green economy.",
		Icon:        "♻️",
		DefaultURL:  "https://amplivo.com/sponsor/Magicdave",
	},
}

// Streams returns a copy of the stream catalog
func Streams() []Stream {
	out := make([]Stream, len(streamCatalog))
	copy(out, streamCatalog)
	return out
}

// LookupStream finds a catalog entry by id
func LookupStream(id string) (Stream, bool) {
	for _, s := range streamCatalog {
		if s.ID == id {
			return s, true
		}
	}
	return Stream{}, false
}

// ProfileStream is a catalog entry resolved against a user's custom links
type ProfileStream struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Tagline   string `json:"tagline"`
	Icon      string `json:"icon"`
	URL       string `json:"url"`
	IsCustom  bool   `json:"isCustom"`
	PromoCode string `json:"promoCode,omitempty"`
}

// Resolve merges the stream with an optional override
func (s Stream) Resolve(custom string, hasCustom bool) ProfileStream {
	ps := ProfileStream{
		ID:        s.ID,
		Name:      s.Name,
		Tagline:   s.Tagline,
		Icon:      s.Icon,
		URL:       s.DefaultURL,
		PromoCode: s.PromoCode,
	}
	if hasCustom {
		ps.URL = custom
		ps.IsCustom = custom != s.DefaultURL
	}
	return ps
}

// Profile is the public referral page of a user
type Profile struct {
	Username  string            `json:"username"`
	Wallet    string            `json:"wallet,omitempty"`
	Links     map[string]string `json:"links"`
	Streams   []ProfileStream   `json:"streams"`
	HasPaid   bool              `json:"hasPaid"`
	CreatedAt time.Time         `json:"createdAt"`
}
