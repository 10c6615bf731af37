package clashapi

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeLayout is the timestamp format used throughout the API, e.g. 20240101T120000.000Z.
const TimeLayout = "20060102T150405.000Z"

// ListResponse wraps collection endpoints.
type ListResponse[T any] struct {
	Items  []T             `json:"items"`
	Paging json.RawMessage `json:"paging,omitempty"`
}

// IconURLs is the badge/icon set attached to clans and leagues.
type IconURLs struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// ClanSummary is the shape returned by clan search.
type ClanSummary struct {
	Tag          string   `json:"tag"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	ClanLevel    int      `json:"clanLevel"`
	ClanPoints   int      `json:"clanPoints"`
	Members      int      `json:"members"`
	WarFrequency string   `json:"warFrequency"`
	BadgeURLs    IconURLs `json:"badgeUrls"`
}

// Clan is the detailed clan view.
type Clan struct {
	ClanSummary
	Description    string   `json:"description"`
	WarWins        int      `json:"warWins"`
	WarWinStreak   int      `json:"warWinStreak"`
	IsWarLogPublic bool     `json:"isWarLogPublic"`
	MemberList     []Member `json:"memberList"`
}

// Member is a clan member entry.
type Member struct {
	Tag               string `json:"tag"`
	Name              string `json:"name"`
	Role              string `json:"role"`
	ExpLevel          int    `json:"expLevel"`
	Trophies          int    `json:"trophies"`
	ClanRank          int    `json:"clanRank"`
	Donations         int    `json:"donations"`
	DonationsReceived int    `json:"donationsReceived"`
}

// WarSide is one clan's result in a war log entry.
type WarSide struct {
	Tag                   string  `json:"tag"`
	Name                  string  `json:"name"`
	ClanLevel             int     `json:"clanLevel"`
	Attacks               int     `json:"attacks"`
	Stars                 int     `json:"stars"`
	DestructionPercentage float64 `json:"destructionPercentage"`
}

// War is a war log entry.
type War struct {
	Result   string  `json:"result"`
	EndTime  string  `json:"endTime"`
	TeamSize int     `json:"teamSize"`
	Clan     WarSide `json:"clan"`
	Opponent WarSide `json:"opponent"`
}

// Ended parses EndTime.
func (w War) Ended() (time.Time, bool) {
	return ParseTime(w.EndTime)
}

// Unit is a hero, troop or spell on a player profile.
type Unit struct {
	Name     string `json:"name"`
	Level    int    `json:"level"`
	MaxLevel int    `json:"maxLevel"`
	Village  string `json:"village"`
}

// PlayerClan is the abbreviated clan attached to a player.
type PlayerClan struct {
	Tag       string `json:"tag"`
	Name      string `json:"name"`
	ClanLevel int    `json:"clanLevel"`
}

// Player is the player profile.
type Player struct {
	Tag           string      `json:"tag"`
	Name          string      `json:"name"`
	TownHallLevel int         `json:"townHallLevel"`
	ExpLevel      int         `json:"expLevel"`
	Trophies      int         `json:"trophies"`
	BestTrophies  int         `json:"bestTrophies"`
	WarStars      int         `json:"warStars"`
	Role          string      `json:"role"`
	Clan          *PlayerClan `json:"clan,omitempty"`
	Heroes        []Unit      `json:"heroes"`
	Troops        []Unit      `json:"troops"`
	Spells        []Unit      `json:"spells"`
}

// TokenVerification is the verifytoken response.
type TokenVerification struct {
	Tag    string `json:"tag"`
	Token  string `json:"token"`
	Status string `json:"status"`
}

// OK reports whether the token matched.
func (v TokenVerification) OK() bool {
	return v.Status == "ok"
}

// Decode unmarshals a raw API payload into T.
func Decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

// ParseTime parses an API timestamp. Empty or malformed values report false.
func ParseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(TimeLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
