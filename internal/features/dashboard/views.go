package dashboard

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mo-amir99/coc-proxy-go/pkg/clashapi"
)

const unknownClan = "Unknown Clan"

// WarView is one war log row, flattened for the template.
type WarView struct {
	Result          string
	ResultClass     string
	ClanName        string
	OpponentName    string
	ClanStars       int
	OpponentStars   int
	ClanDestruction string
	OppDestruction  string
	TeamSize        int
	DaysAgo         int
	HasEndTime      bool
}

func newWarView(war clashapi.War, clanName string, now time.Time) WarView {
	result := war.Result
	if result == "" {
		result = "unknown"
	}

	if strings.TrimSpace(clanName) == "" {
		clanName = unknownClan
	}

	opponent := war.Opponent.Name
	if strings.TrimSpace(opponent) == "" {
		opponent = unknownClan
	}

	view := WarView{
		Result:          result,
		ResultClass:     resultClass(result),
		ClanName:        clanName,
		OpponentName:    opponent,
		ClanStars:       war.Clan.Stars,
		OpponentStars:   war.Opponent.Stars,
		ClanDestruction: formatPercent(war.Clan.DestructionPercentage),
		OppDestruction:  formatPercent(war.Opponent.DestructionPercentage),
		TeamSize:        war.TeamSize,
	}

	if ended, ok := war.Ended(); ok {
		view.HasEndTime = true
		view.DaysAgo = daysBetween(ended, now)
	}

	return view
}

func resultClass(result string) string {
	switch result {
	case "win":
		return "result-win"
	case "lose":
		return "result-lose"
	case "tie":
		return "result-tie"
	default:
		return "result-unknown"
	}
}

// formatPercent rounds to two places and drops trailing zeros: 87.5333 -> 87.53, 100.0 -> 100.
func formatPercent(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0"
	}
	return decimal.NewFromFloat(value).Round(2).String()
}

func daysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// ClanPage is the model for clans.tmpl.
type ClanPage struct {
	Mode    string
	Query   string
	Limit   int
	Limits  []int
	Error   string
	Results []clashapi.ClanSummary

	Clan          *clashapi.Clan
	Members       []clashapi.Member
	Wars          []WarView
	WarLogPrivate bool
}

// PlayerPage is the model for players.tmpl.
type PlayerPage struct {
	Tag         string
	Error       string
	Player      *clashapi.Player
	TokenStatus string
	TokenError  string
}

// TokenOK reports a successful verification.
func (p PlayerPage) TokenOK() bool {
	return clashapi.TokenVerification{Status: p.TokenStatus}.OK()
}
