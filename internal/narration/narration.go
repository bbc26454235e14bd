// Package narration renders battle log lines and loading messages in the
// configured language using golang.org/x/text message catalogs.
package narration

import (
	"strings"

	"github.com/ericogr/monster-battle/internal/game"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	keyEncounter         = "encounter"
	keyFirstStrikePlayer = "first_strike_player"
	keyFirstStrikeOpp    = "first_strike_opponent"
	keyMoveUsed          = "move_used"
	keyMoveUsedCritical  = "move_used_critical"
	keyFaintedOpponent   = "fainted_opponent"
	keyFaintedPlayer     = "fainted_player"
	keyLoadingConnect    = "loading_connect"
	keyLoadingDesign     = "loading_design"
	keyLoadingPaint      = "loading_paint"
	keySetupFailed       = "setup_failed"
)

// Supported lists the languages that have a full catalog. The first entry
// is the fallback.
var Supported = []language.Tag{language.English, language.SimplifiedChinese}

var matcher = language.NewMatcher(Supported)

var messages = map[language.Tag]map[string]string{
	language.English: {
		keyEncounter:         "A wild %s appeared!",
		keyFirstStrikePlayer: "%s is faster and moves first!",
		keyFirstStrikeOpp:    "%s is faster and seized the first move!",
		keyMoveUsed:          "%s used %s! It dealt %d damage.",
		keyMoveUsedCritical:  "%s used %s! A critical hit! It dealt %d damage.",
		keyFaintedOpponent:   "%s fainted! You won!",
		keyFaintedPlayer:     "%s fainted! You lost...",
		keyLoadingConnect:    "Connecting to the AI generator...",
		keyLoadingDesign:     "Designing new creatures (stats)...",
		keyLoadingPaint:      "Painting %s...",
		keySetupFailed:       "Generation failed. Check the API key or try again.",
	},
	language.SimplifiedChinese: {
		keyEncounter:         "遭遇了野生的 %s!",
		keyFirstStrikePlayer: "速度更快! %s 先手!",
		keyFirstStrikeOpp:    "%s 速度更快抢到了先手!",
		keyMoveUsed:          "%s 使用了 %s! 造成了 %d 点伤害。",
		keyMoveUsedCritical:  "%s 使用了 %s! 会心一击! 造成了 %d 点伤害。",
		keyFaintedOpponent:   "%s 倒下了! 你赢了!",
		keyFaintedPlayer:     "%s 倒下了! 你输了...",
		keyLoadingConnect:    "正在连接 AI 生成器...",
		keyLoadingDesign:     "正在构思新的宝可梦 (Stats)...",
		keyLoadingPaint:      "正在绘制 %s...",
		keySetupFailed:       "生成失败，请检查 API Key 或重试。",
	},
}

var cat = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range messages {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Narrator formats messages for one language.
type Narrator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a narrator for the closest supported language to lang
// (a BCP 47 tag such as "en" or "zh"). Unknown or empty tags fall back to
// English.
func New(lang string) *Narrator {
	tag := MatchLanguage(lang)
	return &Narrator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(cat))}
}

// Default is the English narrator.
func Default() *Narrator { return New("en") }

// MatchLanguage resolves lang to one of Supported.
func MatchLanguage(lang string) language.Tag {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return Supported[0]
	}
	t, err := language.Parse(lang)
	if err != nil {
		return Supported[0]
	}
	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return Supported[0]
	}
	return Supported[idx]
}

// Supports reports whether lang parses and maps onto one of Supported.
func Supports(lang string) bool {
	t, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return false
	}
	_, _, conf := matcher.Match(t)
	return conf != language.No
}

// Language returns the tag the narrator renders.
func (n *Narrator) Language() language.Tag { return n.tag }

func (n *Narrator) Encounter(opponent string) string {
	return n.printer.Sprintf(keyEncounter, opponent)
}

func (n *Narrator) FirstStrike(name string, side game.Side) string {
	if side == game.SidePlayer {
		return n.printer.Sprintf(keyFirstStrikePlayer, name)
	}
	return n.printer.Sprintf(keyFirstStrikeOpp, name)
}

func (n *Narrator) MoveUsed(attacker, move string, damage int, critical bool) string {
	if critical {
		return n.printer.Sprintf(keyMoveUsedCritical, attacker, move, damage)
	}
	return n.printer.Sprintf(keyMoveUsed, attacker, move, damage)
}

// Fainted announces a knockout from the player's point of view: the
// opponent fainting is a win, the player's creature fainting a loss.
func (n *Narrator) Fainted(name string, side game.Side) string {
	if side == game.SideOpponent {
		return n.printer.Sprintf(keyFaintedOpponent, name)
	}
	return n.printer.Sprintf(keyFaintedPlayer, name)
}

func (n *Narrator) LoadingConnect() string { return n.printer.Sprintf(keyLoadingConnect) }

func (n *Narrator) LoadingDesign() string { return n.printer.Sprintf(keyLoadingDesign) }

func (n *Narrator) LoadingPaint(name string) string {
	return n.printer.Sprintf(keyLoadingPaint, name)
}

func (n *Narrator) SetupFailed() string { return n.printer.Sprintf(keySetupFailed) }
