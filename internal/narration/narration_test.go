package narration

import (
	"testing"

	"github.com/ericogr/monster-battle/internal/game"

	"golang.org/x/text/language"
)

func TestMatchLanguage(t *testing.T) {
	cases := map[string]language.Tag{
		"":        language.English,
		"en-US":   language.English,
		"zh":      language.SimplifiedChinese,
		"zh-Hans": language.SimplifiedChinese,
		"@@bad":   language.English,
	}
	for in, want := range cases {
		if got := MatchLanguage(in); got != want {
			t.Fatalf("MatchLanguage(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoadingLines(t *testing.T) {
	zh := New("zh")
	if zh.Language() != language.SimplifiedChinese {
		t.Fatalf("expected zh-Hans narrator, got %v", zh.Language())
	}
	if got := zh.LoadingDesign(); got != "正在构思新的宝可梦 (Stats)..." {
		t.Fatalf("unexpected zh design line %q", got)
	}
	if got := zh.LoadingPaint("皮卡"); got != "正在绘制 皮卡..." {
		t.Fatalf("unexpected zh paint line %q", got)
	}
	en := New("fr")
	if en.Language() != language.English {
		t.Fatalf("unsupported languages fall back to English, got %v", en.Language())
	}
	if got := en.LoadingDesign(); got != "Designing new creatures (stats)..." {
		t.Fatalf("unexpected en design line %q", got)
	}
}

func TestEnglishLines(t *testing.T) {
	n := Default()
	if got := n.Encounter("Mossy"); got != "A wild Mossy appeared!" {
		t.Fatalf("unexpected encounter line %q", got)
	}
	if got := n.FirstStrike("Mossy", game.SideOpponent); got != "Mossy is faster and seized the first move!" {
		t.Fatalf("unexpected first strike line %q", got)
	}
	if got := n.MoveUsed("Sparky", "Zap", 12, true); got != "Sparky used Zap! A critical hit! It dealt 12 damage." {
		t.Fatalf("unexpected critical line %q", got)
	}
	if got := n.Fainted("Sparky", game.SidePlayer); got != "Sparky fainted! You lost..." {
		t.Fatalf("unexpected fainted line %q", got)
	}
	if got := n.LoadingPaint("Sparky"); got != "Painting Sparky..." {
		t.Fatalf("unexpected loading line %q", got)
	}
}

func TestChineseLines(t *testing.T) {
	n := New("zh")
	if got := n.Encounter("火狐"); got != "遭遇了野生的 火狐!" {
		t.Fatalf("unexpected encounter line %q", got)
	}
	if got := n.Fainted("火狐", game.SideOpponent); got != "火狐 倒下了! 你赢了!" {
		t.Fatalf("unexpected fainted line %q", got)
	}
	if got := n.MoveUsed("火狐", "烈焰", 20, false); got != "火狐 使用了 烈焰! 造成了 20 点伤害。" {
		t.Fatalf("unexpected move line %q", got)
	}
}
