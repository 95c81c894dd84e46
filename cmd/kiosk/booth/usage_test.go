package booth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialUses(t *testing.T) {
	tests := []struct {
		name  string
		booth string
		want  int
	}{
		{"bare times count", "3회 체험", 3},
		{"bracketed times count", "인포픽 (INFOPICK) [2회]", 2},
		{"bare people count", "2인 패키지", 2},
		{"bracketed people count", "[2인] 패키지", 2},
		{"multi digit count", "[10회] 특별 이용권", 10},
		{"count embedded mid-name", "미니 게임 테라피 (MINI GAME THERAPY) [3회]", 3},
		{"super pass defaults to one", "SUPER PASS", 1},
		{"superpass brand defaults to one", "INFOISM SUPERPASS (인포이즘 우선 이용권) [1인]", 1},
		{"no pattern defaults to one", "타자 게임", 1},
		{"empty name defaults to one", "", 1},
		{"digits without unit default to one", "부스 42", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InitialUses(tt.booth))
		})
	}
}

func TestInitialUsesIsTotal(t *testing.T) {
	// Whatever the input, the result is a usable count
	inputs := []string{"", "회", "[회]", "한 회", "∞", "SUPERDUPER", "[ 3회]", "booth-7"}
	for _, in := range inputs {
		assert.GreaterOrEqual(t, InitialUses(in), 1, "input %q", in)
	}
}
