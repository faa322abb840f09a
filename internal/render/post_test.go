package render

import "testing"

func white(n int) []Color {
	buf := make([]Color, n)
	for i := range buf {
		buf[i] = Color{1, 1, 1}
	}
	return buf
}

func TestPowerLimitBudgetClamp(t *testing.T) {
	// 10 LEDs at full white: 600 mA against a 300 mA budget
	buf := white(10)
	p := PowerLimit{ChannelMilliA: 20, BudgetMilliA: 300, Knee: 0.9}
	p.Apply(buf)
	if cur := p.Estimate(buf); cur > 300.1 {
		t.Fatalf("expected <= 300mA after limit, got %.2f mA", cur)
	}
}

func TestPowerLimitKnee(t *testing.T) {
	// 95% of budget sits between the knee and the budget: scaled, but gently.
	buf := white(10)
	p := PowerLimit{BudgetMilliA: 600 / 0.95}
	p.Apply(buf)
	cur := p.Estimate(buf)
	if cur >= 600 || cur < 0.95*600 {
		t.Fatalf("soft knee gave %.2f mA", cur)
	}

	buf = white(10)
	p = PowerLimit{BudgetMilliA: 1000}
	p.Apply(buf)
	if buf[0] != (Color{1, 1, 1}) {
		t.Fatalf("under the knee should be untouched, got %v", buf[0])
	}
}

func TestWhiteCap(t *testing.T) {
	buf := []Color{{1, 1, 1}}
	PowerLimit{WhiteCap: 1.5}.Apply(buf)
	if sum := buf[0].R + buf[0].G + buf[0].B; sum > 1.5001 {
		t.Fatalf("expected sum <= 1.5, got %f", sum)
	}
}

func TestZeroLimitOnlyClamps(t *testing.T) {
	buf := []Color{{1.5, -0.2, 0.5}}
	PowerLimit{}.Apply(buf)
	if buf[0] != (Color{1, 0, 0.5}) {
		t.Fatalf("got %v", buf[0])
	}
}
