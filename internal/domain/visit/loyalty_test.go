package visit

import "testing"

func TestIsFree(t *testing.T) {
	rule := LoyaltyRule{Interval: 10, Actif: true}

	for numero := 1; numero <= 9; numero++ {
		if rule.IsFree(numero) {
			t.Errorf("passage %d marqué gratuit", numero)
		}
	}
	for _, numero := range []int{10, 20, 30, 100} {
		if !rule.IsFree(numero) {
			t.Errorf("passage %d devrait être gratuit", numero)
		}
	}
	for _, numero := range []int{11, 19, 21, 99} {
		if rule.IsFree(numero) {
			t.Errorf("passage %d marqué gratuit", numero)
		}
	}
}

func TestIsFreeDisabled(t *testing.T) {
	if (LoyaltyRule{Interval: 10, Actif: false}).IsFree(10) {
		t.Error("règle inactive mais passage gratuit")
	}
	if (LoyaltyRule{Interval: 0, Actif: true}).IsFree(10) {
		t.Error("intervalle nul mais passage gratuit")
	}
}

func TestEligible(t *testing.T) {
	rule := LoyaltyRule{Interval: 10, Actif: true}

	tests := []struct {
		nombrePassages int
		prochain       int
		estGratuit     bool
		restants       int
	}{
		{0, 1, false, 9},
		{4, 5, false, 5},
		{8, 9, false, 1},
		{9, 10, true, 0},
		{10, 11, false, 9},
		{19, 20, true, 0},
	}

	for _, tt := range tests {
		el := rule.Eligible(tt.nombrePassages)
		if el.ProchainNumero != tt.prochain {
			t.Errorf("Eligible(%d).ProchainNumero = %d, want %d",
				tt.nombrePassages, el.ProchainNumero, tt.prochain)
		}
		if el.EstGratuit != tt.estGratuit {
			t.Errorf("Eligible(%d).EstGratuit = %v, want %v",
				tt.nombrePassages, el.EstGratuit, tt.estGratuit)
		}
		if el.PassagesRestants != tt.restants {
			t.Errorf("Eligible(%d).PassagesRestants = %d, want %d",
				tt.nombrePassages, el.PassagesRestants, tt.restants)
		}
	}
}
