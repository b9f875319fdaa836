package loan

import "time"

const day = 24 * time.Hour

// LateDays conta os dias inteiros de atraso entre o prazo e o instante at.
// A diferença é truncada: 23h de atraso contam 0 dias, 25h contam 1.
func LateDays(expected *time.Time, at time.Time) int {
	if expected == nil || !at.After(*expected) {
		return 0
	}
	return int(at.Sub(*expected) / day)
}

// Overdue informa se o prazo já passou no instante at
func Overdue(expected *time.Time, at time.Time) bool {
	return expected != nil && at.After(*expected)
}

// EffectiveRate devolve a taxa diária do equipamento ou a taxa padrão quando não configurada
func EffectiveRate(rate *float64, defaultRate float64) float64 {
	if rate == nil {
		return defaultRate
	}
	return *rate
}

// Fine calcula a multa para os dias de atraso
func Fine(lateDays int, rate *float64, defaultRate float64) float64 {
	if lateDays <= 0 {
		return 0
	}
	return float64(lateDays) * EffectiveRate(rate, defaultRate)
}
