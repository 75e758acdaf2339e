package venue

import (
	"math"

	"github.com/shopspring/decimal"
)

// FloatToPrice - Округление цены к ближайшему кратному шага цены step.
// Прямое деление float ловит двоичный шум, поэтому итоговое значение собирается через decimal
func FloatToPrice(number float64, step float64) float64 {
	if step <= 0 {
		return number
	}
	k := math.Round(number / step)
	price, _ := decimal.NewFromFloat(step).Mul(decimal.NewFromFloat(k)).Float64()
	return price
}
