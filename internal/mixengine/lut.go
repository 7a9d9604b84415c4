package mixengine

import "math"

// tanhLUTSize/tanhLUTMin/tanhLUTMax and the table itself are adapted from
// the engine's original oscillator lookup tables: the mixer only needs
// the saturating curve, not the sine table an oscillator would use.
const (
	tanhLUTSize = 4096
	tanhLUTMin  = float32(-4.0)
	tanhLUTMax  = float32(4.0)
)

const tanhLUTScale = float32(tanhLUTSize-1) / (tanhLUTMax - tanhLUTMin)

var tanhLUT [tanhLUTSize]float32

func init() {
	for i := 0; i < tanhLUTSize; i++ {
		x := float64(tanhLUTMin) + float64(i)*float64(tanhLUTMax-tanhLUTMin)/float64(tanhLUTSize-1)
		tanhLUT[i] = float32(math.Tanh(x))
	}
}

// fastTanh returns tanh(x) via table lookup with linear interpolation,
// clamped to ±1 outside [tanhLUTMin, tanhLUTMax] where tanh has already
// saturated. Used as the mix bus's soft limiter: it leaves anything below
// unity essentially untouched (tanh(x) ≈ x near zero) and only rounds off
// the peaks that would otherwise clip when several tracks sum past ±1.
//
//go:nosplit
func fastTanh(x float32) float32 {
	if x <= tanhLUTMin {
		return -1.0
	}
	if x >= tanhLUTMax {
		return 1.0
	}
	indexF := (x - tanhLUTMin) * tanhLUTScale
	index := int(indexF)
	frac := indexF - float32(index)
	if index >= tanhLUTSize-1 {
		return tanhLUT[tanhLUTSize-1]
	}
	return tanhLUT[index] + frac*(tanhLUT[index+1]-tanhLUT[index])
}
