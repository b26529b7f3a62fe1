package model

import "math"

// pnjlim limits the step of a pn junction voltage between Newton iterations
// so the exponential cannot overshoot. vt is the emission scaled thermal
// voltage and vcrit the voltage of maximum curvature.
func pnjlim(vnew, vold, vt, vcrit float64) (float64, bool) {
	if vnew > vcrit && math.Abs(vnew-vold) > 2*vt {
		if vold > 0 {
			arg := 1 + (vnew-vold)/vt
			if arg > 0 {
				return vold + vt*math.Log(arg), true
			}
			return vcrit, true
		}
		return vt * math.Log(vnew/vt), true
	}
	return vnew, false
}

func criticalVoltage(is, vt float64) float64 {
	return vt * math.Log(vt/(math.Sqrt2*is))
}

// junction returns the diode current and its slope at v.
func junction(v, is, vt float64) (float64, float64) {
	e := math.Exp(v / vt)
	return is * (e - 1), is * e / vt
}
