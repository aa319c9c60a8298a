package model

type Steering string

const (
	SteerEasier Steering = "easier"
	SteerSame   Steering = "same"
	SteerHarder Steering = "harder"
)

// ParseSteering also accepts the legacy client values mas_facil / igual / mas_dificil.
func ParseSteering(s string) (Steering, bool) {
	switch s {
	case "easier", "mas_facil":
		return SteerEasier, true
	case "same", "igual":
		return SteerSame, true
	case "harder", "mas_dificil":
		return SteerHarder, true
	}
	return "", false
}
