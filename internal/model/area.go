package model

// Area 课程领域，固定四个
type Area string

const (
	AreaQuantity      Area = "cantidad"
	AreaRegularity    Area = "regularidad_equivalencia_cambio"
	AreaShapeMovement Area = "forma_movimiento_localizacion"
	AreaDataChance    Area = "gestion_datos_incertidumbre"
)

var Areas = []Area{AreaQuantity, AreaRegularity, AreaShapeMovement, AreaDataChance}

// legacyAreaColumns maps the per-area baseline columns of the old student table onto areas.
var legacyAreaColumns = map[string]Area{
	"operaciones_basicas": AreaQuantity,
	"ecuaciones":          AreaRegularity,
	"funciones":           AreaShapeMovement,
	"geometria":           AreaDataChance,
}

func (a Area) Valid() bool {
	for _, known := range Areas {
		if a == known {
			return true
		}
	}
	return false
}

// ParseArea accepts an area code or one of the legacy baseline column names.
func ParseArea(s string) (Area, bool) {
	if a := Area(s); a.Valid() {
		return a, true
	}
	a, ok := legacyAreaColumns[s]
	return a, ok
}
