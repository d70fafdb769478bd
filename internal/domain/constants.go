// SPDX-License-Identifier: Apache-2.0

package domain

type Area string
type CarModel string

const (
	AreaLinhaOK         Area = "Linha OK"
	AreaLinhaDeTeste    Area = "Linha de Teste"
	AreaTesteDeEstrada  Area = "Teste de Estrada"
	AreaTesteDeChuva    Area = "Teste de Chuva"
	AreaInspecaoOffline Area = "Inspeção OffLine"

	// AreaAll is the filter sentinel for "no area restriction"; it is never a
	// valid record value.
	AreaAll Area = "ALL"
)

const (
	ModelEQE CarModel = "EQE"
	ModelSA2 CarModel = "SA2"
	ModelHA2 CarModel = "HA2"
)

// Areas is the closed, complete set of work areas. Per-area breakdowns
// partition records over exactly this list.
var Areas = []Area{
	AreaLinhaOK,
	AreaLinhaDeTeste,
	AreaTesteDeEstrada,
	AreaTesteDeChuva,
	AreaInspecaoOffline,
}

// Models is the closed set of vehicle model codes.
var Models = []CarModel{ModelEQE, ModelSA2, ModelHA2}

// Acting-section options. Only two areas carry sections; casing preserved as
// entered on the shop floor.
var (
	SectionsOffline = []string{
		"Resinspeção Linha Ok",
		"reinspeção Linha de Teste/Chassis",
		"reinspeção teste de estrada",
		"reinspeção teste de chuva",
		"reinspeção recebimento",
		"reinspeção CL4/Global",
	}

	SectionsTesteEstrada = []string{
		"Teste de Estrada",
		"Chassis",
	}
)

// SectionsFor returns the acting-section options for an area, or nil when the
// area has no sections.
func SectionsFor(area Area) []string {
	switch area {
	case AreaInspecaoOffline:
		return SectionsOffline
	case AreaTesteDeEstrada:
		return SectionsTesteEstrada
	default:
		return nil
	}
}

// HasSections reports whether records in the area carry an acting section.
func HasSections(area Area) bool {
	return area == AreaInspecaoOffline || area == AreaTesteDeEstrada
}

// ValidArea reports whether a is one of the five work areas (AreaAll excluded).
func ValidArea(a Area) bool {
	for _, area := range Areas {
		if a == area {
			return true
		}
	}
	return false
}

func ValidModel(m CarModel) bool {
	for _, model := range Models {
		if m == model {
			return true
		}
	}
	return false
}

// PresetSlot is one of the fixed shift inspection intervals operators can
// pick instead of typing custom times.
type PresetSlot struct {
	Start string
	End   string
}

var PresetSlots = []PresetSlot{
	{"08:00", "09:00"},
	{"09:00", "09:50"},
	{"10:00", "11:00"},
	{"11:00", "11:30"},
	{"12:30", "13:00"},
	{"13:00", "14:00"},
	{"14:00", "14:50"},
	{"15:00", "16:00"},
	{"16:00", "17:00"},
	{"17:00", "17:30"},
}

// DowntimeReasons is the fixed reason list; the empty string is a legal value.
var DowntimeReasons = []string{
	"",
	"Parada não programada",
	"Falta de peça",
	"Manutenção equipamento",
	"Problema elétrico",
	"Problema mecânico",
	"Falta de mão de obra",
	"Parada programada",
	"DDS",
	"Falta de energia",
	"Aguardando carro",
	"Problema de qualidade",
}
