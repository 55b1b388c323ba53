package collection

import "github.com/leonelpereyra44/pestcontrol/internal/domain"

var pestLabels = map[string]string{
	domain.PlagaRoedores:  "Roedores",
	domain.PlagaVoladores: "Voladores",
	domain.PlagaRastreros: "Rastreros",
}

var statusLabels = map[string]string{
	domain.PuntoOK:           "OK",
	domain.PuntoConActividad: "Con Actividad",
	domain.PuntoFaltante:     "Faltante",
	domain.PuntoReemplazado:  "Reemplazado",
}

// FormatPestType display label of a pest type; unknown values are returned as is.
func FormatPestType(tipo string) string {
	if l, ok := pestLabels[tipo]; ok {
		return l
	}
	return tipo
}

// FormatStatus display label of a point status; unknown values are returned as is.
func FormatStatus(estado string) string {
	if l, ok := statusLabels[estado]; ok {
		return l
	}
	return estado
}
