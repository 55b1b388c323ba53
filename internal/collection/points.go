package collection

import (
	"encoding/json"
	"sync"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"
)

// PointInput inspection point as submitted by the form. Fields not listed
// here (pest-specific readings) are kept in Extra.
type PointInput struct {
	Numero               FlexNumber     `json:"numero"`
	TipoPlaga            string         `json:"tipo_plaga"`
	TipoDispositivo      string         `json:"tipo_dispositivo,omitempty"`
	Ubicacion            string         `json:"ubicacion,omitempty"`
	Estado               string         `json:"estado"`
	DescripcionActividad string         `json:"descripcion_actividad,omitempty"`
	AccionRealizada      string         `json:"accion_realizada,omitempty"`
	Extra                map[string]any `json:"-"`
}

var pointInputFields = []string{
	"numero", "tipo_plaga", "tipo_dispositivo", "ubicacion", "estado",
	"descripcion_actividad", "accion_realizada", "actividad_detectada",
}

func (p *PointInput) UnmarshalJSON(b []byte) error {
	type plain PointInput
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range pointInputFields {
		delete(all, k)
	}
	if len(all) > 0 {
		v.Extra = all
	}

	*p = PointInput(v)
	return nil
}

// PointInputFromDraft rebuilds the form input of a cached draft point.
func PointInputFromDraft(p domain.DraftPoint) PointInput {
	return PointInput{
		Numero:               Num(float64(p.Numero)),
		TipoPlaga:            p.TipoPlaga,
		TipoDispositivo:      p.TipoDispositivo,
		Ubicacion:            p.Ubicacion,
		Estado:               p.Estado,
		DescripcionActividad: p.DescripcionActividad,
		AccionRealizada:      p.AccionRealizada,
		Extra:                p.Extra,
	}
}

// Points ordered inspection points of one control.
type Points struct {
	notifier

	mu    sync.Mutex
	items []domain.DraftPoint
}

// NewPoints creates an empty collection.
func NewPoints() *Points {
	return &Points{}
}

// Add validates and appends one point. (numero, tipo_plaga) must be unique
// except for crawling insects, where several bait stations share a number.
func (c *Points) Add(in PointInput) error {
	if in.Numero.IsZero() || in.TipoPlaga == "" || in.Estado == "" {
		return apperrors.Validation("Faltan datos obligatorios del punto")
	}

	c.mu.Lock()
	numero, ok := in.Numero.Int()
	if !ok {
		numero = len(c.items) + 1
	}

	if in.TipoPlaga != domain.PlagaRastreros {
		for _, existing := range c.items {
			if existing.Numero == numero && existing.TipoPlaga == in.TipoPlaga {
				c.mu.Unlock()
				return apperrors.Validation("Ya existe un punto #%d para %s. Use otro número o elimine el punto existente.", numero, in.TipoPlaga)
			}
		}
	}

	var extra map[string]any
	if len(in.Extra) > 0 {
		extra = make(map[string]any, len(in.Extra))
		for k, v := range in.Extra {
			extra[k] = v
		}
	}

	c.items = append(c.items, domain.DraftPoint{
		Numero:               numero,
		TipoPlaga:            in.TipoPlaga,
		TipoDispositivo:      in.TipoDispositivo,
		Ubicacion:            in.Ubicacion,
		Estado:               in.Estado,
		ActividadDetectada:   in.Estado == domain.PuntoConActividad,
		DescripcionActividad: in.DescripcionActividad,
		AccionRealizada:      in.AccionRealizada,
		Extra:                extra,
	})
	c.mu.Unlock()

	c.notify()
	return nil
}

// Remove deletes the point at index i; out of range is a no-op.
func (c *Points) Remove(i int) {
	c.mu.Lock()
	if i < 0 || i >= len(c.items) {
		c.mu.Unlock()
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.mu.Unlock()

	c.notify()
}

// All returns a snapshot in insertion order.
func (c *Points) All() []domain.DraftPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.DraftPoint{}, c.items...)
}

func (c *Points) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Points) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()

	c.notify()
}

// PrepareForPersistence projects the points onto control_puntos rows of controlID.
func (c *Points) PrepareForPersistence(controlID string) []domain.ControlPoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]domain.ControlPoint, 0, len(c.items))
	for _, p := range c.items {
		rows = append(rows, domain.ControlPoint{
			ControlID:            controlID,
			NumeroPunto:          p.Numero,
			TipoPlaga:            p.TipoPlaga,
			TipoDispositivo:      p.TipoDispositivo,
			Ubicacion:            p.Ubicacion,
			Estado:               p.Estado,
			ActividadDetectada:   p.ActividadDetectada,
			DescripcionActividad: p.DescripcionActividad,
			AccionRealizada:      p.AccionRealizada,
		})
	}
	return rows
}
