package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"backend/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestValidateStatusChange(t *testing.T) {
	tests := []struct {
		name        string
		req         models.TenderStatusChangeRequest
		budgetTotal float64
		wantErr     string
	}{
		{
			name:    "descartar sin motivo",
			req:     models.TenderStatusChangeRequest{NuevoEstadoID: models.EstadoDescartada},
			wantErr: "motivo_descarte es obligatorio para descartar una licitación",
		},
		{
			name: "descartar con motivo",
			req: models.TenderStatusChangeRequest{
				NuevoEstadoID:  models.EstadoDescartada,
				MotivoDescarte: "fuera de alcance",
			},
		},
		{
			name:    "descartar con motivo en blanco",
			req:     models.TenderStatusChangeRequest{NuevoEstadoID: models.EstadoDescartada, MotivoDescarte: "   "},
			wantErr: "motivo_descarte es obligatorio para descartar una licitación",
		},
		{
			name:    "presentar sin partidas",
			req:     models.TenderStatusChangeRequest{NuevoEstadoID: models.EstadoPresentada},
			wantErr: "no se puede presentar una licitación sin partidas presupuestadas",
		},
		{
			name:        "presentar con presupuesto",
			req:         models.TenderStatusChangeRequest{NuevoEstadoID: models.EstadoPresentada},
			budgetTotal: 12500.50,
		},
		{
			name:    "adjudicar sin importe",
			req:     models.TenderStatusChangeRequest{NuevoEstadoID: models.EstadoAdjudicada},
			wantErr: "importe_adjudicacion debe ser mayor que 0 para adjudicar",
		},
		{
			name: "adjudicar con importe cero",
			req: models.TenderStatusChangeRequest{
				NuevoEstadoID:       models.EstadoAdjudicada,
				ImporteAdjudicacion: floatPtr(0),
			},
			wantErr: "importe_adjudicacion debe ser mayor que 0 para adjudicar",
		},
		{
			name: "adjudicar con importe",
			req: models.TenderStatusChangeRequest{
				NuevoEstadoID:       models.EstadoAdjudicada,
				ImporteAdjudicacion: floatPtr(98000),
			},
		},
		{
			name: "no adjudicada sin motivo",
			req: models.TenderStatusChangeRequest{
				NuevoEstadoID:     models.EstadoNoAdjudicada,
				CompetidorGanador: "Competidor SL",
			},
			wantErr: "motivo_perdida es obligatorio cuando la licitación no se adjudica",
		},
		{
			name: "no adjudicada sin competidor",
			req: models.TenderStatusChangeRequest{
				NuevoEstadoID: models.EstadoNoAdjudicada,
				MotivoPerdida: "precio",
			},
			wantErr: "competidor_ganador es obligatorio cuando la licitación no se adjudica",
		},
		{
			name: "no adjudicada completa",
			req: models.TenderStatusChangeRequest{
				NuevoEstadoID:     models.EstadoNoAdjudicada,
				MotivoPerdida:     "precio",
				CompetidorGanador: "Competidor SL",
			},
		},
		{
			name: "volver a analisis",
			req:  models.TenderStatusChangeRequest{NuevoEstadoID: models.EstadoEnAnalisis},
		},
		{
			name: "terminar",
			req:  models.TenderStatusChangeRequest{NuevoEstadoID: models.EstadoTerminada},
		},
		{
			name:    "estado desconocido",
			req:     models.TenderStatusChangeRequest{NuevoEstadoID: 99},
			wantErr: "estado 99 no reconocido",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validateStatusChange(tt.req, tt.budgetTotal)
			require.Equal(t, tt.wantErr, got)
		})
	}
}

func TestEstadoBloqueaEdicion(t *testing.T) {
	require.False(t, models.EstadoBloqueaEdicion(models.EstadoEnAnalisis))
	require.False(t, models.EstadoBloqueaEdicion(models.EstadoDescartada))
	require.True(t, models.EstadoBloqueaEdicion(models.EstadoPresentada))
	require.True(t, models.EstadoBloqueaEdicion(models.EstadoAdjudicada))
	require.True(t, models.EstadoBloqueaEdicion(models.EstadoNoAdjudicada))
	require.True(t, models.EstadoBloqueaEdicion(models.EstadoTerminada))
}

func TestEstadoPermiteEntregas(t *testing.T) {
	require.True(t, models.EstadoPermiteEntregas(models.EstadoAdjudicada))
	require.False(t, models.EstadoPermiteEntregas(models.EstadoPresentada))
	require.False(t, models.EstadoPermiteEntregas(models.EstadoTerminada))
}
