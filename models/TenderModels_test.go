package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTenderUpdateRequestBindsDateAndDiscountFields(t *testing.T) {
	body := `{
		"nombre": "Suministro 2024",
		"fecha_presupuesto": "2024-02-15",
		"fecha_presentacion": "2024-03-01",
		"fecha_fin": "2024-12-31",
		"descuento_global": 2.5
	}`

	var req TenderUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	require.NotNil(t, req.FechaPresupuesto)
	require.Equal(t, "2024-02-15", *req.FechaPresupuesto)
	require.NotNil(t, req.FechaFin)
	require.Equal(t, "2024-12-31", *req.FechaFin)
	require.NotNil(t, req.DescuentoGlobal)
	require.Equal(t, 2.5, *req.DescuentoGlobal)
	require.Nil(t, req.PresMaximo)
}

func TestTenderCreateRequestBindsBudgetDateAndDiscount(t *testing.T) {
	body := `{
		"nombre": "Suministro 2024",
		"pais": "España",
		"fecha_presupuesto": "2024-02-15",
		"descuento_global": 1.5
	}`

	var req TenderCreateRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.Equal(t, "2024-02-15", req.FechaPresupuesto)
	require.Equal(t, 1.5, req.DescuentoGlobal)
}

func TestTenderSerializesDateColumns(t *testing.T) {
	presupuesto := "2024-02-15"
	fin := "2024-12-31"
	out, err := json.Marshal(Tender{
		IDLicitacion:     1,
		Nombre:           "Suministro 2024",
		FechaPresupuesto: &presupuesto,
		FechaFin:         &fin,
	})
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &m))
	require.Equal(t, "2024-02-15", m["fecha_presupuesto"])
	require.Equal(t, "2024-12-31", m["fecha_fin"])
	require.NotContains(t, m, "fecha_finalizacion")
}

func TestTenderListResponseCarriesTotal(t *testing.T) {
	out, err := json.Marshal(TenderListResponse{
		Success: true,
		Data:    []Tender{{IDLicitacion: 1}, {IDLicitacion: 2}},
		Total:   2,
	})
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &m))
	require.Equal(t, 2.0, m["total"])
}
