package grid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"backend/models"
)

func TestClientCreatePartidaWireFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tenders/7/partidas", r.URL.Path)
		require.Equal(t, "session-token", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "General", body["lote"])
		require.Equal(t, float64(55), body["id_producto"])
		require.Equal(t, 100.0, body["unidades"])
		require.Equal(t, 12.5, body["pvu"])
		require.Equal(t, 9.8, body["pcu"])
		require.Contains(t, body, "pmaxu")
		require.Equal(t, true, body["activo"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id_detalle": 310, "id_licitacion": 7, "lote": "General",
			"id_producto": 55, "unidades": 100, "pvu": 12.5, "pcu": 9.8, "pmaxu": 0, "activo": true,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "session-token")
	id, units, pvu, pcu, pmaxu := 55, 100.0, 12.5, 9.8, 0.0
	activo := true
	row, err := client.CreatePartida(context.Background(), 7, models.PartidaRequest{
		Lote: "General", IDProducto: &id, Unidades: &units, PVU: &pvu, PCU: &pcu, PMaxU: &pmaxu, Activo: &activo,
	})
	require.NoError(t, err)
	require.Equal(t, 310, row.IDDetalle)
}

func TestClientUpdateAndDeletePaths(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id_detalle": 310})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")

	_, err := client.UpdatePartida(context.Background(), 7, 310, models.PartidaRequest{Lote: "General"})
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "/tenders/7/partidas/310", gotPath)

	err = client.DeletePartida(context.Background(), 7, 310)
	require.NoError(t, err)
	require.Equal(t, http.MethodDelete, gotMethod)
	require.Equal(t, "/tenders/7/partidas/310", gotPath)
}

func TestClientDeviationCheckQueryAndDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analytics/price-deviation-check", r.URL.Path)
		require.Equal(t, "Cemento gris", r.URL.Query().Get("material_name"))
		require.Equal(t, "12.5", r.URL.Query().Get("current_price"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"is_deviated": true, "deviation_percentage": 15.3, "historical_avg": 11.2,
			"recommendation": "El precio está un 15.3% por encima de la media histórica (11.20 €).",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	res, err := client.CheckPriceDeviation(context.Background(), "Cemento gris", 12.5)
	require.NoError(t, err)
	require.True(t, res.IsDeviated)
	require.Equal(t, 15.3, res.DeviationPercentage)
	require.Equal(t, 11.2, res.HistoricalAvg)
	require.NotEmpty(t, res.Recommendation)
}

func TestClientSearchProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/productos/search", r.URL.Path)
		require.Equal(t, "cem", r.URL.Query().Get("q"))
		require.Equal(t, "30", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": 55, "nombre": "Cemento gris", "nombre_proveedor": "Cementos SA"},
			{"id": 56, "nombre": "Cemento blanco"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	res, err := client.SearchProducts(context.Background(), "cem", 30)
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, 55, res[0].ID)
	require.Equal(t, "Cemento gris", res[0].Nombre)
	require.Equal(t, "Cementos SA", res[0].NombreProveedor)
}

func TestClientNonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"Tender is locked for edition"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	err := client.DeletePartida(context.Background(), 7, 310)
	require.Error(t, err)
	require.Contains(t, err.Error(), "409")
	require.Contains(t, err.Error(), "locked")
}
