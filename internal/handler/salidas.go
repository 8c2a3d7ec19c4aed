package handler

import (
	"net/http"

	"gestormoto/internal/dto"
	"gestormoto/internal/service"

	"github.com/gin-gonic/gin"
)

type SalidasHandler struct{ svc service.SalidaService }

func NewSalidasHandler(svc service.SalidaService) *SalidasHandler { return &SalidasHandler{svc: svc} }

// Registrar handles POST /v1/salidas. tipo=cotizacion records a quote without
// touching any lot; tipo=salida consumes stock like a sale.
func (h *SalidasHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarSalidaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarSalida(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SalidasHandler) AprobarCotizacion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.AprobarCotizacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AprobarCotizacion(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SalidasHandler) Obtener(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerSalida(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalidasHandler) Listar(c *gin.Context) {
	var filter dto.SalidaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarSalidas(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
