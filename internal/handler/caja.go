package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"gestormoto/internal/dto"
	"gestormoto/internal/service"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Resumen handles GET /v1/caja/resumen?fecha=YYYY-MM-DD (default today).
func (h *CajaHandler) Resumen(c *gin.Context) {
	resp, err := h.svc.Resumen(c.Request.Context(), c.Query("fecha"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajaHandler) Estado(c *gin.Context) {
	resp, err := h.svc.Estado(c.Request.Context(), c.Query("fecha"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CrearRetiro registers a cash withdrawal (administrador only).
func (h *CajaHandler) CrearRetiro(c *gin.Context) {
	var req dto.CrearRetiroRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearRetiro(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CajaHandler) ListarRetiros(c *gin.Context) {
	resp, err := h.svc.ListarRetiros(c.Request.Context(), c.Query("fecha"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Cerrar freezes the totals of a business date. A date closes once; a second
// attempt answers 409 and leaves the first closure untouched.
func (h *CajaHandler) Cerrar(c *gin.Context) {
	var req dto.CerrarCajaRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), actor(c), req.Fecha)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CajaHandler) ObtenerCierre(c *gin.Context) {
	resp, err := h.svc.ObtenerCierre(c.Request.Context(), c.Param("fecha"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajaHandler) ListarCierres(c *gin.Context) {
	var filter dto.CierreFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarCierres(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

var contentTypes = map[string]string{
	service.FormatoPDF:  "application/pdf",
	service.FormatoXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Exportar handles GET /v1/caja/cierres/:fecha/export?formato=pdf|xlsx.
// The file is rendered into memory first so a failure still gets a JSON error.
func (h *CajaHandler) Exportar(c *gin.Context) {
	fecha := c.Param("fecha")
	formato := c.DefaultQuery("formato", service.FormatoPDF)
	var buf bytes.Buffer
	if err := h.svc.ExportarCierre(c.Request.Context(), fecha, formato, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="cierre_%s.%s"`, fecha, formato))
	c.Data(http.StatusOK, contentTypes[formato], buf.Bytes())
}
