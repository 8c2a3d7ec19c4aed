package dto

import "github.com/shopspring/decimal"

type CrearClienteRequest struct {
	Nombre    string  `json:"nombre"    validate:"required,min=2,max=120"`
	Documento *string `json:"documento" validate:"omitempty,min=8,max=11,numeric"`
	Telefono  *string `json:"telefono"`
	Direccion *string `json:"direccion"`
}

type ActualizarClienteRequest struct {
	Nombre    *string `json:"nombre"    validate:"omitempty,min=2,max=120"`
	Telefono  *string `json:"telefono"`
	Direccion *string `json:"direccion"`
}

type ClienteResponse struct {
	ID             string          `json:"id"`
	Nombre         string          `json:"nombre"`
	Documento      *string         `json:"documento"`
	Telefono       *string         `json:"telefono"`
	Direccion      *string         `json:"direccion"`
	SaldoPendiente decimal.Decimal `json:"saldo_pendiente"`
	Activo         bool            `json:"activo"`
}
