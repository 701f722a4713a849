package handlers

import (
	"github.com/dhanbyte/shopwave-sub001/internal/service"
)

type Handler struct {
	Ledger *service.Ledger
	Admin  *service.AdminService
}

func NewHandler(ledger *service.Ledger, admin *service.AdminService) *Handler {
	return &Handler{Ledger: ledger, Admin: admin}
}
