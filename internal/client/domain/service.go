package domain

import (
	"context"
	"errors"

	"github.com/lucanori/invoicerr/pkg/db/pagination"
)

type ListClientRequest struct {
	PageToken string
	PageSize  int
	Name      string
	Email     string
}

type ListClientFilter struct {
	Name  string
	Email string
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type CreateClientRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Currency string `json:"currency"`
}

type UpdateClientRequest struct {
	ID       string `json:"-"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Currency string `json:"currency"`
}

type GetClientRequest struct {
	ID string
}

type DeleteClientRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateClientRequest) (Client, error)
	Update(context.Context, UpdateClientRequest) (Client, error)
	Delete(context.Context, DeleteClientRequest) error
	List(context.Context, ListClientRequest) (ListClientResponse, error)
	GetByID(context.Context, GetClientRequest) (Client, error)
}

var (
	ErrInvalidCompany = errors.New("invalid_company")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
)
