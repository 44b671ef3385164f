package domain

import (
	"context"
	"errors"
)

type CreateCompanyRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Currency string `json:"currency"`
}

type UpdateCompanyRequest struct {
	ID       string `json:"-"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Currency string `json:"currency"`
}

type GetCompanyRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateCompanyRequest) (Company, error)
	Update(context.Context, UpdateCompanyRequest) (Company, error)
	GetByID(context.Context, GetCompanyRequest) (Company, error)
	List(context.Context) ([]Company, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
