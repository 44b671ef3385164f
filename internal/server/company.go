package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	companydomain "github.com/lucanori/invoicerr/internal/company/domain"
)

type companyRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Currency string `json:"currency"`
}

func (s *Server) CreateCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.companySvc.Create(c.Request.Context(), companydomain.CreateCompanyRequest{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Address:  strings.TrimSpace(req.Address),
		Currency: strings.TrimSpace(req.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.companySvc.Update(c.Request.Context(), companydomain.UpdateCompanyRequest{
		ID:       strings.TrimSpace(c.Param("id")),
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Address:  strings.TrimSpace(req.Address),
		Currency: strings.TrimSpace(req.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCompanyByID(c *gin.Context) {
	resp, err := s.companySvc.GetByID(c.Request.Context(), companydomain.GetCompanyRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCompanies(c *gin.Context) {
	resp, err := s.companySvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
