package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/lucanori/invoicerr/internal/client/domain"
	"github.com/lucanori/invoicerr/pkg/db/pagination"
)

type clientRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Currency string `json:"currency"`
}

func (s *Server) CreateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.clientSvc.Create(c.Request.Context(), clientdomain.CreateClientRequest{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Address:  strings.TrimSpace(req.Address),
		Currency: strings.TrimSpace(req.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.clientSvc.Update(c.Request.Context(), clientdomain.UpdateClientRequest{
		ID:       strings.TrimSpace(c.Param("id")),
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Address:  strings.TrimSpace(req.Address),
		Currency: strings.TrimSpace(req.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteClient(c *gin.Context) {
	err := s.clientSvc.Delete(c.Request.Context(), clientdomain.DeleteClientRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) ListClients(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name  string `form:"name"`
		Email string `form:"email"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.clientSvc.List(c.Request.Context(), clientdomain.ListClientRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Name:      strings.TrimSpace(query.Name),
		Email:     strings.TrimSpace(query.Email),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetClientByID(c *gin.Context) {
	resp, err := s.clientSvc.GetByID(c.Request.Context(), clientdomain.GetClientRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
