// Package seed provisions the default tenant for single-company installs.
package seed

import (
	"errors"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/lucanori/invoicerr/internal/company/domain"
	"gorm.io/gorm"
)

// EnsureDefaultCompany creates the company referenced by DEFAULT_COMPANY if
// it does not exist yet. Idempotent across restarts.
func EnsureDefaultCompany(conn *gorm.DB, id int64) error {
	if conn == nil {
		return errors.New("seed database handle is required")
	}
	if id == 0 {
		return nil
	}

	var existing companydomain.Company
	err := conn.Where("id = ?", id).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return conn.Create(&companydomain.Company{
		ID:       snowflake.ID(id),
		Name:     "Main Company",
		Email:    "billing@invoicerr.local",
		Currency: "EUR",
	}).Error
}
