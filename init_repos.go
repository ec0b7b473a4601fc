// Package main: Repository katmanı başlatma.
//
// initRepositories, tüm repository implementasyonlarını oluşturur.
// Her repository aynı *sql.DB bağlantısını alır ve interface döner.
package main

import (
	"database/sql"

	"github.com/akinalp/pastane/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
// Yeni repository eklendiğinde sadece struct ve initRepositories güncellenir.
type Repositories struct {
	Admin    repository.AdminRepository
	Session  repository.SessionRepository
	Category repository.CategoryRepository
	Product  repository.ProductRepository
	Customer repository.CustomerRepository
	Order    repository.OrderRepository
	Contact  repository.ContactRepository
	Report   repository.ReportRepository
}

func initRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Admin:    repository.NewSQLiteAdminRepo(db),
		Session:  repository.NewSQLiteSessionRepo(db),
		Category: repository.NewSQLiteCategoryRepo(db),
		Product:  repository.NewSQLiteProductRepo(db),
		Customer: repository.NewSQLiteCustomerRepo(db),
		Order:    repository.NewSQLiteOrderRepo(db),
		Contact:  repository.NewSQLiteContactRepo(db),
		Report:   repository.NewSQLiteReportRepo(db),
	}
}
