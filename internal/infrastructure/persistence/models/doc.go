// Package models contains the GORM persistence models. Each model converts to
// and from its domain type with ToDomain and FromDomain; repositories never
// hand models to callers.
package models
