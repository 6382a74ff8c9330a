//go:build !wasm
// +build !wasm

// Package gorm provides GORM-based implementations of the oneblog store interfaces.
// It supports any database that GORM supports (PostgreSQL, MySQL, SQLite, etc.).
//
// # Database Schema
//
// The package auto-migrates the following tables:
//   - users: accounts, with a unique index on email
//   - blogs: posts, indexed by author_email
//   - otps: one row per email holding the outstanding reset code
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
//	gormstore.AutoMigrate(db)
//	userStore := gormstore.NewUserStore(db)
//	blogStore := gormstore.NewBlogStore(db)
//	otcStore := gormstore.NewOTCStore(db)
package gorm
