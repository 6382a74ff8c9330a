//go:build !wasm
// +build !wasm

// Package gae provides Google Cloud Datastore implementations of the oneblog
// store interfaces, with multi-tenancy through Datastore namespaces.
//
// # Datastore Kinds
//
//   - User: accounts, keyed by user id
//   - UserEmail: email reservations, keyed by email, written in the same
//     transaction as the User so two signups cannot claim one address
//   - Blog: posts, keyed by blog id
//   - OTC: the outstanding reset code, keyed by email
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	userStore := gae.NewUserStore(client, "")  // default namespace
//	blogStore := gae.NewBlogStore(client, "")
//	otcStore := gae.NewOTCStore(client, "")
package gae
